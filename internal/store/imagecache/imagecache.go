// Package imagecache implements the Image Cache (C3): a filesystem-
// backed, content-addressed-by-path blob store rooted at a configured
// directory, plus the artist-image naming convention from §4.3.
package imagecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Cache is a blob store rooted at Dir.
type Cache struct {
	Dir string
}

// New roots a Cache at dir, creating it if necessary.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagecache: mkdir %q: %w", dir, err)
	}
	return &Cache{Dir: dir}, nil
}

func (c *Cache) abs(relPath string) string {
	return filepath.Join(c.Dir, filepath.FromSlash(relPath))
}

// Store writes bytes to relativePath, creating parent directories.
// Writes to a temp file and renames into place so that a concurrent
// Get never observes a partial write.
func (c *Cache) Store(relativePath string, data []byte) error {
	full := c.abs(relativePath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("imagecache: mkdir: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("imagecache: write: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("imagecache: rename: %w", err)
	}
	return nil
}

// Get reads the blob at relativePath.
func (c *Cache) Get(relativePath string) ([]byte, error) {
	data, err := os.ReadFile(c.abs(relativePath))
	if err != nil {
		return nil, fmt.Errorf("imagecache: read %q: %w", relativePath, err)
	}
	return data, nil
}

// Exists reports whether relativePath is present.
func (c *Cache) Exists(relativePath string) bool {
	_, err := os.Stat(c.abs(relativePath))
	return err == nil
}

// Delete removes the blob at relativePath, ignoring not-exist errors.
func (c *Cache) Delete(relativePath string) error {
	err := os.Remove(c.abs(relativePath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("imagecache: delete %q: %w", relativePath, err)
	}
	return nil
}

// CountProviderFiles counts files matching "<base>.<provider>.*",
// letting a provider skip a redundant download when it already has N
// images cached.
func (c *Cache) CountProviderFiles(base, provider string) int {
	dir := filepath.Dir(c.abs(base))
	name := filepath.Base(base)
	prefix := name + "." + provider + "."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			n++
		}
	}
	return n
}

// Stats reports per-provider file counts across the whole cache tree,
// for /api/cache/stats's image_cache_stats field.
type Stats struct {
	TotalFiles int
	ByProvider map[string]int
}

// Stats walks Dir and groups files by the provider segment of their
// "<base>.<provider>.<index>.<ext>" naming convention; files that
// don't match the convention count toward TotalFiles only.
func (c *Cache) Stats() Stats {
	s := Stats{ByProvider: map[string]int{}}
	_ = filepath.Walk(c.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		s.TotalFiles++
		parts := strings.Split(info.Name(), ".")
		if len(parts) >= 3 {
			s.ByProvider[parts[1]]++
		}
		return nil
	})
	return s
}

// ArtistImagePath builds the relative path for an artist thumbnail or
// banner, per the naming convention in §4.3:
//
//	artists/<sanitised_name>/artist.<provider>.<index>.<ext>
//	artists/<sanitised_name>/banner.<provider>.<index>.<ext>
func ArtistImagePath(kind string, sanitisedName, provider string, index int, ext string) string {
	base := "artist"
	if kind == "banner" {
		base = "banner"
	}
	return fmt.Sprintf("artists/%s/%s.%s.%d.%s", sanitisedName, base, provider, index, ext)
}

// LocalTrackArtPath builds the relative path for art extracted straight
// from a track's own file (embedded tag or folder image), keyed by a
// hash of its MPD-relative path so repeated loads reuse one file:
//
//	tracks/local/<hash>.<ext>
func LocalTrackArtPath(hash, ext string) string {
	return fmt.Sprintf("tracks/local/%s.%s", hash, ext)
}

// UserOverrideWatcher watches a separate "user directory" that is
// consulted first and overrides cached images, per §4.3. Changes are
// reported on Events; callers typically invalidate an in-memory path
// cache (as C8's Artist Store does) on any event.
type UserOverrideWatcher struct {
	watcher *fsnotify.Watcher
	Events  <-chan fsnotify.Event
}

// WatchUserDir starts watching dir (and creates it if missing) for
// artist-image overrides. The caller must call Close when done.
func WatchUserDir(ctx context.Context, dir string) (*UserOverrideWatcher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("imagecache: mkdir user dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("imagecache: new watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("imagecache: watch %q: %w", dir, err)
	}

	events := make(chan fsnotify.Event, 16)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				select {
				case events <- ev:
				default:
					log.Warn().Msg("imagecache: user-dir event dropped, channel full")
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("imagecache: watcher error")
			}
		}
	}()

	return &UserOverrideWatcher{watcher: w, Events: events}, nil
}

// Close stops the watcher.
func (u *UserOverrideWatcher) Close() error {
	return u.watcher.Close()
}

// ResolveArtistImage checks, in order, the user directory then the
// shared cache directory, for a custom image then a cover image, and
// returns the first existing path. Empty string means no image exists
// in either store. This implements the lookup order from §4.3 used by
// C8's get_cached_image (excluding the in-memory path cache, which
// lives in the artiststore package closer to the caller that owns it).
func ResolveArtistImage(userDir, cacheDir *Cache, sanitisedName string) string {
	candidates := []struct {
		c    *Cache
		path string
	}{
		{userDir, fmt.Sprintf("artists/%s/custom.jpg", sanitisedName)},
		{userDir, fmt.Sprintf("artists/%s/cover.jpg", sanitisedName)},
		{cacheDir, fmt.Sprintf("artists/%s/custom.jpg", sanitisedName)},
		{cacheDir, fmt.Sprintf("artists/%s/cover.jpg", sanitisedName)},
	}
	for _, cand := range candidates {
		if cand.c == nil {
			continue
		}
		if cand.c.Exists(cand.path) {
			return filepath.Join(cand.c.Dir, cand.path)
		}
	}
	return ""
}

// SortedGlobBases is a small helper used by thumbnail generation to
// list, in deterministic order, every provider-suffixed file for a
// given base image name.
func (c *Cache) SortedGlobBases(base string) []string {
	dir := filepath.Dir(c.abs(base))
	name := filepath.Base(base)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var matches []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), name+".") {
			matches = append(matches, e.Name())
		}
	}
	sort.Strings(matches)
	return matches
}
