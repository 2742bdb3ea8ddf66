// Package artiststore implements the Artist Store (C8): local-disk
// artist image caching backed by the cover-art manager, plus the
// background "update every artist's metadata" pipeline.
package artiststore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/artist"
	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/httpfetch"
	"github.com/larsgrootkarzijn/audiocontrold/internal/jobs"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/coverart"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/providers"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/attributecache"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/imagecache"
)

// ErrDownloadInProgress is returned to a second caller requesting the
// same artist's image while the first caller's download is still
// running. The store does not make the second caller wait.
var ErrDownloadInProgress = fmt.Errorf("artiststore: download already in progress")

const pathCacheTTL = 5 * time.Minute

type pathCacheEntry struct {
	path     string
	cachedAt time.Time
}

// Store resolves and maintains local-disk images for artists.
type Store struct {
	userDir  *imagecache.Cache
	cacheDir *imagecache.Cache
	manager  *coverart.Manager
	fetcher  *httpfetch.Fetcher
	attrs    *attributecache.Cache

	mu        sync.Mutex
	pathCache map[string]pathCacheEntry
	inFlight  map[string]bool
}

// New wires an artist store over a user override cache, a shared
// cache directory, the cover-art manager, an HTTP fetcher for
// downloading the chosen image, and the attribute cache for storing
// per-artist enrichment metadata.
func New(userDir, cacheDir *imagecache.Cache, manager *coverart.Manager, fetcher *httpfetch.Fetcher, attrs *attributecache.Cache) *Store {
	return &Store{
		userDir:   userDir,
		cacheDir:  cacheDir,
		manager:   manager,
		fetcher:   fetcher,
		attrs:     attrs,
		pathCache: make(map[string]pathCacheEntry),
		inFlight:  make(map[string]bool),
	}
}

// InvalidatePathCache drops any cached lookup for name, forcing the
// next GetCachedImage call to re-check disk. Call this on a
// UserOverrideWatcher event.
func (s *Store) InvalidatePathCache(name string) {
	s.mu.Lock()
	delete(s.pathCache, attributecache.SanitiseKeyPart(name))
	s.mu.Unlock()
}

// GetCachedImage returns a path to an existing image for name, if any,
// per the lookup order in §4.8: live in-memory path cache, user
// directory (custom, cover), shared cache directory (custom, cover).
// Returns "" if none exists (the caller should then drive a download
// through EnsureImage).
func (s *Store) GetCachedImage(name string) string {
	key := attributecache.SanitiseKeyPart(name)

	s.mu.Lock()
	if entry, ok := s.pathCache[key]; ok && time.Since(entry.cachedAt) < pathCacheTTL {
		s.mu.Unlock()
		return entry.path
	}
	s.mu.Unlock()

	path := imagecache.ResolveArtistImage(s.userDir, s.cacheDir, key)

	s.mu.Lock()
	s.pathCache[key] = pathCacheEntry{path: path, cachedAt: time.Now()}
	s.mu.Unlock()

	return path
}

// EnsureImage returns an existing cached image path for name if one is
// present, otherwise fans the request out through the cover-art
// manager, downloads the highest-graded result, and stores it under
// "cover" in the shared cache directory. Concurrent calls for the same
// artist do not queue: the second caller gets ErrDownloadInProgress
// immediately.
func (s *Store) EnsureImage(ctx context.Context, name string) (string, error) {
	if path := s.GetCachedImage(name); path != "" {
		return path, nil
	}

	key := attributecache.SanitiseKeyPart(name)

	s.mu.Lock()
	if s.inFlight[key] {
		s.mu.Unlock()
		return "", ErrDownloadInProgress
	}
	s.inFlight[key] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	refs := s.manager.FetchCover(ctx, providers.CoverHint{Artist: name})
	best, ok := coverart.Best(refs)
	if !ok {
		return "", nil
	}

	data, _, err := s.fetcher.GetBinary(best.URL)
	if err != nil {
		return "", fmt.Errorf("artiststore: download %q: %w", best.URL, err)
	}

	relPath := imagecache.ArtistImagePath("artist", key, "cover", 0, "jpg")
	if err := s.cacheDir.Store(relPath, data); err != nil {
		return "", fmt.Errorf("artiststore: store: %w", err)
	}

	path := s.cacheDir.Dir + "/" + relPath
	s.mu.Lock()
	s.pathCache[key] = pathCacheEntry{path: path, cachedAt: time.Now()}
	s.mu.Unlock()

	return path, nil
}

// UpdateArtistWithCoverArt enriches a.Enrichment with a cache://
// reference if an image exists for a's name.
func (s *Store) UpdateArtistWithCoverArt(a *artist.Artist) {
	path := s.GetCachedImage(a.Name)
	if path == "" {
		return
	}
	a.SetCoverArtRef("cache://" + path)
}

func enrichmentCacheKey(name string) string {
	return "artist_enrichment::" + attributecache.SanitiseKeyPart(name)
}

// UpdateDataForArtist runs the full per-artist pipeline: identify mbid
// via the cover-art manager, gather enrichment from each provider's
// identify call, and ensure a local image exists. The resolved MBIDs
// are cached through C1 so a repeat run against an unchanged library
// skips the provider fan-out entirely.
func (s *Store) UpdateDataForArtist(ctx context.Context, a *artist.Artist) error {
	var cachedIDs []string
	if s.attrs.Get(enrichmentCacheKey(a.Name), &cachedIDs) {
		a.SetMBIDs(cachedIDs)
	} else {
		ids, _ := s.manager.IdentifyArtist(ctx, a.Name)
		if len(ids) > 0 {
			a.SetMBIDs(ids)
			_ = s.attrs.Set(enrichmentCacheKey(a.Name), ids)
		}
	}

	if _, err := s.EnsureImage(ctx, a.Name); err != nil && err != ErrDownloadInProgress {
		return err
	}
	s.UpdateArtistWithCoverArt(a)
	return nil
}

// UpdateLibraryArtistsMetadataInBackground iterates allArtists one at
// a time on the calling goroutine (intended to be started as its own
// goroutine by the caller), reporting progress through tracker and
// respecting ctx cancellation between artists (cooperative stop).
func (s *Store) UpdateLibraryArtistsMetadataInBackground(ctx context.Context, tracker *jobs.Tracker, allArtists []*artist.Artist) {
	job := tracker.Start("update_library_artists_metadata", len(allArtists))
	defer tracker.Finish(job.ID)

	for i, a := range allArtists {
		select {
		case <-ctx.Done():
			log.Info().Msg("artiststore: library metadata update cancelled")
			return
		default:
		}

		if err := s.UpdateDataForArtist(ctx, a); err != nil {
			log.Warn().Err(err).Str("artist", a.Name).Msg("artiststore: update failed")
		}
		tracker.Progress(job.ID, i+1)
	}
}
