package mpd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
)

// folderArtFilenames are checked, in order, next to a track when it
// carries no embedded picture tag.
var folderArtFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png",
	"folder.jpg", "folder.jpeg", "folder.png",
	"album.jpg", "albumart.jpg", "front.jpg",
}

// LocalCoverArt resolves art for the track at relPath (an MPD-relative
// path, e.g. attrs["file"]) rooted at musicDir: an embedded picture tag
// takes priority, falling back to a same-directory folder-art file.
// Returns a nil slice with no error when nothing is found; this is a
// local disk lookup only, never a network fetch.
func LocalCoverArt(musicDir, relPath string) ([]byte, string, error) {
	if musicDir == "" || relPath == "" {
		return nil, "", nil
	}
	absPath := filepath.Join(musicDir, filepath.FromSlash(relPath))

	if data, mimeType, err := embeddedCoverArt(absPath); err != nil {
		return nil, "", err
	} else if data != nil {
		return data, mimeType, nil
	}

	dir := filepath.Dir(absPath)
	for _, name := range folderArtFilenames {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, mimeTypeForExt(name), nil
		}
	}
	return nil, "", nil
}

func embeddedCoverArt(path string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("mpd: open %q: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// No readable tag header; not an error worth surfacing, just
		// no embedded art to offer.
		return nil, "", nil
	}
	pic := m.Picture()
	if pic == nil {
		return nil, "", nil
	}
	return pic.Data, pic.MIMEType, nil
}

func mimeTypeForExt(name string) string {
	switch filepath.Ext(name) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
