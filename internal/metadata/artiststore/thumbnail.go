package artiststore

import (
	"fmt"
	"image"
	_ "image/gif" // GIF decoder
	"image/jpeg"
	_ "image/png" // PNG decoder
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

// ThumbnailSize is one of the standard artist-image sizes requested by
// API callers (e.g. a list view vs a detail view).
type ThumbnailSize int

const (
	ThumbSmall  ThumbnailSize = 150
	ThumbMedium ThumbnailSize = 300
	ThumbLarge  ThumbnailSize = 500
)

// Thumbnail returns the path to a cached sourcePath resized to fit
// within size (preserving aspect ratio), generating it on first
// request. Thumbnails live alongside the cache directory under
// "thumbs/", keyed by the sanitised artist name and size.
func (s *Store) Thumbnail(sourcePath, key string, size ThumbnailSize) (string, error) {
	thumbDir := filepath.Join(s.cacheDir.Dir, "thumbs")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return "", fmt.Errorf("artiststore: thumbnail dir: %w", err)
	}

	thumbPath := filepath.Join(thumbDir, fmt.Sprintf("%s_%d.jpg", key, size))
	if _, err := os.Stat(thumbPath); err == nil {
		return thumbPath, nil
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("artiststore: open source: %w", err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("artiststore: decode source: %w", err)
	}

	thumb := resize(img, int(size))

	out, err := os.Create(thumbPath)
	if err != nil {
		return "", fmt.Errorf("artiststore: create thumbnail: %w", err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("artiststore: encode thumbnail: %w", err)
	}
	return thumbPath, nil
}

// resize scales src to fit within maxSize on its longest edge.
func resize(src image.Image, maxSize int) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	var newW, newH int
	if srcW > srcH {
		newW = maxSize
		newH = int(float64(srcH) * float64(maxSize) / float64(srcW))
	} else {
		newH = maxSize
		newW = int(float64(srcW) * float64(maxSize) / float64(srcH))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
