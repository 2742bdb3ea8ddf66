package artiststore

import (
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/imagecache"
)

func writeTestJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: uint8(y % 255), B: 0, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestThumbnailGeneratesResizedImage(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.jpg")
	writeTestJPEG(t, source, 800, 400)

	cache, err := imagecache.New(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	s := &Store{cacheDir: cache}

	path, err := s.Thumbnail(source, "some-artist", ThumbMedium)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != int(ThumbMedium) {
		t.Errorf("width = %d, want %d", img.Bounds().Dx(), ThumbMedium)
	}
}

func TestThumbnailIsCachedOnSecondCall(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "source.jpg")
	writeTestJPEG(t, source, 300, 300)

	cache, err := imagecache.New(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	s := &Store{cacheDir: cache}

	first, err := s.Thumbnail(source, "artist", ThumbSmall)
	if err != nil {
		t.Fatal(err)
	}
	os.Remove(source)

	second, err := s.Thumbnail(source, "artist", ThumbSmall)
	if err != nil {
		t.Fatalf("second call should hit cache without reading source: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
}
