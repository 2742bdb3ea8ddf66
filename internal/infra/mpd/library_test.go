package mpd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/mpd"
)

func TestLocalCoverArtFindsFolderArt(t *testing.T) {
	dir := t.TempDir()
	albumDir := filepath.Join(dir, "Artist", "Album")
	if err := os.MkdirAll(albumDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(albumDir, "track.mp3"), []byte("not a real mp3"), 0o644); err != nil {
		t.Fatal(err)
	}
	want := []byte("fake-jpeg-bytes")
	if err := os.WriteFile(filepath.Join(albumDir, "cover.jpg"), want, 0o644); err != nil {
		t.Fatal(err)
	}

	data, mimeType, err := mpd.LocalCoverArt(dir, "Artist/Album/track.mp3")
	if err != nil {
		t.Fatalf("LocalCoverArt: %v", err)
	}
	if string(data) != string(want) {
		t.Errorf("data = %q, want %q", data, want)
	}
	if mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q, want image/jpeg", mimeType)
	}
}

func TestLocalCoverArtNoArtReturnsNil(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "track.mp3"), []byte("not a real mp3"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, _, err := mpd.LocalCoverArt(dir, "track.mp3")
	if err != nil {
		t.Fatalf("LocalCoverArt: %v", err)
	}
	if data != nil {
		t.Errorf("expected nil data, got %d bytes", len(data))
	}
}

func TestLocalCoverArtEmptyInputsNoop(t *testing.T) {
	data, _, err := mpd.LocalCoverArt("", "track.mp3")
	if err != nil || data != nil {
		t.Errorf("expected no-op for empty musicDir, got data=%v err=%v", data, err)
	}

	data, _, err = mpd.LocalCoverArt("/music", "")
	if err != nil || data != nil {
		t.Errorf("expected no-op for empty relPath, got data=%v err=%v", data, err)
	}
}
