package artist

import "testing"

func TestHashArtistStableAcrossCallOrder(t *testing.T) {
	a := HashArtist("Boards of Canada", []string{"BoC", "Boards of Canada"})
	b := HashArtist("Boards of Canada", []string{"Boards of Canada", "BoC"})
	if a != b {
		t.Fatalf("hash should not depend on album-artist slice order")
	}
}

func TestHashArtistDiffersOnName(t *testing.T) {
	a := HashArtist("Artist A", nil)
	b := HashArtist("Artist B", nil)
	if a == b {
		t.Fatalf("expected different ids for different names")
	}
}

func TestAlbumAddTrackTracksFirstURI(t *testing.T) {
	al := NewAlbum("Geogaddi", []string{"Boards of Canada"})
	al.AddTrack("b/02.flac")
	al.AddTrack("b/01.flac")
	if al.FirstFileURI != "b/02.flac" {
		t.Fatalf("FirstFileURI = %q, want first added", al.FirstFileURI)
	}
	if al.TrackCount() != 2 {
		t.Fatalf("TrackCount() = %d, want 2", al.TrackCount())
	}
}
