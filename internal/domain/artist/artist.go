// Package artist defines the Artist and Album aggregate types and their
// stable identity hashing.
package artist

import (
	"hash/fnv"
	"sort"
	"sync"
)

// ID is a stable 64-bit identifier for an Artist or Album.
type ID uint64

// HashArtist derives a stable id from the canonical name and the set of
// album-artist strings observed for it. Stable across restarts iff the
// inputs are stable, per the data-model invariant.
func HashArtist(name string, albumArtists []string) ID {
	return hashParts(append([]string{"artist", name}, sortedCopy(albumArtists)...))
}

// HashAlbum derives a stable id from the album name and its artist set.
func HashAlbum(name string, artists []string) ID {
	return hashParts(append([]string{"album", name}, sortedCopy(artists)...))
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

func hashParts(parts []string) ID {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return ID(h.Sum64())
}

// Enrichment holds optional metadata fetched from C7 providers.
type Enrichment struct {
	MBIDs    []string
	Biography string
	Genres   []string
	ImageURLs []string // ordered, best first
}

// Artist aggregates everything known about one artist in the library.
type Artist struct {
	mu sync.RWMutex

	ID          ID
	Name        string
	Albums      map[string]struct{}
	TrackCount  int
	Enrichment  Enrichment
	CoverArtRef string
}

// NewArtist constructs an Artist and computes its stable id.
func NewArtist(name string, albumArtists []string) *Artist {
	return &Artist{
		ID:     HashArtist(name, albumArtists),
		Name:   name,
		Albums: make(map[string]struct{}),
	}
}

// AddAlbum records that this artist has the named album.
func (a *Artist) AddAlbum(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Albums[name] = struct{}{}
}

// AlbumNames returns a sorted snapshot of known album names.
func (a *Artist) AlbumNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.Albums))
	for name := range a.Albums {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetCoverArtRef records a cache:// (or other scheme) reference to
// this artist's resolved local image.
func (a *Artist) SetCoverArtRef(ref string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CoverArtRef = ref
}

// SetMBIDs replaces the artist's known MusicBrainz ids.
func (a *Artist) SetMBIDs(ids []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Enrichment.MBIDs = append([]string(nil), ids...)
}

// Album is a shared-mutable aggregate: its artist set and track list may
// be appended to as the library loader discovers more songs.
type Album struct {
	mu sync.RWMutex

	ID          ID
	Name        string
	Artists     []string
	Year        int
	Tracks      []string // ordered URIs
	CoverArtRef string
	FirstFileURI string
}

// NewAlbum constructs an Album and computes its stable id.
func NewAlbum(name string, artists []string) *Album {
	return &Album{
		ID:      HashAlbum(name, artists),
		Name:    name,
		Artists: append([]string(nil), artists...),
	}
}

// AddTrack appends a track URI, recording the first file seen as the
// album's representative file (used for folder-based cover lookups).
func (al *Album) AddTrack(uri string) {
	al.mu.Lock()
	defer al.mu.Unlock()
	al.Tracks = append(al.Tracks, uri)
	if al.FirstFileURI == "" {
		al.FirstFileURI = uri
	}
}

// TrackCount returns the number of tracks recorded so far.
func (al *Album) TrackCount() int {
	al.mu.RLock()
	defer al.mu.RUnlock()
	return len(al.Tracks)
}
