// Package providers implements the Metadata Providers (C7):
// capability-tagged adapters over MusicBrainz, the Cover Art Archive,
// Fanart.tv, and Last.fm, each rate-limited through C4. Only the
// MusicBrainz provider caches lookups (hits and misses) through C1; the
// other three call the network on every request.
package providers

import "context"

// ImageRef is a single candidate cover/artist image, tagged with an
// optional relevance grade (higher is better; 0 means "ungraded").
type ImageRef struct {
	URL      string
	Grade    int
	Provider string
}

// ArtistIdentifier looks up candidate MusicBrainz artist ids for a
// free-form artist name. partial reports §4.7's multi-artist case: the
// name was split into fragments and at least one fragment resolved
// but not every fragment did.
type ArtistIdentifier interface {
	Name() string
	IdentifyArtist(ctx context.Context, name string) (ids []string, partial bool, err error)
}

// CoverFetcher fetches candidate cover images for an artist, album, or
// song, given whatever identifying hints the caller has (MBIDs,
// artist/album/title strings, or a direct URL hint).
type CoverFetcher interface {
	Name() string
	FetchCover(ctx context.Context, hint CoverHint) ([]ImageRef, error)
}

// CoverHint carries every piece of identifying information a caller
// might have; a given provider uses whichever fields it needs and
// ignores the rest.
type CoverHint struct {
	ArtistMBID string
	AlbumMBID  string
	Artist     string
	Album      string
	Song       string
	URLHint    string
}
