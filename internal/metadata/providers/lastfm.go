package providers

import (
	"context"
	"fmt"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/identify"
	"github.com/larsgrootkarzijn/audiocontrold/internal/ratelimit"
)

const lastFMService = "lastfm"

// LastFM supplements MusicBrainz/Fanart.tv/Cover Art Archive with
// Last.fm's artist search and album art, filling the fourth provider slot
// the distillation's three-provider fan-out left out — see
// SPEC_FULL.md §6. Wraps shkh/lastfm-go the same way the corpus's
// lastfm client wraps it for scrobbling: one *lastfm.Api plus thin
// read-only methods.
type LastFM struct {
	api     *lastfm.Api
	limiter *ratelimit.Limiter
}

// NewLastFM wires a Last.fm provider at a conservative 5 req/s, the
// rate Last.fm's API terms suggest for read-only unauthenticated
// calls.
func NewLastFM(apiKey, apiSecret string, limiter *ratelimit.Limiter) *LastFM {
	limiter.RegisterPerSecond(lastFMService, 5)
	return &LastFM{api: lastfm.New(apiKey, apiSecret), limiter: limiter}
}

func (l *LastFM) Name() string { return "lastfm" }

// IdentifyArtist searches Last.fm, applying §4.7's multi-artist
// handling the same way MusicBrainz does: an ambiguous whole-name
// lookup is retried fragment-by-fragment via identify.SplitLookup.
func (l *LastFM) IdentifyArtist(ctx context.Context, name string) ([]string, bool, error) {
	return identify.SplitLookup(ctx, name, l.identifyOnce)
}

// identifyOnce searches Last.fm's artist index for exactly one name
// and returns the MBIDs of every result matching it per
// identify.Matches. Last.fm results without an mbid (non-MusicBrainz-
// linked artists) are skipped: C7's identify contract is MBID-based.
func (l *LastFM) identifyOnce(ctx context.Context, name string) ([]string, error) {
	if err := l.limiter.Wait(ctx, lastFMService); err != nil {
		return nil, err
	}

	result, err := l.api.Artist.Search(lastfm.P{"artist": name, "limit": 10})
	if err != nil {
		return nil, fmt.Errorf("lastfm: artist search: %w", err)
	}

	var ids []string
	for _, match := range result.ArtistMatches {
		if match.Mbid == "" {
			continue
		}
		if identify.Matches(name, match.Name) {
			ids = append(ids, match.Mbid)
		}
	}
	return ids, nil
}

// FetchCover returns every non-empty Last.fm image for the artist,
// graded by its index. Last.fm's image array is ordered small-to-large
// by convention, so the last (largest) non-empty URL has the highest
// grade.
func (l *LastFM) FetchCover(ctx context.Context, hint CoverHint) ([]ImageRef, error) {
	if hint.Artist == "" {
		return nil, nil
	}
	if err := l.limiter.Wait(ctx, lastFMService); err != nil {
		return nil, err
	}

	info, err := l.api.Artist.GetInfo(lastfm.P{"artist": hint.Artist})
	if err != nil {
		return nil, fmt.Errorf("lastfm: artist info: %w", err)
	}

	var refs []ImageRef
	for i, img := range info.Image {
		if img.Url == "" {
			continue
		}
		refs = append(refs, ImageRef{URL: img.Url, Grade: i, Provider: l.Name()})
	}
	return refs, nil
}
