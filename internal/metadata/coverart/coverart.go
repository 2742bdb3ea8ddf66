// Package coverart implements the cover-art manager from §4.7: a
// synchronous, registration-ordered fan-out across every registered
// C7 provider, with no deduplication across providers.
package coverart

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/providers"
)

// Manager fans a single cover lookup out across every registered
// provider, in the order they were registered.
type Manager struct {
	fetchers    []providers.CoverFetcher
	identifiers []providers.ArtistIdentifier
}

// NewManager returns an empty manager; providers are added via
// RegisterFetcher/RegisterIdentifier.
func NewManager() *Manager {
	return &Manager{}
}

// RegisterFetcher appends a cover-image provider to the fan-out order.
func (m *Manager) RegisterFetcher(p providers.CoverFetcher) {
	m.fetchers = append(m.fetchers, p)
}

// RegisterIdentifier appends an artist-identification provider.
func (m *Manager) RegisterIdentifier(p providers.ArtistIdentifier) {
	m.identifiers = append(m.identifiers, p)
}

// FetchCover queries every registered provider in registration order
// and concatenates their results. A provider error is logged and
// skipped; it does not abort the remaining providers.
func (m *Manager) FetchCover(ctx context.Context, hint providers.CoverHint) []providers.ImageRef {
	var all []providers.ImageRef
	for _, p := range m.fetchers {
		refs, err := p.FetchCover(ctx, hint)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("coverart: provider fetch failed")
			continue
		}
		all = append(all, refs...)
	}
	return all
}

// IdentifyArtist queries every registered identifier in order and
// returns the union of candidate MBIDs. partial is set either when
// providers disagree (at least one returned a non-empty result while
// another returned none or errored) or when any single provider
// itself reported a §4.7 split-lookup partial (some but not all
// fragments of a multi-artist name resolved).
func (m *Manager) IdentifyArtist(ctx context.Context, name string) (ids []string, partial bool) {
	anyFound, anyMissing := false, false
	for _, p := range m.identifiers {
		found, fragPartial, err := p.IdentifyArtist(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("coverart: identify failed")
			anyMissing = true
			continue
		}
		if len(found) == 0 {
			anyMissing = true
			continue
		}
		anyFound = true
		if fragPartial {
			anyMissing = true
		}
		ids = append(ids, found...)
	}
	return ids, anyFound && anyMissing
}

// FetcherNames returns every registered cover-fetcher's name, in
// registration order, for status/diagnostics endpoints.
func (m *Manager) FetcherNames() []string {
	names := make([]string, len(m.fetchers))
	for i, f := range m.fetchers {
		names[i] = f.Name()
	}
	return names
}

// IdentifierNames returns every registered artist-identifier's name.
func (m *Manager) IdentifierNames() []string {
	names := make([]string, len(m.identifiers))
	for i, id := range m.identifiers {
		names[i] = id.Name()
	}
	return names
}

// Best returns the highest-graded image ref, or the first ref if none
// carry a grade above zero. Returns false if refs is empty.
func Best(refs []providers.ImageRef) (providers.ImageRef, bool) {
	if len(refs) == 0 {
		return providers.ImageRef{}, false
	}
	best := refs[0]
	for _, r := range refs[1:] {
		if r.Grade > best.Grade {
			best = r
		}
	}
	return best, true
}
