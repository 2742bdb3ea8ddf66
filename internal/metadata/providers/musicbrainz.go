package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/httpfetch"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/identify"
	"github.com/larsgrootkarzijn/audiocontrold/internal/ratelimit"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/attributecache"
)

const (
	musicBrainzBaseURL   = "https://musicbrainz.org/ws/2"
	musicBrainzUserAgent = "audiocontrold/1.0 (+https://github.com/larsgrootkarzijn/audiocontrold)"
	musicBrainzService   = "musicbrainz"
)

// MusicBrainz identifies artists by name against the MusicBrainz
// search API, matching results against the caller's query using the
// identify package's normalisation and Jaro-Winkler rules rather than
// MusicBrainz's own relevance score.
type MusicBrainz struct {
	fetcher *httpfetch.Fetcher
	limiter *ratelimit.Limiter
	cache   *attributecache.Cache
	baseURL string
}

// NewMusicBrainz wires a MusicBrainz provider. limiter is registered
// with MusicBrainz's documented 1 req/s guideline.
func NewMusicBrainz(fetcher *httpfetch.Fetcher, limiter *ratelimit.Limiter, cache *attributecache.Cache) *MusicBrainz {
	limiter.RegisterPerSecond(musicBrainzService, 1)
	return &MusicBrainz{fetcher: fetcher, limiter: limiter, cache: cache, baseURL: musicBrainzBaseURL}
}

func (m *MusicBrainz) Name() string { return "musicbrainz" }

type mbArtist struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Aliases []string `json:"-"`
}

// IdentifyArtist searches MusicBrainz for name, applying §4.7's
// multi-artist handling: if the direct lookup against the whole name
// resolves to more than one candidate id, the name is split into
// artist fragments (identify.Split) and each fragment is looked up on
// its own, with the combined ids returned and partial set when at
// least one fragment resolved but not every one did.
func (m *MusicBrainz) IdentifyArtist(ctx context.Context, name string) ([]string, bool, error) {
	return identify.SplitLookup(ctx, name, m.identifyOnce)
}

// identifyOnce searches MusicBrainz for exactly one name (whole credit
// string or a single split fragment) and returns the ids of every
// candidate whose name (or alias) matches per identify.Matches. A
// cache-only miss (negative marker already recorded) short-circuits
// before any network call.
func (m *MusicBrainz) identifyOnce(ctx context.Context, name string) ([]string, error) {
	cacheKey := "mbid::" + attributecache.SanitiseKeyPart(name)

	var cached []string
	switch m.cache.GetWithNegative(cacheKey, &cached) {
	case attributecache.LookupFound:
		return cached, nil
	case attributecache.LookupNotFound:
		return nil, nil
	}

	if err := m.limiter.Wait(ctx, musicBrainzService); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`artist:"%s"`, escapeLucene(name))
	reqURL := fmt.Sprintf("%s/artist?query=%s&fmt=json&limit=10", m.baseURL, url.QueryEscape(query))

	resp, err := m.fetcher.GetJSONWithHeaders(reqURL, map[string]string{
		"User-Agent": musicBrainzUserAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		log.Warn().Err(err).Str("name", name).Msg("musicbrainz: artist search failed")
		_ = m.cache.SetNotFound(cacheKey)
		return nil, err
	}

	rawArtists, _ := resp["artists"].([]any)
	var ids []string
	for _, raw := range rawArtists {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		candidateName, _ := obj["name"].(string)
		id, _ := obj["id"].(string)
		if id == "" {
			continue
		}
		var aliases []string
		if rawAliases, ok := obj["aliases"].([]any); ok {
			for _, a := range rawAliases {
				if aliasObj, ok := a.(map[string]any); ok {
					if n, ok := aliasObj["name"].(string); ok {
						aliases = append(aliases, n)
					}
				}
			}
		}
		if identify.MatchesAny(name, candidateName, aliases) {
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		_ = m.cache.SetNotFound(cacheKey)
		return nil, nil
	}
	_ = m.cache.SetFound(cacheKey, ids)
	return ids, nil
}

// FetchCover searches MusicBrainz for a release matching hint.Artist/
// hint.Album and, on a match, defers the actual image bytes to the
// Cover Art Archive provider by returning a URL hint pointing at the
// release's CAA front-cover endpoint.
func (m *MusicBrainz) FetchCover(ctx context.Context, hint CoverHint) ([]ImageRef, error) {
	if hint.Artist == "" || hint.Album == "" {
		return nil, nil
	}
	cacheKey := "mb_release::" + attributecache.SanitiseKeyPart(hint.Artist) + "::" + attributecache.SanitiseKeyPart(hint.Album)

	var cachedMBID string
	switch m.cache.GetWithNegative(cacheKey, &cachedMBID) {
	case attributecache.LookupFound:
		return []ImageRef{{URL: coverArtArchiveFrontURL(cachedMBID), Provider: m.Name()}}, nil
	case attributecache.LookupNotFound:
		return nil, nil
	}

	if err := m.limiter.Wait(ctx, musicBrainzService); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`artist:"%s" AND release:"%s"`, escapeLucene(hint.Artist), escapeLucene(hint.Album))
	reqURL := fmt.Sprintf("%s/release?query=%s&fmt=json&limit=5", m.baseURL, url.QueryEscape(query))

	resp, err := m.fetcher.GetJSONWithHeaders(reqURL, map[string]string{
		"User-Agent": musicBrainzUserAgent,
		"Accept":     "application/json",
	})
	if err != nil {
		_ = m.cache.SetNotFound(cacheKey)
		return nil, err
	}

	releases, _ := resp["releases"].([]any)
	if len(releases) == 0 {
		_ = m.cache.SetNotFound(cacheKey)
		return nil, nil
	}
	first, ok := releases[0].(map[string]any)
	if !ok {
		_ = m.cache.SetNotFound(cacheKey)
		return nil, nil
	}
	mbid, _ := first["id"].(string)
	if mbid == "" {
		_ = m.cache.SetNotFound(cacheKey)
		return nil, nil
	}

	_ = m.cache.SetFound(cacheKey, mbid)
	return []ImageRef{{URL: coverArtArchiveFrontURL(mbid), Provider: m.Name()}}, nil
}

func coverArtArchiveFrontURL(mbid string) string {
	return "https://coverartarchive.org/release/" + mbid + "/front"
}

// escapeLucene escapes Lucene query-syntax special characters, the
// same set the teacher's MusicBrainz client escapes.
func escapeLucene(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		`+`, `\+`,
		`-`, `\-`,
		`!`, `\!`,
		`(`, `\(`,
		`)`, `\)`,
		`{`, `\{`,
		`}`, `\}`,
		`[`, `\[`,
		`]`, `\]`,
		`^`, `\^`,
		`~`, `\~`,
		`*`, `\*`,
		`?`, `\?`,
		`:`, `\:`,
		`/`, `\/`,
	)
	return replacer.Replace(s)
}
