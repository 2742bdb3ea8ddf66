package httpapi

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/providers"
)

// decodeArgs splits a "/"-joined, URL-safe-base64-encoded argument
// list. A decode failure yields an empty, non-error result per §6:
// "decoding failure returns an empty coverart_urls list".
func decodeArgs(raw string) ([]string, bool) {
	parts := strings.Split(raw, "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		dec, err := base64.URLEncoding.DecodeString(p)
		if err != nil {
			return nil, false
		}
		out[i] = string(dec)
	}
	return out, true
}

func (s *Server) respondCoverArt(w http.ResponseWriter, r *http.Request, hint providers.CoverHint) {
	refs := s.CoverArt.FetchCover(r.Context(), hint)
	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}
	writeSuccess(w, map[string]any{"coverart_urls": urls})
}

func (s *Server) handleCoverArtArtist(w http.ResponseWriter, r *http.Request) {
	args, ok := decodeArgs(chi.URLParam(r, "args"))
	if !ok || len(args) < 1 {
		writeSuccess(w, map[string]any{"coverart_urls": []string{}})
		return
	}
	s.respondCoverArt(w, r, providers.CoverHint{Artist: args[0]})
}

func (s *Server) handleCoverArtAlbum(w http.ResponseWriter, r *http.Request) {
	args, ok := decodeArgs(chi.URLParam(r, "args"))
	if !ok || len(args) < 2 {
		writeSuccess(w, map[string]any{"coverart_urls": []string{}})
		return
	}
	s.respondCoverArt(w, r, providers.CoverHint{Artist: args[0], Album: args[1]})
}

func (s *Server) handleCoverArtSong(w http.ResponseWriter, r *http.Request) {
	args, ok := decodeArgs(chi.URLParam(r, "args"))
	if !ok || len(args) < 2 {
		writeSuccess(w, map[string]any{"coverart_urls": []string{}})
		return
	}
	hint := providers.CoverHint{Artist: args[0], Song: args[1]}
	if len(args) >= 3 {
		hint.Album = args[2]
	}
	s.respondCoverArt(w, r, hint)
}

func (s *Server) handleCoverArtURL(w http.ResponseWriter, r *http.Request) {
	args, ok := decodeArgs(chi.URLParam(r, "args"))
	if !ok || len(args) < 1 {
		writeSuccess(w, map[string]any{"coverart_urls": []string{}})
		return
	}
	s.respondCoverArt(w, r, providers.CoverHint{URLHint: args[0]})
}

func (s *Server) handleCoverArtProviders(w http.ResponseWriter, r *http.Request) {
	fetchers := s.CoverArt.FetcherNames()
	identifiers := s.CoverArt.IdentifierNames()

	methods := []map[string]any{
		{"method": "fetch_cover", "provider_count": len(fetchers), "providers": fetchers},
		{"method": "identify_artist", "provider_count": len(identifiers), "providers": identifiers},
	}
	writeSuccess(w, map[string]any{
		"total_providers": len(fetchers) + len(identifiers),
		"methods":         methods,
	})
}
