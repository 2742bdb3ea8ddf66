package httpapi

import (
	"errors"
	"net/http"

	"github.com/larsgrootkarzijn/audiocontrold/internal/favourites"
)

func (s *Server) handleFavouriteIsFavourite(w http.ResponseWriter, r *http.Request) {
	song := favourites.Song{Artist: r.URL.Query().Get("artist"), Title: r.URL.Query().Get("title")}
	isFav, err := s.Favourites.IsFavourite(song)
	if err != nil {
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	writeSuccess(w, map[string]any{
		"is_favourite": isFav,
		"providers":    providerSummaries(s.Favourites),
	})
}

type favouriteRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

func (s *Server) handleFavouriteAdd(w http.ResponseWriter, r *http.Request) {
	s.mutateFavourite(w, r, s.Favourites.AddFavourite)
}

func (s *Server) handleFavouriteRemove(w http.ResponseWriter, r *http.Request) {
	s.mutateFavourite(w, r, s.Favourites.RemoveFavourite)
}

func (s *Server) mutateFavourite(w http.ResponseWriter, r *http.Request, op func(favourites.Song) (favourites.Result, error)) {
	var req favouriteRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	result, err := op(favourites.Song{Artist: req.Artist, Title: req.Title})
	if err != nil {
		var other *favourites.Other
		status := http.StatusBadRequest
		if errors.As(err, &other) {
			status = http.StatusBadGateway
		}
		writeFailure(w, status, err.Error())
		return
	}

	writeSuccess(w, map[string]any{
		"updated_providers": result.UpdatedProviders,
		"providers":         providerSummaries(s.Favourites),
	})
}

func (s *Server) handleFavouriteProviders(w http.ResponseWriter, r *http.Request) {
	summaries := providerSummaries(s.Favourites)
	enabled := 0
	for _, p := range summaries {
		if p["enabled"].(bool) {
			enabled++
		}
	}
	writeSuccess(w, map[string]any{
		"enabled_providers": enabledNames(s.Favourites),
		"total_providers":   len(summaries),
		"enabled_count":     enabled,
		"providers":         summaries,
	})
}

func providerSummaries(m *favourites.Manager) []map[string]any {
	out := []map[string]any{}
	for _, p := range m.Providers() {
		out = append(out, map[string]any{
			"name":    p.DisplayName(),
			"enabled": p.Enabled(),
			"active":  p.Active(),
		})
	}
	return out
}

func enabledNames(m *favourites.Manager) []string {
	var names []string
	for _, p := range m.Providers() {
		if p.Enabled() {
			names = append(names, p.DisplayName())
		}
	}
	return names
}
