// Package httpapi implements the API Surface (C13): a chi-routed
// HTTP/JSON layer translating between the external interfaces in §6
// and the typed component APIs built elsewhere in this module. Every
// fallible handler replies with the {success, message} envelope from
// response.go.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/favourites"
	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/httpfetch"
	"github.com/larsgrootkarzijn/audiocontrold/internal/jobs"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/artiststore"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/coverart"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/registry"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/attributecache"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/imagecache"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/security"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/settings"
	"github.com/larsgrootkarzijn/audiocontrold/internal/version"
)

// Server holds every dependency a handler needs. Construct with New
// and mount with Router.
type Server struct {
	Registry     *registry.Registry
	Favourites   *favourites.Manager
	Jobs         *jobs.Tracker
	AttrCache    *attributecache.Cache
	ImageCache   *imagecache.Cache
	CoverArt     *coverart.Manager
	ArtistStore  *artiststore.Store
	Settings     *settings.Store
	Security     *security.Store
	StateSigner  *security.StateSigner
	Fetcher      *httpfetch.Fetcher
	LastFMAPIKey string
	SpotifyOAuth SpotifyOAuthConfig
}

// SpotifyOAuthConfig configures the Spotify token-exchange proxy
// endpoints (§6's "Spotify token and OAuth proxy").
type SpotifyOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Router builds the full chi.Mux for this server.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/api/version", s.handleVersion)
	r.Get("/api/players", s.handlePlayers)
	r.Get("/api/now-playing", s.handleNowPlaying)
	r.Post("/api/player/{id}/update", s.handlePlayerUpdate)
	r.Post("/api/player/{id}/command", s.handlePlayerCommand)

	r.Get("/api/jobs", s.handleJobsList)
	r.Get("/api/jobs/{id}", s.handleJobGet)

	r.Get("/api/cache/stats", s.handleCacheStats)

	r.Get("/api/favourites/is_favourite", s.handleFavouriteIsFavourite)
	r.Post("/api/favourites/add", s.handleFavouriteAdd)
	r.Delete("/api/favourites/remove", s.handleFavouriteRemove)
	r.Get("/api/favourites/providers", s.handleFavouriteProviders)

	r.Get("/api/coverart/artist/{args}", s.handleCoverArtArtist)
	r.Get("/api/coverart/album/{args}", s.handleCoverArtAlbum)
	r.Get("/api/coverart/song/{args}", s.handleCoverArtSong)
	r.Get("/api/coverart/url/{args}", s.handleCoverArtURL)
	r.Get("/api/coverart/providers", s.handleCoverArtProviders)

	r.Get("/api/artist/{name}/image", s.handleArtistImage)
	r.Get("/api/mpd/localart/{file}", s.handleMPDLocalArt)

	r.Post("/api/m3u/parse", s.handleM3UParse)

	r.Post("/api/settings/get", s.handleSettingsGet)
	r.Post("/api/settings/set", s.handleSettingsSet)

	r.Get("/api/lastfm/auth/start", s.handleLastFMAuthStart)
	r.Get("/api/lastfm/auth/callback", s.handleLastFMAuthCallback)

	r.Get("/api/spotify/token", s.handleSpotifyToken)
	r.Get("/api/spotify/auth/callback", s.handleSpotifyAuthCallback)

	r.Get("/api/events/ws", s.handleEventsWS)

	return r
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"version": version.GetInfo().String(),
	})
}

func requestLogger(next http.Handler) http.Handler {
	return hlog.NewHandler(log.Logger)(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", dur).
			Msg("http request")
	})(next))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
