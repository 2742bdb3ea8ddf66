package httpapi

import (
	"net/http"

	"github.com/shkh/lastfm-go/lastfm"
)

const securityKeyLastFMSession = "lastfm_session_key"

// handleLastFMAuthStart requests a token and returns the user
// authorisation URL, mirroring the desktop auth flow: the caller
// redirects the user there, then hits the callback once authorised.
func (s *Server) handleLastFMAuthStart(w http.ResponseWriter, r *http.Request) {
	api := lastfm.New(s.LastFMAPIKey, "")
	token, err := api.GetToken()
	if err != nil {
		writeFailure(w, http.StatusBadGateway, "lastfm: "+err.Error())
		return
	}
	authURL := "https://www.last.fm/api/auth/?api_key=" + s.LastFMAPIKey + "&token=" + token
	writeSuccess(w, map[string]any{"token": token, "auth_url": authURL})
}

// handleLastFMAuthCallback exchanges an authorised token for a session
// key and persists it encrypted in the security store (C5).
func (s *Server) handleLastFMAuthCallback(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeFailure(w, http.StatusBadRequest, "missing token")
		return
	}

	api := lastfm.New(s.LastFMAPIKey, "")
	if err := api.LoginWithToken(token); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "lastfm: " + err.Error()})
		return
	}
	sessionKey := api.GetSessionKey()

	if err := s.Security.Set(securityKeyLastFMSession, sessionKey); err != nil {
		writeFailure(w, http.StatusInternalServerError, "failed to persist session: "+err.Error())
		return
	}

	username := "unknown"
	if info, err := api.User.GetInfo(nil); err == nil {
		username = info.Name
	}
	writeSuccess(w, map[string]any{"username": username})
}
