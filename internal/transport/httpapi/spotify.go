package httpapi

import (
	"net/http"
	"net/url"
	"time"
)

const (
	securityKeySpotifyAccessToken  = "spotify_access_token"
	securityKeySpotifyRefreshToken = "spotify_refresh_token"
	spotifyAuthorizeURL            = "https://accounts.spotify.com/authorize"
	spotifyTokenURL                = "https://accounts.spotify.com/api/token"
	spotifyOAuthStateTTL           = 10 * time.Minute
)

// handleSpotifyToken issues a signed, time-limited state token and the
// authorize URL the client redirects the user to, per §6's "Spotify
// token and OAuth proxy".
func (s *Server) handleSpotifyToken(w http.ResponseWriter, r *http.Request) {
	state, err := s.StateSigner.Issue(spotifyOAuthStateTTL)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "failed to issue oauth state: "+err.Error())
		return
	}

	q := url.Values{}
	q.Set("client_id", s.SpotifyOAuth.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", s.SpotifyOAuth.RedirectURI)
	q.Set("state", state)
	q.Set("scope", "user-read-playback-state user-read-currently-playing")

	writeSuccess(w, map[string]any{
		"authorize_url": spotifyAuthorizeURL + "?" + q.Encode(),
		"state":         state,
	})
}

// handleSpotifyAuthCallback validates the returned state, exchanges
// the authorisation code for tokens via the OAuth proxy fetch (which
// refuses to silently follow redirects through the third-party auth
// server, per §4.6), and persists the tokens encrypted.
func (s *Server) handleSpotifyAuthCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if !s.StateSigner.Verify(state) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "invalid or expired oauth state"})
		return
	}
	if code == "" {
		writeFailure(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	q := url.Values{}
	q.Set("grant_type", "authorization_code")
	q.Set("code", code)
	q.Set("redirect_uri", s.SpotifyOAuth.RedirectURI)
	q.Set("client_id", s.SpotifyOAuth.ClientID)
	q.Set("client_secret", s.SpotifyOAuth.ClientSecret)

	resp, err := s.Fetcher.OAuthProxyFetch(spotifyTokenURL + "?" + q.Encode())
	if err != nil {
		writeFailure(w, http.StatusBadGateway, "spotify token exchange failed: "+err.Error())
		return
	}
	if resp.StatusCode >= 400 {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "spotify rejected the authorization code"})
		return
	}

	var body map[string]any
	if err := decodeJSONFromBytes(resp.Body, &body); err != nil {
		writeFailure(w, http.StatusBadGateway, "invalid response from spotify: "+err.Error())
		return
	}

	accessToken, _ := body["access_token"].(string)
	refreshToken, _ := body["refresh_token"].(string)

	if err := s.Security.Set(securityKeySpotifyAccessToken, accessToken); err != nil {
		writeFailure(w, http.StatusInternalServerError, "failed to persist token: "+err.Error())
		return
	}
	if refreshToken != "" {
		_ = s.Security.Set(securityKeySpotifyRefreshToken, refreshToken)
	}

	writeSuccess(w, map[string]any{"connected": true})
}
