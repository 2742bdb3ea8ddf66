package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/favourites"
	"github.com/larsgrootkarzijn/audiocontrold/internal/jobs"
	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/coverart"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/registry"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/attributecache"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/imagecache"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/kvstore"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/security"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/settings"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	settingsKV, err := kvstore.Open(filepath.Join(dir, "settings"), "settings")
	if err != nil {
		t.Fatalf("open settings kv: %v", err)
	}
	t.Cleanup(func() { settingsKV.Close() })
	settingsStore := settings.New(settingsKV)

	securityKV, err := kvstore.Open(filepath.Join(dir, "security"), "security")
	if err != nil {
		t.Fatalf("open security kv: %v", err)
	}
	t.Cleanup(func() { securityKV.Close() })
	securityStore := security.New(securityKV, []byte("0123456789abcdef0123456789abcdef"))

	imgCache, err := imagecache.New(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatalf("new imagecache: %v", err)
	}

	favManager := favourites.NewManager()
	favManager.Register(favourites.NewLocalProvider(settingsStore))

	reg := registry.New()

	return &Server{
		Registry:    reg,
		Favourites:  favManager,
		Jobs:        jobs.NewTracker(),
		AttrCache:   attributecache.Disabled(),
		ImageCache:  imgCache,
		CoverArt:    coverart.NewManager(),
		Settings:    settingsStore,
		Security:    securityStore,
		StateSigner: security.NewStateSigner([]byte("state-secret")),
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestHandlePlayersEmpty(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/players", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	players, ok := body["players"].([]any)
	if !ok || len(players) != 0 {
		t.Errorf("players = %v", body["players"])
	}
}

func TestHandleFavouriteAddAndIsFavourite(t *testing.T) {
	s := newTestServer(t)

	addReq := httptest.NewRequest(http.MethodPost, "/api/favourites/add", jsonBody(`{"artist":"A","title":"T"}`))
	addRec := httptest.NewRecorder()
	s.Router().ServeHTTP(addRec, addReq)
	if addRec.Code != http.StatusOK {
		t.Fatalf("add status = %d body=%s", addRec.Code, addRec.Body.String())
	}

	checkReq := httptest.NewRequest(http.MethodGet, "/api/favourites/is_favourite?artist=A&title=T", nil)
	checkRec := httptest.NewRecorder()
	s.Router().ServeHTTP(checkRec, checkReq)

	var body map[string]any
	json.Unmarshal(checkRec.Body.Bytes(), &body)
	if body["is_favourite"] != true {
		t.Errorf("is_favourite = %v", body["is_favourite"])
	}
}

func TestHandleNowPlayingEmptyRegistry(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/now-playing", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["player_id"] != "" {
		t.Errorf("expected empty player_id, got %v", body)
	}
}

func TestHandlePlayerCommandUnknownPlayer(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/player/nope/command", jsonBody(`{"command":"play"}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleCoverArtInvalidBase64ReturnsEmptyList(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/coverart/artist/not-valid-base64!!", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	urls, ok := body["coverart_urls"].([]any)
	if !ok || len(urls) != 0 {
		t.Errorf("coverart_urls = %v", body["coverart_urls"])
	}
}

func TestHandleArtistImageWithoutStoreIsUnavailable(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/artist/"+base64.URLEncoding.EncodeToString([]byte("Artist"))+"/image", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleMPDLocalArtRejectsMalformedFile(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/mpd/localart/not-a-hash.jpg", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleMPDLocalArtServesCachedFile(t *testing.T) {
	s := newTestServer(t)
	key := strings.Repeat("a", 40)
	if err := s.ImageCache.Store(imagecache.LocalTrackArtPath(key, "jpg"), []byte("fake-jpeg")); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/mpd/localart/"+key+".jpg", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "fake-jpeg" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleSettingsSetThenGet(t *testing.T) {
	s := newTestServer(t)

	setReq := httptest.NewRequest(http.MethodPost, "/api/settings/set", jsonBody(`{"key":"volume","value":42}`))
	setRec := httptest.NewRecorder()
	s.Router().ServeHTTP(setRec, setReq)
	if setRec.Code != http.StatusOK {
		t.Fatalf("set status = %d", setRec.Code)
	}

	getReq := httptest.NewRequest(http.MethodPost, "/api/settings/get", jsonBody(`{"key":"volume"}`))
	getRec := httptest.NewRecorder()
	s.Router().ServeHTTP(getRec, getReq)

	var body map[string]any
	json.Unmarshal(getRec.Body.Bytes(), &body)
	if body["value"] != float64(42) {
		t.Errorf("value = %v (%T)", body["value"], body["value"])
	}
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
