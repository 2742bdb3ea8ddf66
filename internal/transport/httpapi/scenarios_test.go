package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/roon"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/spotify"
)

// scenarioAdapter is a minimal registry.Adapter that accepts pushed
// state the way a real backend's listener loop would.
type scenarioAdapter struct {
	*adapter.Base
}

func newScenarioAdapter(id string) *scenarioAdapter {
	return &scenarioAdapter{Base: adapter.NewBase(id, id, "test")}
}

func (a *scenarioAdapter) Start() bool                        { return a.MarkStarted() }
func (a *scenarioAdapter) Stop() bool                          { a.MarkStopped(); return true }
func (a *scenarioAdapter) SendCommand(cmd adapter.Command) bool { return a.Unsupported(cmd) }

// Scenario 1 (§8): a pushed state_changed event is reflected in
// GET /api/players within 100ms.
func TestScenarioStateChangeViaEvent(t *testing.T) {
	s := newTestServer(t)
	a := newScenarioAdapter("test_player")
	a.Start()
	s.Registry.Add(a)

	req := httptest.NewRequest(http.MethodPost, "/api/player/test_player/update", jsonBody(`{"state":"playing"}`))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	deadline := time.Now().Add(100 * time.Millisecond)
	var state string
	for time.Now().Before(deadline) {
		listReq := httptest.NewRequest(http.MethodGet, "/api/players", nil)
		listRec := httptest.NewRecorder()
		s.Router().ServeHTTP(listRec, listReq)

		var body struct {
			Players []struct {
				ID    string `json:"id"`
				State string `json:"state"`
			} `json:"players"`
		}
		require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &body))
		for _, p := range body.Players {
			if p.ID == "test_player" {
				state = p.State
			}
		}
		if state == "playing" {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, "playing", state)
}

// Scenario 2 (§8): a pushed song_changed event is reflected by
// GET /api/now-playing.
func TestScenarioSongChangeUpdatesNowPlaying(t *testing.T) {
	s := newTestServer(t)
	a := newScenarioAdapter("test_player")
	a.Start()
	s.Registry.Add(a)

	// The registry only reflects the active adapter; mark it playing
	// first so the song update below is visible in now-playing.
	updateReq := httptest.NewRequest(http.MethodPost, "/api/player/test_player/update", jsonBody(`{"state":"playing"}`))
	s.Router().ServeHTTP(httptest.NewRecorder(), updateReq)

	songReq := httptest.NewRequest(http.MethodPost, "/api/player/test_player/update", jsonBody(
		`{"song":{"title":"Integration Test Song","artist":"Test Artist","album":"Test Album","duration":180.5}}`,
	))
	songRec := httptest.NewRecorder()
	s.Router().ServeHTTP(songRec, songReq)
	require.Equal(t, http.StatusOK, songRec.Code)

	npReq := httptest.NewRequest(http.MethodGet, "/api/now-playing", nil)
	npRec := httptest.NewRecorder()
	s.Router().ServeHTTP(npRec, npReq)

	var body struct {
		Song struct {
			Title  string `json:"title"`
			Artist string `json:"artist"`
		} `json:"song"`
	}
	require.NoError(t, json.Unmarshal(npRec.Body.Bytes(), &body))
	assert.Equal(t, "Integration Test Song", body.Song.Title)
	assert.Equal(t, "Test Artist", body.Song.Artist)
}

// Scenario 3 (§8): a Spotify pipe event sequence (track_changed then
// playing) leaves the adapter's current song and position correct.
func TestScenarioSpotifyPipeEventSequence(t *testing.T) {
	a := spotify.New("spotify", "Spotify", "")
	a.PushEvent(decodeJSONRaw(t, `{"event":"track_changed","NAME":"Pipe Test Song","ARTISTS":"Pipe Test Artist","ALBUM":"Test Album","DURATION_MS":240000,"TRACK_ID":"spotify:track:x"}`))
	a.PushEvent(decodeJSONRaw(t, `{"event":"playing","POSITION_MS":30000,"TRACK_ID":"spotify:track:x"}`))

	s := a.Song()
	assert.Equal(t, "Pipe Test Song", s.Title)
	assert.Equal(t, song.StatePlaying, a.State())
	assert.InDelta(t, 30.0, a.Position(), 0.01)
}

func decodeJSONRaw(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &raw))
	return raw
}

// Scenario 4 (§8): a Roon-style snapshot with a seek position and a
// known-length now_playing block reports position, seek capability,
// and playback state correctly.
func TestScenarioRoonSeekSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/roon-events"
	require.NoError(t, os.WriteFile(path, []byte(`{"state":"playing","seek":42,"now_playing":{"title":"T","artist":"A","length":200}}`+"\n"), 0o644))

	a := roon.New("roon", "Roon", path)
	a.Start()
	defer a.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for a.State() == song.StateUnknown && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, song.StatePlaying, a.State())
	assert.Equal(t, 42.0, a.Position())
	assert.True(t, a.Capabilities().Has(song.CapSeek))
}
