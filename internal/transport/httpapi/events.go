package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/registry"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is one frame pushed to a subscribed /api/events/ws client.
type wsEvent struct {
	Type     string `json:"type"`
	PlayerID string `json:"player_id"`
	Value    any    `json:"value"`
}

// wsListener forwards registry notifications to one websocket
// connection. Writes are serialised through a mutex since the
// registry dispatches synchronously and out-of-order from multiple
// adapter goroutines.
type wsListener struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (l *wsListener) send(ev wsEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := l.conn.WriteJSON(ev); err != nil {
		log.Debug().Err(err).Msg("httpapi: websocket write failed")
	}
}

func (l *wsListener) OnStateChanged(playerID string, state song.PlaybackState) {
	l.send(wsEvent{Type: "state_changed", PlayerID: playerID, Value: state.String()})
}
func (l *wsListener) OnSongChanged(playerID string, s song.Song) {
	l.send(wsEvent{Type: "song_changed", PlayerID: playerID, Value: s})
}
func (l *wsListener) OnPositionChanged(playerID string, seconds float64) {
	l.send(wsEvent{Type: "position_changed", PlayerID: playerID, Value: seconds})
}
func (l *wsListener) OnLoopModeChanged(playerID string, mode song.LoopMode) {
	l.send(wsEvent{Type: "loop_mode_changed", PlayerID: playerID, Value: mode.String()})
}
func (l *wsListener) OnShuffleChanged(playerID string, shuffle bool) {
	l.send(wsEvent{Type: "shuffle_changed", PlayerID: playerID, Value: shuffle})
}
func (l *wsListener) OnCapabilitiesChanged(playerID string, caps song.CapabilitySet) {
	l.send(wsEvent{Type: "capabilities_changed", PlayerID: playerID, Value: caps})
}
func (l *wsListener) OnActivePlayerChanged(playerID string) {
	l.send(wsEvent{Type: "active_player_changed", PlayerID: playerID})
}

// handleEventsWS upgrades to a websocket and streams registry events
// to the client until it disconnects. This is additive beyond the
// documented REST surface, matching §4.13's note that the API surface
// may expose a push channel alongside the request/response endpoints.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("httpapi: websocket upgrade failed")
		return
	}
	defer conn.Close()

	listener := &wsListener{conn: conn}
	handle := registry.NewListenerHandle(listener)
	s.Registry.RegisterListener(handle)
	defer s.Registry.UnregisterListener(handle)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
