package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
)

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	activeID := s.Registry.ActiveID()

	players := []map[string]any{}
	for _, p := range s.Registry.Players() {
		players = append(players, map[string]any{
			"id":           p.ID(),
			"name":         p.DisplayName(),
			"backend_type": p.BackendType(),
			"state":        p.State().String(),
			"is_active":    p.ID() == activeID,
			"capabilities": p.Capabilities(),
		})
	}
	writeSuccess(w, map[string]any{"players": players})
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	np := s.Registry.GetNowPlaying()
	writeSuccess(w, map[string]any{
		"player_id": np.PlayerID,
		"song":      np.Song,
		"state":     np.State.String(),
		"position":  np.Position,
		"loop_mode": np.LoopMode.String(),
		"shuffle":   np.Shuffle,
		"active":    np.Active,
	})
}

// playerUpdateRequest mirrors the generic push event shape (§4.11):
// callers supply whichever fields they have; unset pointers are left
// untouched on the target adapter.
type playerUpdateRequest struct {
	Song     *song.Song          `json:"song"`
	State    *string             `json:"state"`
	Position *float64            `json:"position"`
	LoopMode *string             `json:"loop_mode"`
	Shuffle  *bool               `json:"shuffle"`
}

// rawEventPusher is satisfied by adapters driven by their own wire
// format (currently just the Spotify adapter) rather than the
// canonical playerUpdateRequest shape (§4.10.2): the request body is
// forwarded untouched and parsed identically to that adapter's pipe
// reader. This is what lets one id-keyed endpoint serve both shapes,
// resolving the hard-coded "spotify" id in the original push
// processor (§9's flagged redesign) — the body is now routed by the
// real {id}, never assumed.
type rawEventPusher interface {
	PushEvent(map[string]interface{})
}

func (s *Server) handlePlayerUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, ok := s.Registry.Get(id)
	if !ok {
		writeFailure(w, http.StatusNotFound, "unknown player: "+id)
		return
	}

	if pusher, ok := a.(rawEventPusher); ok {
		var raw map[string]interface{}
		if err := decodeJSONBody(r, &raw); err != nil {
			writeFailure(w, http.StatusBadRequest, "invalid event body: "+err.Error())
			return
		}
		pusher.PushEvent(raw)
		writeSuccess(w, nil)
		return
	}

	var req playerUpdateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid event body: "+err.Error())
		return
	}

	if req.Song != nil {
		setter, ok := a.(interface{ SetSong(song.Song) })
		if ok {
			setter.SetSong(*req.Song)
		}
	}
	if req.State != nil {
		if state, ok := parsePlaybackState(*req.State); ok {
			if setter, ok := a.(interface{ SetState(song.PlaybackState) }); ok {
				setter.SetState(state)
			}
		}
	}
	if req.Position != nil {
		if setter, ok := a.(interface{ SetPosition(float64) }); ok {
			setter.SetPosition(*req.Position)
		}
	}
	if req.LoopMode != nil {
		mode := song.ParseLoopMode(*req.LoopMode)
		if setter, ok := a.(interface{ SetLoopMode(song.LoopMode) }); ok {
			setter.SetLoopMode(mode)
		}
	}
	if req.Shuffle != nil {
		if setter, ok := a.(interface{ SetShuffle(bool) }); ok {
			setter.SetShuffle(*req.Shuffle)
		}
	}

	writeSuccess(w, nil)
}

func parsePlaybackState(s string) (song.PlaybackState, bool) {
	switch s {
	case "playing":
		return song.StatePlaying, true
	case "paused":
		return song.StatePaused, true
	case "stopped":
		return song.StateStopped, true
	case "killed":
		return song.StateKilled, true
	default:
		return song.StateUnknown, false
	}
}

type commandRequest struct {
	Command  string   `json:"command"`
	Seconds  float64  `json:"seconds"`
	LoopMode string   `json:"loop_mode"`
	Random   bool     `json:"random"`
	TrackID  string   `json:"track_id"`
}

var commandByName = map[string]adapter.CommandType{
	"play":           adapter.CmdPlay,
	"pause":          adapter.CmdPause,
	"play_pause":     adapter.CmdPlayPause,
	"next":           adapter.CmdNext,
	"previous":       adapter.CmdPrevious,
	"seek":           adapter.CmdSeek,
	"set_loop_mode":  adapter.CmdSetLoopMode,
	"set_random":     adapter.CmdSetRandom,
	"kill":           adapter.CmdKill,
	"clear_queue":    adapter.CmdClearQueue,
	"remove_track":   adapter.CmdRemoveTrack,
}

func (s *Server) handlePlayerCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req commandRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid command body: "+err.Error())
		return
	}

	cmdType, ok := commandByName[req.Command]
	if !ok {
		writeFailure(w, http.StatusBadRequest, "unknown command: "+req.Command)
		return
	}

	cmd := adapter.Command{
		Type:     cmdType,
		Seconds:  req.Seconds,
		LoopMode: song.ParseLoopMode(req.LoopMode),
		Random:   req.Random,
		TrackID:  req.TrackID,
	}

	var accepted bool
	var err error
	if id == "active" {
		accepted, err = s.Registry.SendCommandToActive(cmd)
	} else {
		accepted, err = s.Registry.SendCommand(id, cmd)
	}
	if err != nil {
		writeFailure(w, http.StatusNotFound, err.Error())
		return
	}
	if !accepted {
		writeFailure(w, http.StatusOK, "command not supported by this player")
		return
	}
	writeSuccess(w, nil)
}
