// Package httpgeneric implements the generic HTTP adapter (§4.10.4):
// a named, statically-capable adapter fed exclusively through the same
// HTTP push endpoint the Spotify adapter uses, keyed by adapter id.
package httpgeneric

import (
	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
)

// Config configures one generic HTTP adapter instance.
type Config struct {
	Name          string
	Capabilities  song.CapabilitySet
	InitialState  song.PlaybackState
	DefaultShuffle bool
	DefaultLoop   song.LoopMode
}

// Adapter is a push-only backend for webhook-speaking players.
type Adapter struct {
	*adapter.Base
}

// New constructs a generic HTTP adapter from cfg.
func New(id string, cfg Config) *Adapter {
	a := &Adapter{Base: adapter.NewBase(id, cfg.Name, "http_generic")}
	a.ResetCapabilities(cfg.Capabilities)
	a.SetState(cfg.InitialState)
	a.SetShuffle(cfg.DefaultShuffle)
	a.SetLoopMode(cfg.DefaultLoop)
	return a
}

// Start is a no-op: there is nothing to spawn, the adapter is driven
// entirely by PushEvent. Always succeeds.
func (a *Adapter) Start() bool {
	a.MarkStarted()
	return true
}

// Stop is a no-op; returns true for interface symmetry.
func (a *Adapter) Stop() bool {
	a.MarkStopped()
	return true
}

// Event is one generic push payload. Unlike the Spotify wire format,
// this adapter's event shape is already expressed in the canonical
// domain types, since there is no external protocol to translate.
type Event struct {
	Song          *song.Song
	State         *song.PlaybackState
	PositionSec   *float64
	LoopMode      *song.LoopMode
	Shuffle       *bool
	StreamDetails *song.StreamDetails
}

// PushEvent applies whichever fields of ev are set.
func (a *Adapter) PushEvent(ev Event) {
	if ev.Song != nil {
		a.SetSong(*ev.Song)
	}
	if ev.State != nil {
		a.SetState(*ev.State)
	}
	if ev.PositionSec != nil {
		a.SetPosition(*ev.PositionSec)
	}
	if ev.LoopMode != nil {
		a.SetLoopMode(*ev.LoopMode)
	}
	if ev.Shuffle != nil {
		a.SetShuffle(*ev.Shuffle)
	}
	if ev.StreamDetails != nil {
		a.SetStreamDetails(*ev.StreamDetails)
	}
}

// SendCommand: a generic HTTP adapter has no command channel back to
// the player it represents; every command is unsupported.
func (a *Adapter) SendCommand(cmd adapter.Command) bool {
	log.Debug().Str("player_id", a.ID()).Msg("httpgeneric: adapter is push-only, command ignored")
	return a.Unsupported(cmd)
}
