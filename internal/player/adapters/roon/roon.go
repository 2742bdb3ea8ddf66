// Package roon implements the Roon-style transport adapter (§4.10.1):
// a pipe/TCP event source of newline-delimited JSON snapshots, each
// one a complete current-state object rather than a delta.
package roon

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/pipereader"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/normalise"
)

// Adapter is the Roon-style backend.
type Adapter struct {
	*adapter.Base

	source string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Roon adapter reading from source (a local path or
// "tcp://host:port" URL).
func New(id, displayName, source string) *Adapter {
	return &Adapter{
		Base:   adapter.NewBase(id, displayName, "roon"),
		source: source,
	}
}

// Start spawns the pipe reader goroutine. Idempotent.
func (a *Adapter) Start() bool {
	if !a.MarkStarted() {
		return false
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		pipereader.Run(ctx, a.source, a.handleLine)
	}()
	return true
}

// Stop signals the pipe reader to exit and waits for it to join.
func (a *Adapter) Stop() bool {
	a.MarkStopped()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return true
}

func (a *Adapter) handleLine(line string) {
	var wire roonWire
	if err := json.Unmarshal([]byte(line), &wire); err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Msg("roon: malformed event")
		return
	}
	a.Apply(wire.toEvent())
}

// Apply runs ev through the normaliser and replaces the adapter's
// entire stored snapshot, since every Roon-style event is complete.
func (a *Adapter) Apply(ev normalise.RoonEvent) {
	res, ok := normalise.Roon(ev)
	if !ok {
		log.Warn().Str("player_id", a.ID()).Msg("roon: event rejected by normaliser")
		return
	}

	a.SetSong(res.Song)
	a.SetState(res.State)
	a.SetPosition(res.PositionSec)
	a.ResetCapabilities(res.Capabilities)
	a.SetLoopMode(res.LoopMode)
	a.SetShuffle(res.Shuffle)
	a.SetStreamDetails(res.StreamDetails)
}

// SendCommand: the Roon-style transport is receive-only in this
// adapter (it mirrors an external controller's state); every command
// is unsupported.
func (a *Adapter) SendCommand(cmd adapter.Command) bool {
	return a.Unsupported(cmd)
}

// roonWire is the JSON wire shape of one Roon-style event line.
type roonWire struct {
	State             string `json:"state"`
	Seek              int    `json:"seek"`
	IsPlayAllowed     bool   `json:"is_play_allowed"`
	IsPauseAllowed    bool   `json:"is_pause_allowed"`
	IsSeekAllowed     bool   `json:"is_seek_allowed"`
	IsNextAllowed     bool   `json:"is_next_allowed"`
	IsPreviousAllowed bool   `json:"is_previous_allowed"`
	Shuffle           bool   `json:"shuffle"`
	Loop              string `json:"loop"`
	StreamFormat      struct {
		SampleRate    int    `json:"sample_rate"`
		BitsPerSample int    `json:"bits_per_sample"`
		Channels      int    `json:"channels"`
		SampleType    string `json:"sample_type"`
	} `json:"stream_format"`
	NowPlaying struct {
		Title      string `json:"title"`
		Artist     string `json:"artist"`
		Album      string `json:"album"`
		Composer   string `json:"composer"`
		Length     int    `json:"length"`
		ArtworkURL string `json:"artwork_url"`
	} `json:"now_playing"`
}

func (w roonWire) toEvent() normalise.RoonEvent {
	return normalise.RoonEvent{
		State:             w.State,
		Seek:              w.Seek,
		IsPlayAllowed:     w.IsPlayAllowed,
		IsPauseAllowed:    w.IsPauseAllowed,
		IsSeekAllowed:     w.IsSeekAllowed,
		IsNextAllowed:     w.IsNextAllowed,
		IsPreviousAllowed: w.IsPreviousAllowed,
		Shuffle:           w.Shuffle,
		Loop:              w.Loop,
		StreamFormat: normalise.RoonStreamFormat{
			SampleRate:    w.StreamFormat.SampleRate,
			BitsPerSample: w.StreamFormat.BitsPerSample,
			Channels:      w.StreamFormat.Channels,
			SampleType:    w.StreamFormat.SampleType,
		},
		NowPlaying: normalise.RoonNowPlaying{
			Title:      w.NowPlaying.Title,
			Artist:     w.NowPlaying.Artist,
			Album:      w.NowPlaying.Album,
			Composer:   w.NowPlaying.Composer,
			Length:     w.NowPlaying.Length,
			ArtworkURL: w.NowPlaying.ArtworkURL,
		},
	}
}
