// Package spotify implements the Spotify-connect adapter (§4.10.2): a
// pipe/TCP event source and an HTTP push endpoint feeding the same
// normaliser, so a single adapter instance accepts events from either
// interchangeably and the last event applied wins.
package spotify

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapters/pipereader"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/normalise"
)

// Adapter is the Spotify-connect backend. It satisfies
// adapter.Adapter via the embedded *adapter.Base.
type Adapter struct {
	*adapter.Base

	pipeSource string // "" disables the pipe reader

	cancel context.CancelFunc
	wg     sync.WaitGroup

	framing  bool // true while buffering a multi-line pretty-printed frame
	frameBuf strings.Builder
}

// New constructs a Spotify adapter. pipeSource is a local path or a
// "tcp://host:port" URL; pass "" to rely on HTTP push only.
func New(id, displayName, pipeSource string) *Adapter {
	return &Adapter{
		Base:       adapter.NewBase(id, displayName, "spotify"),
		pipeSource: pipeSource,
	}
}

// Start spawns the pipe reader goroutine, if a source is configured.
// Idempotent.
func (a *Adapter) Start() bool {
	if !a.MarkStarted() {
		return false
	}
	if a.pipeSource == "" {
		return true
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		pipereader.Run(ctx, a.pipeSource, a.handleLine)
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

// handleLine implements the §4.10.1 format detection: a line that is
// exactly "{" opens a multi-line pretty-printed frame (buffered until
// the matching "}" line), anything else not already mid-frame is
// treated as one complete newline-delimited JSON event. Called from a
// single pipe-reading goroutine, so the buffering state needs no lock.
func (a *Adapter) handleLine(line string) {
	switch {
	case a.framing:
		a.frameBuf.WriteString(line)
		a.frameBuf.WriteByte('\n')
		if line == "}" {
			a.framing = false
			a.decodeAndApply(a.frameBuf.String())
			a.frameBuf.Reset()
		}
	case line == "{":
		a.framing = true
		a.frameBuf.Reset()
		a.frameBuf.WriteString(line)
		a.frameBuf.WriteByte('\n')
	default:
		a.decodeAndApply(line)
	}
}

func (a *Adapter) decodeAndApply(frame string) {
	ev, err := parseFrame(frame)
	if err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Msg("spotify: malformed event frame")
		return
	}
	a.Apply(ev)
}

// PushEvent is called by the HTTP push endpoint (§4.10.2) with one
// decoded event. It applies identically to a line read from the pipe.
func (a *Adapter) PushEvent(raw map[string]interface{}) {
	a.Apply(decodeEvent(raw))
}

// Apply runs ev through the normaliser and updates the adapter's
// stored state. Duplicate track_changed events (same identity, no
// state change) are coalesced by Base.SetSong's equality check.
func (a *Adapter) Apply(ev normalise.SpotifyEvent) {
	res, ok := normalise.Spotify(ev)
	if !ok {
		log.Warn().Str("player_id", a.ID()).Str("event_type", ev.Type).Msg("spotify: unrecognised event type")
		return
	}

	if res.SongChanged {
		a.SetSong(res.Song)
	}
	if res.StateChanged {
		a.SetState(res.State)
	}
	if res.PositionSet {
		a.SetPosition(res.PositionSec)
	}
	if res.CapsChanged {
		a.AddCapabilities(res.Capabilities)
	}
	if res.StreamSet {
		a.SetStreamDetails(res.StreamDetails)
	}
	if res.LoopSet {
		a.SetLoopMode(res.LoopMode)
	}
	if res.ShuffleSet {
		a.SetShuffle(res.Shuffle)
	}
}

// SendCommand: this adapter only receives events from the connect
// receiver and has no channel to send commands back to it, so every
// command falls through to Base.Unsupported.
func (a *Adapter) SendCommand(cmd adapter.Command) bool {
	return a.Unsupported(cmd)
}

// parseFrame decodes one complete JSON object, single-line or the
// reassembled text of a multi-line frame.
func parseFrame(frame string) (normalise.SpotifyEvent, error) {
	raw := map[string]interface{}{}
	if err := json.Unmarshal([]byte(frame), &raw); err != nil {
		return normalise.SpotifyEvent{}, err
	}
	return decodeEvent(raw), nil
}

// decodeEvent reads the librespot event-handler wire format: the
// event discriminator is keyed "event" (not "type"), ARTISTS/
// ALBUM_ARTISTS are a single comma-joined string rather than a JSON
// array, and every other field may arrive either as a real JSON
// number/bool or as its string form (librespot invokes the handler
// with environment variables, some onward proxies re-serialise those
// as JSON strings verbatim rather than converting them).
func decodeEvent(raw map[string]interface{}) normalise.SpotifyEvent {
	ev := normalise.SpotifyEvent{Type: strings.ToLower(firstString(raw, "event", "type"))}

	ev.PositionMS = getInt64(raw, "POSITION_MS")
	ev.TrackID = getString(raw, "TRACK_ID")
	ev.Name = getString(raw, "NAME")
	ev.Artists = getCommaList(raw, "ARTISTS")
	ev.Album = getString(raw, "ALBUM")
	ev.AlbumArtists = getCommaList(raw, "ALBUM_ARTISTS")
	ev.Number = int(getInt64(raw, "NUMBER"))
	ev.DurationMS = getInt64(raw, "DURATION_MS")
	if cover := getString(raw, "COVERS"); cover != "" {
		ev.Covers = []string{cover}
	}
	ev.URI = getString(raw, "URI")
	ev.Popularity = int(getInt64(raw, "POPULARITY"))
	ev.IsExplicit = getBool(raw, "IS_EXPLICIT")
	ev.Volume = int(getInt64(raw, "VOLUME"))
	ev.RepeatTrack = getBool(raw, "REPEAT_TRACK")
	ev.Repeat = getBool(raw, "REPEAT")
	ev.Shuffle = getBool(raw, "SHUFFLE")

	return ev
}

func getString(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// firstString returns the value of the first key present in m.
func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return getString(m, k)
		}
	}
	return ""
}

func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func getBool(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// getCommaList splits a comma-joined string field (ARTISTS,
// ALBUM_ARTISTS) into its parts, trimming surrounding whitespace.
// Also accepts a JSON array for callers that already send one.
func getCommaList(m map[string]interface{}, key string) []string {
	switch v := m[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
