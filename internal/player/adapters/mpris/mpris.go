//go:build unix

// Package mpris implements the MPRIS adapter (§4.10.5): scans the
// session bus for services matching org.mpris.MediaPlayer2.*, mirrors
// their identity/capability/playback properties, and subscribes to
// PropertiesChanged signals to keep them live.
package mpris

import (
	"context"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	domainsong "github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
)

const (
	busNamePrefix  = "org.mpris.MediaPlayer2."
	playerIface    = "org.mpris.MediaPlayer2.Player"
	propertiesIface = "org.freedesktop.DBus.Properties"
)

// Adapter mirrors one MPRIS-speaking service on the bus. Scanning for
// every matching bus name and constructing one Adapter per name is the
// caller's (registry wiring's) responsibility; see Scan.
type Adapter struct {
	*adapter.Base

	conn    *dbus.Conn
	busName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Scan lists every bus name under org.mpris.MediaPlayer2.* on conn.
func Scan(conn *dbus.Conn) ([]string, error) {
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, err
	}

	var matches []string
	for _, n := range names {
		if strings.HasPrefix(n, busNamePrefix) {
			matches = append(matches, n)
		}
	}
	return matches, nil
}

// New constructs an adapter mirroring busName on conn. id/displayName
// identify the adapter within the registry; busName is the full MPRIS
// bus name (e.g. "org.mpris.MediaPlayer2.vlc").
func New(conn *dbus.Conn, id, displayName, busName string) *Adapter {
	return &Adapter{
		Base:    adapter.NewBase(id, displayName, "mpris"),
		conn:    conn,
		busName: busName,
	}
}

func (a *Adapter) obj() dbus.BusObject {
	return a.conn.Object(a.busName, "/org/mpris/MediaPlayer2")
}

// Start reads the service's current properties, then subscribes to
// PropertiesChanged signals on playerIface. Idempotent.
func (a *Adapter) Start() bool {
	if !a.MarkStarted() {
		return false
	}

	a.refresh()

	matchRule := "type='signal',interface='" + propertiesIface + "',member='PropertiesChanged',path='/org/mpris/MediaPlayer2'"
	if err := a.conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchRule).Err; err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Msg("mpris: AddMatch failed")
		return true
	}

	signals := make(chan *dbus.Signal, 16)
	a.conn.Signal(signals)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-signals:
				if !ok {
					return
				}
				if sig.Sender == "" || sig.Path != "/org/mpris/MediaPlayer2" {
					continue
				}
				a.refresh()
			}
		}
	}()
	return true
}

// Stop cancels and joins the signal-handling goroutine. The bus match
// rule and signal channel registered by Start are left in place.
func (a *Adapter) Stop() bool {
	a.MarkStopped()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return true
}

func (a *Adapter) refresh() {
	props, err := a.getAllProperties()
	if err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Msg("mpris: property fetch failed")
		return
	}

	a.SetState(playbackStatusToState(stringProp(props, "PlaybackStatus")))
	a.SetShuffle(boolProp(props, "Shuffle"))
	a.SetLoopMode(loopStatusToMode(stringProp(props, "LoopStatus")))

	if posVal, ok := props["Position"]; ok {
		if micros, ok := posVal.Value().(int64); ok {
			a.SetPosition(float64(micros) / 1_000_000.0)
		}
	}

	caps := domainsong.CapabilitySet(0)
	if boolProp(props, "CanPlay") {
		caps = caps.With(domainsong.CapPlay | domainsong.CapPlayPause)
	}
	if boolProp(props, "CanPause") {
		caps = caps.With(domainsong.CapPause | domainsong.CapPlayPause)
	}
	if boolProp(props, "CanSeek") {
		caps = caps.With(domainsong.CapSeek | domainsong.CapPosition)
	}
	if boolProp(props, "CanGoNext") {
		caps = caps.With(domainsong.CapNext)
	}
	if boolProp(props, "CanGoPrevious") {
		caps = caps.With(domainsong.CapPrevious)
	}
	a.ResetCapabilities(caps)

	if metaVal, ok := props["Metadata"]; ok {
		if meta, ok := metaVal.Value().(map[string]dbus.Variant); ok {
			a.SetSong(metadataToSong(meta))
		}
	}
}

func (a *Adapter) getAllProperties() (map[string]dbus.Variant, error) {
	var props map[string]dbus.Variant
	call := a.obj().Call("org.freedesktop.DBus.Properties.GetAll", 0, playerIface)
	if call.Err != nil {
		return nil, call.Err
	}
	if err := call.Store(&props); err != nil {
		return nil, err
	}
	return props, nil
}

func stringProp(props map[string]dbus.Variant, key string) string {
	if v, ok := props[key]; ok {
		if s, ok := v.Value().(string); ok {
			return s
		}
	}
	return ""
}

func boolProp(props map[string]dbus.Variant, key string) bool {
	if v, ok := props[key]; ok {
		if b, ok := v.Value().(bool); ok {
			return b
		}
	}
	return false
}

func playbackStatusToState(s string) domainsong.PlaybackState {
	switch s {
	case "Playing":
		return domainsong.StatePlaying
	case "Paused":
		return domainsong.StatePaused
	case "Stopped":
		return domainsong.StateStopped
	default:
		return domainsong.StateUnknown
	}
}

func loopStatusToMode(s string) domainsong.LoopMode {
	switch s {
	case "Track":
		return domainsong.LoopTrack
	case "Playlist":
		return domainsong.LoopPlaylist
	default:
		return domainsong.LoopNone
	}
}

func metadataToSong(meta map[string]dbus.Variant) domainsong.Song {
	s := domainsong.Song{Source: "mpris"}
	if v, ok := meta["xesam:title"]; ok {
		if str, ok := v.Value().(string); ok {
			s.Title = str
		}
	}
	if v, ok := meta["xesam:album"]; ok {
		if str, ok := v.Value().(string); ok {
			s.Album = str
		}
	}
	if v, ok := meta["xesam:artist"]; ok {
		if arr, ok := v.Value().([]string); ok && len(arr) > 0 {
			s.Artist = arr[0]
		}
	}
	if v, ok := meta["mpris:length"]; ok {
		if micros, ok := v.Value().(int64); ok {
			s.Duration = float64(micros) / 1_000_000.0
		}
	}
	if v, ok := meta["mpris:artUrl"]; ok {
		if str, ok := v.Value().(string); ok {
			s.CoverArtURL = str
		}
	}
	return s
}

// SendCommand maps the common command set onto the MPRIS Player
// interface's methods.
func (a *Adapter) SendCommand(cmd adapter.Command) bool {
	var err error
	switch cmd.Type {
	case adapter.CmdPlay:
		err = a.obj().Call(playerIface+".Play", 0).Err
	case adapter.CmdPause:
		err = a.obj().Call(playerIface+".Pause", 0).Err
	case adapter.CmdPlayPause:
		err = a.obj().Call(playerIface+".PlayPause", 0).Err
	case adapter.CmdNext:
		err = a.obj().Call(playerIface+".Next", 0).Err
	case adapter.CmdPrevious:
		err = a.obj().Call(playerIface+".Previous", 0).Err
	default:
		return a.Unsupported(cmd)
	}

	if err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Str("command", cmd.Type.String()).Msg("mpris: command failed")
		return false
	}
	return true
}
