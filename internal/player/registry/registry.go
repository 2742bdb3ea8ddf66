// Package registry implements the Player Registry (C12): holds every
// constructed adapter under its id, tracks the sticky "active" player,
// aggregates now-playing state, and fans out listener notifications
// with position damping, per §4.12.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"weak"

	"github.com/rs/zerolog/log"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
)

// ErrUnknownPlayer is returned by command/lookup calls naming an id the
// registry has no adapter for.
var ErrUnknownPlayer = errors.New("registry: unknown player id")

// NowPlaying is the aggregated snapshot get_now_playing() exposes.
type NowPlaying struct {
	PlayerID     string
	Song         song.Song
	State        song.PlaybackState
	Position     float64
	LoopMode     song.LoopMode
	Shuffle      bool
	Capabilities song.CapabilitySet
	Active       bool
}

// Listener receives registry-level notifications, one call per
// changed field per active-player event, after position damping.
type Listener interface {
	OnStateChanged(playerID string, state song.PlaybackState)
	OnSongChanged(playerID string, s song.Song)
	OnPositionChanged(playerID string, seconds float64)
	OnLoopModeChanged(playerID string, mode song.LoopMode)
	OnShuffleChanged(playerID string, shuffle bool)
	OnCapabilitiesChanged(playerID string, caps song.CapabilitySet)
	OnActivePlayerChanged(playerID string)
}

// ListenerHandle is the strong reference a caller must keep alive; the
// registry stores only a weak pointer, per §4.12.
type ListenerHandle struct {
	Listener
}

// NewListenerHandle wraps l for registration.
func NewListenerHandle(l Listener) *ListenerHandle {
	return &ListenerHandle{Listener: l}
}

// positionDampingThreshold is the minimum absolute position delta, in
// seconds, that triggers a position_changed dispatch (§4.12).
const positionDampingThreshold = 1.0

type entry struct {
	adapter      adapter.Adapter
	handle       *adapter.ListenerHandle
	lastReported float64
}

// Registry holds every constructed adapter and the active-player
// pointer. Zero value is not usable; construct with New.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*entry
	order    []string
	activeID string

	listenersMu sync.Mutex
	listeners   []weak.Pointer[ListenerHandle]
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{adapters: make(map[string]*entry)}
}

// Add registers a under its ID and subscribes the registry as a
// listener on it, so adapter events feed the aggregate. Add does not
// call Start; the caller starts adapters explicitly.
func (r *Registry) Add(a adapter.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if _, exists := r.adapters[id]; exists {
		log.Warn().Str("player_id", id).Msg("registry: adapter already registered, replacing")
	} else {
		r.order = append(r.order, id)
	}

	e := &entry{adapter: a, lastReported: a.Position()}
	e.handle = adapter.NewListenerHandle(&adapterForwarder{registry: r, playerID: id})
	a.RegisterListener(e.handle)
	r.adapters[id] = e
}

// Get returns the adapter registered under id.
func (r *Registry) Get(id string) (adapter.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.adapters[id]
	if !ok {
		return nil, false
	}
	return e.adapter, true
}

// Players returns every registered adapter, in registration order.
func (r *Registry) Players() []adapter.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]adapter.Adapter, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.adapters[id]; ok {
			out = append(out, e.adapter)
		}
	}
	return out
}

// ActiveID returns the id of the sticky active player, or "" if none
// has ever played.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// GetActive returns the active adapter and whether it is currently
// reporting Playing. A sticky active pointer with a non-Playing state
// still resolves to the adapter; the bool reflects playing-ness, per
// §4.12 ("none currently playing").
func (r *Registry) GetActive() (adapter.Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.activeID == "" {
		return nil, false
	}
	e, ok := r.adapters[r.activeID]
	if !ok {
		return nil, false
	}
	return e.adapter, e.adapter.State() == song.StatePlaying
}

// GetNowPlaying aggregates the active adapter's current fields. The
// Active field is false, and every other field its zero value, if no
// adapter has ever been active.
func (r *Registry) GetNowPlaying() NowPlaying {
	a, playing := r.GetActive()
	if a == nil {
		return NowPlaying{}
	}
	return NowPlaying{
		PlayerID:     a.ID(),
		Song:         a.Song(),
		State:        a.State(),
		Position:     a.Position(),
		LoopMode:     a.LoopMode(),
		Shuffle:      a.Shuffle(),
		Capabilities: a.Capabilities(),
		Active:       playing,
	}
}

// SendCommandToActive forwards cmd to the active adapter.
func (r *Registry) SendCommandToActive(cmd adapter.Command) (bool, error) {
	a, _ := r.GetActive()
	if a == nil {
		return false, fmt.Errorf("registry: %w: no active player", ErrUnknownPlayer)
	}
	return a.SendCommand(cmd), nil
}

// SendCommand forwards cmd to the adapter registered under playerID.
func (r *Registry) SendCommand(playerID string, cmd adapter.Command) (bool, error) {
	a, ok := r.Get(playerID)
	if !ok {
		return false, fmt.Errorf("registry: %w: %s", ErrUnknownPlayer, playerID)
	}
	return a.SendCommand(cmd), nil
}

// RegisterListener stores a weak reference to h.
func (r *Registry) RegisterListener(h *ListenerHandle) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	r.listeners = append(r.listeners, weak.Make(h))
}

// UnregisterListener removes h, if still registered.
func (r *Registry) UnregisterListener(h *ListenerHandle) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()
	kept := r.listeners[:0]
	for _, wp := range r.listeners {
		if live := wp.Value(); live != nil && live != h {
			kept = append(kept, wp)
		}
	}
	r.listeners = kept
}

func (r *Registry) dispatch(fn func(Listener)) {
	r.listenersMu.Lock()
	snapshot := append([]weak.Pointer[ListenerHandle](nil), r.listeners...)
	r.listenersMu.Unlock()

	alive := make([]weak.Pointer[ListenerHandle], 0, len(snapshot))
	for _, wp := range snapshot {
		h := wp.Value()
		if h == nil {
			continue
		}
		alive = append(alive, wp)
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					log.Warn().Interface("panic", rec).Msg("registry: listener panicked")
				}
			}()
			fn(h.Listener)
		}()
	}

	r.listenersMu.Lock()
	r.listeners = alive
	r.listenersMu.Unlock()
}

// adapterForwarder is the per-adapter listener the registry registers
// on Add; it updates the sticky active pointer and re-dispatches to
// registry-level listeners with position damping applied.
type adapterForwarder struct {
	registry *Registry
	playerID string
}

func (f *adapterForwarder) OnStateChanged(playerID string, state song.PlaybackState) {
	r := f.registry
	if state == song.StatePlaying {
		r.mu.Lock()
		changed := r.activeID != playerID
		r.activeID = playerID
		r.mu.Unlock()
		if changed {
			r.dispatch(func(l Listener) { l.OnActivePlayerChanged(playerID) })
		}
	}
	if r.isActive(playerID) {
		r.dispatch(func(l Listener) { l.OnStateChanged(playerID, state) })
	}
}

func (f *adapterForwarder) OnSongChanged(playerID string, s song.Song) {
	if f.registry.isActive(playerID) {
		f.registry.dispatch(func(l Listener) { l.OnSongChanged(playerID, s) })
	}
}

func (f *adapterForwarder) OnPositionChanged(playerID string, seconds float64) {
	r := f.registry
	if !r.isActive(playerID) {
		return
	}

	r.mu.Lock()
	e, ok := r.adapters[playerID]
	fire := false
	if ok {
		delta := seconds - e.lastReported
		if delta < 0 {
			delta = -delta
		}
		if delta > positionDampingThreshold {
			e.lastReported = seconds
			fire = true
		}
	}
	r.mu.Unlock()

	if fire {
		r.dispatch(func(l Listener) { l.OnPositionChanged(playerID, seconds) })
	}
}

func (f *adapterForwarder) OnLoopModeChanged(playerID string, mode song.LoopMode) {
	if f.registry.isActive(playerID) {
		f.registry.dispatch(func(l Listener) { l.OnLoopModeChanged(playerID, mode) })
	}
}

func (f *adapterForwarder) OnShuffleChanged(playerID string, shuffle bool) {
	if f.registry.isActive(playerID) {
		f.registry.dispatch(func(l Listener) { l.OnShuffleChanged(playerID, shuffle) })
	}
}

func (f *adapterForwarder) OnCapabilitiesChanged(playerID string, caps song.CapabilitySet) {
	if f.registry.isActive(playerID) {
		f.registry.dispatch(func(l Listener) { l.OnCapabilitiesChanged(playerID, caps) })
	}
}

func (r *Registry) isActive(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID == playerID
}
