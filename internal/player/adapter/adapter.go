// Package adapter provides the shared base every player backend (C10)
// embeds: current-song/state/stream/capability slots, a lifecycle
// flag, and a weak-reference listener list, per §4.10.
package adapter

import (
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/rs/zerolog/log"
)

// CommandType enumerates the command set every adapter may be asked to
// perform. An adapter that doesn't implement one returns false; it
// never fails the process.
type CommandType int

const (
	CmdPlay CommandType = iota
	CmdPause
	CmdPlayPause
	CmdNext
	CmdPrevious
	CmdSeek
	CmdSetLoopMode
	CmdSetRandom
	CmdKill
	CmdQueueTracks
	CmdRemoveTrack
	CmdClearQueue
)

func (c CommandType) String() string {
	switch c {
	case CmdPlay:
		return "Play"
	case CmdPause:
		return "Pause"
	case CmdPlayPause:
		return "PlayPause"
	case CmdNext:
		return "Next"
	case CmdPrevious:
		return "Previous"
	case CmdSeek:
		return "Seek"
	case CmdSetLoopMode:
		return "SetLoopMode"
	case CmdSetRandom:
		return "SetRandom"
	case CmdKill:
		return "Kill"
	case CmdQueueTracks:
		return "QueueTracks"
	case CmdRemoveTrack:
		return "RemoveTrack"
	case CmdClearQueue:
		return "ClearQueue"
	default:
		return "Unknown"
	}
}

// Command is one playback control request. Only the fields relevant
// to Type are meaningful.
type Command struct {
	Type     CommandType
	Seconds  float64
	LoopMode song.LoopMode
	Random   bool
	TrackID  string
	Tracks   []song.Song
}

// Listener receives change notifications from an adapter (or, when
// subscribed by the registry, from the aggregate "active player").
type Listener interface {
	OnStateChanged(playerID string, state song.PlaybackState)
	OnSongChanged(playerID string, s song.Song)
	OnPositionChanged(playerID string, seconds float64)
	OnLoopModeChanged(playerID string, mode song.LoopMode)
	OnShuffleChanged(playerID string, shuffle bool)
	OnCapabilitiesChanged(playerID string, caps song.CapabilitySet)
}

// ListenerHandle is the strong-referenced object a caller keeps alive;
// RegisterListener stores only a weak.Pointer to it, so a caller that
// drops its handle is unregistered automatically on the next dispatch.
type ListenerHandle struct {
	Listener
}

// NewListenerHandle wraps l for registration.
func NewListenerHandle(l Listener) *ListenerHandle {
	return &ListenerHandle{Listener: l}
}

// Adapter is the interface the registry (C12) drives. Every backend in
// internal/player/adapters implements it by embedding Base.
type Adapter interface {
	ID() string
	DisplayName() string
	BackendType() string
	Start() bool
	Stop() bool
	SendCommand(cmd Command) bool
	Song() song.Song
	State() song.PlaybackState
	Position() float64
	LoopMode() song.LoopMode
	Shuffle() bool
	Capabilities() song.CapabilitySet
	StreamDetails() song.StreamDetails
	LastSeen() time.Time
	RegisterListener(h *ListenerHandle)
	UnregisterListener(h *ListenerHandle)
}

// Base implements every Adapter method except Start/Stop/SendCommand,
// which are backend-specific and left to the embedding type.
type Base struct {
	id          string
	displayName string
	backendType string

	running atomic.Bool
	lastSeen atomic.Int64 // unix nanos

	mu       sync.RWMutex
	song     song.Song
	state    song.PlaybackState
	position float64
	loopMode song.LoopMode
	shuffle  bool
	caps     song.CapabilitySet
	stream   song.StreamDetails

	listenersMu sync.Mutex
	listeners   []weak.Pointer[ListenerHandle]
}

// NewBase constructs a Base with the given identity. Embedding types
// call this from their own constructor.
func NewBase(id, displayName, backendType string) *Base {
	b := &Base{id: id, displayName: displayName, backendType: backendType}
	b.touch()
	return b
}

func (b *Base) ID() string          { return b.id }
func (b *Base) DisplayName() string { return b.displayName }
func (b *Base) BackendType() string { return b.backendType }

func (b *Base) IsRunning() bool { return b.running.Load() }

// MarkStarted flips the lifecycle flag to running. Returns false if
// already running (start is idempotent).
func (b *Base) MarkStarted() bool {
	return b.running.CompareAndSwap(false, true)
}

// MarkStopped flips the lifecycle flag to stopped.
func (b *Base) MarkStopped() {
	b.running.Store(false)
}

func (b *Base) touch() {
	b.lastSeen.Store(time.Now().UnixNano())
}

func (b *Base) LastSeen() time.Time {
	return time.Unix(0, b.lastSeen.Load())
}

func (b *Base) Song() song.Song {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.song
}

func (b *Base) State() song.PlaybackState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *Base) Position() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.position
}

func (b *Base) LoopMode() song.LoopMode {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loopMode
}

func (b *Base) Shuffle() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.shuffle
}

func (b *Base) Capabilities() song.CapabilitySet {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.caps
}

func (b *Base) StreamDetails() song.StreamDetails {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stream
}

// SetSong replaces the stored song and notifies listeners, unless s
// equals the stored song per the song equality rule (duplicate
// coalescing, §4.10.2).
func (b *Base) SetSong(s song.Song) {
	b.touch()
	b.mu.Lock()
	if b.song.Equal(s) {
		b.mu.Unlock()
		return
	}
	b.song = s
	b.mu.Unlock()
	b.dispatch(func(l Listener) { l.OnSongChanged(b.id, s) })
}

// SetState replaces the stored playback state and notifies listeners.
func (b *Base) SetState(state song.PlaybackState) {
	b.touch()
	b.mu.Lock()
	if b.state == state {
		b.mu.Unlock()
		return
	}
	b.state = state
	b.mu.Unlock()
	b.dispatch(func(l Listener) { l.OnStateChanged(b.id, state) })
}

// SetPosition replaces the stored position and notifies listeners
// unconditionally; damping high-frequency updates is the registry's
// responsibility (§4.12), since only the registry knows whether a
// listener is externally subscribed.
func (b *Base) SetPosition(seconds float64) {
	b.touch()
	b.mu.Lock()
	b.position = seconds
	b.mu.Unlock()
	b.dispatch(func(l Listener) { l.OnPositionChanged(b.id, seconds) })
}

// SetLoopMode replaces the stored loop mode and notifies listeners.
func (b *Base) SetLoopMode(mode song.LoopMode) {
	b.touch()
	b.mu.Lock()
	if b.loopMode == mode {
		b.mu.Unlock()
		return
	}
	b.loopMode = mode
	b.mu.Unlock()
	b.dispatch(func(l Listener) { l.OnLoopModeChanged(b.id, mode) })
}

// SetShuffle replaces the stored shuffle flag and notifies listeners.
func (b *Base) SetShuffle(shuffle bool) {
	b.touch()
	b.mu.Lock()
	if b.shuffle == shuffle {
		b.mu.Unlock()
		return
	}
	b.shuffle = shuffle
	b.mu.Unlock()
	b.dispatch(func(l Listener) { l.OnShuffleChanged(b.id, shuffle) })
}

// AddCapabilities grows the capability set (capability sets only ever
// grow within one adapter session per the data-model invariant) and
// notifies listeners if anything changed.
func (b *Base) AddCapabilities(caps song.CapabilitySet) {
	b.touch()
	b.mu.Lock()
	merged := b.caps | caps
	if merged == b.caps {
		b.mu.Unlock()
		return
	}
	b.caps = merged
	b.mu.Unlock()
	b.dispatch(func(l Listener) { l.OnCapabilitiesChanged(b.id, merged) })
}

// ResetCapabilities replaces the capability set wholesale — used only
// when an adapter restarts and rebuilds capabilities from scratch.
func (b *Base) ResetCapabilities(caps song.CapabilitySet) {
	b.touch()
	b.mu.Lock()
	b.caps = caps
	b.mu.Unlock()
	b.dispatch(func(l Listener) { l.OnCapabilitiesChanged(b.id, caps) })
}

// SetStreamDetails replaces the stored stream format. Stream details
// have no dedicated listener event in §4.12; callers observe them via
// Song()/StreamDetails() directly.
func (b *Base) SetStreamDetails(d song.StreamDetails) {
	b.touch()
	b.mu.Lock()
	b.stream = d
	b.mu.Unlock()
}

// RegisterListener stores a weak reference to h. A handle whose owner
// drops every strong reference is silently dropped on the next
// dispatch rather than kept alive forever.
func (b *Base) RegisterListener(h *ListenerHandle) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	b.listeners = append(b.listeners, weak.Make(h))
}

// UnregisterListener removes h, if still registered.
func (b *Base) UnregisterListener(h *ListenerHandle) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	kept := b.listeners[:0]
	for _, wp := range b.listeners {
		if live := wp.Value(); live != nil && live != h {
			kept = append(kept, wp)
		}
	}
	b.listeners = kept
}

// dispatch calls fn for every listener still alive, dropping any whose
// weak reference no longer upgrades. Dispatch is synchronous on the
// calling goroutine per §4.12; listeners must not block.
func (b *Base) dispatch(fn func(Listener)) {
	b.listenersMu.Lock()
	snapshot := append([]weak.Pointer[ListenerHandle](nil), b.listeners...)
	b.listenersMu.Unlock()

	alive := make([]weak.Pointer[ListenerHandle], 0, len(snapshot))
	for _, wp := range snapshot {
		h := wp.Value()
		if h == nil {
			continue
		}
		alive = append(alive, wp)
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Warn().Interface("panic", r).Str("player_id", b.id).Msg("adapter: listener panicked")
				}
			}()
			fn(h.Listener)
		}()
	}

	b.listenersMu.Lock()
	b.listeners = alive
	b.listenersMu.Unlock()
}

// Unsupported logs a warning for a command the embedding adapter
// doesn't implement and returns false, matching §4.10's "returns false
// and logs a warning; does not fail the process."
func (b *Base) Unsupported(cmd Command) bool {
	log.Warn().Str("player_id", b.id).Str("command", cmd.Type.String()).Msg("adapter: command not supported")
	return false
}
