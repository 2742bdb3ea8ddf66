package adapter

import (
	"runtime"
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
)

type recordingListener struct {
	songs  []song.Song
	states []song.PlaybackState
}

func (l *recordingListener) OnStateChanged(id string, s song.PlaybackState) {
	l.states = append(l.states, s)
}
func (l *recordingListener) OnSongChanged(id string, s song.Song) { l.songs = append(l.songs, s) }
func (l *recordingListener) OnPositionChanged(id string, seconds float64) {}
func (l *recordingListener) OnLoopModeChanged(id string, mode song.LoopMode) {}
func (l *recordingListener) OnShuffleChanged(id string, shuffle bool) {}
func (l *recordingListener) OnCapabilitiesChanged(id string, caps song.CapabilitySet) {}

func TestSetSongNotifiesListeners(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	rec := &recordingListener{}
	h := NewListenerHandle(rec)
	b.RegisterListener(h)

	s := song.Song{Title: "Track", Artist: "Artist"}
	b.SetSong(s)

	if len(rec.songs) != 1 || !rec.songs[0].Equal(s) {
		t.Fatalf("songs = %+v", rec.songs)
	}
}

func TestSetSongCoalescesEqualSongs(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	rec := &recordingListener{}
	h := NewListenerHandle(rec)
	b.RegisterListener(h)

	s := song.Song{Title: "Track", Artist: "Artist", Album: "A"}
	b.SetSong(s)
	b.SetSong(song.Song{Title: "Track", Artist: "Artist", Album: "A", Duration: 999})

	if len(rec.songs) != 1 {
		t.Fatalf("expected duplicate song to be coalesced, got %d notifications", len(rec.songs))
	}
}

func TestSetStateNotifiesOnlyOnChange(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	rec := &recordingListener{}
	b.RegisterListener(NewListenerHandle(rec))

	b.SetState(song.StatePlaying)
	b.SetState(song.StatePlaying)
	b.SetState(song.StatePaused)

	if len(rec.states) != 2 {
		t.Fatalf("states = %v, want 2 transitions", rec.states)
	}
}

func TestAddCapabilitiesIsMonotone(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	b.AddCapabilities(song.CapPlay)
	b.AddCapabilities(song.CapPause)

	caps := b.Capabilities()
	if !caps.Has(song.CapPlay) || !caps.Has(song.CapPause) {
		t.Errorf("caps = %v, want both bits set", caps)
	}
}

func TestUnregisterListenerStopsNotifications(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	rec := &recordingListener{}
	h := NewListenerHandle(rec)
	b.RegisterListener(h)
	b.UnregisterListener(h)

	b.SetState(song.StatePlaying)
	if len(rec.states) != 0 {
		t.Errorf("expected no notifications after unregister, got %v", rec.states)
	}
}

func TestDroppedHandleIsGarbageCollected(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	rec := &recordingListener{}
	func() {
		h := NewListenerHandle(rec)
		b.RegisterListener(h)
	}()

	// Force a collection cycle so the weak reference can clear. This is
	// inherently best-effort; the assertion below only checks that
	// dispatch does not panic when a reference has gone stale.
	runtime.GC()
	runtime.GC()

	b.SetState(song.StatePlaying)
}

func TestMarkStartedIsIdempotent(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	if !b.MarkStarted() {
		t.Fatalf("first MarkStarted should succeed")
	}
	if b.MarkStarted() {
		t.Errorf("second MarkStarted should report already running")
	}
}

func TestUnsupportedReturnsFalse(t *testing.T) {
	b := NewBase("p1", "Player One", "test")
	if b.Unsupported(Command{Type: CmdSeek}) {
		t.Errorf("Unsupported should always return false")
	}
}
