package spotify

import (
	"os"
	"testing"
	"time"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
)

func TestPushEventTrackChanged(t *testing.T) {
	a := New("spotify", "Spotify", "")
	a.PushEvent(map[string]interface{}{
		"event":   "track_changed",
		"NAME":    "One More Time",
		"ARTISTS": "Daft Punk",
		"ALBUM":   "Discovery",
	})

	s := a.Song()
	if s.Title != "One More Time" || s.Artist != "Daft Punk" {
		t.Errorf("Song = %+v", s)
	}
}

func TestPushEventPlayingSetsState(t *testing.T) {
	a := New("spotify", "Spotify", "")
	a.PushEvent(map[string]interface{}{"event": "playing", "POSITION_MS": float64(2000)})

	if a.State() != song.StatePlaying {
		t.Errorf("State = %v, want Playing", a.State())
	}
	if a.Position() != 2.0 {
		t.Errorf("Position = %v, want 2.0", a.Position())
	}
}

func TestPushEventAcceptsStringEncodedFields(t *testing.T) {
	a := New("spotify", "Spotify", "")
	a.PushEvent(map[string]interface{}{
		"event":       "playing",
		"POSITION_MS": "2000",
	})

	if a.State() != song.StatePlaying {
		t.Errorf("State = %v, want Playing", a.State())
	}
	if a.Position() != 2.0 {
		t.Errorf("Position = %v, want 2.0 (string-encoded POSITION_MS)", a.Position())
	}
}

func TestPushEventFallsBackToLegacyTypeKey(t *testing.T) {
	a := New("spotify", "Spotify", "")
	a.PushEvent(map[string]interface{}{"type": "playing", "POSITION_MS": float64(1000)})

	if a.State() != song.StatePlaying {
		t.Errorf("State = %v, want Playing (legacy \"type\" key)", a.State())
	}
}

type trackRecorder struct{ count int }

func (r *trackRecorder) OnStateChanged(string, song.PlaybackState)       {}
func (r *trackRecorder) OnSongChanged(string, song.Song)                 { r.count++ }
func (r *trackRecorder) OnPositionChanged(string, float64)               {}
func (r *trackRecorder) OnLoopModeChanged(string, song.LoopMode)         {}
func (r *trackRecorder) OnShuffleChanged(string, bool)                   {}
func (r *trackRecorder) OnCapabilitiesChanged(string, song.CapabilitySet) {}

func TestPushEventDuplicateTrackCoalesced(t *testing.T) {
	a := New("spotify", "Spotify", "")
	rec := &trackRecorder{}
	a.RegisterListener(adapter.NewListenerHandle(rec))

	a.PushEvent(map[string]interface{}{"event": "track_changed", "NAME": "T", "ARTISTS": "A", "ALBUM": "Al"})
	a.PushEvent(map[string]interface{}{"event": "track_changed", "NAME": "T", "ARTISTS": "A", "ALBUM": "Al", "DURATION_MS": float64(9999)})

	if rec.count != 1 {
		t.Errorf("expected duplicate track_changed to be coalesced, got %d song changes", rec.count)
	}
}

func TestHandleLineBuffersMultiLineFrame(t *testing.T) {
	a := New("spotify", "Spotify", "")
	a.handleLine("{")
	a.handleLine(`"event": "track_changed",`)
	a.handleLine(`"NAME": "Buffered Track"`)
	a.handleLine("}")

	if a.Song().Title != "Buffered Track" {
		t.Errorf("Song.Title = %q, want Buffered Track", a.Song().Title)
	}
}

func TestPipeAndHTTPPushShareLastWriterWins(t *testing.T) {
	path := t.TempDir() + "/spotify-events"
	if err := os.WriteFile(path, []byte(`{"event":"track_changed","NAME":"From Pipe"}`+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := New("spotify", "Spotify", path)
	a.Start()
	defer a.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for a.Song().Title == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if a.Song().Title != "From Pipe" {
		t.Fatalf("expected pipe event to be applied, got %+v", a.Song())
	}

	a.PushEvent(map[string]interface{}{"event": "track_changed", "NAME": "From HTTP"})
	if a.Song().Title != "From HTTP" {
		t.Errorf("expected HTTP push to win as the latest event, got %+v", a.Song())
	}
}
