package httpgeneric

import (
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
)

func TestNewAppliesDefaults(t *testing.T) {
	a := New("webhook1", Config{
		Name:         "My Webhook Player",
		Capabilities: song.CapPlay | song.CapPause,
		InitialState: song.StateStopped,
		DefaultLoop:  song.LoopPlaylist,
	})

	if a.State() != song.StateStopped {
		t.Errorf("State = %v", a.State())
	}
	if !a.Capabilities().Has(song.CapPlay) {
		t.Errorf("Capabilities = %v", a.Capabilities())
	}
	if a.LoopMode() != song.LoopPlaylist {
		t.Errorf("LoopMode = %v", a.LoopMode())
	}
}

func TestPushEventAppliesOnlySetFields(t *testing.T) {
	a := New("webhook1", Config{Name: "Webhook"})

	s := song.Song{Title: "T", Artist: "A"}
	a.PushEvent(Event{Song: &s})

	if a.Song().Title != "T" {
		t.Errorf("Song = %+v", a.Song())
	}
	if a.State() != song.StateUnknown {
		t.Errorf("State should be untouched, got %v", a.State())
	}
}

func TestSendCommandAlwaysUnsupported(t *testing.T) {
	a := New("webhook1", Config{Name: "Webhook"})
	if a.SendCommand(adapter.Command{Type: adapter.CmdPlay}) {
		t.Errorf("generic HTTP adapter should never accept commands")
	}
}
