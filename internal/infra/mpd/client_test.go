package mpd_test

import (
	"testing"

	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/mpd"
)

func TestNewClient(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	if client == nil {
		t.Error("NewClient should return a non-nil client")
	}
}

func TestClientConnectFailure(t *testing.T) {
	// Test connection to non-existent server
	client := mpd.NewClient("localhost", 16600, "") // Wrong port

	err := client.Connect()
	if err == nil {
		t.Error("Connect should fail for non-existent server")
		client.Close()
	}
}

func TestClientPingWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Ping()
	if err == nil {
		t.Error("Ping should fail when not connected")
	}
}

func TestClientStatusWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	_, err := client.Status()
	if err == nil {
		t.Error("Status should fail when not connected")
	}
}

func TestClientPlayWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Play(0)
	if err == nil {
		t.Error("Play should fail when not connected")
	}
}

func TestClientPauseWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Pause(true)
	if err == nil {
		t.Error("Pause should fail when not connected")
	}
}

func TestClientStopWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Stop()
	if err == nil {
		t.Error("Stop should fail when not connected")
	}
}

func TestClientNextWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Next()
	if err == nil {
		t.Error("Next should fail when not connected")
	}
}

func TestClientPreviousWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Previous()
	if err == nil {
		t.Error("Previous should fail when not connected")
	}
}

func TestClientSetVolumeWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.SetVolume(50)
	if err == nil {
		t.Error("SetVolume should fail when not connected")
	}
}

func TestClientSetRandomWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.SetRandom(true)
	if err == nil {
		t.Error("SetRandom should fail when not connected")
	}
}

func TestClientSetRepeatWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.SetRepeat(true)
	if err == nil {
		t.Error("SetRepeat should fail when not connected")
	}
}

func TestClientPlaylistInfoWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	_, err := client.PlaylistInfo()
	if err == nil {
		t.Error("PlaylistInfo should fail when not connected")
	}
}

func TestClientClearWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Clear()
	if err == nil {
		t.Error("Clear should fail when not connected")
	}
}

func TestClientAddWithoutConnect(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	err := client.Add("test.flac")
	if err == nil {
		t.Error("Add should fail when not connected")
	}
}

func TestClientLocalCoverArtWithoutMusicDir(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")

	data, mimeType, err := client.LocalCoverArt("Artist/Album/track.flac")
	if err != nil {
		t.Fatalf("LocalCoverArt: %v", err)
	}
	if data != nil || mimeType != "" {
		t.Errorf("LocalCoverArt with no music dir configured = %v, %q, want nil, \"\"", data, mimeType)
	}
}

func TestClientLocalCoverArtMissingFile(t *testing.T) {
	client := mpd.NewClient("localhost", 6600, "")
	client.SetMusicDir(t.TempDir())

	data, mimeType, err := client.LocalCoverArt("Artist/Album/missing.flac")
	if err != nil {
		t.Fatalf("LocalCoverArt: %v", err)
	}
	if data != nil || mimeType != "" {
		t.Errorf("LocalCoverArt for a nonexistent file = %v, %q, want nil, \"\"", data, mimeType)
	}
}
