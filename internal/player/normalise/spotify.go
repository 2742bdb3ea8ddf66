// Package normalise implements the Event Normaliser (C11): pure
// functions translating backend-specific event records into the
// canonical (Song, PlayerState-ish fields, CapabilitySet,
// StreamDetails) tuple every adapter emits.
package normalise

import (
	"github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
)

// Result is the tuple every normalise function returns. SongChanged
// reports whether Song should replace the adapter's stored song (some
// event types only touch state/position and must leave the current
// song alone).
type Result struct {
	Song          song.Song
	SongChanged   bool
	State         song.PlaybackState
	StateChanged  bool
	PositionSec   float64
	PositionSet   bool
	Capabilities  song.CapabilitySet
	CapsChanged   bool
	StreamDetails song.StreamDetails
	StreamSet     bool
	LoopMode      song.LoopMode
	LoopSet       bool
	Shuffle       bool
	ShuffleSet    bool
	VolumePercent int
	VolumeSet     bool
}

// SpotifyEvent is the decoded JSON shape of one Spotify-style pipe or
// HTTP-push event. Fields are named after the wire keys; unused fields
// for a given Type are simply absent from the map the caller passed.
type SpotifyEvent struct {
	Type string

	PositionMS int64
	TrackID    string

	Name         string
	Artists      []string
	Album        string
	AlbumArtists []string
	Number       int
	DurationMS   int64
	Covers       []string
	URI          string
	Popularity   int
	IsExplicit   bool

	Volume int // 0..65536

	RepeatTrack bool
	Repeat      bool

	Shuffle bool
}

// defaultSpotifyStream is used whenever a track_changed event doesn't
// override the stream format, per §4.11.
var defaultSpotifyStream = song.StreamDetails{
	SampleRateHz:  44100,
	BitsPerSample: 16,
	Channels:      2,
	SampleType:    song.SampleOther,
	Lossless:      false,
}

// Spotify normalises one Spotify-style event. Unknown types are
// reported via ok=false so the caller can log-and-discard.
func Spotify(ev SpotifyEvent) (Result, bool) {
	switch ev.Type {
	case "playing":
		return Result{
			State:        song.StatePlaying,
			StateChanged: true,
			PositionSec:  float64(ev.PositionMS) / 1000.0,
			PositionSet:  true,
		}, true

	case "paused":
		return Result{
			State:        song.StatePaused,
			StateChanged: true,
			PositionSec:  float64(ev.PositionMS) / 1000.0,
			PositionSet:  true,
		}, true

	case "stopped":
		return Result{
			State:        song.StateStopped,
			StateChanged: true,
		}, true

	case "track_changed":
		s := song.Song{
			Title:       ev.Name,
			Album:       ev.Album,
			TrackNumber: ev.Number,
			Duration:    float64(ev.DurationMS) / 1000.0,
			StreamURL:   ev.URI,
			Source:      "spotify",
		}
		if len(ev.Artists) > 0 {
			s.Artist = ev.Artists[0]
		}
		if len(ev.AlbumArtists) > 0 {
			s.AlbumArtist = ev.AlbumArtists[0]
		}
		if len(ev.Covers) > 0 {
			s.CoverArtURL = ev.Covers[0]
		}

		caps := song.CapabilitySet(0)
		if s.Duration > 0 {
			caps = caps.With(song.CapSeek | song.CapPosition | song.CapLength)
		}

		return Result{
			Song:          s,
			SongChanged:   true,
			StreamDetails: defaultSpotifyStream,
			StreamSet:     true,
			Capabilities:  caps,
			CapsChanged:   caps != 0,
		}, true

	case "volume_changed":
		return Result{
			VolumePercent: SpotifyVolumePercent(ev.Volume),
			VolumeSet:     true,
		}, true

	case "repeat_changed":
		mode := song.LoopNone
		if ev.RepeatTrack {
			mode = song.LoopTrack
		} else if ev.Repeat {
			mode = song.LoopPlaylist
		}
		return Result{LoopMode: mode, LoopSet: true}, true

	case "shuffle_changed":
		return Result{Shuffle: ev.Shuffle, ShuffleSet: true}, true

	case "seeked":
		return Result{
			PositionSec: float64(ev.PositionMS) / 1000.0,
			PositionSet: true,
		}, true

	case "loading", "play_request_id_changed", "preloading":
		return Result{}, true

	default:
		return Result{}, false
	}
}

// SpotifyVolumePercent maps the wire 0..65536 volume range to 0..100.
func SpotifyVolumePercent(raw int) int {
	if raw <= 0 {
		return 0
	}
	if raw >= 65536 {
		return 100
	}
	return int(float64(raw) / 65536.0 * 100.0)
}
