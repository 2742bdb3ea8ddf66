package normalise

import "github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"

// RoonNowPlaying is the "now_playing" sub-object of a Roon-style event.
type RoonNowPlaying struct {
	Title      string
	Artist     string
	Album      string
	Composer   string
	Length     int // seconds
	ArtworkURL string
}

// RoonStreamFormat is the "stream_format" sub-object.
type RoonStreamFormat struct {
	SampleRate    int
	BitsPerSample int
	Channels      int
	SampleType    string
}

// RoonEvent is the decoded JSON shape of one Roon-style event: a single
// object carrying the adapter's full current state, not a delta.
type RoonEvent struct {
	State string // "playing", "paused", "stopped", ...
	Seek  int    // seconds

	IsPlayAllowed     bool
	IsPauseAllowed    bool
	IsSeekAllowed     bool
	IsNextAllowed     bool
	IsPreviousAllowed bool

	Shuffle bool
	Loop    string // "no", "song", "playlist"

	StreamFormat RoonStreamFormat
	NowPlaying   RoonNowPlaying
}

func roonState(s string) song.PlaybackState {
	switch s {
	case "playing":
		return song.StatePlaying
	case "paused":
		return song.StatePaused
	case "stopped":
		return song.StateStopped
	default:
		return song.StateUnknown
	}
}

func roonSampleType(s string) song.SampleType {
	switch s {
	case "dsd":
		return song.SampleDSD
	case "pcm":
		return song.SamplePCM
	default:
		return song.SampleOther
	}
}

// Roon normalises one Roon-style event. Every field in the event is a
// full snapshot, so the result always replaces the stored song, state,
// position, capabilities, loop mode, shuffle, and stream details.
func Roon(ev RoonEvent) (Result, bool) {
	caps := song.CapabilitySet(0)
	if ev.IsPlayAllowed {
		caps = caps.With(song.CapPlay | song.CapPlayPause)
	}
	if ev.IsPauseAllowed {
		caps = caps.With(song.CapPause | song.CapPlayPause)
	}
	if ev.IsSeekAllowed {
		caps = caps.With(song.CapSeek | song.CapPosition)
	}
	if ev.NowPlaying.Length > 0 {
		caps = caps.With(song.CapSeek)
	}
	if ev.IsNextAllowed {
		caps = caps.With(song.CapNext)
	}
	if ev.IsPreviousAllowed {
		caps = caps.With(song.CapPrevious)
	}

	s := song.Song{
		Title:    ev.NowPlaying.Title,
		Artist:   ev.NowPlaying.Artist,
		Album:    ev.NowPlaying.Album,
		Duration: float64(ev.NowPlaying.Length),
		Source:   "roon",
	}
	if ev.NowPlaying.ArtworkURL != "" {
		s.CoverArtURL = ev.NowPlaying.ArtworkURL
	}

	return Result{
		Song:          s,
		SongChanged:   true,
		State:         roonState(ev.State),
		StateChanged:  true,
		PositionSec:   float64(ev.Seek),
		PositionSet:   true,
		Capabilities:  caps,
		CapsChanged:   true,
		LoopMode:      song.ParseLoopMode(ev.Loop),
		LoopSet:       true,
		Shuffle:       ev.Shuffle,
		ShuffleSet:    true,
		StreamDetails: song.StreamDetails{
			SampleRateHz:  ev.StreamFormat.SampleRate,
			BitsPerSample: ev.StreamFormat.BitsPerSample,
			Channels:      ev.StreamFormat.Channels,
			SampleType:    roonSampleType(ev.StreamFormat.SampleType),
			Lossless:      roonSampleType(ev.StreamFormat.SampleType) != song.SampleOther,
		},
		StreamSet: true,
	}, true
}
