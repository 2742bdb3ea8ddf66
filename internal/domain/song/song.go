// Package song defines the canonical track, stream, and capability data
// model shared by every player adapter and by the HTTP API surface.
package song

import "encoding/json"

// Song is the canonical track representation. Two songs are equal per
// Equal below when title, artist, and album match; duration, cover art,
// and metadata are deliberately ignored so that two masterings of the
// same recording compare equal.
type Song struct {
	Title       string                     `json:"title,omitempty"`
	Artist      string                     `json:"artist,omitempty"`
	Album       string                     `json:"album,omitempty"`
	AlbumArtist string                     `json:"album_artist,omitempty"`
	TrackNumber int                        `json:"track_number,omitempty"`
	TotalTracks int                        `json:"total_tracks,omitempty"`
	Duration    float64                    `json:"duration,omitempty"` // seconds
	Genre       string                     `json:"genre,omitempty"`
	Genres      []string                   `json:"genres,omitempty"`
	Year        int                        `json:"year,omitempty"`
	CoverArtURL string                     `json:"cover_art_url,omitempty"`
	StreamURL   string                     `json:"stream_url,omitempty"`
	Source      string                     `json:"source,omitempty"`
	Liked       bool                       `json:"liked,omitempty"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

// Equal implements the identity rule from the data model: two songs are
// the same track iff title, artist, and album match.
func (s Song) Equal(o Song) bool {
	return s.Title == o.Title && s.Artist == o.Artist && s.Album == o.Album
}

// SampleType enumerates the stream sample representation.
type SampleType string

const (
	SamplePCM   SampleType = "pcm"
	SampleDSD   SampleType = "dsd"
	SampleOther SampleType = ""
)

// StreamDetails describes the physical format of the audio stream
// currently playing. All fields are optional; zero means unknown.
type StreamDetails struct {
	SampleRateHz  int        `json:"sample_rate_hz,omitempty"`
	BitsPerSample int        `json:"bits_per_sample,omitempty"`
	Channels      int        `json:"channels,omitempty"`
	SampleType    SampleType `json:"sample_type,omitempty"`
	Lossless      bool       `json:"lossless,omitempty"`
}

// FormatDescription composes a human-readable summary, e.g. "FLAC
// 44.1kHz/16bit 2ch". Missing fields are omitted rather than guessed.
func (d StreamDetails) FormatDescription() string {
	desc := ""
	if d.SampleType != "" {
		desc = string(d.SampleType)
	}
	if d.SampleRateHz > 0 {
		khz := float64(d.SampleRateHz) / 1000.0
		if desc != "" {
			desc += " "
		}
		desc += trimTrailingZero(khz) + "kHz"
	}
	if d.BitsPerSample > 0 {
		if desc != "" {
			desc += "/"
		}
		desc += itoa(d.BitsPerSample) + "bit"
	}
	if d.Channels > 0 {
		if desc != "" {
			desc += " "
		}
		desc += itoa(d.Channels) + "ch"
	}
	return desc
}

// Bitrate returns the derived bitrate in bits per second for PCM-style
// streams. Requires sample rate, bit depth, and channel count; returns
// 0 when any is unknown.
func (d StreamDetails) Bitrate() int {
	if d.SampleRateHz == 0 || d.BitsPerSample == 0 || d.Channels == 0 {
		return 0
	}
	return d.SampleRateHz * d.BitsPerSample * d.Channels
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func trimTrailingZero(f float64) string {
	// Minimal formatting: one decimal place, drop ".0".
	whole := int(f)
	frac := int((f-float64(whole))*10 + 0.5)
	if frac == 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

// PlaybackState is one of the canonical playback states. Default is
// Unknown.
type PlaybackState int

const (
	StateUnknown PlaybackState = iota
	StatePlaying
	StatePaused
	StateStopped
	StateKilled
)

func (p PlaybackState) String() string {
	switch p {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the playback state as its lowercase wire string.
func (p PlaybackState) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// LoopMode is one of None, Track, Playlist. Wire strings are "no",
// "song", "playlist" per spec.
type LoopMode int

const (
	LoopNone LoopMode = iota
	LoopTrack
	LoopPlaylist
)

func (l LoopMode) String() string {
	switch l {
	case LoopTrack:
		return "song"
	case LoopPlaylist:
		return "playlist"
	default:
		return "no"
	}
}

// MarshalJSON renders the loop mode as its wire string.
func (l LoopMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// ParseLoopMode parses the wire representation back into a LoopMode.
// Unrecognised strings map to LoopNone.
func ParseLoopMode(s string) LoopMode {
	switch s {
	case "song":
		return LoopTrack
	case "playlist":
		return LoopPlaylist
	default:
		return LoopNone
	}
}

// Capability is a single bit in the capability bitmask.
type Capability uint32

const (
	CapPlay Capability = 1 << iota
	CapPause
	CapPlayPause
	CapStop
	CapNext
	CapPrevious
	CapSeek
	CapPosition
	CapLength
	CapVolume
	CapMute
	CapShuffle
	CapLoop
	CapPlaylists
	CapQueue
	CapMetadata
	CapAlbumArt
	CapSearch
	CapBrowse
	CapFavorites
	CapDatabaseUpdate
	CapKillable
)

// CapabilitySet is the bitmask over all Capability bits for one adapter.
type CapabilitySet uint32

// Has reports whether c contains every bit in caps.
func (c CapabilitySet) Has(caps Capability) bool {
	return CapabilitySet(caps)&c == CapabilitySet(caps)
}

// With returns a new set with caps added. Capability sets are monotone
// within an adapter session per the data-model invariant: callers
// should only ever grow a set, never shrink one in place.
func (c CapabilitySet) With(caps Capability) CapabilitySet {
	return c | CapabilitySet(caps)
}

// Without returns a new set with caps removed. Used only when an
// adapter restarts and rebuilds its capability set from scratch.
func (c CapabilitySet) Without(caps Capability) CapabilitySet {
	return c &^ CapabilitySet(caps)
}
