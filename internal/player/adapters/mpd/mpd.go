// Package mpd implements the music-daemon adapter (§4.10.3): a thin
// translation layer over internal/infra/mpd's gompd wrapper, plus a
// library loader building the artist/album cross-index.
package mpd

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"sync"

	"github.com/rs/zerolog/log"

	domainsong "github.com/larsgrootkarzijn/audiocontrold/internal/domain/song"
	inframpd "github.com/larsgrootkarzijn/audiocontrold/internal/infra/mpd"
	"github.com/larsgrootkarzijn/audiocontrold/internal/jobs"
	"github.com/larsgrootkarzijn/audiocontrold/internal/player/adapter"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/imagecache"
)

// Adapter is the music-daemon backend.
type Adapter struct {
	*adapter.Base

	client *inframpd.Client

	localArt     *imagecache.Cache
	localArtBase string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wraps an already-configured infra/mpd client.
func New(id, displayName string, client *inframpd.Client) *Adapter {
	a := &Adapter{
		Base:   adapter.NewBase(id, displayName, "mpd"),
		client: client,
	}
	a.ResetCapabilities(domainsong.CapPlay | domainsong.CapPause | domainsong.CapPlayPause |
		domainsong.CapStop | domainsong.CapNext | domainsong.CapPrevious | domainsong.CapSeek |
		domainsong.CapPosition | domainsong.CapVolume | domainsong.CapMute | domainsong.CapShuffle |
		domainsong.CapLoop | domainsong.CapQueue)
	return a
}

// SetLocalArtSource enables the embedded/folder-art fallback: musicDir
// is MPD's own music_directory (recorded on the client so any code
// path holding the client, not just this adapter, can resolve local
// art), localArtBaseURL the path prefix (e.g. "/api/mpd/localart/")
// the HTTP layer serves cache entries under.
func (a *Adapter) SetLocalArtSource(musicDir string, cache *imagecache.Cache, localArtBaseURL string) {
	a.client.SetMusicDir(musicDir)
	a.localArt = cache
	a.localArtBase = localArtBaseURL
}

// resolveLocalArt fills in a cover art URL for a track MPD reported no
// artwork for, extracting it from the file itself and caching the
// result so repeat plays and library scans don't re-read the file.
func (a *Adapter) resolveLocalArt(relPath string) string {
	if a.localArt == nil || relPath == "" {
		return ""
	}
	hash := sha1.Sum([]byte(relPath))
	key := hex.EncodeToString(hash[:])

	for _, ext := range []string{"jpg", "png"} {
		cachePath := imagecache.LocalTrackArtPath(key, ext)
		if a.localArt.Exists(cachePath) {
			return a.localArtBase + key + "." + ext
		}
	}

	data, mimeType, err := a.client.LocalCoverArt(relPath)
	if err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Str("file", relPath).Msg("mpd: local cover art extraction failed")
		return ""
	}
	if data == nil {
		return ""
	}
	ext := "jpg"
	if mimeType == "image/png" {
		ext = "png"
	}
	if err := a.localArt.Store(imagecache.LocalTrackArtPath(key, ext), data); err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Msg("mpd: caching local cover art failed")
		return ""
	}
	return a.localArtBase + key + "." + ext
}

// Start connects to the daemon and begins polling for player/mixer/
// options subsystem changes, translating them into normalised events.
// Idempotent.
func (a *Adapter) Start() bool {
	if !a.MarkStarted() {
		return false
	}
	if err := a.client.Connect(); err != nil {
		log.Error().Err(err).Str("player_id", a.ID()).Msg("mpd: connect failed")
		a.MarkStopped()
		return false
	}

	a.refresh()

	events, err := a.client.Watch("player", "mixer", "options")
	if err != nil {
		log.Error().Err(err).Str("player_id", a.ID()).Msg("mpd: watch failed")
		return true // still connected, just polling-free
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				a.refresh()
			}
		}
	}()
	return true
}

// Stop signals the watcher goroutine to exit and closes the MPD
// connection.
func (a *Adapter) Stop() bool {
	a.MarkStopped()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return a.client.Close() == nil
}

// refresh polls status + current song and pushes any changes through
// Base's setters (each of which already no-ops on an unchanged value).
func (a *Adapter) refresh() {
	status, err := a.client.Status()
	if err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Msg("mpd: status poll failed")
		return
	}

	switch status["state"] {
	case "play":
		a.SetState(domainsong.StatePlaying)
	case "pause":
		a.SetState(domainsong.StatePaused)
	default:
		a.SetState(domainsong.StateStopped)
	}

	if elapsed, err := strconv.ParseFloat(status["elapsed"], 64); err == nil {
		a.SetPosition(elapsed)
	}
	a.SetShuffle(status["random"] == "1")
	a.SetLoopMode(loopModeFromStatus(status))

	cur, err := a.client.CurrentSong()
	if err == nil && len(cur) > 0 {
		a.SetSong(a.songFromAttrs(cur))
	}
}

func loopModeFromStatus(status map[string]string) domainsong.LoopMode {
	if status["single"] == "1" {
		return domainsong.LoopTrack
	}
	if status["repeat"] == "1" {
		return domainsong.LoopPlaylist
	}
	return domainsong.LoopNone
}

// songFromAttrs builds the canonical Song from MPD's attribute map,
// falling back to locally-extracted cover art (§4.10.3) since MPD
// itself never reports artwork.
func (a *Adapter) songFromAttrs(attrs map[string]string) domainsong.Song {
	s := domainsong.Song{
		Title:  attrs["Title"],
		Artist: attrs["Artist"],
		Album:  attrs["Album"],
		Source: "mpd",
	}
	if dur, err := strconv.ParseFloat(attrs["duration"], 64); err == nil {
		s.Duration = dur
	}
	if track, err := strconv.Atoi(attrs["Track"]); err == nil {
		s.TrackNumber = track
	}
	s.CoverArtURL = a.resolveLocalArt(attrs["file"])
	return s
}

// SendCommand maps the common command set onto the MPD protocol.
func (a *Adapter) SendCommand(cmd adapter.Command) bool {
	var err error
	switch cmd.Type {
	case adapter.CmdPlay:
		err = a.client.Play(-1)
	case adapter.CmdPause:
		err = a.client.Pause(true)
	case adapter.CmdPlayPause:
		if a.State() == domainsong.StatePlaying {
			err = a.client.Pause(true)
		} else {
			err = a.client.Play(-1)
		}
	case adapter.CmdNext:
		err = a.client.Next()
	case adapter.CmdPrevious:
		err = a.client.Previous()
	case adapter.CmdSeek:
		err = a.client.Seek(int(cmd.Seconds))
	case adapter.CmdSetLoopMode:
		err = a.client.SetRepeat(cmd.LoopMode == domainsong.LoopPlaylist)
		if err == nil {
			err = a.client.SetSingle(cmd.LoopMode == domainsong.LoopTrack)
		}
	case adapter.CmdSetRandom:
		err = a.client.SetRandom(cmd.Random)
	case adapter.CmdClearQueue:
		err = a.client.Clear()
	case adapter.CmdQueueTracks:
		for _, s := range cmd.Tracks {
			if addErr := a.client.Add(s.StreamURL); addErr != nil {
				err = addErr
			}
		}
	default:
		return a.Unsupported(cmd)
	}

	if err != nil {
		log.Warn().Err(err).Str("player_id", a.ID()).Str("command", cmd.Type.String()).Msg("mpd: command failed")
		return false
	}
	return true
}

// LibraryArtist is one node of the loaded library cross-index.
type LibraryArtist struct {
	Name       string
	Albums     []LibraryAlbum
	TrackCount int
}

// LibraryAlbum groups songs under one album name for one artist.
type LibraryAlbum struct {
	Name  string
	Songs []domainsong.Song
}

// LoadLibrary enumerates every album-artist, builds each artist's
// albums by grouping songs under their album name, and reports
// progress (processed/total artists) through tracker, per §4.10.3.
// The album→artist cross-index is returned alongside the artist list.
func (a *Adapter) LoadLibrary(ctx context.Context, tracker *jobs.Tracker) ([]LibraryArtist, map[string]string, error) {
	all, err := a.client.ListAllInfo("/")
	if err != nil {
		return nil, nil, err
	}

	byArtist := map[string][]domainsong.Song{}
	order := []string{}
	for _, attrs := range all {
		artist := attrs["AlbumArtist"]
		if artist == "" {
			artist = attrs["Artist"]
		}
		if artist == "" {
			continue
		}
		if _, ok := byArtist[artist]; !ok {
			order = append(order, artist)
		}
		byArtist[artist] = append(byArtist[artist], a.songFromAttrs(attrs))
	}

	job := tracker.Start("mpd_library_load", len(order))
	defer tracker.Finish(job.ID)

	albumArtist := map[string]string{}
	artists := make([]LibraryArtist, 0, len(order))

	for i, name := range order {
		select {
		case <-ctx.Done():
			return artists, albumArtist, ctx.Err()
		default:
		}

		songs := byArtist[name]
		albums := map[string][]domainsong.Song{}
		albumOrder := []string{}
		for _, s := range songs {
			if _, ok := albums[s.Album]; !ok {
				albumOrder = append(albumOrder, s.Album)
			}
			albums[s.Album] = append(albums[s.Album], s)
			if s.Album != "" {
				albumArtist[s.Album] = name
			}
		}

		libArtist := LibraryArtist{Name: name, TrackCount: len(songs)}
		for _, albumName := range albumOrder {
			libArtist.Albums = append(libArtist.Albums, LibraryAlbum{Name: albumName, Songs: albums[albumName]})
		}
		artists = append(artists, libArtist)

		tracker.Progress(job.ID, i+1)
	}

	return artists, albumArtist, nil
}
