package httpapi

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"github.com/larsgrootkarzijn/audiocontrold/internal/store/imagecache"
)

// localArtFilePattern matches the "<sha1-hex>.<ext>" names the mpd
// adapter's local cover art cache writes, rejecting anything else
// before it reaches a filesystem path.
var localArtFilePattern = regexp.MustCompile(`^[0-9a-f]{40}\.(jpg|png)$`)

// handleMPDLocalArt serves a music-daemon track's locally-extracted
// cover art (embedded tag or folder image), cached by
// adapters/mpd.Adapter.resolveLocalArt under ImageCache.
func (s *Server) handleMPDLocalArt(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if !localArtFilePattern.MatchString(file) {
		writeFailure(w, http.StatusBadRequest, "invalid local art reference")
		return
	}

	key := file[:40]
	ext := file[41:]
	data, err := s.ImageCache.Get(imagecache.LocalTrackArtPath(key, ext))
	if err != nil {
		writeFailure(w, http.StatusNotFound, "no cached local art for this track")
		return
	}

	contentType := "image/jpeg"
	if ext == "png" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
