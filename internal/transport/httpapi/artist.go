package httpapi

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/larsgrootkarzijn/audiocontrold/internal/metadata/artiststore"
	"github.com/larsgrootkarzijn/audiocontrold/internal/store/attributecache"
)

// thumbnailSizeFor maps the "?size=" query parameter to a
// ThumbnailSize; the full-size image is served when absent/unknown.
func thumbnailSizeFor(raw string) (artiststore.ThumbnailSize, bool) {
	switch raw {
	case "small":
		return artiststore.ThumbSmall, true
	case "medium":
		return artiststore.ThumbMedium, true
	case "large":
		return artiststore.ThumbLarge, true
	default:
		return 0, false
	}
}

// handleArtistImage serves the cached (or freshly downloaded) image
// for a single artist (C8), keyed the same URL-safe-base64 way as the
// coverart endpoints. A cache miss triggers a synchronous download; a
// second concurrent request for the same artist gets 503 rather than
// queuing, per artiststore.ErrDownloadInProgress.
func (s *Server) handleArtistImage(w http.ResponseWriter, r *http.Request) {
	if s.ArtistStore == nil {
		writeFailure(w, http.StatusServiceUnavailable, "artist image store disabled")
		return
	}

	raw, err := base64.URLEncoding.DecodeString(chi.URLParam(r, "name"))
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid base64 artist name")
		return
	}
	name := string(raw)

	path, err := s.ArtistStore.EnsureImage(r.Context(), name)
	if err != nil {
		if err == artiststore.ErrDownloadInProgress {
			writeFailure(w, http.StatusServiceUnavailable, "download already in progress")
			return
		}
		writeFailure(w, http.StatusNotFound, err.Error())
		return
	}
	if path == "" {
		writeFailure(w, http.StatusNotFound, "no image found for artist")
		return
	}

	if size, ok := thumbnailSizeFor(r.URL.Query().Get("size")); ok {
		thumbPath, err := s.ArtistStore.Thumbnail(path, attributecache.SanitiseKeyPart(name), size)
		if err != nil {
			writeFailure(w, http.StatusInternalServerError, err.Error())
			return
		}
		path = thumbPath
	}
	http.ServeFile(w, r, path)
}
