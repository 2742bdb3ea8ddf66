package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/larsgrootkarzijn/audiocontrold/internal/infra/httpfetch"
	"github.com/larsgrootkarzijn/audiocontrold/internal/playlist/m3u"
)

type m3uParseRequest struct {
	URL            string `json:"url"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
}

func (s *Server) handleM3UParse(w http.ResponseWriter, r *http.Request) {
	var req m3uParseRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false, "error": string(m3u.FailureInvalidURL), "url": req.URL, "timestamp": time.Now().Unix(),
		})
		return
	}

	timeout := 5 * time.Second
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds * float64(time.Second))
	}
	fetcher := httpfetch.New(timeout, "audiocontrold/1.0")

	text, err := fetcher.GetText(req.URL)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false, "error": string(m3u.FailureDownload), "url": req.URL, "timestamp": time.Now().Unix(),
		})
		return
	}

	entries, err := m3u.Parse(strings.NewReader(text))
	if err != nil {
		var perr *m3u.Error
		failure := string(m3u.FailureIO)
		if errors.As(err, &perr) {
			failure = string(perr.Failure)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": false, "error": failure, "url": req.URL, "timestamp": time.Now().Unix(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"playlist": entries,
		"url":      req.URL,
		"timestamp": time.Now().Unix(),
	})
}
