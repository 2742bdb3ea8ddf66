package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
)

type settingsGetRequest struct {
	Key string `json:"key"`
}

type settingsSetRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// typedValue re-derives int/bool/string from the stored string form,
// so a setting round-trips through its original JSON type.
func typedValue(raw string) any {
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	var req settingsGetRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	raw, ok := s.Settings.GetString(req.Key)
	if !ok {
		writeFailure(w, http.StatusNotFound, "unknown setting: "+req.Key)
		return
	}
	writeSuccess(w, map[string]any{"key": req.Key, "value": typedValue(raw)})
}

func (s *Server) handleSettingsSet(w http.ResponseWriter, r *http.Request) {
	var req settingsSetRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if err := s.Settings.SetString(req.Key, fmt.Sprint(req.Value)); err != nil {
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeSuccess(w, map[string]any{"key": req.Key, "value": req.Value})
}
