package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/larsgrootkarzijn/audiocontrold/internal/jobs"
)

func jobToMap(j jobs.Job) map[string]any {
	return map[string]any{
		"id":                     j.ID,
		"name":                   j.Name,
		"start_time":             j.StartTime,
		"last_update":            j.LastUpdate,
		"progress":               j.Progress,
		"total_items":            j.TotalItems,
		"completed_items":        j.CompletedItems,
		"duration_seconds":       j.DurationSeconds(),
		"time_since_last_update": j.TimeSinceLastUpdate(),
		"completion_percentage":  j.CompletionPercentage(),
	}
}

func (s *Server) handleJobsList(w http.ResponseWriter, r *http.Request) {
	list := s.Jobs.List()
	out := make([]map[string]any, 0, len(list))
	for _, j := range list {
		out = append(out, jobToMap(j))
	}
	writeSuccess(w, map[string]any{"jobs": out})
}

func (s *Server) handleJobGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, ok := s.Jobs.Get(id)
	if !ok {
		writeFailure(w, http.StatusNotFound, "unknown job: "+id)
		return
	}
	writeSuccess(w, jobToMap(j))
}
