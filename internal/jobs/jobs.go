// Package jobs implements the Background Job Tracker (C14): a
// process-wide registry of running long-lived operations, with derived
// fields (duration, staleness, completion percentage) computed on
// read rather than stored.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job is a snapshot of one tracked operation.
type Job struct {
	ID             string
	Name           string
	StartTime      time.Time
	LastUpdate     time.Time
	Progress       string
	CompletedItems int
	TotalItems     int
}

// DurationSeconds is the time elapsed since the job started.
func (j Job) DurationSeconds() float64 {
	return time.Since(j.StartTime).Seconds()
}

// TimeSinceLastUpdate is the time elapsed since the last progress
// report.
func (j Job) TimeSinceLastUpdate() float64 {
	return time.Since(j.LastUpdate).Seconds()
}

// CompletionPercentage returns 0-100, or 0 if TotalItems is unset.
func (j Job) CompletionPercentage() float64 {
	if j.TotalItems <= 0 {
		return 0
	}
	return float64(j.CompletedItems) / float64(j.TotalItems) * 100
}

// Tracker is the process-wide job registry.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Start registers a new job named name with total items totalItems
// (0 if unknown) and returns its snapshot.
func (t *Tracker) Start(name string, totalItems int) Job {
	now := time.Now()
	job := &Job{
		ID:         uuid.NewString(),
		Name:       name,
		StartTime:  now,
		LastUpdate: now,
		TotalItems: totalItems,
	}
	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()
	return *job
}

// Progress updates completedItems and the last-update timestamp for
// id. A no-op if id is not registered (e.g. already finished).
func (t *Tracker) Progress(id string, completedItems int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.CompletedItems = completedItems
	job.LastUpdate = time.Now()
}

// SetProgressText updates the free-form progress string for id.
func (t *Tracker) SetProgressText(id, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Progress = text
	job.LastUpdate = time.Now()
}

// Finish unregisters id, on completion or failure alike.
func (t *Tracker) Finish(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, id)
}

// Get returns a snapshot of id, and whether it is still registered.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns a snapshot of every currently registered job.
func (t *Tracker) List() []Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		out = append(out, *j)
	}
	return out
}
