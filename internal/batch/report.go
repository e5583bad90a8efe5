package batch

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Stage names the pipeline step a file failed in.
type Stage string

const (
	StageParse   Stage = "parse"
	StageResolve Stage = "resolve"
	StageApply   Stage = "apply"
)

// FileFailure records why one file failed.
type FileFailure struct {
	Path   string `json:"path"`
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason"`
}

// FileSkip records why one file was not processed.
type FileSkip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Report summarises one batch run.
type Report struct {
	RunID     string `json:"run_id"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
	// Interrupted counts jobs left unfinished because the run was stopped.
	Interrupted int           `json:"interrupted"`
	Cancelled   bool          `json:"cancelled"`
	Duration    time.Duration `json:"duration"`
	Failures    []FileFailure `json:"failures,omitempty"`
	Skips       []FileSkip    `json:"skips,omitempty"`

	mu sync.Mutex
}

func (r *Report) succeeded() {
	r.mu.Lock()
	r.Succeeded++
	r.mu.Unlock()
}

func (r *Report) failed(f FileFailure) {
	r.mu.Lock()
	r.Failed++
	r.Failures = append(r.Failures, f)
	r.mu.Unlock()
}

func (r *Report) skipped(s FileSkip) {
	r.mu.Lock()
	r.Skipped++
	r.Skips = append(r.Skips, s)
	r.mu.Unlock()
}

func (r *Report) interrupted() {
	r.mu.Lock()
	r.Interrupted++
	r.mu.Unlock()
}

// finish orders detail lists by path so reports do not depend on worker scheduling.
func (r *Report) finish(started time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = time.Since(started)
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Path < r.Failures[j].Path })
	sort.Slice(r.Skips, func(i, j int) bool { return r.Skips[i].Path < r.Skips[j].Path })
}

// String renders a one-line summary.
func (r *Report) String() string {
	s := fmt.Sprintf("%d files: %d succeeded, %d failed, %d skipped", r.Total, r.Succeeded, r.Failed, r.Skipped)
	if r.Interrupted > 0 {
		s += fmt.Sprintf(", %d interrupted", r.Interrupted)
	}
	if r.Cancelled {
		s += " (cancelled)"
	}
	return s
}
