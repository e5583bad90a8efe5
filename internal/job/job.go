// Package job persists per-file processing state across batch runs.
package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job tracks one input file through the pipeline. FilePath is its stable identity.
type Job struct {
	ID          string     `json:"id"`
	FilePath    string     `json:"file_path"`
	Number      string     `json:"number,omitempty"`
	ContentID   string     `json:"content_id,omitempty"`
	Part        int        `json:"part,omitempty"`
	Status      Status     `json:"status"`
	Source      string     `json:"source,omitempty"`
	Metadata    string     `json:"-"` // JSON-encoded source record
	OutputPath  string     `json:"output_path,omitempty"`
	Error       string     `json:"error,omitempty"`
	Attempts    int        `json:"attempts"`
	RunID       string     `json:"run_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Result is what a successful job run records before completion.
type Result struct {
	Number     string
	ContentID  string
	Part       int
	Source     string
	Metadata   string
	OutputPath string
}

// TransitionEvent is emitted after every persisted status change.
type TransitionEvent struct {
	JobID  string
	Path   string
	From   Status
	To     Status
	Reason string
	At     time.Time
}

// TransitionHandler observes status changes.
type TransitionHandler func(TransitionEvent)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status     *Status
	PathPrefix string
	RunID      string
	Limit      int
}

// Store persists jobs in SQLite.
type Store struct {
	db       *sql.DB
	handlers []TransitionHandler
}

// NewStore creates a job store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// OnTransition registers a handler called after each successful transition.
// Handlers must be registered before the store is shared between goroutines.
func (s *Store) OnTransition(h TransitionHandler) {
	s.handlers = append(s.handlers, h)
}

const jobColumns = `id, file_path, number, content_id, part, status, source, metadata_json,
	output_path, error_message, attempts, run_id, created_at, updated_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(r rowScanner) (*Job, error) {
	j := &Job{}
	var completed sql.NullTime
	err := r.Scan(&j.ID, &j.FilePath, &j.Number, &j.ContentID, &j.Part, &j.Status, &j.Source,
		&j.Metadata, &j.OutputPath, &j.Error, &j.Attempts, &j.RunID, &j.CreatedAt, &j.UpdatedAt, &completed)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		j.CompletedAt = &t
	}
	return j, nil
}

// Ensure returns the job for path, creating a pending one if none exists.
// Calling it repeatedly for the same path always yields the same job.
func (s *Store) Ensure(ctx context.Context, path string) (*Job, error) {
	j, err := s.GetByPath(ctx, path)
	if err == nil {
		return j, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	j = &Job{
		ID:        uuid.NewString(),
		FilePath:  path,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, file_path, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		j.ID, j.FilePath, j.Status, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(mapSQLiteError(err), ErrDuplicate) {
			// Lost a race with another writer; theirs is the job.
			return s.GetByPath(ctx, path)
		}
		return nil, fmt.Errorf("insert job %s: %w", path, err)
	}
	return j, nil
}

// Get retrieves a job by ID.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return j, nil
}

// GetByPath retrieves a job by its file path.
func (s *Store) GetByPath(ctx context.Context, path string) (*Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE file_path = ?", path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get job %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", path, err)
	}
	return j, nil
}

// Transition changes a job's status with validation and event emission.
// reason is stored as the error message when moving to failed and cleared
// when moving back to pending.
func (s *Store) Transition(ctx context.Context, j *Job, to Status, reason string) error {
	if !j.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, to)
	}

	from := j.Status
	now := time.Now().UTC()

	errMsg := j.Error
	attempts := j.Attempts
	completedAt := j.CompletedAt
	switch to {
	case StatusProcessing:
		attempts++
	case StatusFailed:
		errMsg = reason
	case StatusCompleted:
		errMsg = ""
		completedAt = &now
	case StatusPending:
		errMsg = ""
		completedAt = nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error_message = ?, attempts = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		to, errMsg, attempts, completedAt, now, j.ID, from,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", j.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		if _, err := s.Get(ctx, j.ID); err != nil {
			return fmt.Errorf("transition job %s: %w", j.ID, err)
		}
		return fmt.Errorf("transition job %s from %s: %w", j.ID, from, ErrStale)
	}

	j.Status = to
	j.Error = errMsg
	j.Attempts = attempts
	j.CompletedAt = completedAt
	j.UpdatedAt = now

	event := TransitionEvent{
		JobID:  j.ID,
		Path:   j.FilePath,
		From:   from,
		To:     to,
		Reason: reason,
		At:     now,
	}
	for _, h := range s.handlers {
		h(event)
	}
	return nil
}

// SetResult records the identifier and metadata produced for a job.
func (s *Store) SetResult(ctx context.Context, j *Job, r Result) error {
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET number = ?, content_id = ?, part = ?, source = ?, metadata_json = ?,
			output_path = ?, updated_at = ?
		WHERE id = ?`,
		r.Number, r.ContentID, r.Part, r.Source, r.Metadata, r.OutputPath, now, j.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", j.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set result for job %s: %w", j.ID, ErrNotFound)
	}

	j.Number = r.Number
	j.ContentID = r.ContentID
	j.Part = r.Part
	j.Source = r.Source
	j.Metadata = r.Metadata
	j.OutputPath = r.OutputPath
	j.UpdatedAt = now
	return nil
}

// SetRun records the batch run that last picked the job up.
func (s *Store) SetRun(ctx context.Context, j *Job, runID string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE jobs SET run_id = ? WHERE id = ?", runID, j.ID); err != nil {
		return fmt.Errorf("set run for job %s: %w", j.ID, err)
	}
	j.RunID = runID
	return nil
}

// List returns jobs matching the filter, oldest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Job, error) {
	var conditions []string
	var args []any

	if f.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *f.Status)
	}
	if f.PathPrefix != "" {
		conditions = append(conditions, "substr(file_path, 1, ?) = ?")
		args = append(args, len(f.PathPrefix), f.PathPrefix)
	}
	if f.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, f.RunID)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := "SELECT " + jobColumns + " FROM jobs " + whereClause + " ORDER BY created_at, file_path"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		results = append(results, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return results, nil
}

// Stats returns the number of jobs in each status. Every status is present.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM jobs GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		stats[st] = 0
	}
	for rows.Next() {
		var st Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan job stats: %w", err)
		}
		stats[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job stats: %w", err)
	}
	return stats, nil
}

// Retry puts a failed or completed job back to pending and forgets the path's
// known-failed entry. A path with no job only has its failed entry removed,
// in which case the returned job is nil.
func (s *Store) Retry(ctx context.Context, path string) (*Job, error) {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM failed_files WHERE file_path = ?", path); err != nil {
		return nil, fmt.Errorf("clear failed entry %s: %w", path, err)
	}

	j, err := s.GetByPath(ctx, path)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if j.Status == StatusPending {
		return j, nil
	}
	if err := s.Transition(ctx, j, StatusPending, "retry"); err != nil {
		return nil, err
	}
	return j, nil
}

// ResetStuck moves jobs that have been processing for longer than olderThan
// back to pending. These are left behind when a run is interrupted.
func (s *Store) ResetStuck(ctx context.Context, olderThan time.Duration) ([]*Job, error) {
	processing := StatusProcessing
	jobs, err := s.List(ctx, Filter{Status: &processing})
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-olderThan)
	var reset []*Job
	for _, j := range jobs {
		if j.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.Transition(ctx, j, StatusPending, "reset stuck job"); err != nil {
			if errors.Is(err, ErrStale) {
				continue
			}
			return reset, err
		}
		reset = append(reset, j)
	}
	return reset, nil
}

// Delete removes a job by ID.
// This operation is idempotent - no error is returned if the job does not exist.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}
