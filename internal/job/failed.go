package job

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FailedFile is an entry in the known-failed set. Batch runs skip these paths
// unless told to ignore the set.
type FailedFile struct {
	Path     string    `json:"path"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// FailedStore persists the known-failed set.
type FailedStore struct {
	db *sql.DB
}

// NewFailedStore creates a known-failed store.
func NewFailedStore(db *sql.DB) *FailedStore {
	return &FailedStore{db: db}
}

// Add records path as failed, replacing any earlier reason.
func (s *FailedStore) Add(ctx context.Context, path, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failed_files (file_path, reason, failed_at) VALUES (?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET reason = excluded.reason, failed_at = excluded.failed_at`,
		path, reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add failed file %s: %w", path, err)
	}
	return nil
}

// Contains reports whether path is in the known-failed set.
func (s *FailedStore) Contains(ctx context.Context, path string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM failed_files WHERE file_path = ?", path).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check failed file %s: %w", path, err)
	}
	return n > 0, nil
}

// List returns all known-failed files ordered by path.
func (s *FailedStore) List(ctx context.Context) ([]FailedFile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT file_path, reason, failed_at FROM failed_files ORDER BY file_path")
	if err != nil {
		return nil, fmt.Errorf("list failed files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FailedFile
	for rows.Next() {
		var f FailedFile
		if err := rows.Scan(&f.Path, &f.Reason, &f.FailedAt); err != nil {
			return nil, fmt.Errorf("scan failed file: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed files: %w", err)
	}
	return out, nil
}

// Remove drops path from the set. It reports whether an entry existed.
func (s *FailedStore) Remove(ctx context.Context, path string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM failed_files WHERE file_path = ?", path)
	if err != nil {
		return false, fmt.Errorf("remove failed file %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Clear empties the set and returns how many entries were removed.
func (s *FailedStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM failed_files")
	if err != nil {
		return 0, fmt.Errorf("clear failed files: %w", err)
	}
	return res.RowsAffected()
}
