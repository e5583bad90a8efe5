package job

import (
	"errors"
	"strings"
)

// Sentinel errors for the job package.
var (
	// ErrNotFound is returned when a job record is not found in the database.
	ErrNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStale is returned when the stored status no longer matches the caller's copy.
	ErrStale = errors.New("job modified concurrently")

	// ErrDuplicate is returned when a unique constraint would be violated.
	ErrDuplicate = errors.New("duplicate job")
)

// mapSQLiteError converts driver constraint failures into package sentinels.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}
