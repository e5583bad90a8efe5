package applier

import (
	"errors"
	"fmt"
)

var (
	// ErrIO covers filesystem failures while placing a file.
	ErrIO = errors.New("file operation failed")

	// ErrDestinationConflict indicates a different file already occupies the destination.
	ErrDestinationConflict = errors.New("destination already exists")

	// ErrSourceMissing indicates the source is gone and the destination cannot
	// be shown to be an earlier placement of it.
	ErrSourceMissing = errors.New("source file missing")

	// ErrPathTraversal indicates a rendered path would escape the output root.
	ErrPathTraversal = errors.New("path traversal detected")
)

// Kind classifies an ApplyError.
type Kind string

const (
	KindIO                  Kind = "io"
	KindDestinationConflict Kind = "destination_conflict"
)

// ApplyError reports why a file could not be placed.
type ApplyError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *ApplyError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *ApplyError) Is(target error) bool {
	switch e.Kind {
	case KindIO:
		return target == ErrIO
	case KindDestinationConflict:
		return target == ErrDestinationConflict
	}
	return false
}

func ioError(path string, err error) *ApplyError {
	return &ApplyError{Kind: KindIO, Path: path, Err: err}
}

func conflictError(path string) *ApplyError {
	return &ApplyError{Kind: KindDestinationConflict, Path: path}
}
