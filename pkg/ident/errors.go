package ident

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is matching against a *ParseError.
var (
	// ErrNoPatternMatch is returned when nothing recognizable was found in the filename.
	ErrNoPatternMatch = errors.New("no identifier pattern matched")

	// ErrAmbiguousMatch is returned in strict mode when the winning rule yields more than one distinct code.
	ErrAmbiguousMatch = errors.New("ambiguous identifier match")

	// ErrInvalidPattern is returned when the custom fallback pattern cannot be used.
	ErrInvalidPattern = errors.New("invalid custom pattern")
)

// ErrorKind classifies a parse failure.
type ErrorKind string

const (
	KindNoPatternMatch ErrorKind = "no_match"
	KindAmbiguousMatch ErrorKind = "ambiguous"
)

// ParseError describes why a filename could not be turned into an identifier.
type ParseError struct {
	Kind       ErrorKind
	Input      string
	Candidates []string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case KindAmbiguousMatch:
		return fmt.Sprintf("ambiguous identifier in %q: %s", e.Input, strings.Join(e.Candidates, ", "))
	default:
		return fmt.Sprintf("no identifier found in %q", e.Input)
	}
}

// Is lets errors.Is match the sentinel for the error's kind.
func (e *ParseError) Is(target error) bool {
	switch e.Kind {
	case KindNoPatternMatch:
		return target == ErrNoPatternMatch
	case KindAmbiguousMatch:
		return target == ErrAmbiguousMatch
	}
	return false
}
