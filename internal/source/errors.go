package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed query.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindNetwork             Kind = "network_error"
	KindAuthRequired        Kind = "auth_required"
	KindRateLimited         Kind = "rate_limited"
	KindProtectionChallenge Kind = "protection_challenge"
)

// Sentinel errors, one per Kind, for errors.Is matching.
var (
	// ErrNotFound is returned when the source has no record for the identifier.
	ErrNotFound = errors.New("not found")

	// ErrNetwork is returned on transport failures, timeouts and server errors.
	ErrNetwork = errors.New("network error")

	// ErrAuthRequired is returned when a credential is missing or rejected.
	ErrAuthRequired = errors.New("authentication required")

	// ErrRateLimited is returned when the source throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrProtectionChallenge is returned when the source answered with an anti-automation page.
	ErrProtectionChallenge = errors.New("protection challenge")

	// ErrDuplicateAdapter is returned by NewRegistry when two adapters share a name.
	ErrDuplicateAdapter = errors.New("duplicate adapter")

	// ErrUnknownAdapter is returned when a named adapter is not registered.
	ErrUnknownAdapter = errors.New("unknown adapter")
)

var kindSentinels = map[Kind]error{
	KindNotFound:            ErrNotFound,
	KindNetwork:             ErrNetwork,
	KindAuthRequired:        ErrAuthRequired,
	KindRateLimited:         ErrRateLimited,
	KindProtectionChallenge: ErrProtectionChallenge,
}

// QueryError is the failure of a single adapter query.
type QueryError struct {
	Kind   Kind
	Source string
	Detail string
	Err    error
}

// NewError builds a QueryError for the given source.
func NewError(kind Kind, source, detail string) *QueryError {
	return &QueryError{Kind: kind, Source: source, Detail: detail}
}

func (e *QueryError) Error() string {
	msg := string(e.Kind)
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *QueryError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf classifies any error returned by an adapter. Errors that are not a
// *QueryError are treated as network failures.
func KindOf(err error) Kind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindNetwork
}

// Failure is one adapter's entry in an AggregateError.
type Failure struct {
	Source string `json:"source"`
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

// AggregateError is returned when every adapter failed. Failures are in the
// order the adapters were tried.
type AggregateError struct {
	ID       string
	Failures []Failure
}

func (e *AggregateError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("%s: no sources configured", e.ID)
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Source, f.Kind))
	}
	return fmt.Sprintf("%s: all sources failed (%s)", e.ID, strings.Join(parts, ", "))
}

// AllKind reports whether every failure has the given kind.
func (e *AggregateError) AllKind(k Kind) bool {
	if len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if f.Kind != k {
			return false
		}
	}
	return true
}

// Reason is a human-readable summary that keeps operator remediations apart:
// missing credentials, titles no source has, and everything else.
func (e *AggregateError) Reason() string {
	switch {
	case len(e.Failures) == 0:
		return "no sources configured"
	case e.AllKind(KindNotFound):
		return "no source has this title"
	case e.AllKind(KindAuthRequired):
		return "all sources require credentials that are not configured"
	case e.onlyKinds(KindNotFound, KindAuthRequired):
		return "not found on public sources; remaining sources require credentials"
	case e.onlyKinds(KindProtectionChallenge, KindRateLimited):
		return "sources are blocking requests (challenge or rate limit); retry later"
	}
	return e.Error()
}

func (e *AggregateError) onlyKinds(kinds ...Kind) bool {
	for _, f := range e.Failures {
		ok := false
		for _, k := range kinds {
			if f.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return len(e.Failures) > 0
}

// failureFrom converts an adapter error into an aggregate entry.
func failureFrom(source string, err error) Failure {
	f := Failure{Source: source, Kind: KindOf(err), Detail: err.Error()}
	if errors.Is(err, context.DeadlineExceeded) {
		f.Kind = KindNetwork
		f.Detail = "timed out"
	}
	return f
}
