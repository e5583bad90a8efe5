package source

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vmunix/codarr/pkg/ident"
)

// DefaultTimeout bounds a single adapter query when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Attempt records one adapter call made while resolving an identifier.
type Attempt struct {
	Source   string
	ID       string
	Kind     Kind // empty on success
	Duration time.Duration
}

// Result is a successful resolution.
type Result struct {
	Record   *Record
	Source   string
	Attempts []Attempt
}

// Orchestrator walks the registry in order and returns the first usable record.
// It holds no per-call state and is safe for concurrent use.
type Orchestrator struct {
	registry *Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator. A non-positive timeout uses DefaultTimeout.
func NewOrchestrator(registry *Registry, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		registry: registry,
		timeout:  timeout,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Registry returns the registry the orchestrator walks.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Resolve queries adapters in priority order until one returns a valid record.
// When all fail it returns *AggregateError. When ctx is cancelled it stops and
// returns ctx.Err().
func (o *Orchestrator) Resolve(ctx context.Context, id *ident.ParsedIdentifier) (*Result, error) {
	var (
		failures []Failure
		attempts []Attempt
	)

	for _, a := range o.registry.Adapters() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		queryID := id.ID(a.PreferredIDFormat() == FormatContent)
		start := time.Now()
		rec, err := o.query(ctx, a, queryID)
		elapsed := time.Since(start)

		if err != nil && ctx.Err() != nil {
			// The parent was cancelled mid-query; the adapter's error is a symptom.
			return nil, ctx.Err()
		}
		if err == nil && !rec.Valid() {
			err = NewError(KindNotFound, a.Name(), "record missing title or id")
		}

		if err != nil {
			f := failureFrom(a.Name(), err)
			failures = append(failures, f)
			attempts = append(attempts, Attempt{Source: a.Name(), ID: queryID, Kind: f.Kind, Duration: elapsed})
			o.logger.Debug("source failed",
				"source", a.Name(),
				"id", queryID,
				"kind", f.Kind,
				"duration_ms", elapsed.Milliseconds(),
				"error", err,
			)
			continue
		}

		attempts = append(attempts, Attempt{Source: a.Name(), ID: queryID, Duration: elapsed})
		if rec.Source == "" {
			rec.Source = a.Name()
		}
		o.logger.Debug("source resolved",
			"source", a.Name(),
			"id", queryID,
			"duration_ms", elapsed.Milliseconds(),
		)
		return &Result{Record: rec, Source: a.Name(), Attempts: attempts}, nil
	}

	return nil, &AggregateError{ID: id.DisplayID, Failures: failures}
}

func (o *Orchestrator) query(ctx context.Context, a Adapter, id string) (rec *Record, err error) {
	qctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			rec = nil
			err = NewError(KindNetwork, a.Name(), "adapter panicked")
		}
	}()

	rec, err = a.Query(qctx, id)
	if err != nil && errors.Is(qctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return nil, &QueryError{Kind: KindNetwork, Source: a.Name(), Detail: "timed out", Err: err}
	}
	return rec, err
}
