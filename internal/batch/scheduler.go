// Package batch drives discovered files through parse, resolve and apply
// under bounded concurrency, recording each file's outcome as a job.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/codarr/internal/applier"
	"github.com/vmunix/codarr/internal/events"
	"github.com/vmunix/codarr/internal/job"
	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/pkg/ident"
)

// Resolver looks up metadata for an identifier.
type Resolver interface {
	Resolve(ctx context.Context, id *ident.ParsedIdentifier) (*source.Result, error)
}

// FileApplier places a resolved file.
type FileApplier interface {
	Apply(ctx context.Context, src string, id *ident.ParsedIdentifier, rec *source.Record, opts ...applier.ApplyOption) (*applier.Result, error)
}

// Publisher receives lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Options controls one run.
type Options struct {
	Concurrency int
	// Force reprocesses files whose job already completed.
	Force bool
	// IgnoreFailed reprocesses files that failed before or are in the known-failed set.
	IgnoreFailed bool
	// OverrideID replaces parsing with an operator supplied identifier. Single file only.
	OverrideID string
	Parser     ident.Config
}

// Scheduler runs batches. A Scheduler may run several batches over its
// lifetime but the job store assumes one run at a time per database.
type Scheduler struct {
	jobs     *job.Store
	failed   *job.FailedStore
	resolver Resolver
	applier  FileApplier
	bus      Publisher
	log      *slog.Logger
}

// New creates a scheduler. bus may be nil.
func New(jobs *job.Store, failed *job.FailedStore, resolver Resolver, fa FileApplier, bus Publisher, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:     jobs,
		failed:   failed,
		resolver: resolver,
		applier:  fa,
		bus:      bus,
		log:      logger.With("component", "batch"),
	}
}

// Run processes files in discovery order with at most opts.Concurrency jobs in
// flight. Per-file failures are recorded on the job and in the report; the
// returned error is non-nil only for invalid options or a *FatalError when job
// state could not be persisted. Cancelling ctx stops scheduling new jobs and
// leaves in-flight jobs in their last persisted state.
func (s *Scheduler) Run(ctx context.Context, files []string, opts Options) (*Report, error) {
	if opts.OverrideID != "" && len(files) > 1 {
		return nil, ErrOverrideMultiple
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	parser, err := ident.NewParser(opts.Parser)
	if err != nil {
		return nil, fmt.Errorf("configure parser: %w", err)
	}

	started := time.Now()
	rep := &Report{RunID: uuid.NewString(), Total: len(files)}
	log := s.log.With("run_id", rep.RunID)
	// Bookkeeping writes must land even while the run is being cancelled.
	persist := context.WithoutCancel(ctx)

	runnable, err := s.prepare(ctx, persist, files, opts, rep)
	if err != nil {
		rep.finish(started)
		return rep, &FatalError{Err: err, Report: rep}
	}

	s.publish(persist, &events.BatchStarted{
		BaseEvent:   events.NewBaseEvent(events.EventBatchStarted, events.EntityBatch, rep.RunID),
		Files:       len(files),
		Concurrency: opts.Concurrency,
	})
	log.Info("batch started", "files", len(files), "runnable", len(runnable), "concurrency", opts.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	w := &worker{s: s, persist: persist, opts: opts, parser: parser, rep: rep, log: log}
	for i, j := range runnable {
		if gctx.Err() != nil {
			for range runnable[i:] {
				rep.interrupted()
			}
			break
		}
		g.Go(func() error {
			return w.process(gctx, j)
		})
	}
	fatal := g.Wait()

	rep.Cancelled = ctx.Err() != nil
	rep.finish(started)

	s.publish(persist, &events.BatchFinished{
		BaseEvent:  events.NewBaseEvent(events.EventBatchFinished, events.EntityBatch, rep.RunID),
		Total:      rep.Total,
		Succeeded:  rep.Succeeded,
		Failed:     rep.Failed,
		Skipped:    rep.Skipped,
		Cancelled:  rep.Cancelled,
		DurationMS: rep.Duration.Milliseconds(),
	})
	log.Info("batch finished",
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"skipped", rep.Skipped,
		"interrupted", rep.Interrupted,
		"cancelled", rep.Cancelled,
		"duration_ms", rep.Duration.Milliseconds())

	if fatal != nil {
		return rep, &FatalError{Err: fatal, Report: rep}
	}
	return rep, nil
}

// prepare registers a job for every file and decides which ones run.
// Runnable jobs are returned pending, in discovery order.
func (s *Scheduler) prepare(ctx, persist context.Context, files []string, opts Options, rep *Report) ([]*job.Job, error) {
	var runnable []*job.Job
	for i, path := range files {
		if ctx.Err() != nil {
			for range files[i:] {
				rep.interrupted()
			}
			break
		}

		j, err := s.jobs.Ensure(persist, path)
		if err != nil {
			return nil, err
		}
		known, err := s.failed.Contains(persist, path)
		if err != nil {
			return nil, err
		}

		if reason := skipReason(j, known, opts); reason != "" {
			rep.skipped(FileSkip{Path: path, Reason: reason})
			s.publish(persist, &events.JobSkipped{
				BaseEvent: events.NewBaseEvent(events.EventJobSkipped, events.EntityJob, j.ID),
				RunID:     rep.RunID,
				Path:      path,
				Reason:    reason,
			})
			s.log.Debug("skipping file", "path", path, "job_id", j.ID, "reason", reason)
			continue
		}

		if j.Status != job.StatusPending {
			from := j.Status
			if err := s.jobs.Transition(persist, j, job.StatusPending, "rerun"); err != nil {
				return nil, err
			}
			s.publish(persist, &events.JobRetried{
				BaseEvent: events.NewBaseEvent(events.EventJobRetried, events.EntityJob, j.ID),
				Path:      path,
				From:      string(from),
			})
		}
		if err := s.jobs.SetRun(persist, j, rep.RunID); err != nil {
			return nil, err
		}
		runnable = append(runnable, j)
	}
	return runnable, nil
}

// skipReason returns why a job should not run, or "" when it should.
// A processing job can only be left over from an interrupted run and is resumed.
func skipReason(j *job.Job, knownFailed bool, opts Options) string {
	switch {
	case !opts.IgnoreFailed && knownFailed:
		return "known failed"
	case !opts.IgnoreFailed && j.Status == job.StatusFailed:
		return "previously failed"
	case !opts.Force && j.Status == job.StatusCompleted:
		return "already completed"
	}
	return ""
}

func (s *Scheduler) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.log.Warn("failed to publish event", "type", e.EventType(), "error", err)
	}
}

type worker struct {
	s       *Scheduler
	persist context.Context
	opts    Options
	parser  *ident.Parser
	rep     *Report
	log     *slog.Logger
}

// process runs one job. It returns an error only when job state could not be
// persisted, which aborts the whole run.
func (w *worker) process(ctx context.Context, j *job.Job) error {
	if ctx.Err() != nil {
		w.rep.interrupted()
		return nil
	}
	log := w.log.With("path", j.FilePath, "job_id", j.ID)
	start := time.Now()

	if err := w.s.jobs.Transition(w.persist, j, job.StatusProcessing, ""); err != nil {
		return fmt.Errorf("start job %s: %w", j.ID, err)
	}
	w.s.publish(w.persist, &events.JobStarted{
		BaseEvent: events.NewBaseEvent(events.EventJobStarted, events.EntityJob, j.ID),
		RunID:     w.rep.RunID,
		Path:      j.FilePath,
	})

	var id *ident.ParsedIdentifier
	if w.opts.OverrideID != "" {
		id = ident.Override(w.opts.OverrideID, w.opts.Parser)
	} else {
		parsed, err := w.parser.Parse(filepath.Base(j.FilePath))
		if err != nil {
			return w.fail(j, StageParse, err.Error(), log)
		}
		id = parsed
	}
	log = log.With("number", id.DisplayID)

	if ctx.Err() != nil {
		return w.interrupt(j, log)
	}
	res, err := w.s.resolver.Resolve(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return w.interrupt(j, log)
		}
		return w.fail(j, StageResolve, resolveReason(err), log)
	}
	log = log.With("source", res.Source)

	if ctx.Err() != nil {
		return w.interrupt(j, log)
	}
	var applyOpts []applier.ApplyOption
	if j.OutputPath != "" {
		applyOpts = append(applyOpts, applier.PreviousDest(j.OutputPath))
	}
	placed, err := w.s.applier.Apply(ctx, j.FilePath, id, res.Record, applyOpts...)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return w.interrupt(j, log)
		}
		return w.fail(j, StageApply, err.Error(), log)
	}

	meta, err := json.Marshal(res.Record)
	if err != nil {
		return w.fail(j, StageApply, fmt.Sprintf("encode metadata: %v", err), log)
	}
	if err := w.s.jobs.SetResult(w.persist, j, job.Result{
		Number:     id.DisplayID,
		ContentID:  id.ContentID,
		Part:       id.Part,
		Source:     res.Source,
		Metadata:   string(meta),
		OutputPath: placed.Dest,
	}); err != nil {
		return fmt.Errorf("record result for job %s: %w", j.ID, err)
	}
	if err := w.s.jobs.Transition(w.persist, j, job.StatusCompleted, ""); err != nil {
		return fmt.Errorf("complete job %s: %w", j.ID, err)
	}
	if w.opts.IgnoreFailed {
		if _, err := w.s.failed.Remove(w.persist, j.FilePath); err != nil {
			return err
		}
	}

	w.rep.succeeded()
	w.s.publish(w.persist, &events.JobCompleted{
		BaseEvent:  events.NewBaseEvent(events.EventJobCompleted, events.EntityJob, j.ID),
		RunID:      w.rep.RunID,
		Path:       j.FilePath,
		Number:     id.DisplayID,
		Source:     res.Source,
		OutputPath: placed.Dest,
	})
	log.Info("job completed", "dest", placed.Dest, "reused", placed.Reused, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// fail records a per-file failure. The reason is prefixed with its stage so
// parse, resolve and apply problems stay distinguishable in the job store.
func (w *worker) fail(j *job.Job, stage Stage, detail string, log *slog.Logger) error {
	reason := fmt.Sprintf("%s: %s", stage, detail)
	if err := w.s.jobs.Transition(w.persist, j, job.StatusFailed, reason); err != nil {
		return fmt.Errorf("fail job %s: %w", j.ID, err)
	}
	if err := w.s.failed.Add(w.persist, j.FilePath, reason); err != nil {
		return err
	}

	w.rep.failed(FileFailure{Path: j.FilePath, Stage: stage, Reason: reason})
	w.s.publish(w.persist, &events.JobFailed{
		BaseEvent: events.NewBaseEvent(events.EventJobFailed, events.EntityJob, j.ID),
		RunID:     w.rep.RunID,
		Path:      j.FilePath,
		Stage:     string(stage),
		Reason:    reason,
	})
	log.Warn("job failed", "stage", stage, "reason", detail)
	return nil
}

// interrupt leaves the job processing; `jobs reset-stuck` returns it to pending.
func (w *worker) interrupt(j *job.Job, log *slog.Logger) error {
	w.rep.interrupted()
	log.Info("job interrupted", "status", j.Status)
	return nil
}

// resolveReason prefers the operator remediation for exhausted lookups.
func resolveReason(err error) string {
	var agg *source.AggregateError
	if errors.As(err, &agg) {
		return agg.Reason()
	}
	return err.Error()
}
