package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/vmunix/codarr/internal/applier"
	"github.com/vmunix/codarr/internal/batch"
	"github.com/vmunix/codarr/internal/config"
	"github.com/vmunix/codarr/internal/scan"
	"github.com/vmunix/codarr/pkg/ident"
)

// RunOptions adjusts a batch run on top of the configuration.
type RunOptions struct {
	Batch batch.Options
	// Sources restricts lookups to the named sources.
	Sources []string
}

// ParserConfig converts the [parser] section.
func ParserConfig(c config.ParserConfig) ident.Config {
	return ident.Config{
		RemovalStrings:     c.RemovalStrings,
		CustomPattern:      c.CustomPattern,
		CustomGroups:       c.CustomGroups,
		StrictMode:         c.StrictMode,
		UncensoredPrefixes: c.UncensoredPrefixes,
	}
}

// BatchOptions returns the run options the configuration asks for.
func (a *App) BatchOptions() batch.Options {
	return batch.Options{
		Concurrency:  a.Config.Batch.Concurrency,
		Force:        a.Config.Batch.Force,
		IgnoreFailed: a.Config.Batch.IgnoreFailed,
		Parser:       ParserConfig(a.Config.Parser),
	}
}

// ScanOptions converts the [scan] section.
func ScanOptions(c config.ScanConfig) (scan.Options, error) {
	opts := scan.Options{
		Extensions:  c.Extensions,
		ExcludeDirs: c.ExcludeDirs,
		MinSize:     c.MinSizeMB << 20,
	}
	if c.Filter != "" {
		re, err := regexp.Compile(c.Filter)
		if err != nil {
			return opts, fmt.Errorf("scan filter: %w", err)
		}
		opts.Filter = re
	}
	return opts, nil
}

// Discover scans every path and returns the media files found, as absolute
// paths in discovery order with duplicates removed.
func (a *App) Discover(paths []string) ([]string, error) {
	opts, err := ScanOptions(a.Config.Scan)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		found, err := scan.Scan(abs, opts)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files, nil
}

// NewApplier builds the applier described by the [output] section.
func (a *App) NewApplier() (*applier.Applier, error) {
	out := a.Config.Output
	mode, err := applier.ParseLinkMode(out.LinkMode)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(out.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	return applier.New(applier.Options{
		Root:         root,
		Template:     out.Template,
		FileTemplate: out.FileTemplate,
		LinkMode:     mode,
		WriteSidecar: out.Sidecar,
		Subtitles:    out.Subtitles,
	}, a.Logger)
}

// Run takes the database lock, discovers media under paths and processes it.
// The configured batch timeout bounds the whole run; hitting it behaves like
// an interrupt and leaves unfinished jobs to be resumed.
func (a *App) Run(ctx context.Context, paths []string, opts RunOptions) (*batch.Report, error) {
	if err := a.Lock(); err != nil {
		return nil, err
	}

	files, err := a.Discover(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		a.Logger.Info("no media files found", "paths", paths)
		return &batch.Report{}, nil
	}
	if opts.Batch.OverrideID != "" && len(files) > 1 {
		return nil, fmt.Errorf("%w: found %d files", batch.ErrOverrideMultiple, len(files))
	}

	orch, err := a.Orchestrator(opts.Sources...)
	if err != nil {
		return nil, err
	}
	fa, err := a.NewApplier()
	if err != nil {
		return nil, err
	}

	if d := a.Config.Batch.BatchTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	sched := batch.New(a.Jobs, a.Failed, orch, fa, a.Bus, a.Logger)
	rep, err := sched.Run(ctx, files, opts.Batch)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		a.Logger.Warn("batch timeout reached", "timeout", a.Config.Batch.BatchTimeout)
	}
	return rep, err
}
