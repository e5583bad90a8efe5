package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/app"
	"github.com/vmunix/codarr/internal/batch"
)

// errFilesFailed makes the process exit non-zero when any file failed.
var errFilesFailed = errors.New("some files failed")

func newRunCmd(g *globalOptions) *cobra.Command {
	var (
		concurrency  int
		force        bool
		ignoreFailed bool
		number       string
		strict       bool
		sources      []string
	)
	cmd := &cobra.Command{
		Use:   "run <path>...",
		Short: "Identify, look up and file media under the given paths",
		Long: `Scan the given files or directories and process every media file found.

Files that completed in an earlier run are skipped unless --force is set, and
files in the failed list are skipped unless --ignore-failed is set. Stopping a
run with Ctrl-C leaves unfinished files to be picked up by the next run.

Examples:
  codarr run ~/incoming
  codarr run --concurrency 8 --sources javbus,javdb ~/incoming
  codarr run --number ABP-001 ~/incoming/weird-name.mp4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			opts := app.RunOptions{Batch: a.BatchOptions(), Sources: sources}
			flags := cmd.Flags()
			if flags.Changed("concurrency") {
				opts.Batch.Concurrency = concurrency
			}
			if flags.Changed("force") {
				opts.Batch.Force = force
			}
			if flags.Changed("ignore-failed") {
				opts.Batch.IgnoreFailed = ignoreFailed
			}
			if flags.Changed("strict") {
				opts.Batch.Parser.StrictMode = strict
			}
			opts.Batch.OverrideID = number

			rep, err := a.Run(ctx, args, opts)
			if rep != nil {
				if g.json {
					if perr := printJSON(cmd.OutOrStdout(), rep); perr != nil {
						return perr
					}
				} else {
					printReport(cmd.OutOrStdout(), rep)
				}
			}
			if err != nil {
				return err
			}
			if rep.Cancelled {
				return errors.New("run interrupted; run again to resume")
			}
			if rep.Failed > 0 {
				return fmt.Errorf("%w: %d of %d", errFilesFailed, rep.Failed, rep.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Files processed at once (default from config)")
	cmd.Flags().BoolVar(&force, "force", false, "Reprocess files that already completed")
	cmd.Flags().BoolVar(&ignoreFailed, "ignore-failed", false, "Reprocess files in the failed list")
	cmd.Flags().StringVarP(&number, "number", "n", "", "Use this catalogue number instead of parsing (single file only)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Disable the custom pattern fallback and reject ambiguous names")
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "Only query these sources, e.g. javbus,javdb")
	return cmd
}

func printReport(w io.Writer, rep *batch.Report) {
	if len(rep.Failures) > 0 {
		rows := make([][]string, 0, len(rep.Failures))
		for _, f := range rep.Failures {
			rows = append(rows, []string{f.Path, string(f.Stage), truncate(f.Reason, 80)})
		}
		renderTable(w, []string{"FAILED", "STAGE", "REASON"}, rows)
	}
	if len(rep.Skips) > 0 {
		rows := make([][]string, 0, len(rep.Skips))
		for _, s := range rep.Skips {
			rows = append(rows, []string{s.Path, s.Reason})
		}
		renderTable(w, []string{"SKIPPED", "REASON"}, rows)
	}
	_, _ = fmt.Fprintf(w, "%s in %s\n", rep.String(), rep.Duration.Round(time.Millisecond))
}
