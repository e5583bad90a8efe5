package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/events"
	"github.com/vmunix/codarr/internal/job"
)

func newJobsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage per-file job state",
	}
	cmd.AddCommand(
		newJobsListCmd(g),
		newJobsShowCmd(g),
		newJobsStatsCmd(g),
		newJobsRetryCmd(g),
		newJobsResetStuckCmd(g),
	)
	return cmd
}

func newJobsListCmd(g *globalOptions) *cobra.Command {
	var (
		status string
		prefix string
		runID  string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			filter := job.Filter{RunID: runID, Limit: limit}
			if status != "" {
				st := job.Status(status)
				if !st.Valid() {
					return fmt.Errorf("unknown status %q", status)
				}
				filter.Status = &st
			}
			if prefix != "" {
				if filter.PathPrefix, err = filepath.Abs(prefix); err != nil {
					return err
				}
			}

			jobs, err := a.Jobs.List(ctx, filter)
			if err != nil {
				return err
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), jobs)
			}
			if len(jobs) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}
			printJobs(cmd.OutOrStdout(), jobs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (pending, processing, completed, failed)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only jobs under this path")
	cmd.Flags().StringVar(&runID, "run", "", "Only jobs last picked up by this run")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of jobs")
	return cmd
}

func printJobs(w io.Writer, jobs []*job.Job) {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		detail := j.OutputPath
		if j.Status == job.StatusFailed {
			detail = j.Error
		}
		rows = append(rows, []string{
			truncate(j.FilePath, 60),
			string(j.Status),
			j.Number,
			j.Source,
			strconv.Itoa(j.Attempts),
			formatTimeAgo(j.UpdatedAt),
			truncate(detail, 60),
		})
	}
	renderTable(w, []string{"FILE", "STATUS", "NUMBER", "SOURCE", "TRIES", "UPDATED", "OUTPUT / ERROR"}, rows, 5)
}

func newJobsShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <path|id>",
		Short: "Show one job in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			j, err := a.Jobs.Get(ctx, args[0])
			if errors.Is(err, job.ErrNotFound) {
				var abs string
				if abs, err = filepath.Abs(args[0]); err == nil {
					j, err = a.Jobs.GetByPath(ctx, abs)
				}
			}
			if err != nil {
				return err
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), j)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "ID:        %s\n", j.ID)
			_, _ = fmt.Fprintf(w, "File:      %s\n", j.FilePath)
			_, _ = fmt.Fprintf(w, "Status:    %s\n", j.Status)
			_, _ = fmt.Fprintf(w, "Number:    %s (%s)\n", j.Number, j.ContentID)
			if j.Part > 0 {
				_, _ = fmt.Fprintf(w, "Part:      %d\n", j.Part)
			}
			_, _ = fmt.Fprintf(w, "Source:    %s\n", j.Source)
			_, _ = fmt.Fprintf(w, "Output:    %s\n", j.OutputPath)
			_, _ = fmt.Fprintf(w, "Attempts:  %d\n", j.Attempts)
			_, _ = fmt.Fprintf(w, "Run:       %s\n", j.RunID)
			_, _ = fmt.Fprintf(w, "Updated:   %s\n", j.UpdatedAt.Local().Format(time.DateTime))
			if j.Error != "" {
				_, _ = fmt.Fprintf(w, "Error:     %s\n", j.Error)
			}
			return nil
		},
	}
}

func newJobsStatsCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count jobs per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			stats, err := a.Jobs.Stats(ctx)
			if err != nil {
				return err
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), stats)
			}
			rows := make([][]string, 0, len(job.Statuses))
			total := 0
			for _, st := range job.Statuses {
				rows = append(rows, []string{string(st), strconv.Itoa(stats[st])})
				total += stats[st]
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})
			renderTable(cmd.OutOrStdout(), []string{"STATUS", "JOBS"}, rows, 2)
			return nil
		},
	}
}

func newJobsRetryCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <path>...",
		Short: "Reset failed or completed files so the next run processes them",
		Long: `Reset jobs to pending and remove the files from the failed list.

Examples:
  codarr jobs retry ~/incoming/ABP-001.mp4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.Lock(); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, arg := range args {
				path, err := filepath.Abs(arg)
				if err != nil {
					return err
				}
				var from job.Status
				if before, err := a.Jobs.GetByPath(ctx, path); err == nil {
					from = before.Status
				}
				j, err := a.Jobs.Retry(ctx, path)
				if err != nil {
					return fmt.Errorf("retry %s: %w", path, err)
				}
				if j == nil {
					_, _ = fmt.Fprintf(w, "%s: no job, removed from failed list\n", path)
					continue
				}
				if from != job.StatusPending {
					_ = a.Bus.Publish(ctx, &events.JobRetried{
						BaseEvent: events.NewBaseEvent(events.EventJobRetried, events.EntityJob, j.ID),
						Path:      path,
						From:      string(from),
					})
				}
				_, _ = fmt.Fprintf(w, "%s: %s -> %s\n", path, from, j.Status)
			}
			return nil
		},
	}
}

func newJobsResetStuckCmd(g *globalOptions) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return jobs left processing by an interrupted run to pending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			// Holding the lock guarantees no run is in flight, so every processing job is stuck.
			if err := a.Lock(); err != nil {
				return err
			}

			if !cmd.Flags().Changed("older-than") {
				olderThan = a.Config.Batch.StuckAfter
			}
			reset, err := a.Jobs.ResetStuck(ctx, olderThan)
			if err != nil {
				return err
			}
			if g.json {
				return printJSON(cmd.OutOrStdout(), reset)
			}
			for _, j := range reset {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), j.FilePath)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reset %d job(s)\n", len(reset))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Only reset jobs idle for at least this long (default from config)")
	return cmd
}
