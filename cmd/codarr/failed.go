package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newFailedCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failed",
		Short: "Manage the list of files runs skip because they failed before",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List failed files",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				a, err := g.openApp(ctx, cmd)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				files, err := a.Failed.List(ctx)
				if err != nil {
					return err
				}
				if g.json {
					return printJSON(cmd.OutOrStdout(), files)
				}
				if len(files) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No failed files")
					return nil
				}
				rows := make([][]string, 0, len(files))
				for _, f := range files {
					rows = append(rows, []string{truncate(f.Path, 70), formatTimeAgo(f.FailedAt), truncate(f.Reason, 70)})
				}
				renderTable(cmd.OutOrStdout(), []string{"FILE", "FAILED", "REASON"}, rows)
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <path>...",
			Short: "Remove files from the failed list without touching their jobs",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				a, err := g.openApp(ctx, cmd)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				for _, arg := range args {
					path, err := filepath.Abs(arg)
					if err != nil {
						return err
					}
					removed, err := a.Failed.Remove(ctx, path)
					if err != nil {
						return err
					}
					if !removed {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: not in failed list\n", path)
						continue
					}
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: removed\n", path)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Empty the failed list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				a, err := g.openApp(ctx, cmd)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				n, err := a.Failed.Clear(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s)\n", n)
				return nil
			},
		},
	)
	return cmd
}
