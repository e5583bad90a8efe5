package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/metadata"
)

func newCacheCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clean the metadata cache",
	}

	var source string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached records, optionally for one source only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			prefix := ""
			if source != "" {
				prefix = metadata.CacheKey(source, "")
			}
			n, err := a.Cache.DeletePrefix(ctx, prefix)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", n)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&source, "source", "", "Only clear records from this source")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "stats",
			Short: "Count cached records",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				a, err := g.openApp(ctx, cmd)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				live, expired, err := a.Cache.Count(ctx)
				if err != nil {
					return err
				}
				if g.json {
					return printJSON(cmd.OutOrStdout(), map[string]int{"live": live, "expired": expired})
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d live, %d expired (ttl %s)\n", live, expired, a.Config.Cache.TTL)
				return nil
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Remove expired records",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				a, err := g.openApp(ctx, cmd)
				if err != nil {
					return err
				}
				defer func() { _ = a.Close() }()

				n, err := a.Cache.Prune(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d record(s)\n", n)
				return nil
			},
		},
		clearCmd,
	)
	return cmd
}
