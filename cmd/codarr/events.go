package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/events"
)

func newEventsCmd(g *globalOptions) *cobra.Command {
	var (
		limit  int
		since  time.Duration
		entity string
		prune  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent events",
		Long: `Show the persisted job and batch event log.

Examples:
  codarr events -n 50
  codarr events --since 2h
  codarr events --entity <job id>
  codarr events --prune 720h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if prune > 0 {
				n, err := a.Events.Prune(ctx, prune)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d event(s)\n", n)
				return nil
			}

			var raw []events.RawEvent
			switch {
			case entity != "":
				raw, err = a.Events.ForEntity(ctx, events.EntityJob, entity)
				if err == nil && len(raw) == 0 {
					raw, err = a.Events.ForEntity(ctx, events.EntityBatch, entity)
				}
			case since > 0:
				raw, err = a.Events.Since(ctx, time.Now().Add(-since))
			default:
				raw, err = a.Events.Recent(ctx, limit)
			}
			if err != nil {
				return fmt.Errorf("fetch events: %w", err)
			}

			if g.json {
				decoded := make([]events.Event, 0, len(raw))
				reg := events.DefaultRegistry()
				for _, r := range raw {
					e, err := reg.Unmarshal(r)
					if err != nil {
						return err
					}
					decoded = append(decoded, e)
				}
				return printJSON(cmd.OutOrStdout(), decoded)
			}
			if len(raw) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No events")
				return nil
			}

			rows := make([][]string, 0, len(raw))
			for _, e := range raw {
				rows = append(rows, []string{
					formatTimeAgo(e.OccurredAt),
					e.EventType,
					e.EntityType + "/" + shortID(e.EntityID),
					truncate(e.Payload, 80),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"TIME", "TYPE", "ENTITY", "PAYLOAD"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	cmd.Flags().DurationVar(&since, "since", 0, "Show events newer than this, oldest first")
	cmd.Flags().StringVar(&entity, "entity", "", "Show events for one job or run id")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete events older than this instead of listing")
	return cmd
}

// shortID keeps the first block of a uuid.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
