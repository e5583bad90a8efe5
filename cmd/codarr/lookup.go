package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/pkg/ident"
)

func newLookupCmd(g *globalOptions) *cobra.Command {
	var (
		sources []string
		pageURL string
	)
	cmd := &cobra.Command{
		Use:   "lookup [number]",
		Short: "Look up metadata for a catalogue number",
		Long: `Resolve a catalogue number against the configured sources and print the record.

With --url the source is inferred from the page address and the number is
taken from the last path segment unless given explicitly.

Examples:
  codarr lookup ABP-001
  codarr lookup --sources javdb SSIS-123
  codarr lookup --url https://www.javbus.com/ABP-001`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := g.openApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			if pageURL != "" {
				orch, err := a.Orchestrator()
				if err != nil {
					return err
				}
				adapter, err := orch.Registry().InferFromURL(pageURL)
				if err != nil {
					return err
				}
				sources = []string{adapter.Name()}
				if raw == "" {
					u, _ := url.Parse(pageURL)
					raw = path.Base(strings.TrimRight(u.Path, "/"))
				}
			}
			if raw == "" {
				return errors.New("a catalogue number or --url is required")
			}

			parserCfg := a.BatchOptions().Parser
			id, err := ident.Parse(raw, parserCfg)
			if err != nil {
				// Accept codes the parser cannot place in a family, as run --number does.
				id = ident.Override(raw, parserCfg)
			}

			orch, err := a.Orchestrator(sources...)
			if err != nil {
				return err
			}
			res, err := orch.Resolve(ctx, id)
			if err != nil {
				var agg *source.AggregateError
				if errors.As(err, &agg) && !g.json {
					printFailures(cmd.OutOrStdout(), agg.Failures)
				}
				return fmt.Errorf("lookup %s: %w", id.DisplayID, err)
			}

			if g.json {
				return printJSON(cmd.OutOrStdout(), res)
			}
			printRecord(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "Only query these sources, e.g. javbus,javdb")
	cmd.Flags().StringVar(&pageURL, "url", "", "Page URL; selects the source that serves it")
	return cmd
}

func printRecord(w io.Writer, res *source.Result) {
	rec := res.Record
	fields := []struct{ name, value string }{
		{"Source", res.Source},
		{"Number", rec.ID},
		{"Title", rec.Title},
		{"Release", rec.Release},
		{"Studio", rec.Studio},
		{"Label", rec.Label},
		{"Series", rec.Series},
		{"Director", rec.Director},
		{"Actors", strings.Join(rec.Actors, ", ")},
		{"Tags", strings.Join(rec.Tags, ", ")},
		{"Cover", rec.Cover},
		{"Website", rec.Website},
	}
	for _, f := range fields {
		if f.value != "" {
			_, _ = fmt.Fprintf(w, "%-10s %s\n", f.name+":", f.value)
		}
	}
	if len(res.Attempts) > 1 {
		_, _ = fmt.Fprintln(w)
		printAttempts(w, res.Attempts)
	}
}

func printAttempts(w io.Writer, attempts []source.Attempt) {
	rows := make([][]string, 0, len(attempts))
	for _, at := range attempts {
		outcome := "ok"
		if at.Kind != "" {
			outcome = string(at.Kind)
		}
		rows = append(rows, []string{at.Source, at.ID, outcome, fmt.Sprintf("%dms", at.Duration.Milliseconds())})
	}
	renderTable(w, []string{"SOURCE", "ID", "RESULT", "TIME"}, rows, 4)
}

func printFailures(w io.Writer, failures []source.Failure) {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Source, string(f.Kind), truncate(f.Detail, 80)})
	}
	renderTable(w, []string{"SOURCE", "RESULT", "DETAIL"}, rows)
}
