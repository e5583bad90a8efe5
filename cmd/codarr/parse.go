package main

import (
	"io"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/app"
	"github.com/vmunix/codarr/pkg/ident"
)

type parseResult struct {
	File       string                  `json:"file"`
	Identifier *ident.ParsedIdentifier `json:"identifier,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

func newParseCmd(g *globalOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "parse <filename>...",
		Short: "Show the catalogue number parsed from file names",
		Long: `Parse file names without touching the filesystem or the network.

Parser settings come from the config file when one is found.

Examples:
  codarr parse "[HD] ABP-001-C.mp4"
  codarr parse --json heyzo_hd_1234.mp4 carib-010120-001.mkv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg ident.Config
			if c, _, err := g.loadConfig(); err == nil {
				cfg = app.ParserConfig(c.Parser)
			}
			if cmd.Flags().Changed("strict") {
				cfg.StrictMode = strict
			}
			parser, err := ident.NewParser(cfg)
			if err != nil {
				return err
			}

			results := make([]parseResult, 0, len(args))
			for _, arg := range args {
				res := parseResult{File: arg}
				id, err := parser.Parse(filepath.Base(arg))
				if err != nil {
					res.Error = err.Error()
				} else {
					res.Identifier = id
				}
				results = append(results, res)
			}

			if g.json {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printParseResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Disable the custom pattern fallback and reject ambiguous names")
	return cmd
}

func printParseResults(w io.Writer, results []parseResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Identifier == nil {
			rows = append(rows, []string{r.File, "-", "-", "", "", "", r.Error})
			continue
		}
		id := r.Identifier
		part := ""
		if id.HasPart() {
			part = strconv.Itoa(id.Part)
		}
		rows = append(rows, []string{r.File, id.DisplayID, id.ContentID, part, id.Family, id.FlagSuffix(), ""})
	}
	renderTable(w, []string{"FILE", "NUMBER", "CONTENT ID", "PART", "FAMILY", "FLAGS", "ERROR"}, rows, 4)
}
