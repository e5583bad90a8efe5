package main

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/app"
	"github.com/vmunix/codarr/internal/config"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	json       bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "codarr",
		Short: "Identify, look up and organise media files by catalogue number",
		Long: `codarr - identify media files by catalogue number

Parses catalogue numbers out of file names, looks each one up in an ordered
list of metadata sources and files the result into a library layout. Job state
is kept in a local database so interrupted runs resume where they stopped.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env from the working directory if present; the config's own .env is loaded by config.Load.
			_ = godotenv.Load()
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: discovered)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Output as JSON")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(opts),
		newParseCmd(opts),
		newLookupCmd(opts),
		newJobsCmd(opts),
		newFailedCmd(opts),
		newEventsCmd(opts),
		newCacheCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// loadConfig loads the --config file, or the discovered one when unset.
func (o *globalOptions) loadConfig() (*config.Config, string, error) {
	path := o.configPath
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return nil, "", fmt.Errorf("%w (run 'codarr config init' to create one)", err)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, path, nil
}

// openApp loads the config and opens the database. Callers must Close it.
func (o *globalOptions) openApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, _, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := app.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	return app.Open(ctx, cfg, logger)
}
