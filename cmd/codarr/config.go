package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/codarr/internal/config"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigTestCmd(g), newConfigPathCmd(g))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example config file",
		Long: `Write the example config to path, or to the default location
($XDG_CONFIG_HOME/codarr/config.toml). An existing file is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path); err != nil {
				if errors.Is(err, os.ErrExist) {
					return fmt.Errorf("%s already exists", path)
				}
				return fmt.Errorf("write config: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func newConfigTestCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "test [path]",
		Short: "Load and validate a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				g.configPath = args[0]
			}
			cfg, path, err := g.loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Config:    %s\n", path)
			_, _ = fmt.Fprintf(w, "Database:  %s\n", cfg.Database.Path)
			_, _ = fmt.Fprintf(w, "Output:    %s (%s)\n", cfg.Output.Root, cfg.Output.LinkMode)
			var enabled []string
			for _, name := range config.KnownSources {
				if sc, ok := cfg.Sources[name]; ok && sc.IsEnabled() {
					enabled = append(enabled, fmt.Sprintf("%s(%d)", name, sc.Priority))
				}
			}
			_, _ = fmt.Fprintf(w, "Sources:   %s\n", strings.Join(enabled, " "))
			_, _ = fmt.Fprintln(w, "Config OK")
			return nil
		},
	}
}

func newConfigPathCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file that would be used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.configPath
			if path == "" {
				found, err := config.Discover()
				if err != nil {
					return err
				}
				path = found
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
