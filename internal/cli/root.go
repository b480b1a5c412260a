// Package cli provides the quarry command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/cli/commands"
	"github.com/quarrylabs/quarry/internal/cli/config"
	"github.com/quarrylabs/quarry/internal/cli/output"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "quarry",
		Short: "Quarry - split SQL queries into editable fragments",
		Long: `Quarry splits one large SQL query into named fragments (a main query
plus its CTEs), lets you edit each fragment in isolation, and
reassembles them into a single executable query.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, configFile, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
			cmd.SetContext(commands.NewContext(cmd.Context(), cfg, renderer, logger))

			if cfg.Verbose && configFile != "" {
				fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./quarry.yaml)")
	rootCmd.PersistentFlags().StringP("workspace-dir", "w", "", "Path to the fragment workspace directory")
	rootCmd.PersistentFlags().String("state-path", "", "Path to the SQLite fragment store (empty to disable)")
	rootCmd.PersistentFlags().String("database", "", "Path to the DuckDB database previews run against (empty for in-memory)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output mode: auto, text, markdown, json")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(
		commands.NewSplitCommand(),
		commands.NewComposeCommand(),
		commands.NewPreviewCommand(),
		commands.NewGraphCommand(),
		commands.NewListCommand(),
		commands.NewCheckCommand(),
		commands.NewWatchCommand(),
		commands.NewReplCommand(),
		commands.NewVersionCommand(Version, GitCommit),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
