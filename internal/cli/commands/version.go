package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/state"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display quarry version and build information.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "quarry v%s (%s)\n", version, commit)

			// Report the state schema version when a store is configured.
			cmdCtx, err := FromCommand(cmd)
			if err != nil || cmdCtx.Cfg.StatePath == "" {
				return nil
			}
			st, err := state.Open(cmdCtx.Cfg.StatePath)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()
			v, err := st.MigrationVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "state schema version %d (%s)\n", v, cmdCtx.Cfg.StatePath)
			return nil
		},
	}
}
