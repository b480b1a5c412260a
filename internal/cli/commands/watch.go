package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the workspace and refresh dependencies",
		Long: `Watch the workspace directory and re-extract a fragment's dependency
list whenever its file changes. Editors only write SQL text; this keeps
the fragment headers in sync. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
	return cmd
}

func runWatch(cmd *cobra.Command) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	ws, err := cmdCtx.OpenWorkspace()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.Info("watching %s", ws.Dir())
	return ws.Watch(ctx, func(name string) {
		r.Success("refreshed %s", name)
	})
}
