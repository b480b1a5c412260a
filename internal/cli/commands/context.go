package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/cli/config"
	"github.com/quarrylabs/quarry/internal/cli/output"
	"github.com/quarrylabs/quarry/internal/workspace"
)

type contextKey struct{}

// CommandContext holds the shared dependencies commands pull from the
// cobra context.
type CommandContext struct {
	Cfg      *config.Config
	Renderer *output.Renderer
	Logger   *slog.Logger
}

// NewContext stores the per-invocation dependencies on ctx.
func NewContext(ctx context.Context, cfg *config.Config, r *output.Renderer, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, &CommandContext{
		Cfg:      cfg,
		Renderer: r,
		Logger:   logger,
	})
}

// FromCommand retrieves the CommandContext set up by the root command.
func FromCommand(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx, ok := cmd.Context().Value(contextKey{}).(*CommandContext)
	if !ok {
		return nil, fmt.Errorf("command context not initialized")
	}
	return cmdCtx, nil
}

// OpenWorkspace opens the configured fragment workspace.
func (c *CommandContext) OpenWorkspace() (*workspace.Workspace, error) {
	return workspace.Open(c.Cfg.WorkspaceDir, c.Logger)
}
