package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/compose"
	"github.com/quarrylabs/quarry/internal/split"
)

// ComposeOptions holds options for the compose command.
type ComposeOptions struct {
	Target   string // fragment to reassemble
	Fixtures string // path to a fixture CTE file
	OutFile  string // write the query here instead of stdout
}

// NewComposeCommand creates the compose command.
func NewComposeCommand() *cobra.Command {
	opts := &ComposeOptions{}
	cmd := &cobra.Command{
		Use:   "compose [fragment]",
		Short: "Reassemble fragments into a single query",
		Long: `Compose the workspace fragments back into one executable query. The
target fragment's dependencies become the WITH clause, in dependency
order. Defaults to the main fragment.`,
		Example: `  # Reassemble the main query
  quarry compose

  # Reassemble and save
  quarry compose --out report.sql

  # Reassemble a single CTE as a standalone preview query
  quarry compose daily_stats`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Target = split.MainName
			if len(args) == 1 {
				opts.Target = args[0]
			}
			return runCompose(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "SQL file of fixture CTEs prepended to the WITH clause")
	cmd.Flags().StringVar(&opts.OutFile, "out", "", "Write the composed query to this file")
	return cmd
}

func runCompose(cmd *cobra.Command, opts *ComposeOptions) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	sql, err := composeTarget(cmdCtx, opts.Target, opts.Fixtures)
	if err != nil {
		return err
	}

	if opts.OutFile != "" {
		if err := os.WriteFile(opts.OutFile, []byte(sql), 0o644); err != nil {
			return fmt.Errorf("write composed query: %w", err)
		}
		r.Success("wrote %s", opts.OutFile)
		return nil
	}

	if r.JSONMode() {
		return r.JSON(map[string]string{"target": opts.Target, "sql": sql})
	}
	r.Code(sql)
	return nil
}

// composeTarget builds the executable statement for a fragment,
// optionally with fixture CTEs read from a file.
func composeTarget(cmdCtx *CommandContext, target, fixturesPath string) (string, error) {
	ws, err := cmdCtx.OpenWorkspace()
	if err != nil {
		return "", err
	}

	fragments, err := ws.Fragments()
	if err != nil {
		return "", err
	}
	f, ok := fragments[target]
	if !ok {
		return "", fmt.Errorf("fragment not found: %s", target)
	}

	var fixtures string
	if fixturesPath != "" {
		content, err := os.ReadFile(fixturesPath)
		if err != nil {
			return "", fmt.Errorf("read fixtures: %w", err)
		}
		fixtures = string(content)
	}

	return compose.BuildExecutable(f, fixtures, fragments)
}
