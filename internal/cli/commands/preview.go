package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/runner"
	"github.com/quarrylabs/quarry/internal/split"
)

// PreviewOptions holds options for the preview command.
type PreviewOptions struct {
	Target   string
	Fixtures string
	DryRun   bool // print the statement instead of executing it
	Limit    int
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand() *cobra.Command {
	opts := &PreviewOptions{}
	cmd := &cobra.Command{
		Use:   "preview [fragment]",
		Short: "Run a fragment with its dependencies",
		Long: `Build the executable statement for a fragment (its dependencies as a
WITH clause, fixtures first) and run it against DuckDB. A CTE fragment
previews as SELECT * FROM <name>.

Real tables can be stubbed out with --fixtures, a SQL file of CTE
definitions (typically VALUES tables) that shadow table names.`,
		Example: `  # Preview a CTE against the configured database
  quarry preview daily_stats

  # Preview with hand-written fixture tables, no database needed
  quarry preview daily_stats --fixtures testdata/fixtures.sql

  # Show the statement without running it
  quarry preview daily_stats --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Target = split.MainName
			if len(args) == 1 {
				opts.Target = args[0]
			}
			return runPreview(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Fixtures, "fixtures", "", "SQL file of fixture CTEs prepended to the WITH clause")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the statement instead of executing it")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Maximum number of rows to display (0 for all)")
	return cmd
}

func runPreview(cmd *cobra.Command, opts *PreviewOptions) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	sql, err := composeTarget(cmdCtx, opts.Target, opts.Fixtures)
	if err != nil {
		return err
	}

	if opts.DryRun {
		if r.JSONMode() {
			return r.JSON(map[string]string{"target": opts.Target, "sql": sql})
		}
		r.Code(sql)
		return nil
	}

	ctx := cmd.Context()
	run, err := runner.Connect(ctx, cmdCtx.Cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = run.Close() }()

	result, err := run.Query(ctx, sql)
	if err != nil {
		return fmt.Errorf("preview %s: %w", opts.Target, err)
	}

	rows := result.Rows
	truncated := false
	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
		truncated = true
	}

	if r.JSONMode() {
		return r.JSON(map[string]any{
			"target":    opts.Target,
			"columns":   result.Columns,
			"rows":      rows,
			"row_count": result.RowCount(),
		})
	}

	r.Table(result.Columns, rows)
	if truncated {
		r.Info("showing %d of %d rows", opts.Limit, result.RowCount())
	}
	return nil
}
