package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	var focus string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Show the fragment dependency graph",
		Long: `Show the workspace dependency graph as execution levels: level 0 holds
fragments with no dependencies, and each level only depends on the
levels below it. With --fragment, show one fragment's direct and
transitive neighborhood instead.`,
		Example: `  # Full graph by execution level
  quarry graph

  # Everything touching one fragment
  quarry graph --fragment daily_stats`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, focus)
		},
	}

	cmd.Flags().StringVar(&focus, "fragment", "", "Show only this fragment's dependencies and dependents")
	return cmd
}

func runGraph(cmd *cobra.Command, focus string) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	ws, err := cmdCtx.OpenWorkspace()
	if err != nil {
		return err
	}
	g, err := ws.Graph()
	if err != nil {
		return err
	}

	if focus != "" {
		if _, ok := g.Fragment(focus); !ok {
			return fmt.Errorf("fragment not found: %s", focus)
		}
		if r.JSONMode() {
			return r.JSON(map[string]any{
				"fragment":              focus,
				"dependencies":          g.Dependencies(focus),
				"dependents":            g.Dependents(focus),
				"transitive_dependents": g.TransitiveDependents(focus),
			})
		}
		r.Title(focus)
		r.Table([]string{"relation", "fragments"}, [][]string{
			{"depends on", joinOrDash(g.Dependencies(focus))},
			{"needed by", joinOrDash(g.Dependents(focus))},
			{"downstream", joinOrDash(g.TransitiveDependents(focus))},
		})
		return nil
	}

	levels, err := g.ExecutionLevels()
	if err != nil {
		return err
	}

	if r.JSONMode() {
		return r.JSON(map[string]any{
			"fragments": g.Size(),
			"levels":    levels,
			"roots":     g.Roots(),
			"leaves":    g.Leaves(),
		})
	}

	r.Title(fmt.Sprintf("Dependency graph (%d fragments)", g.Size()))
	rows := make([][]string, 0, len(levels))
	for i, level := range levels {
		rows = append(rows, []string{fmt.Sprintf("%d", i), strings.Join(level, ", ")})
	}
	r.Table([]string{"level", "fragments"}, rows)
	return nil
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
