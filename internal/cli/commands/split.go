package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/split"
	"github.com/quarrylabs/quarry/internal/state"
)

// NewSplitCommand creates the split command.
func NewSplitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [query-file]",
		Short: "Decompose a query into fragments",
		Long: `Split a SQL query into named fragments: one file per CTE plus a main
fragment for the statement body. Fragments land in the workspace
directory, ready for isolated editing.

Reads the query from the given file, or from stdin when no file is
given.`,
		Example: `  # Split a query file into the workspace
  quarry split report.sql

  # Split from stdin
  cat report.sql | quarry split`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, args)
		},
	}
	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	query, source, err := readQuery(cmd, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("empty query from %s", source)
	}

	ws, err := cmdCtx.OpenWorkspace()
	if err != nil {
		return err
	}

	d, err := split.DecomposeInto(ws.Store(), query)
	if err != nil {
		return err
	}

	// Mirror into the SQLite store when one is configured.
	if cmdCtx.Cfg.StatePath != "" {
		st, err := state.Open(cmdCtx.Cfg.StatePath)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		if err := st.PutAll(d.Fragments()); err != nil {
			return err
		}
	}

	if r.JSONMode() {
		type fragmentInfo struct {
			Name         string   `json:"name"`
			Kind         string   `json:"kind"`
			Dependencies []string `json:"dependencies"`
			File         string   `json:"file"`
		}
		infos := make([]fragmentInfo, 0, len(d.Fragments()))
		for _, f := range d.Fragments() {
			infos = append(infos, fragmentInfo{
				Name:         f.Name,
				Kind:         string(f.Kind),
				Dependencies: f.Dependencies,
				File:         ws.Store().Path(f.Name),
			})
		}
		return r.JSON(map[string]any{
			"workspace": ws.Dir(),
			"fragments": infos,
		})
	}

	r.Success("split %s into %d fragments in %s", source, len(d.Fragments()), ws.Dir())
	rows := make([][]string, 0, len(d.Fragments()))
	for _, f := range d.Fragments() {
		rows = append(rows, []string{
			f.Name,
			string(f.Kind),
			strings.Join(f.Dependencies, ", "),
		})
	}
	r.Table([]string{"fragment", "kind", "dependencies"}, rows)
	return nil
}

// readQuery returns the query text and a label for messages.
func readQuery(cmd *cobra.Command, args []string) (string, string, error) {
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("read query file: %w", err)
		}
		return string(content), args[0], nil
	}

	content, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	return string(content), "stdin", nil
}
