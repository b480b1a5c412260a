package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List workspace fragments",
		Long: `List every fragment in the workspace with its kind, dependencies, and
description. Dependencies are recomputed from the fragment text, so the
listing reflects hand edits immediately.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd)
		},
	}
	return cmd
}

func runList(cmd *cobra.Command) error {
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

	if r.JSONMode() {
		type fragmentInfo struct {
			Name         string   `json:"name"`
			Kind         string   `json:"kind"`
			Dependencies []string `json:"dependencies"`
			Dependents   []string `json:"dependents"`
			Description  string   `json:"description,omitempty"`
		}
		infos := make([]fragmentInfo, 0, g.Size())
		for _, name := range g.Names() {
			f, _ := g.Fragment(name)
			infos = append(infos, fragmentInfo{
				Name:         f.Name,
				Kind:         string(f.Kind),
				Dependencies: g.Dependencies(name),
				Dependents:   g.Dependents(name),
				Description:  f.Description,
			})
		}
		return r.JSON(map[string]any{
			"workspace": ws.Dir(),
			"fragments": infos,
		})
	}

	rows := make([][]string, 0, g.Size())
	for _, name := range g.Names() {
		f, _ := g.Fragment(name)
		rows = append(rows, []string{
			f.Name,
			string(f.Kind),
			strings.Join(g.Dependencies(name), ", "),
			f.Description,
		})
	}
	r.Table([]string{"fragment", "kind", "dependencies", "description"}, rows)
	return nil
}
