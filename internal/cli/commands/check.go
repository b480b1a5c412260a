package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quarrylabs/quarry/internal/compose"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the workspace",
		Long: `Validate the workspace: every fragment must parse, every dependency
must resolve, and the graph must be acyclic. Each fragment is also
composed into its executable form to catch errors that only surface on
reassembly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd)
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	ws, err := cmdCtx.OpenWorkspace()
	if err != nil {
		return err
	}

	fragments, err := ws.Fragments()
	if err != nil {
		return err
	}
	if _, err := ws.Validate(); err != nil {
		return err
	}

	// Graph-level checks passed; now compose every fragment. Fragments
	// are independent here, so check them concurrently and keep the
	// first error per fragment.
	order := make([]string, 0, len(fragments))
	for name := range fragments {
		order = append(order, name)
	}

	issues := make([]error, len(order))
	var group errgroup.Group
	group.SetLimit(8)
	for i, name := range order {
		f := fragments[name]
		group.Go(func() error {
			if _, err := compose.BuildExecutable(f, "", fragments); err != nil {
				issues[i] = fmt.Errorf("%s: %w", f.Name, err)
			}
			return nil
		})
	}
	_ = group.Wait()

	var failed []error
	for _, issue := range issues {
		if issue != nil {
			failed = append(failed, issue)
		}
	}

	if r.JSONMode() {
		msgs := make([]string, 0, len(failed))
		for _, issue := range failed {
			msgs = append(msgs, issue.Error())
		}
		return r.JSON(map[string]any{
			"fragments": len(fragments),
			"ok":        len(failed) == 0,
			"issues":    msgs,
		})
	}

	if len(failed) > 0 {
		for _, issue := range failed {
			r.Error(issue)
		}
		return fmt.Errorf("%d of %d fragments failed", len(failed), len(fragments))
	}
	r.Success("%d fragments ok", len(fragments))
	return nil
}
