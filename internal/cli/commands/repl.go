package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/quarrylabs/quarry/internal/compose"
	"github.com/quarrylabs/quarry/internal/fragment"
	"github.com/quarrylabs/quarry/internal/runner"
	"github.com/quarrylabs/quarry/internal/split"
	"github.com/quarrylabs/quarry/internal/workspace"
)

const replPrompt = "quarry> "

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive query session over the workspace",
		Long: `Start an interactive session. Any SQL you type is composed against the
workspace: fragment names used in FROM or JOIN clauses become CTEs in
the executed statement, so fragments behave like tables. Statements end
with a semicolon and run against the configured DuckDB database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd)
		},
	}
	return cmd
}

func runRepl(cmd *cobra.Command) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	ws, err := cmdCtx.OpenWorkspace()
	if err != nil {
		return err
	}

	run, err := runner.Connect(ctx, cmdCtx.Cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = run.Close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     filepath.Join(ws.Dir(), ".quarry_history"),
		AutoComplete:    newFragmentCompleter(ws),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("initialize repl: %w", err)
	}
	defer func() { _ = rl.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "quarry repl (workspace: %s)\n", ws.Dir())
	fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	fmt.Fprintln(out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") && buf.Len() == 0 {
			if line == ".quit" || line == ".exit" {
				break
			}
			replDotCommand(cmd, ws, line)
			continue
		}

		// Accumulate until the statement terminator.
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString(" ")
			rl.SetPrompt("   ...> ")
			continue
		}
		rl.SetPrompt(replPrompt)

		query := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()

		if err := replQuery(cmd, ws, run, query); err != nil {
			r.Error(err)
		}
		fmt.Fprintln(out)
	}
	return nil
}

// replQuery composes an ad-hoc statement against the workspace and
// runs it: fragment names referenced by the input become its WITH
// clause.
func replQuery(cmd *cobra.Command, ws *workspace.Workspace, run *runner.Runner, query string) error {
	cmdCtx, err := FromCommand(cmd)
	if err != nil {
		return err
	}

	fragments, err := ws.Fragments()
	if err != nil {
		return err
	}

	// Main fragments stay out of the known set; nothing may depend on
	// the statement body.
	names := make([]string, 0, len(fragments))
	for name, f := range fragments {
		if f.Kind == fragment.KindMain {
			continue
		}
		names = append(names, name)
	}

	adhoc := &fragment.Fragment{
		Name:         "repl_input",
		Kind:         fragment.KindMain,
		Text:         query,
		Dependencies: split.ExtractDeps(query, "repl_input", split.NameSet(names)),
	}

	sql, err := compose.BuildExecutable(adhoc, "", fragments)
	if err != nil {
		return err
	}

	result, err := run.Query(cmd.Context(), sql)
	if err != nil {
		return err
	}
	cmdCtx.Renderer.Table(result.Columns, result.Rows)
	return nil
}

func replDotCommand(cmd *cobra.Command, ws *workspace.Workspace, line string) {
	out := cmd.OutOrStdout()
	errW := cmd.ErrOrStderr()

	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".help":
		fmt.Fprint(out, `
Commands:
  .help          Show this help message
  .list          List workspace fragments
  .graph         Show fragment execution levels
  .clear         Clear the screen
  .quit / .exit  Exit

Tips:
  - Statements must end with a semicolon (;)
  - Fragment names can be used like tables in FROM and JOIN
  - Tab completion works for fragment names
`)

	case ".list":
		fragments, err := ws.Fragments()
		if err != nil {
			fmt.Fprintf(errW, "Error: %v\n", err)
			return
		}
		names := make([]string, 0, len(fragments))
		for name := range fragments {
			names = append(names, name)
		}
		for _, name := range sortedNames(names) {
			f := fragments[name]
			fmt.Fprintf(out, "  %-20s %s\n", f.Name, strings.Join(f.Dependencies, ", "))
		}

	case ".graph":
		g, err := ws.Graph()
		if err != nil {
			fmt.Fprintf(errW, "Error: %v\n", err)
			return
		}
		levels, err := g.ExecutionLevels()
		if err != nil {
			fmt.Fprintf(errW, "Error: %v\n", err)
			return
		}
		for i, level := range levels {
			fmt.Fprintf(out, "  %d: %s\n", i, strings.Join(level, ", "))
		}

	case ".clear":
		fmt.Fprint(out, "\033[H\033[2J")

	default:
		fmt.Fprintf(errW, "Unknown command: %s (type .help for commands)\n", line)
	}
}

// newFragmentCompleter completes fragment names and dot-commands.
func newFragmentCompleter(ws *workspace.Workspace) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	if fragments, err := ws.Fragments(); err == nil {
		names := make([]string, 0, len(fragments))
		for name := range fragments {
			names = append(names, name)
		}
		for _, name := range sortedNames(names) {
			items = append(items, readline.PcItem(name))
		}
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".list"),
		readline.PcItem(".graph"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}

func sortedNames(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return sorted
}
