// Package output renders command results as styled text, markdown, or
// JSON. Output adapts to the environment: a terminal gets styled text,
// a pipe gets markdown, and --output json gets machine-readable JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode selects the render format.
type Mode string

const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Renderer writes command output in one mode.
type Renderer struct {
	out  io.Writer
	errW io.Writer
	mode Mode
}

// NewRenderer resolves mode (auto picks text on a terminal, markdown
// otherwise) and returns a renderer over the given writers.
func NewRenderer(out, errW io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModeJSON:
	case "md", ModeMarkdown:
		mode = ModeMarkdown
	default:
		mode = ModeText
		if f, ok := out.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			mode = ModeMarkdown
		}
	}
	return &Renderer{out: out, errW: errW, mode: mode}
}

// Mode returns the resolved render mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// JSONMode reports whether output is machine-readable; commands use it
// to emit a single JSON document instead of sections.
func (r *Renderer) JSONMode() bool {
	return r.mode == ModeJSON
}

// Title prints a section heading.
func (r *Renderer) Title(text string) {
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintf(r.out, "## %s\n\n", text)
	case ModeJSON:
	default:
		fmt.Fprintln(r.out, titleStyle.Render(text))
	}
}

// Success prints a confirmation line.
func (r *Renderer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintln(r.out, msg)
	case ModeJSON:
	default:
		fmt.Fprintln(r.out, successStyle.Render("✓")+" "+msg)
	}
}

// Info prints a secondary detail line.
func (r *Renderer) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintln(r.out, msg)
	case ModeJSON:
	default:
		fmt.Fprintln(r.out, dimStyle.Render(msg))
	}
}

// Error prints an error line to the error writer.
func (r *Renderer) Error(err error) {
	switch r.mode {
	case ModeJSON:
		enc := json.NewEncoder(r.errW)
		_ = enc.Encode(map[string]string{"error": err.Error()})
	case ModeMarkdown:
		fmt.Fprintf(r.errW, "error: %v\n", err)
	default:
		fmt.Fprintln(r.errW, errorStyle.Render("✗")+" "+err.Error())
	}
}

// Code prints a SQL block, fenced in markdown mode.
func (r *Renderer) Code(sql string) {
	switch r.mode {
	case ModeMarkdown:
		fmt.Fprintf(r.out, "```sql\n%s\n```\n", strings.TrimRight(sql, "\n"))
	case ModeJSON:
	default:
		fmt.Fprintln(r.out, strings.TrimRight(sql, "\n"))
	}
}

// Table prints tabular data: a light box table in text mode, a pipe
// table in markdown mode.
func (r *Renderer) Table(columns []string, rows [][]string) {
	switch r.mode {
	case ModeJSON:
		return
	case ModeMarkdown:
		fmt.Fprintf(r.out, "| %s |\n", strings.Join(columns, " | "))
		seps := make([]string, len(columns))
		for i := range seps {
			seps[i] = "---"
		}
		fmt.Fprintf(r.out, "| %s |\n", strings.Join(seps, " | "))
		for _, row := range rows {
			fmt.Fprintf(r.out, "| %s |\n", strings.Join(row, " | "))
		}
	default:
		t := table.NewWriter()
		t.SetOutputMirror(r.out)
		t.SetStyle(table.StyleLight)

		header := make(table.Row, len(columns))
		for i, col := range columns {
			header[i] = col
		}
		t.AppendHeader(header)
		for _, row := range rows {
			tr := make(table.Row, len(row))
			for i, cell := range row {
				tr[i] = cell
			}
			t.AppendRow(tr)
		}
		t.Render()
	}
	fmt.Fprintf(r.out, "(%d rows)\n", len(rows))
}

// JSON emits v as an indented document, regardless of mode. Commands
// call it only when JSONMode is set.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
