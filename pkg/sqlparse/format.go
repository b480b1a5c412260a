package sqlparse

import (
	"bytes"
	"strings"
)

const indentSize = 2

// Format renders a statement back to SQL: the WITH clause in canonical
// layout (one CTE per line, bodies indented), followed by the body.
// CTE bodies are re-indented but otherwise emitted verbatim.
func Format(stmt *Statement) string {
	p := newPrinter()
	p.formatStatement(stmt)
	return p.String()
}

// printer handles SQL output with indentation tracking.
type printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *printer {
	return &printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the formatted output with a single trailing newline.
func (p *printer) String() string {
	return strings.TrimRight(p.output.String(), "\n") + "\n"
}

func (p *printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

func (p *printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *printer) indent() {
	p.depth++
}

func (p *printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *printer) formatStatement(stmt *Statement) {
	if stmt == nil {
		return
	}

	if stmt.HasWith() {
		p.formatWithClause(stmt.With)
	}

	p.writeRaw(stmt.Body)
	p.writeln()
}

func (p *printer) formatWithClause(with *WithClause) {
	p.write("WITH")
	if with.Recursive {
		p.write(" RECURSIVE")
	}
	p.writeln()

	p.indent()
	for i, cte := range with.CTEs {
		p.write(cte.Name)
		if len(cte.Columns) > 0 {
			p.write("(" + strings.Join(cte.Columns, ", ") + ")")
		}
		p.write(" AS (")
		p.writeln()

		p.indent()
		p.writeRaw(cte.Body)
		p.writeln()
		p.dedent()

		p.write(")")
		if i < len(with.CTEs)-1 {
			p.write(",")
		}
		p.writeln()
	}
	p.dedent()
}

// writeRaw emits a raw SQL span at the current depth, stripping the
// span's own common leading indentation first so nesting composes.
func (p *printer) writeRaw(raw string) {
	lines := strings.Split(strings.TrimRight(raw, " \t\n"), "\n")
	trimCommonIndent(lines)

	for i, line := range lines {
		if i > 0 {
			p.writeln()
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.write(line)
	}
}

// trimCommonIndent removes the longest shared leading whitespace from
// every line after the first (the first line has already had its
// leading whitespace trimmed by the parser's span capture).
func trimCommonIndent(lines []string) {
	common := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return
	}
	for i, line := range lines[1:] {
		if len(line) >= common {
			lines[i+1] = line[common:]
		}
	}
}
