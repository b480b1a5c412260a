package sqlparse

import "strings"

// TableRef is a table reference found after a FROM or JOIN keyword.
type TableRef struct {
	Name string // dotted name as written, e.g. "orders" or "raw.orders"
	Pos  Position
}

// TableRefs scans sql for table references following FROM and JOIN
// keywords, at any nesting depth. The scan is token-level, so keywords
// inside string literals and comments are ignored, and it is tolerant
// of partially-invalid SQL: it returns whatever references it can find
// rather than failing.
//
// Derived tables (`FROM (SELECT ...)`) and table functions
// (`FROM read_csv(...)`) do not produce references themselves, but
// references inside them are still found as the scan continues.
func TableRefs(sql string) []TableRef {
	tokens := Tokenize(sql)

	var refs []TableRef
	seen := make(map[string]struct{})

	record := func(r TableRef) {
		if _, ok := seen[r.Name]; ok {
			return
		}
		seen[r.Name] = struct{}{}
		refs = append(refs, r)
	}

	for i := 0; i < len(tokens); i++ {
		if tokens[i].Type != TOKEN_FROM && tokens[i].Type != TOKEN_JOIN {
			continue
		}
		i = scanRefList(tokens, i+1, record) - 1
	}

	return refs
}

// scanRefList consumes one comma-separated run of table references
// starting at index i and returns the index of the first token it did
// not consume.
func scanRefList(tokens []Token, i int, record func(TableRef)) int {
	for {
		i = scanRef(tokens, i, record)

		// Optional alias: AS ident, or a bare ident.
		if i < len(tokens) && tokens[i].Type == TOKEN_AS {
			i++
		}
		if i < len(tokens) && tokens[i].Type == TOKEN_IDENT {
			i++
		}

		// A comma directly after the reference continues the FROM list.
		if i < len(tokens) && tokens[i].Type == TOKEN_COMMA {
			i++
			continue
		}
		return i
	}
}

// scanRef consumes a single table reference (or skips a non-reference
// construct) and returns the index of the first unconsumed token.
func scanRef(tokens []Token, i int, record func(TableRef)) int {
	if i >= len(tokens) {
		return i
	}

	// LATERAL prefixes a subquery or function.
	if tokens[i].Type == TOKEN_LATERAL {
		i++
	}
	if i >= len(tokens) {
		return i
	}

	// Derived table: no reference itself, but its contents may hold
	// FROM/JOIN clauses of their own.
	if tokens[i].Type == TOKEN_LPAREN {
		return skipParens(tokens, i, record)
	}
	if tokens[i].Type != TOKEN_IDENT {
		// VALUES list or something unparsable; no reference here.
		return i
	}

	pos := tokens[i].Pos
	parts := []string{tokens[i].Literal}
	i++
	for i+1 < len(tokens) && tokens[i].Type == TOKEN_DOT && tokens[i+1].Type == TOKEN_IDENT {
		parts = append(parts, tokens[i+1].Literal)
		i += 2
	}

	// An identifier followed by ( is a table function, not a table.
	// Its arguments may still contain subqueries.
	if i < len(tokens) && tokens[i].Type == TOKEN_LPAREN {
		return skipParens(tokens, i, record)
	}

	record(TableRef{Name: strings.Join(parts, "."), Pos: pos})
	return i
}

// skipParens consumes a balanced parenthesized group starting at the
// opening paren at index i, scanning its contents for nested FROM/JOIN
// references, and returns the index just past the closing paren.
func skipParens(tokens []Token, i int, record func(TableRef)) int {
	depth := 0
	for ; i < len(tokens); i++ {
		switch tokens[i].Type {
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
			if depth == 0 {
				return i + 1
			}
		case TOKEN_FROM, TOKEN_JOIN:
			i = scanRefList(tokens, i+1, record) - 1
		}
	}
	return i
}
