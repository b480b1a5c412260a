package sqlparse

import (
	"fmt"
	"strings"
)

// Parser parses SQL into the structural AST.
type Parser struct {
	input string
	lexer *Lexer
	token Token // current token
	peek  Token // lookahead token
	errs  []error
}

// NewParser creates a new parser for the given SQL input.
func NewParser(sql string) *Parser {
	p := &Parser{
		input: sql,
		lexer: NewLexer(sql),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the SQL and returns the structural AST.
func Parse(sql string) (*Statement, error) {
	p := NewParser(sql)
	stmt := p.parseStatement()
	if len(p.errs) > 0 {
		return nil, p.errs[0]
	}
	return stmt, nil
}

// ParseCTEList parses a list of CTE definitions, with or without a
// leading WITH keyword. Both forms normalize to the same WithClause.
// Blank input yields an empty clause, not an error.
func ParseCTEList(defs string) (*WithClause, error) {
	if strings.TrimSpace(defs) == "" {
		return &WithClause{}, nil
	}

	p := NewParser(defs)
	with := &WithClause{}

	if p.check(TOKEN_WITH) {
		p.nextToken()
	}
	if p.check(TOKEN_RECURSIVE) {
		with.Recursive = true
		p.nextToken()
	}

	for {
		cte := p.parseCTE()
		if len(p.errs) > 0 {
			return nil, p.errs[0]
		}
		with.CTEs = append(with.CTEs, cte)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	// Trailing tokens after the list mean the input was not a pure
	// definition list.
	p.match(TOKEN_SEMI)
	if !p.check(TOKEN_EOF) {
		return nil, &ParseError{
			Pos:     p.token.Pos,
			Message: fmt.Sprintf("unexpected %s after CTE definitions", p.token.Type),
		}
	}

	return with, nil
}

// ---------- Token Helpers ----------

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %s, got %s", t, p.token.Type))
	return false
}

func (p *Parser) addError(msg string) {
	p.errs = append(p.errs, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// ---------- Grammar ----------
//
//	statement  → [WITH [RECURSIVE] cte_list] body
//	cte_list   → cte ("," cte)*
//	cte        → identifier ["(" column_list ")"] AS "(" raw_body ")"
//	body       → raw text starting with SELECT, VALUES, TABLE or "("

// parseStatement parses a complete SQL statement.
func (p *Parser) parseStatement() *Statement {
	stmt := &Statement{}

	if p.check(TOKEN_EOF) {
		p.addError("empty statement")
		return stmt
	}

	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
		if len(p.errs) > 0 {
			return stmt
		}
	}

	stmt.Body = p.parseBody()
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(TOKEN_WITH)
	with := &WithClause{}

	if p.match(TOKEN_RECURSIVE) {
		with.Recursive = true
	}

	for {
		cte := p.parseCTE()
		if len(p.errs) > 0 {
			return with
		}
		with.CTEs = append(with.CTEs, cte)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE declaration. The body between the AS
// parentheses is captured as a raw span by tracking paren depth, so
// any dialect construct inside it survives untouched.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}

	if !p.check(TOKEN_IDENT) {
		p.addError(fmt.Sprintf("expected CTE name, got %s", p.token.Type))
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	// Optional declared column list: name(a, b) AS (...)
	if p.check(TOKEN_LPAREN) {
		p.nextToken()
		for {
			if !p.check(TOKEN_IDENT) {
				p.addError(fmt.Sprintf("expected column name, got %s", p.token.Type))
				return cte
			}
			cte.Columns = append(cte.Columns, p.token.Literal)
			p.nextToken()

			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		if !p.expect(TOKEN_RPAREN) {
			return cte
		}
	}

	if !p.expect(TOKEN_AS) {
		return cte
	}
	if !p.check(TOKEN_LPAREN) {
		p.addError(fmt.Sprintf("expected ( after AS, got %s", p.token.Type))
		return cte
	}

	start := p.token.End // first byte after the opening paren
	depth := 1
	p.nextToken()

	for depth > 0 {
		switch p.token.Type {
		case TOKEN_EOF:
			p.addError(fmt.Sprintf("unterminated CTE body for %q", cte.Name))
			return cte
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
			if depth == 0 {
				cte.Body = strings.TrimSpace(p.input[start:p.token.Pos.Offset])
				p.nextToken() // consume closing paren
				if cte.Body == "" {
					p.addError(fmt.Sprintf("empty CTE body for %q", cte.Name))
				}
				return cte
			}
		}
		p.nextToken()
	}

	return cte
}

// parseBody captures the statement body as a raw span, validating that
// it starts like a query, contains no illegal characters, and has
// balanced parentheses.
func (p *Parser) parseBody() string {
	switch p.token.Type {
	case TOKEN_SELECT, TOKEN_VALUES, TOKEN_TABLE, TOKEN_LPAREN:
		// query-shaped body
	case TOKEN_EOF:
		p.addError("missing statement body")
		return ""
	default:
		p.addError(fmt.Sprintf("expected SELECT, VALUES, TABLE or (, got %s", p.token.Type))
		return ""
	}

	start := p.token.Pos.Offset
	end := start
	depth := 0

	for !p.check(TOKEN_EOF) {
		switch p.token.Type {
		case TOKEN_ILLEGAL:
			p.addError(fmt.Sprintf("unexpected character %q", p.token.Literal))
			return ""
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			depth--
			if depth < 0 {
				p.addError("unbalanced )")
				return ""
			}
		case TOKEN_SEMI:
			if depth == 0 {
				// Statement terminator; nothing may follow it.
				p.nextToken()
				if !p.check(TOKEN_EOF) {
					p.addError(fmt.Sprintf("unexpected %s after statement", p.token.Type))
					return ""
				}
				return strings.TrimSpace(p.input[start:end])
			}
		}
		end = p.token.End
		p.nextToken()
	}

	if depth != 0 {
		p.addError("unbalanced (")
		return ""
	}

	return strings.TrimSpace(p.input[start:end])
}
