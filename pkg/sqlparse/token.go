package sqlparse

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

//nolint:revive // TOKEN_* names are intentionally ALL_CAPS for SQL token conventions
const (
	// TOKEN_EOF represents end of input.
	TOKEN_EOF TokenType = iota
	// TOKEN_ILLEGAL represents an unrecognized character.
	TOKEN_ILLEGAL

	// TOKEN_IDENT represents an identifier (bare or double-quoted).
	TOKEN_IDENT
	// TOKEN_NUMBER represents a numeric literal.
	TOKEN_NUMBER // 123, 45.67, 1e10
	// TOKEN_STRING represents a single-quoted string literal.
	TOKEN_STRING // 'hello'

	TOKEN_OP     // any operator char(s) the structural grammar does not care about
	TOKEN_DOT    // .
	TOKEN_COMMA  // ,
	TOKEN_LPAREN // (
	TOKEN_RPAREN // )
	TOKEN_SEMI   // ;

	// Keywords (alphabetical)
	TOKEN_AS
	TOKEN_CROSS
	TOKEN_FROM
	TOKEN_FULL
	TOKEN_INNER
	TOKEN_JOIN
	TOKEN_LATERAL
	TOKEN_LEFT
	TOKEN_NATURAL
	TOKEN_ON
	TOKEN_OUTER
	TOKEN_RECURSIVE
	TOKEN_RIGHT
	TOKEN_SELECT
	TOKEN_TABLE
	TOKEN_USING
	TOKEN_VALUES
	TOKEN_WITH
)

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     int // byte offset just past the token, for span slicing
}

// Position represents a location in the source text.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	TOKEN_EOF:     "EOF",
	TOKEN_ILLEGAL: "ILLEGAL",

	TOKEN_IDENT:  "IDENT",
	TOKEN_NUMBER: "NUMBER",
	TOKEN_STRING: "STRING",

	TOKEN_OP:     "OP",
	TOKEN_DOT:    ".",
	TOKEN_COMMA:  ",",
	TOKEN_LPAREN: "(",
	TOKEN_RPAREN: ")",
	TOKEN_SEMI:   ";",

	TOKEN_AS:        "AS",
	TOKEN_CROSS:     "CROSS",
	TOKEN_FROM:      "FROM",
	TOKEN_FULL:      "FULL",
	TOKEN_INNER:     "INNER",
	TOKEN_JOIN:      "JOIN",
	TOKEN_LATERAL:   "LATERAL",
	TOKEN_LEFT:      "LEFT",
	TOKEN_NATURAL:   "NATURAL",
	TOKEN_ON:        "ON",
	TOKEN_OUTER:     "OUTER",
	TOKEN_RECURSIVE: "RECURSIVE",
	TOKEN_RIGHT:     "RIGHT",
	TOKEN_SELECT:    "SELECT",
	TOKEN_TABLE:     "TABLE",
	TOKEN_USING:     "USING",
	TOKEN_VALUES:    "VALUES",
	TOKEN_WITH:      "WITH",
}

// keywords maps lowercase keyword strings to their token types.
// Only keywords the structural grammar needs are reserved; everything
// else lexes as TOKEN_IDENT so fragment bodies pass through untouched.
var keywords = map[string]TokenType{
	"as":        TOKEN_AS,
	"cross":     TOKEN_CROSS,
	"from":      TOKEN_FROM,
	"full":      TOKEN_FULL,
	"inner":     TOKEN_INNER,
	"join":      TOKEN_JOIN,
	"lateral":   TOKEN_LATERAL,
	"left":      TOKEN_LEFT,
	"natural":   TOKEN_NATURAL,
	"on":        TOKEN_ON,
	"outer":     TOKEN_OUTER,
	"recursive": TOKEN_RECURSIVE,
	"right":     TOKEN_RIGHT,
	"select":    TOKEN_SELECT,
	"table":     TOKEN_TABLE,
	"using":     TOKEN_USING,
	"values":    TOKEN_VALUES,
	"with":      TOKEN_WITH,
}

// LookupIdent returns the token type for the given identifier.
// If the identifier is a reserved keyword, the keyword token type is
// returned; otherwise TOKEN_IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}
