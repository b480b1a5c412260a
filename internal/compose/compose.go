// Package compose reassembles fragments into executable queries: it
// merges CTE definitions into a main query and builds standalone
// preview statements with resolved dependencies and test fixtures.
package compose

import (
	"fmt"
	"strings"

	"github.com/quarrylabs/quarry/pkg/sqlparse"
)

// InvalidMainQueryError reports that the main query failed to parse.
type InvalidMainQueryError struct {
	Err error
}

func (e *InvalidMainQueryError) Error() string {
	return fmt.Sprintf("invalid main query: %v", e.Err)
}

func (e *InvalidMainQueryError) Unwrap() error { return e.Err }

// InvalidCteDefinitionsError reports that the CTE definition list
// failed to parse. Distinguished from InvalidMainQueryError so callers
// can point the author at the right input.
type InvalidCteDefinitionsError struct {
	Err error
}

func (e *InvalidCteDefinitionsError) Error() string {
	return fmt.Sprintf("invalid CTE definitions: %v", e.Err)
}

func (e *InvalidCteDefinitionsError) Unwrap() error { return e.Err }

// Result is a composed query plus the number of CTE definitions that
// were merged in, a cheap sanity check for callers.
type Result struct {
	SQL      string
	CTECount int
}

// Compose merges cteDefinitions into main. The definitions are
// accepted with or without a leading WITH keyword. Blank definitions
// short-circuit to the formatted main. When main already carries a
// WITH clause the new definitions are inserted ahead of the existing
// ones, so existing CTEs can reference them; the existing definitions
// themselves are untouched.
func Compose(main, cteDefinitions string) (*Result, error) {
	stmt, err := sqlparse.Parse(main)
	if err != nil {
		return nil, &InvalidMainQueryError{Err: err}
	}

	if strings.TrimSpace(cteDefinitions) == "" {
		return &Result{SQL: sqlparse.Format(stmt)}, nil
	}

	defs, err := sqlparse.ParseCTEList(cteDefinitions)
	if err != nil {
		return nil, &InvalidCteDefinitionsError{Err: err}
	}

	if stmt.HasWith() {
		merged := make([]*sqlparse.CTE, 0, len(defs.CTEs)+len(stmt.With.CTEs))
		merged = append(merged, defs.CTEs...)
		merged = append(merged, stmt.With.CTEs...)
		stmt.With.CTEs = merged
		stmt.With.Recursive = stmt.With.Recursive || defs.Recursive
	} else {
		stmt.With = defs
	}

	return &Result{
		SQL:      sqlparse.Format(stmt),
		CTECount: len(defs.CTEs),
	}, nil
}
