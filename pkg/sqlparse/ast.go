// Package sqlparse provides structural SQL parsing for CTE workflows.
//
// The parser deliberately models only the shape that fragment tooling
// needs: the WITH clause (CTE names, optional column lists, raw bodies)
// and the statement body that follows it. Everything inside a CTE body
// is preserved as raw text, so arbitrary dialect constructs round-trip
// unchanged. Table references for dependency analysis come from a
// token-level scan (see TableRefs), which cannot be fooled by keywords
// inside string literals or comments.
//
// # Basic Usage
//
//	stmt, err := sqlparse.Parse("WITH a AS (SELECT 1) SELECT * FROM a")
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(sqlparse.Format(stmt))
package sqlparse

// Statement represents a SQL statement: an optional WITH clause
// followed by the statement body.
type Statement struct {
	With *WithClause
	Body string // statement body after the WITH clause, trimmed
}

// HasWith reports whether the statement declares any CTEs.
func (s *Statement) HasWith() bool {
	return s != nil && s.With != nil && len(s.With.CTEs) > 0
}

// CTENames returns the names of all top-level CTEs, in declaration order.
func (s *Statement) CTENames() []string {
	if !s.HasWith() {
		return nil
	}
	names := make([]string, len(s.With.CTEs))
	for i, cte := range s.With.CTEs {
		names[i] = cte.Name
	}
	return names
}

// FindCTE returns the CTE with the given name, or nil if not declared.
func (s *Statement) FindCTE(name string) *CTE {
	if !s.HasWith() {
		return nil
	}
	for _, cte := range s.With.CTEs {
		if cte.Name == name {
			return cte
		}
	}
	return nil
}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a single Common Table Expression declaration.
type CTE struct {
	Name    string
	Columns []string // optional declared column list: name(a, b) AS (...)
	Body    string   // raw text between the AS parentheses, trimmed
}
