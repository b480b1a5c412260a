// Package fragment defines the fragment model and its stores. A
// fragment is one named piece of a decomposed query: either the main
// statement body or a single CTE definition.
package fragment

import (
	"fmt"
	"regexp"
)

// Kind distinguishes the main statement from CTE fragments.
type Kind string

const (
	// KindMain is the top-level statement body of a decomposed query.
	KindMain Kind = "main"
	// KindCTE is a single common table expression definition.
	KindCTE Kind = "cte"
)

// ValidName matches legal fragment names. Names follow SQL identifier
// rules: a letter followed by letters, digits or underscores.
var ValidName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Fragment is one named piece of a decomposed query.
type Fragment struct {
	Name         string
	Kind         Kind
	Text         string   // raw SQL body, no WITH wrapper
	Dependencies []string // fragment names referenced in Text
	Description  string
	Columns      []string // optional CTE column list, e.g. WITH f(a, b) AS (...)
}

// Validate checks the structural invariants that every fragment must
// satisfy before it enters a store or a graph.
func (f *Fragment) Validate() error {
	if !ValidName.MatchString(f.Name) {
		return fmt.Errorf("invalid fragment name %q", f.Name)
	}
	if f.Kind != KindMain && f.Kind != KindCTE {
		return fmt.Errorf("fragment %s: unknown kind %q", f.Name, f.Kind)
	}
	if f.Text == "" {
		return fmt.Errorf("fragment %s: empty body", f.Name)
	}
	for _, dep := range f.Dependencies {
		if dep == f.Name {
			return fmt.Errorf("fragment %s: depends on itself", f.Name)
		}
		if !ValidName.MatchString(dep) {
			return fmt.Errorf("fragment %s: invalid dependency name %q", f.Name, dep)
		}
	}
	return nil
}

// Clone returns a deep copy so store snapshots cannot be mutated
// through shared slices.
func (f *Fragment) Clone() *Fragment {
	c := *f
	if f.Dependencies != nil {
		c.Dependencies = append([]string(nil), f.Dependencies...)
	}
	if f.Columns != nil {
		c.Columns = append([]string(nil), f.Columns...)
	}
	return &c
}
