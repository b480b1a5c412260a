package split

import (
	"fmt"

	"github.com/quarrylabs/quarry/internal/fragment"
	"github.com/quarrylabs/quarry/pkg/sqlparse"
)

// MainName is the reserved fragment name for the statement body of a
// decomposed query.
const MainName = "main"

// Decomposition is the fragment set produced from one query.
type Decomposition struct {
	Main *fragment.Fragment
	CTEs []*fragment.Fragment
}

// Fragments returns CTE fragments followed by the main fragment, the
// order stores persist them in.
func (d *Decomposition) Fragments() []*fragment.Fragment {
	out := make([]*fragment.Fragment, 0, len(d.CTEs)+1)
	out = append(out, d.CTEs...)
	return append(out, d.Main)
}

// Decompose splits a query into fragments. A query with no WITH clause
// yields a single main fragment and no CTEs. Otherwise each WITH entry
// becomes a CTE fragment whose dependencies are computed against the
// full set of CTE names in the clause, and the statement body becomes
// the main fragment. Unparsable input fails with *sqlparse.ParseError.
func Decompose(query string) (*Decomposition, error) {
	stmt, err := sqlparse.Parse(query)
	if err != nil {
		return nil, err
	}

	names := stmt.CTENames()
	known := NameSet(names)
	if _, taken := known[MainName]; taken {
		return nil, fmt.Errorf("query defines a CTE named %q, which is reserved for the statement body", MainName)
	}

	d := &Decomposition{
		Main: &fragment.Fragment{
			Name:         MainName,
			Kind:         fragment.KindMain,
			Text:         stmt.Body,
			Dependencies: ExtractDeps(stmt.Body, MainName, known),
		},
	}
	if !stmt.HasWith() {
		return d, nil
	}

	for _, cte := range stmt.With.CTEs {
		d.CTEs = append(d.CTEs, &fragment.Fragment{
			Name:         cte.Name,
			Kind:         fragment.KindCTE,
			Text:         cte.Body,
			Columns:      cte.Columns,
			Dependencies: ExtractDeps(cte.Body, cte.Name, known),
		})
	}
	return d, nil
}

// DecomposeInto decomposes query and persists the result. The write
// goes through Store.PutAll, so either every fragment lands or none
// do; parse failures write nothing.
func DecomposeInto(store fragment.Store, query string) (*Decomposition, error) {
	d, err := Decompose(query)
	if err != nil {
		return nil, err
	}
	if err := store.PutAll(d.Fragments()); err != nil {
		return nil, fmt.Errorf("persist decomposition: %w", err)
	}
	return d, nil
}
