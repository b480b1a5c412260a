package compose

import (
	"strings"

	"github.com/quarrylabs/quarry/internal/dag"
	"github.com/quarrylabs/quarry/internal/fragment"
	"github.com/quarrylabs/quarry/pkg/sqlparse"
)

// BuildExecutable assembles a runnable statement for target: fixture
// CTEs first, then target's dependencies in dependency-first order,
// then the target's own body (main fragments) or a SELECT * preview
// (CTE fragments, which are included in the WITH clause themselves).
// fixtureCtes holds hand-written stand-in tables, typically VALUES
// lists replacing real tables during testing; blank means none.
//
// A target with zero dependencies and no fixtures short-circuits to
// the target's body exactly as stored.
func BuildExecutable(target *fragment.Fragment, fixtureCtes string, fragments map[string]*fragment.Fragment) (string, error) {
	if _, ok := fragments[target.Name]; !ok {
		patched := make(map[string]*fragment.Fragment, len(fragments)+1)
		for name, f := range fragments {
			patched[name] = f
		}
		patched[target.Name] = target
		fragments = patched
	}

	order, err := dag.Resolve(target.Name, fragments)
	if err != nil {
		return "", err
	}
	deps := order[:len(order)-1]

	hasFixtures := strings.TrimSpace(fixtureCtes) != ""
	if len(deps) == 0 && !hasFixtures {
		return target.Text, nil
	}

	with := &sqlparse.WithClause{}
	if hasFixtures {
		fixtures, err := sqlparse.ParseCTEList(fixtureCtes)
		if err != nil {
			return "", &InvalidCteDefinitionsError{Err: err}
		}
		with.Recursive = fixtures.Recursive
		with.CTEs = append(with.CTEs, fixtures.CTEs...)
	}

	for _, name := range deps {
		f := fragments[name]
		with.CTEs = append(with.CTEs, &sqlparse.CTE{
			Name:    f.Name,
			Columns: f.Columns,
			Body:    f.Text,
		})
	}

	var body string
	if target.Kind == fragment.KindMain {
		body = target.Text
	} else {
		with.CTEs = append(with.CTEs, &sqlparse.CTE{
			Name:    target.Name,
			Columns: target.Columns,
			Body:    target.Text,
		})
		body = "SELECT * FROM " + target.Name
	}

	return sqlparse.Format(&sqlparse.Statement{With: with, Body: body}), nil
}
