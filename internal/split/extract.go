// Package split decomposes a single SQL query into named fragments:
// one fragment per CTE plus a main fragment for the statement body.
package split

import (
	"github.com/quarrylabs/quarry/pkg/sqlparse"
)

// ExtractDeps scans sqlText for table references following FROM and
// JOIN and intersects them with known fragment names. References to
// real database tables fall outside known and are not dependencies.
// The scan is syntactic and tolerant of partially-invalid SQL (text
// mid-edit still yields a best-effort set), pure, and idempotent.
//
// self is the name of the fragment owning sqlText; a recursive CTE
// referencing itself is excluded from the result.
func ExtractDeps(sqlText, self string, known map[string]struct{}) []string {
	var deps []string
	for _, ref := range sqlparse.TableRefs(sqlText) {
		if ref.Name == self {
			continue
		}
		if _, ok := known[ref.Name]; ok {
			deps = append(deps, ref.Name)
		}
	}
	return deps
}

// NameSet builds the known-name set the extractor consumes.
func NameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
