package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/dag"
	"github.com/quarrylabs/quarry/internal/fragment"
	"github.com/quarrylabs/quarry/pkg/sqlparse"
)

func fragmentSet(list ...*fragment.Fragment) map[string]*fragment.Fragment {
	m := make(map[string]*fragment.Fragment, len(list))
	for _, f := range list {
		m[f.Name] = f
	}
	return m
}

func TestBuildExecutable_NoDepsNoFixturesIsVerbatim(t *testing.T) {
	target := &fragment.Fragment{
		Name: "solo",
		Kind: fragment.KindCTE,
		Text: "SELECT   1   AS x", // odd spacing must survive untouched
	}

	sql, err := BuildExecutable(target, "", fragmentSet(target))
	require.NoError(t, err)
	assert.Equal(t, "SELECT   1   AS x", sql)
}

func TestBuildExecutable_MainWithDependencies(t *testing.T) {
	stats := &fragment.Fragment{Name: "stats", Kind: fragment.KindCTE, Text: "SELECT user_id FROM raw", Dependencies: []string{"raw"}}
	raw := &fragment.Fragment{Name: "raw", Kind: fragment.KindCTE, Text: "SELECT * FROM events"}
	main := &fragment.Fragment{Name: "main", Kind: fragment.KindMain, Text: "SELECT * FROM stats", Dependencies: []string{"stats"}}

	sql, err := BuildExecutable(main, "", fragmentSet(stats, raw, main))
	require.NoError(t, err)

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	assert.Equal(t, []string{"raw", "stats"}, stmt.CTENames())
	assert.Equal(t, "SELECT * FROM stats", stmt.Body)
}

func TestBuildExecutable_CTEPreviewIncludesTarget(t *testing.T) {
	raw := &fragment.Fragment{Name: "raw", Kind: fragment.KindCTE, Text: "SELECT * FROM events"}
	daily := &fragment.Fragment{
		Name: "daily", Kind: fragment.KindCTE,
		Text:         "SELECT day, count(*) AS n FROM raw GROUP BY day",
		Dependencies: []string{"raw"},
		Columns:      []string{"day", "n"},
	}

	sql, err := BuildExecutable(daily, "", fragmentSet(raw, daily))
	require.NoError(t, err)

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	assert.Equal(t, []string{"raw", "daily"}, stmt.CTENames())
	assert.Equal(t, []string{"day", "n"}, stmt.FindCTE("daily").Columns)
	assert.Equal(t, "SELECT * FROM daily", stmt.Body)
}

func TestBuildExecutable_FixturesComeFirst(t *testing.T) {
	stats := &fragment.Fragment{Name: "stats", Kind: fragment.KindCTE, Text: "SELECT user_id FROM orders"}
	main := &fragment.Fragment{Name: "main", Kind: fragment.KindMain, Text: "SELECT * FROM stats", Dependencies: []string{"stats"}}

	sql, err := BuildExecutable(main, "orders AS (VALUES (1), (2))", fragmentSet(stats, main))
	require.NoError(t, err)

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "stats"}, stmt.CTENames())
}

func TestBuildExecutable_FixturesOnly(t *testing.T) {
	target := &fragment.Fragment{Name: "probe", Kind: fragment.KindMain, Text: "SELECT * FROM orders"}

	sql, err := BuildExecutable(target, "orders AS (VALUES (1))", fragmentSet(target))
	require.NoError(t, err)

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, stmt.CTENames())
	assert.Equal(t, "SELECT * FROM orders", stmt.Body)
}

func TestBuildExecutable_TargetAbsentFromSet(t *testing.T) {
	dep := &fragment.Fragment{Name: "dep", Kind: fragment.KindCTE, Text: "SELECT 1"}
	target := &fragment.Fragment{Name: "adhoc", Kind: fragment.KindMain, Text: "SELECT * FROM dep", Dependencies: []string{"dep"}}

	sql, err := BuildExecutable(target, "", fragmentSet(dep))
	require.NoError(t, err)

	stmt, err := sqlparse.Parse(sql)
	require.NoError(t, err)
	assert.Equal(t, []string{"dep"}, stmt.CTENames())
}

func TestBuildExecutable_CycleFails(t *testing.T) {
	a := &fragment.Fragment{Name: "a", Kind: fragment.KindCTE, Text: "SELECT * FROM b", Dependencies: []string{"b"}}
	b := &fragment.Fragment{Name: "b", Kind: fragment.KindCTE, Text: "SELECT * FROM a", Dependencies: []string{"a"}}

	_, err := BuildExecutable(a, "", fragmentSet(a, b))
	var cerr *dag.CycleError
	require.ErrorAs(t, err, &cerr)
}

func TestBuildExecutable_MissingDependencyFails(t *testing.T) {
	target := &fragment.Fragment{Name: "x", Kind: fragment.KindMain, Text: "SELECT * FROM ghost", Dependencies: []string{"ghost"}}

	_, err := BuildExecutable(target, "", fragmentSet(target))
	var merr *dag.MissingFragmentError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "ghost", merr.Name)
	assert.Equal(t, "x", merr.Referrer)
}

func TestBuildExecutable_BadFixtures(t *testing.T) {
	target := &fragment.Fragment{Name: "t", Kind: fragment.KindMain, Text: "SELECT 1"}

	_, err := BuildExecutable(target, "garbage fixtures", fragmentSet(target))
	var derr *InvalidCteDefinitionsError
	require.ErrorAs(t, err, &derr)
}
