package split

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/fragment"
	"github.com/quarrylabs/quarry/pkg/sqlparse"
)

func TestExtractDeps(t *testing.T) {
	known := NameSet([]string{"users", "orders", "stats"})

	tests := []struct {
		name string
		sql  string
		self string
		want []string
	}{
		{
			name: "known and unknown references",
			sql:  "SELECT * FROM users JOIN raw_events ON true",
			want: []string{"users"},
		},
		{
			name: "self reference excluded",
			sql:  "SELECT 1 UNION ALL SELECT n + 1 FROM stats",
			self: "stats",
			want: nil,
		},
		{
			name: "first reference order preserved",
			sql:  "SELECT * FROM orders JOIN users ON true JOIN stats ON true",
			want: []string{"orders", "users", "stats"},
		},
		{
			name: "duplicates collapse",
			sql:  "SELECT * FROM users u1 JOIN users u2 ON u1.id = u2.id",
			want: []string{"users"},
		},
		{
			name: "tolerates broken sql",
			sql:  "SELEC * FROM users WHERE (",
			want: []string{"users"},
		},
		{
			name: "keywords in strings ignored",
			sql:  "SELECT 'FROM users' FROM orders",
			want: []string{"orders"},
		},
		{
			name: "no references",
			sql:  "SELECT 1 + 1",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDeps(tt.sql, tt.self, known))
		})
	}
}

func TestDecompose_NoWithClause(t *testing.T) {
	d, err := Decompose("SELECT id FROM customers")
	require.NoError(t, err)

	assert.Empty(t, d.CTEs)
	assert.Equal(t, MainName, d.Main.Name)
	assert.Equal(t, fragment.KindMain, d.Main.Kind)
	assert.Equal(t, "SELECT id FROM customers", d.Main.Text)
	assert.Empty(t, d.Main.Dependencies)
}

func TestDecompose_SingleCTE(t *testing.T) {
	d, err := Decompose(`WITH user_stats AS (SELECT user_id, COUNT(*) AS cnt FROM orders GROUP BY user_id) SELECT * FROM user_stats`)
	require.NoError(t, err)

	require.Len(t, d.CTEs, 1)
	assert.Equal(t, "user_stats", d.CTEs[0].Name)
	assert.Empty(t, d.CTEs[0].Dependencies)
	assert.Equal(t, "SELECT user_id, COUNT(*) AS cnt FROM orders GROUP BY user_id", d.CTEs[0].Text)

	assert.Equal(t, []string{"user_stats"}, d.Main.Dependencies)
	assert.Equal(t, "SELECT * FROM user_stats", d.Main.Text)
}

func TestDecompose_ChainedCTEs(t *testing.T) {
	d, err := Decompose(`WITH raw AS (
  SELECT * FROM events
), daily AS (
  SELECT day, count(*) AS n FROM raw GROUP BY day
)
SELECT * FROM daily JOIN raw ON true`)
	require.NoError(t, err)

	require.Len(t, d.CTEs, 2)
	assert.Empty(t, d.CTEs[0].Dependencies)
	assert.Equal(t, []string{"raw"}, d.CTEs[1].Dependencies)
	assert.Equal(t, []string{"daily", "raw"}, d.Main.Dependencies)
}

func TestDecompose_RecursiveCTESelfRefExcluded(t *testing.T) {
	d, err := Decompose(`WITH RECURSIVE nums (n) AS (SELECT 1 UNION ALL SELECT n + 1 FROM nums) SELECT * FROM nums`)
	require.NoError(t, err)

	require.Len(t, d.CTEs, 1)
	assert.Empty(t, d.CTEs[0].Dependencies)
	assert.Equal(t, []string{"n"}, d.CTEs[0].Columns)
}

func TestDecompose_DependenciesOnlyWithinClause(t *testing.T) {
	// users here is a real table, not a CTE; it must not become a
	// dependency.
	d, err := Decompose(`WITH recent AS (SELECT * FROM users WHERE recent) SELECT * FROM recent JOIN users ON true`)
	require.NoError(t, err)

	assert.Empty(t, d.CTEs[0].Dependencies)
	assert.Equal(t, []string{"recent"}, d.Main.Dependencies)
}

func TestDecompose_ReservedMainName(t *testing.T) {
	_, err := Decompose(`WITH main AS (SELECT 1) SELECT * FROM main`)
	require.Error(t, err)
}

func TestDecompose_ParseError(t *testing.T) {
	_, err := Decompose("WITH broken AS SELECT 1")
	require.Error(t, err)

	var perr *sqlparse.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestDecomposeInto_Persists(t *testing.T) {
	store := fragment.NewMemoryStore()

	d, err := DecomposeInto(store, `WITH a AS (SELECT 1) SELECT * FROM a`)
	require.NoError(t, err)
	require.Len(t, d.Fragments(), 2)

	got, err := store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, fragment.KindCTE, got.Kind)

	main, err := store.Get(MainName)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, main.Dependencies)
}

func TestDecomposeInto_ParseErrorWritesNothing(t *testing.T) {
	store := fragment.NewMemoryStore()

	_, err := DecomposeInto(store, "not sql at all")
	require.Error(t, err)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
