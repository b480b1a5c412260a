package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/fragment"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_PutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	f := &fragment.Fragment{
		Name:         "daily",
		Kind:         fragment.KindCTE,
		Text:         "SELECT day, count(*) AS n FROM raw GROUP BY day",
		Dependencies: []string{"raw"},
		Description:  "Daily event counts",
		Columns:      []string{"day", "n"},
	}
	require.NoError(t, store.PutAll([]*fragment.Fragment{
		{Name: "raw", Kind: fragment.KindCTE, Text: "SELECT * FROM events"},
		f,
	}))

	got, err := store.Get("daily")
	require.NoError(t, err)
	assert.Equal(t, f.Text, got.Text)
	assert.Equal(t, f.Kind, got.Kind)
	assert.Equal(t, f.Dependencies, got.Dependencies)
	assert.Equal(t, f.Description, got.Description)
	assert.Equal(t, f.Columns, got.Columns)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get("absent")
	var nf *fragment.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "absent", nf.Name)
}

func TestSQLiteStore_PutUpserts(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(&fragment.Fragment{Name: "a", Kind: fragment.KindCTE, Text: "SELECT 1"}))
	require.NoError(t, store.Put(&fragment.Fragment{Name: "a", Kind: fragment.KindCTE, Text: "SELECT 2"}))

	got, err := store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", got.Text)

	list, err := store.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteStore_PutAllAtomic(t *testing.T) {
	store := openTestStore(t)

	err := store.PutAll([]*fragment.Fragment{
		{Name: "good", Kind: fragment.KindCTE, Text: "SELECT 1"},
		{Name: "9bad", Kind: fragment.KindCTE, Text: "SELECT 2"},
	})
	require.Error(t, err)

	list, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSQLiteStore_ListSorted(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.PutAll([]*fragment.Fragment{
		{Name: "zeta", Kind: fragment.KindCTE, Text: "SELECT 1"},
		{Name: "alpha", Kind: fragment.KindMain, Text: "SELECT * FROM zeta", Dependencies: []string{"zeta"}},
	}))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, []string{"zeta"}, list[0].Dependencies)
	assert.Equal(t, "zeta", list[1].Name)
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(&fragment.Fragment{Name: "a", Kind: fragment.KindCTE, Text: "SELECT 1"}))
	require.NoError(t, store.Delete("a"))

	var nf *fragment.NotFoundError
	_, err := store.Get("a")
	require.ErrorAs(t, err, &nf)

	err = store.Delete("a")
	require.ErrorAs(t, err, &nf)
}

func TestSQLiteStore_SetDependencies(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.PutAll([]*fragment.Fragment{
		{Name: "a", Kind: fragment.KindCTE, Text: "SELECT 1"},
		{Name: "b", Kind: fragment.KindCTE, Text: "SELECT * FROM a", Dependencies: []string{"a"}},
	}))

	require.NoError(t, store.SetDependencies("b", nil))
	got, err := store.Get("b")
	require.NoError(t, err)
	assert.Empty(t, got.Dependencies)

	require.NoError(t, store.SetDependencies("b", []string{"a"}))
	got, err = store.Get("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Dependencies)
}

func TestSQLiteStore_DependencyOrderPreserved(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.PutAll([]*fragment.Fragment{
		{Name: "z", Kind: fragment.KindCTE, Text: "SELECT 1"},
		{Name: "a", Kind: fragment.KindCTE, Text: "SELECT 2"},
		{Name: "m", Kind: fragment.KindMain, Text: "SELECT * FROM z JOIN a ON true", Dependencies: []string{"z", "a"}},
	}))

	got, err := store.Get("m")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, got.Dependencies)
}

func TestSQLiteStore_MigrationVersion(t *testing.T) {
	store := openTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}
