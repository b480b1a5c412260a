package fragment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeConstructors lets the same suite run against both Store
// implementations.
func storeConstructors(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"dir": func() Store {
			s, err := NewDirStore(t.TempDir())
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_PutGetListDelete(t *testing.T) {
	for name, newStore := range storeConstructors(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()

			require.NoError(t, store.Put(&Fragment{Name: "b", Kind: KindCTE, Text: "SELECT 2"}))
			require.NoError(t, store.Put(&Fragment{Name: "a", Kind: KindCTE, Text: "SELECT 1"}))

			got, err := store.Get("a")
			require.NoError(t, err)
			assert.Equal(t, "SELECT 1", got.Text)

			list, err := store.List()
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "a", list[0].Name)
			assert.Equal(t, "b", list[1].Name)

			require.NoError(t, store.Delete("a"))
			_, err = store.Get("a")
			var nf *NotFoundError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, "a", nf.Name)
		})
	}
}

func TestStore_PutAllAtomic(t *testing.T) {
	for name, newStore := range storeConstructors(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()

			err := store.PutAll([]*Fragment{
				{Name: "good", Kind: KindCTE, Text: "SELECT 1"},
				{Name: "9bad", Kind: KindCTE, Text: "SELECT 2"},
			})
			require.Error(t, err)

			// Nothing from the failed batch may be visible.
			_, err = store.Get("good")
			assert.Error(t, err)

			list, err := store.List()
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStore_PutAllRejectsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	err := store.PutAll([]*Fragment{
		{Name: "a", Kind: KindCTE, Text: "SELECT 1"},
		{Name: "a", Kind: KindCTE, Text: "SELECT 2"},
	})
	require.Error(t, err)
}

func TestMemoryStore_ReadsAreCopies(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(&Fragment{
		Name: "a", Kind: KindCTE, Text: "SELECT 1", Dependencies: []string{"b"},
	}))

	got, err := store.Get("a")
	require.NoError(t, err)
	got.Dependencies[0] = "mutated"

	again, err := store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, again.Dependencies)
}

func TestDirStore_FilenameWinsOverHeader(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	require.NoError(t, err)

	content := "/*---\nname: other\n---*/\nSELECT 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "actual.sql"), []byte(content), 0o644))

	got, err := store.Get("actual")
	require.NoError(t, err)
	assert.Equal(t, "actual", got.Name)
}

func TestDirStore_ListSkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.sql"), []byte("x"), 0o644))
	require.NoError(t, store.Put(&Fragment{Name: "real", Kind: KindCTE, Text: "SELECT 1"}))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "real", list[0].Name)
}

func TestDirStore_NoTempFilesAfterFailedPutAll(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	require.NoError(t, err)

	err = store.PutAll([]*Fragment{
		{Name: "ok", Kind: KindCTE, Text: "SELECT 1"},
		{Name: "bad name", Kind: KindCTE, Text: "SELECT 2"},
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMap(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.PutAll([]*Fragment{
		{Name: "a", Kind: KindCTE, Text: "SELECT 1"},
		{Name: "b", Kind: KindMain, Text: "SELECT * FROM a", Dependencies: []string{"a"}},
	}))

	m, err := Map(store)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, KindMain, m["b"].Kind)
}
