package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/compose"
	"github.com/quarrylabs/quarry/internal/fragment"
	"github.com/quarrylabs/quarry/internal/split"
	"github.com/quarrylabs/quarry/internal/testutil"
)

func openTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w, err := Open(t.TempDir(), testutil.NewTestLogger(t))
	require.NoError(t, err)
	return w
}

func seed(t *testing.T, w *Workspace, query string) {
	t.Helper()
	d, err := split.Decompose(query)
	require.NoError(t, err)
	require.NoError(t, w.Store().PutAll(d.Fragments()))
}

func TestWorkspace_FragmentsRecomputeDependencies(t *testing.T) {
	w := openTestWorkspace(t)
	seed(t, w, "WITH a AS (SELECT 1), b AS (SELECT 2 FROM a) SELECT * FROM b")

	// Hand-edit b's file so its text no longer references a; the
	// stored header still claims the old dependency.
	content := "/*---\nname: b\ndependencies: [a]\n---*/\nSELECT 2\n"
	require.NoError(t, os.WriteFile(w.Store().Path("b"), []byte(content), 0o644))

	fragments, err := w.Fragments()
	require.NoError(t, err)
	assert.Empty(t, fragments["b"].Dependencies)
	assert.Equal(t, []string{"b"}, fragments["main"].Dependencies)
}

func TestWorkspace_MainNeverBecomesADependency(t *testing.T) {
	w := openTestWorkspace(t)
	require.NoError(t, w.Store().PutAll([]*fragment.Fragment{
		{Name: "main", Kind: fragment.KindMain, Text: "SELECT 1 AS id"},
		{Name: "peek", Kind: fragment.KindCTE, Text: "SELECT * FROM main"},
	}))

	// "main" in peek's text is a real table reference, not an edge
	// into the statement body.
	fragments, err := w.Fragments()
	require.NoError(t, err)
	assert.Empty(t, fragments["peek"].Dependencies)

	sql, err := compose.BuildExecutable(fragments["peek"], "", fragments)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM main", sql)

	f, err := w.Refresh("peek")
	require.NoError(t, err)
	assert.Empty(t, f.Dependencies)
}

func TestWorkspace_GraphAndValidate(t *testing.T) {
	w := openTestWorkspace(t)
	seed(t, w, "WITH a AS (SELECT 1), b AS (SELECT 2 FROM a) SELECT * FROM b")

	g, err := w.Graph()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "main"}, g.Names())
	assert.Equal(t, []string{"b"}, g.Dependents("a"))

	order, err := w.Validate()
	require.NoError(t, err)
	assert.Len(t, order, 3)
}

func TestWorkspace_RefreshRewritesHeader(t *testing.T) {
	w := openTestWorkspace(t)
	seed(t, w, "WITH a AS (SELECT 1), b AS (SELECT 2 FROM a) SELECT * FROM b")

	// Editor-style write: body changed, header left stale.
	content := "/*---\nname: b\ndependencies: [a]\n---*/\nSELECT 2\n"
	require.NoError(t, os.WriteFile(w.Store().Path("b"), []byte(content), 0o644))

	f, err := w.Refresh("b")
	require.NoError(t, err)
	assert.Empty(t, f.Dependencies)

	// The header on disk caught up.
	stored, err := w.Store().Get("b")
	require.NoError(t, err)
	assert.Empty(t, stored.Dependencies)
}

func TestWorkspace_RefreshNoChangeLeavesFileAlone(t *testing.T) {
	w := openTestWorkspace(t)
	seed(t, w, "WITH a AS (SELECT 1) SELECT * FROM a")

	before, err := os.Stat(w.Store().Path("a"))
	require.NoError(t, err)

	_, err = w.Refresh("a")
	require.NoError(t, err)

	after, err := os.Stat(w.Store().Path("a"))
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestWorkspace_WatchRefreshesOnWrite(t *testing.T) {
	w := openTestWorkspace(t)
	seed(t, w, "WITH a AS (SELECT 1), b AS (SELECT 2 FROM a) SELECT * FROM b")

	changed := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, func(name string) { changed <- name }) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)

	content := "/*---\nname: b\ndependencies: [a]\n---*/\nSELECT 2\n"
	require.NoError(t, os.WriteFile(w.Store().Path("b"), []byte(content), 0o644))

	select {
	case name := <-changed:
		assert.Equal(t, "b", name)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	stored, err := w.Store().Get("b")
	require.NoError(t, err)
	assert.Empty(t, stored.Dependencies)

	cancel()
	require.NoError(t, <-done)
}

func TestWorkspace_WatchIgnoresForeignFiles(t *testing.T) {
	w := openTestWorkspace(t)

	require.NoError(t, w.Store().Put(&fragment.Fragment{
		Name: "a", Kind: fragment.KindCTE, Text: "SELECT 1",
	}))

	changed := make(chan string, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, func(name string) { changed <- name }) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(w.Dir(), "notes.txt"), []byte("x"), 0o644))

	select {
	case name := <-changed:
		t.Fatalf("unexpected change notification for %q", name)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
