// Package workspace manages a directory of fragment files: discovery,
// dependency recomputation, and change watching. Editors only write a
// fragment's SQL text; the workspace recomputes its dependency list.
package workspace

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/quarrylabs/quarry/internal/dag"
	"github.com/quarrylabs/quarry/internal/fragment"
	"github.com/quarrylabs/quarry/internal/split"
)

// Workspace is a fragment directory plus the derived dependency view.
type Workspace struct {
	store  *fragment.DirStore
	logger *slog.Logger
}

// Open opens dir as a fragment workspace.
func Open(dir string, logger *slog.Logger) (*Workspace, error) {
	store, err := fragment.NewDirStore(dir)
	if err != nil {
		return nil, err
	}
	return &Workspace{store: store, logger: logger}, nil
}

// Store exposes the underlying fragment store.
func (w *Workspace) Store() *fragment.DirStore {
	return w.store
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.store.Dir()
}

// Fragments loads every fragment with dependencies recomputed from its
// current text. Stored dependency lists are advisory; the text is the
// source of truth after hand edits.
func (w *Workspace) Fragments() (map[string]*fragment.Fragment, error) {
	list, err := w.store.List()
	if err != nil {
		return nil, err
	}

	known := referenceable(list)

	fragments := make(map[string]*fragment.Fragment, len(list))
	for _, f := range list {
		f.Dependencies = split.ExtractDeps(f.Text, f.Name, known)
		fragments[f.Name] = f
	}
	return fragments, nil
}

// Graph builds the dependency graph over the current fragment set.
func (w *Workspace) Graph() (*dag.Graph, error) {
	fragments, err := w.Fragments()
	if err != nil {
		return nil, err
	}
	return dag.Build(fragments)
}

// Refresh re-extracts one fragment's dependencies from its text and
// rewrites its header when they changed. Returns the refreshed
// fragment. The write is skipped when nothing changed, so a watcher
// acting on its own rename events converges instead of looping.
func (w *Workspace) Refresh(name string) (*fragment.Fragment, error) {
	f, err := w.store.Get(name)
	if err != nil {
		return nil, err
	}

	list, err := w.store.List()
	if err != nil {
		return nil, err
	}

	deps := split.ExtractDeps(f.Text, f.Name, referenceable(list))
	if equalNames(deps, f.Dependencies) {
		return f, nil
	}

	w.logger.Debug("dependencies changed",
		"fragment", name, "old", f.Dependencies, "new", deps)
	f.Dependencies = deps
	if err := w.store.Put(f); err != nil {
		return nil, fmt.Errorf("rewrite fragment %s: %w", name, err)
	}
	return f, nil
}

// Validate resolves the whole graph, reporting cycles and dangling
// references.
func (w *Workspace) Validate() ([]string, error) {
	fragments, err := w.Fragments()
	if err != nil {
		return nil, err
	}
	return dag.ResolveAll(fragments)
}

// referenceable is the name set other fragments may depend on. Main
// fragments are excluded: nothing depends on the statement body, so a
// CTE mentioning a name like "main" is referencing a real table.
func referenceable(list []*fragment.Fragment) map[string]struct{} {
	names := make([]string, 0, len(list))
	for _, f := range list {
		if f.Kind == fragment.KindMain {
			continue
		}
		names = append(names, f.Name)
	}
	return split.NameSet(names)
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
