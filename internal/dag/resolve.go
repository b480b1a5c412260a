package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quarrylabs/quarry/internal/fragment"
)

// CycleError reports a dependency cycle. Members is the cycle path in
// reference order, with the entry fragment repeated at the end.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Members, " -> "))
}

// MissingFragmentError reports a dependency that names no fragment.
// Referrer is empty when the missing name is the resolution target
// itself.
type MissingFragmentError struct {
	Name     string
	Referrer string
}

func (e *MissingFragmentError) Error() string {
	if e.Referrer == "" {
		return fmt.Sprintf("fragment not found: %s", e.Name)
	}
	return fmt.Sprintf("fragment %s references missing fragment %s", e.Referrer, e.Name)
}

// MainDependencyError reports an edge into a main fragment. Nothing
// may depend on the statement body; it is always the top of the graph.
type MainDependencyError struct {
	Name     string
	Referrer string
}

func (e *MainDependencyError) Error() string {
	return fmt.Sprintf("fragment %s depends on main fragment %s", e.Referrer, e.Name)
}

// Resolve returns target and its transitive dependencies in
// dependency-first order, target last. Every fragment appears exactly
// once (diamonds dedupe to their earliest valid position). A cycle
// reachable from target fails with *CycleError, a dangling reference
// with *MissingFragmentError; no partial order is ever returned.
func Resolve(target string, fragments map[string]*fragment.Fragment) ([]string, error) {
	if _, ok := fragments[target]; !ok {
		return nil, &MissingFragmentError{Name: target}
	}

	r := newResolver(fragments)
	if err := r.visit(target); err != nil {
		return nil, err
	}
	return r.order, nil
}

// ResolveAll resolves every fragment in the set, for whole-graph
// validation before a bulk compose. The returned order is a full
// topological sort, deterministic across calls.
func ResolveAll(fragments map[string]*fragment.Fragment) ([]string, error) {
	names := make([]string, 0, len(fragments))
	for name := range fragments {
		names = append(names, name)
	}
	sort.Strings(names)

	r := newResolver(fragments)
	for _, name := range names {
		if err := r.visit(name); err != nil {
			return nil, err
		}
	}
	return r.order, nil
}

type resolver struct {
	fragments map[string]*fragment.Fragment
	visiting  map[string]bool
	done      map[string]bool
	stack     []string
	order     []string
}

func newResolver(fragments map[string]*fragment.Fragment) *resolver {
	return &resolver{
		fragments: fragments,
		visiting:  make(map[string]bool),
		done:      make(map[string]bool),
	}
}

func (r *resolver) visit(name string) error {
	if r.done[name] {
		return nil
	}
	if r.visiting[name] {
		return r.cycleFrom(name)
	}

	r.visiting[name] = true
	r.stack = append(r.stack, name)

	for _, dep := range r.fragments[name].Dependencies {
		target, ok := r.fragments[dep]
		if !ok {
			return &MissingFragmentError{Name: dep, Referrer: name}
		}
		if target.Kind == fragment.KindMain {
			return &MainDependencyError{Name: dep, Referrer: name}
		}
		if err := r.visit(dep); err != nil {
			return err
		}
	}

	r.stack = r.stack[:len(r.stack)-1]
	delete(r.visiting, name)
	r.done[name] = true
	r.order = append(r.order, name)
	return nil
}

// cycleFrom slices the DFS stack from the first occurrence of name and
// closes the loop, so the error reads a -> b -> c -> a.
func (r *resolver) cycleFrom(name string) *CycleError {
	start := 0
	for i, id := range r.stack {
		if id == name {
			start = i
			break
		}
	}
	members := append([]string(nil), r.stack[start:]...)
	members = append(members, name)
	return &CycleError{Members: members}
}
