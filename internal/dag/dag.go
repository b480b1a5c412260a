// Package dag provides directed acyclic graph operations over fragment
// dependencies: resolution into dependency-first order, cycle
// detection, execution levels, and impact queries.
package dag

import (
	"errors"
	"sort"

	"github.com/quarrylabs/quarry/internal/fragment"
)

// Graph is the dependency graph of a fragment set. Edges point from a
// dependency to the fragments that need it. A Graph is always rebuilt
// from the full fragment set, never patched incrementally.
type Graph struct {
	fragments map[string]*fragment.Fragment
	children  map[string][]string // dependency -> dependents
	parents   map[string][]string // fragment -> its dependencies
}

// Build constructs a graph from a fragment set. Every dependency must
// name a fragment in the set; a dangling reference fails with
// *MissingFragmentError, and an edge into a main fragment with
// *MainDependencyError. Cycles are permitted at build time so callers
// can report them via HasCycle.
func Build(fragments map[string]*fragment.Fragment) (*Graph, error) {
	g := &Graph{
		fragments: fragments,
		children:  make(map[string][]string, len(fragments)),
		parents:   make(map[string][]string, len(fragments)),
	}

	for name, f := range fragments {
		for _, dep := range f.Dependencies {
			target, ok := fragments[dep]
			if !ok {
				return nil, &MissingFragmentError{Name: dep, Referrer: name}
			}
			if target.Kind == fragment.KindMain {
				return nil, &MainDependencyError{Name: dep, Referrer: name}
			}
			g.parents[name] = append(g.parents[name], dep)
			g.children[dep] = append(g.children[dep], name)
		}
	}

	// Deterministic adjacency regardless of map iteration order.
	for _, adj := range []map[string][]string{g.parents, g.children} {
		for _, names := range adj {
			sort.Strings(names)
		}
	}
	return g, nil
}

// Fragment returns the fragment for a name, if present.
func (g *Graph) Fragment(name string) (*fragment.Fragment, bool) {
	f, ok := g.fragments[name]
	return f, ok
}

// Names returns all fragment names in sorted order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.fragments))
	for name := range g.fragments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependencies returns the direct dependencies of a fragment.
func (g *Graph) Dependencies(name string) []string {
	return g.parents[name]
}

// Dependents returns the fragments that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	return g.children[name]
}

// Size returns the number of fragments in the graph.
func (g *Graph) Size() int {
	return len(g.fragments)
}

// HasCycle reports whether the graph contains a cycle, along with one
// cycle path (first and last element equal) when it does.
func (g *Graph) HasCycle() (bool, []string) {
	_, err := ResolveAll(g.fragments)
	var cerr *CycleError
	if errors.As(err, &cerr) {
		return true, cerr.Members
	}
	return false, nil
}

// TransitiveDependents returns every fragment downstream of name: the
// delete-impact set, not including name itself.
func (g *Graph) TransitiveDependents(name string) []string {
	affected := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		for _, child := range g.children[id] {
			if !affected[child] {
				affected[child] = true
				mark(child)
			}
		}
	}
	mark(name)

	result := make([]string, 0, len(affected))
	for id := range affected {
		result = append(result, id)
	}
	sort.Strings(result)
	return result
}

// Roots returns fragments with no dependencies.
func (g *Graph) Roots() []string {
	var roots []string
	for name := range g.fragments {
		if len(g.parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns fragments nothing depends on.
func (g *Graph) Leaves() []string {
	var leaves []string
	for name := range g.fragments {
		if len(g.children[name]) == 0 {
			leaves = append(leaves, name)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// ExecutionLevels groups fragments by dependency depth: level 0 holds
// fragments with no dependencies, and every fragment at level N only
// depends on fragments at levels below N. Fails with *CycleError on a
// cyclic graph.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	if _, err := ResolveAll(g.fragments); err != nil {
		return nil, err
	}

	assigned := make(map[string]int)

	var level func(name string) int
	level = func(name string) int {
		if l, ok := assigned[name]; ok {
			return l
		}

		max := -1
		for _, dep := range g.parents[name] {
			if l := level(dep); l > max {
				max = l
			}
		}
		assigned[name] = max + 1
		return max + 1
	}

	maxLevel := 0
	for name := range g.fragments {
		if l := level(name); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for name, l := range assigned {
		levels[l] = append(levels[l], name)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}
