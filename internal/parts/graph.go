package parts

import (
	"fmt"
	"sort"

	engerrors "github.com/canonical/craft-parts-go/internal/errors"
)

// Graph is a validated, name-indexed view of a parts set.
type Graph struct {
	byName map[string]*Part
	order  []string // alphabetical
}

// NewGraph validates that every `after` entry references an existing part
// and that the graph is acyclic (spec §3 invariants), returning a Graph on
// success.
func NewGraph(all []*Part) (*Graph, error) {
	byName := make(map[string]*Part, len(all))
	for _, p := range all {
		if _, dup := byName[p.Name]; dup {
			return nil, &engerrors.InvalidPartsError{Part: p.Name, Message: "duplicate part name"}
		}
		byName[p.Name] = p
	}
	for _, p := range all {
		for _, dep := range p.After {
			if _, ok := byName[dep]; !ok {
				return nil, &engerrors.InvalidPartsError{
					Part: p.Name, Field: "after",
					Message: fmt.Sprintf("dangling reference to part %q", dep),
				}
			}
		}
	}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	g := &Graph{byName: byName, order: names}
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	return g, nil
}

const (
	white = 0
	gray  = 1
	black = 2
)

func (g *Graph) checkAcyclic() error {
	color := make(map[string]int, len(g.order))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return &engerrors.InvalidPartsError{
				Part: name, Field: "after",
				Message: fmt.Sprintf("circular dependency: %v", append(append([]string{}, path...), name)),
			}
		}
		color[name] = gray
		path = append(path, name)
		for _, dep := range g.byName[name].After {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Part returns the named part, or nil if absent.
func (g *Graph) Part(name string) *Part { return g.byName[name] }

// Names returns every part name in alphabetical order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// ProcessingOrder returns the stable topological order used for OVERLAY
// layering and default step iteration (spec §4.7): a stable topological
// sort with ties broken alphabetically.
func (g *Graph) ProcessingOrder() []string {
	visited := make(map[string]bool, len(g.order))
	var out []string

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		deps := append([]string{}, g.byName[name].After...)
		sort.Strings(deps)
		for _, dep := range deps {
			visit(dep)
		}
		out = append(out, name)
	}

	for _, name := range g.order {
		visit(name)
	}
	return out
}

// Dependents returns the set of parts whose `after` list includes name,
// i.e. parts that must wait for name.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, n := range g.order {
		for _, dep := range g.byName[n].After {
			if dep == name {
				out = append(out, n)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// TransitiveDependents returns every part that depends, directly or
// transitively, on name.
func (g *Graph) TransitiveDependents(name string) []string {
	seen := map[string]bool{}
	var walk func(string)
	walk = func(n string) {
		for _, dep := range g.Dependents(n) {
			if !seen[dep] {
				seen[dep] = true
				walk(dep)
			}
		}
	}
	walk(name)
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
