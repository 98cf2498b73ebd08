// Package depgraph builds the transitive dependency closure of a package
// via iterative depth-first traversal, and renders it as a directed
// adjacency list suitable for feeding to an external `dot` renderer.
package depgraph

import (
	"fmt"
	"strings"

	"github.com/ppkgd/ppkgd/formula"
	"github.com/ppkgd/ppkgd/internal/ppkgerr"
)

// Lookup resolves one package name to its Formula for a fixed target
// platform. A *formularesolver.Resolver satisfies this.
type Lookup func(packageName string) (*formula.Formula, error)

// Graph is the resolved dependency closure of one root package: every
// reachable package's Formula, plus the edges discovered while building it.
type Graph struct {
	Root    string
	Visited map[string]*formula.Formula
	// Order lists visited packages in visitation order; Edges[p] lists the
	// dependencies of p, in dep_pkg order, as they were emitted during
	// traversal.
	Order []string
	Edges map[string][]string
}

// BuildClosure performs the iterative depth-first traversal described by
// the core's dependency model: an explicit LIFO worklist seeded with
// rootPackage, a visited map that is the single source of truth for which
// packages have been resolved, and a hard failure the moment a formula
// names itself as its own dependency. Cycles longer than length one are
// silently absorbed by the visited check, per design.
func BuildClosure(rootPackage string, lookup Lookup) (*Graph, error) {
	g := &Graph{
		Root:    rootPackage,
		Visited: make(map[string]*formula.Formula),
		Edges:   make(map[string][]string),
	}

	stack := []string{rootPackage}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, ok := g.Visited[p]; ok {
			continue
		}

		f, err := lookup(p)
		if err != nil {
			return nil, err
		}
		g.Visited[p] = f
		g.Order = append(g.Order, p)

		deps := f.Deps()
		g.Edges[p] = deps

		for _, d := range deps {
			if d == p {
				return nil, &ppkgerr.SelfDependencyError{Package: p}
			}
			stack = append(stack, d)
		}
	}

	return g, nil
}

// DOT renders the graph in the `dot` adjacency-list form: one line per
// visited node (in visitation order) listing its outgoing edges. Nodes
// with no outgoing edges get no line of their own.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph G {\n")
	for _, p := range g.Order {
		deps := g.Edges[p]
		if len(deps) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("    %q -> { ", p))
		for i, d := range deps {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(fmt.Sprintf("%q", d))
		}
		b.WriteString(" }\n")
	}
	b.WriteString("}")
	return b.String()
}
