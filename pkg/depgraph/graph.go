package depgraph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nixscope/nixscope/pkg/store"
)

// CycleError is returned by [Build] when the reference lists contain a
// dependency cycle. A store cannot contain cycles, so this indicates
// corrupted source metadata rather than a runtime condition.
type CycleError struct {
	// Path is the offending index sequence; it starts and ends at the same
	// index, e.g. [a b c a].
	Path []store.Index
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, n := range e.Path {
		parts[i] = fmt.Sprintf("#%d", n)
	}
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

// DanglingError is returned by [Build] when a reference list names an index
// outside the registered range.
type DanglingError struct {
	From store.Index // node whose reference list is broken
	Ref  store.Index // the unregistered target
}

func (e *DanglingError) Error() string {
	return fmt.Sprintf("dangling reference: #%d -> #%d", e.From, e.Ref)
}

// Graph holds forward and reverse adjacency over a registry's index space.
// It is immutable after Build and safe for concurrent readers.
type Graph struct {
	out [][]store.Index // dependencies, deduplicated, declaration order
	in  [][]store.Index // referrers, transpose of out, build order
}

// Build constructs the graph for indices [0, n) from their declared
// reference lists. Duplicate references are collapsed; multiplicity is
// irrelevant, only reachability matters. Self-references are cycles.
//
// Returns *DanglingError if a reference names an unregistered index and
// *CycleError if the edges contain a cycle.
func Build(n int, refs [][]store.Index) (*Graph, error) {
	g := &Graph{
		out: make([][]store.Index, n),
		in:  make([][]store.Index, n),
	}

	// mark stamps the last source that emitted each target, deduplicating
	// reference lists without allocating a set per node.
	mark := make([]int, n)
	for from := 0; from < n && from < len(refs); from++ {
		for _, ref := range refs[from] {
			if ref < 0 || int(ref) >= n {
				return nil, &DanglingError{From: store.Index(from), Ref: ref}
			}
			if mark[ref] == from+1 {
				continue
			}
			mark[ref] = from + 1
			g.out[from] = append(g.out[from], ref)
			g.in[ref] = append(g.in[ref], store.Index(from))
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.out) }

// Dependencies returns the direct outgoing edges of i in declaration order.
// The returned slice is a read-only view into the graph.
func (g *Graph) Dependencies(i store.Index) []store.Index { return g.out[i] }

// Referrers returns the direct incoming edges of i. The returned slice is a
// read-only view into the graph.
func (g *Graph) Referrers(i store.Index) []store.Index { return g.in[i] }

// ReachableFrom returns the forward closure of i, including i itself. The
// traversal uses an explicit worklist with a visited set, so each node is
// expanded once regardless of how many paths reach it and arbitrarily deep
// chains cannot overflow the call stack.
func (g *Graph) ReachableFrom(i store.Index) *Set {
	seen := NewSet(len(g.out))
	seen.Add(i)
	stack := []store.Index{i}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range g.out[n] {
			if seen.Add(c) {
				stack = append(stack, c)
			}
		}
	}
	return seen
}

// findCycle runs an iterative depth-first search with white/gray/black
// coloring and returns one offending cycle, or nil if the graph is acyclic.
func (g *Graph) findCycle() []store.Index {
	const (
		white = iota
		gray
		black
	)

	color := make([]byte, len(g.out))

	type frame struct {
		node store.Index
		next int
	}

	for s := range g.out {
		if color[s] != white {
			continue
		}
		color[s] = gray
		stack := []frame{{node: store.Index(s)}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(g.out[f.node]) {
				child := g.out[f.node][f.next]
				f.next++
				switch color[child] {
				case white:
					color[child] = gray
					stack = append(stack, frame{node: child})
				case gray:
					// The gray child is on the current DFS path; the frames
					// above it spell out the cycle.
					cycle := []store.Index{child}
					for j := len(stack) - 1; j >= 0; j-- {
						cycle = append(cycle, stack[j].node)
						if stack[j].node == child {
							break
						}
					}
					slices.Reverse(cycle)
					return cycle
				}
			} else {
				color[f.node] = black
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}
