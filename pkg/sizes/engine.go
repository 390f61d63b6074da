package sizes

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/store"
)

// closureCacheSize bounds the number of materialized closure sets held at
// once. Closure sizes are memoized separately and stay cheap; the sets
// themselves are only needed while computing, so an LRU keeps memory flat
// on stores with tens of thousands of paths.
const closureCacheSize = 512

// Engine computes closure and added sizes over an immutable graph. All
// methods are safe for concurrent use.
type Engine struct {
	graph *depgraph.Graph
	reg   *store.Registry

	mu           sync.Mutex
	closureSizes map[store.Index]int64
	closures     *lru.Cache[store.Index, *depgraph.Set]

	nextGen atomic.Uint64
}

// New creates an engine for the given graph and registry. The caches start
// empty and fill on first query; they live until the engine is discarded,
// which happens only when the graph itself is reloaded.
func New(g *depgraph.Graph, reg *store.Registry) *Engine {
	closures, _ := lru.New[store.Index, *depgraph.Set](closureCacheSize)
	return &Engine{
		graph:        g,
		reg:          reg,
		closureSizes: make(map[store.Index]int64),
		closures:     closures,
	}
}

// ClosureSize returns the total unique size in bytes of i and everything it
// transitively depends on. A store-reported closure size is trusted when
// present; otherwise the value is computed from the graph and memoized.
func (e *Engine) ClosureSize(i store.Index) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closureSizeLocked(i)
}

func (e *Engine) closureSizeLocked(i store.Index) int64 {
	if size, ok := e.closureSizes[i]; ok {
		return size
	}
	size := e.reg.Info(i).ClosureSize
	if size == 0 {
		size = e.sumSet(e.closureSetLocked(i))
	}
	e.closureSizes[i] = size
	return size
}

// closureSetLocked returns the forward closure of i, serving repeated
// queries from the LRU cache. Callers must hold e.mu.
func (e *Engine) closureSetLocked(i store.Index) *depgraph.Set {
	if set, ok := e.closures.Get(i); ok {
		return set
	}
	set := e.graph.ReachableFrom(i)
	e.closures.Add(i, set)
	return set
}

// sumSet adds up declared NAR sizes over a set of indices. Summation is
// over a set, so the result cannot depend on traversal order.
func (e *Engine) sumSet(s *depgraph.Set) int64 {
	var total int64
	s.ForEach(func(i store.Index) {
		total += e.reg.Info(i).NarSize
	})
	return total
}
