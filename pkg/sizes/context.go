package sizes

import (
	"sync"

	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/store"
)

// Context is a root context for added-size queries: the set of top-level
// siblings currently under comparison. Added sizes are meaningful only
// relative to a context, so results are cached on the context itself and
// discarded wholesale when the user re-focuses — there is no fine-grained
// invalidation to get wrong.
type Context struct {
	engine  *Engine
	gen     uint64
	members []store.Index
	pos     map[store.Index]int

	once  sync.Once
	added []int64
}

// NewContext creates a root context over the given sibling set. Members are
// kept in the given order; duplicates collapse to their first occurrence.
// The sibling-exclusive unions are computed once, on first query.
func (e *Engine) NewContext(members []store.Index) *Context {
	c := &Context{
		engine: e,
		gen:    e.nextGen.Add(1),
		pos:    make(map[store.Index]int, len(members)),
	}
	for _, m := range members {
		if _, ok := c.pos[m]; ok {
			continue
		}
		c.pos[m] = len(c.members)
		c.members = append(c.members, m)
	}
	return c
}

// Generation identifies this context. Generations are unique per engine and
// monotonic, so async consumers can drop results computed for a context the
// user has since navigated away from.
func (c *Context) Generation() uint64 { return c.gen }

// Members returns the context's sibling set in order.
func (c *Context) Members() []store.Index { return c.members }

// AddedSize returns the size uniquely attributable to i within this
// context: the total declared size of the nodes reachable from i but from
// no other member. The second result is false when i is not a member, in
// which case added size is not applicable and no number should be shown.
func (c *Context) AddedSize(i store.Index) (int64, bool) {
	j, ok := c.pos[i]
	if !ok {
		return 0, false
	}
	c.once.Do(c.compute)
	return c.added[j], true
}

// compute resolves added sizes for all members at once. The exclusive union
// for member j (everything reachable from some other member) is assembled
// from prefix and suffix unions, so the whole context costs O(k) set unions
// instead of O(k²).
func (c *Context) compute() {
	e := c.engine
	k := len(c.members)
	c.added = make([]int64, k)
	if k == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.graph.Len()
	closures := make([]*depgraph.Set, k)
	for j, m := range c.members {
		closures[j] = e.closureSetLocked(m)
	}

	// prefix[j] = union of closures[0..j), suffix[j] = union of closures[j..k).
	prefix := make([]*depgraph.Set, k+1)
	prefix[0] = depgraph.NewSet(n)
	for j := 0; j < k; j++ {
		p := prefix[j].Clone()
		p.UnionWith(closures[j])
		prefix[j+1] = p
	}
	suffix := make([]*depgraph.Set, k+1)
	suffix[k] = depgraph.NewSet(n)
	for j := k - 1; j >= 0; j-- {
		s := suffix[j+1].Clone()
		s.UnionWith(closures[j])
		suffix[j] = s
	}

	for j := range c.members {
		excl := prefix[j].Clone()
		excl.UnionWith(suffix[j+1])
		c.added[j] = e.sumSet(closures[j].AndNot(excl))
	}
}
