package sizes

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/store"
)

// testNode declares one artifact for buildFixture.
type testNode struct {
	name string
	size int64
	deps []string
}

// buildFixture interns the nodes in order and builds the graph from their
// declared dependency names.
func buildFixture(t *testing.T, nodes []testNode) (*store.Registry, *depgraph.Graph, map[string]store.Index) {
	t.Helper()

	reg := store.NewRegistry()
	byName := make(map[string]store.Index, len(nodes))
	for _, n := range nodes {
		i, err := reg.Intern(fixturePath(n.name), store.Info{NarSize: n.size})
		if err != nil {
			t.Fatalf("Intern(%s): %v", n.name, err)
		}
		byName[n.name] = i
	}

	refs := make([][]store.Index, reg.Len())
	for _, n := range nodes {
		for _, dep := range n.deps {
			to, ok := byName[dep]
			if !ok {
				t.Fatalf("fixture references unknown node %q", dep)
			}
			refs[byName[n.name]] = append(refs[byName[n.name]], to)
		}
	}

	g, err := depgraph.Build(reg.Len(), refs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return reg, g, byName
}

// fixturePath produces a valid store path for a short fixture name.
func fixturePath(name string) string {
	alphabet := "0123456789abcdfghijklmnpqrsvwxyz"
	var b strings.Builder
	b.WriteString("/nix/store/")
	seed := 7
	for _, c := range name {
		seed = seed*131 + int(c)
	}
	for i := 0; i < 32; i++ {
		seed = (seed*1103515245 + 12345) & 0x7fffffff
		b.WriteByte(alphabet[seed%len(alphabet)])
	}
	fmt.Fprintf(&b, "-%s", name)
	return b.String()
}

// diamond is the shared-subgraph scenario: A→{B,C}, B→{D}, C→{D},
// sizes A=10, B=5, C=5, D=20.
var diamond = []testNode{
	{name: "a", size: 10, deps: []string{"b", "c"}},
	{name: "b", size: 5, deps: []string{"d"}},
	{name: "c", size: 5, deps: []string{"d"}},
	{name: "d", size: 20},
}

func TestClosureSizeCountsSharedNodesOnce(t *testing.T) {
	reg, g, ids := buildFixture(t, diamond)
	e := New(g, reg)

	tests := []struct {
		node string
		want int64
	}{
		{"a", 40}, // 10+5+5+20, d counted once
		{"b", 25},
		{"c", 25},
		{"d", 20},
	}
	for _, tt := range tests {
		if got := e.ClosureSize(ids[tt.node]); got != tt.want {
			t.Errorf("ClosureSize(%s) = %d, want %d", tt.node, got, tt.want)
		}
	}
}

func TestClosureSizeIdempotent(t *testing.T) {
	reg, g, ids := buildFixture(t, diamond)
	e := New(g, reg)

	first := e.ClosureSize(ids["a"])
	if again := e.ClosureSize(ids["a"]); again != first {
		t.Errorf("repeated ClosureSize = %d, want %d", again, first)
	}
}

func TestClosureSizeTrustsStoreReportedValue(t *testing.T) {
	reg := store.NewRegistry()
	i, err := reg.Intern(fixturePath("solo"), store.Info{NarSize: 10, ClosureSize: 999})
	if err != nil {
		t.Fatal(err)
	}
	g, err := depgraph.Build(1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := New(g, reg).ClosureSize(i); got != 999 {
		t.Errorf("ClosureSize = %d, want store-reported 999", got)
	}
}

func TestAddedSizeSharedScenario(t *testing.T) {
	reg, g, ids := buildFixture(t, diamond)
	e := New(g, reg)

	// Root context: a's direct dependencies {b, c}.
	ctx := e.NewContext([]store.Index{ids["b"], ids["c"]})

	if got, ok := ctx.AddedSize(ids["b"]); !ok || got != 5 {
		t.Errorf("AddedSize(b) = %d, %v, want 5, true", got, ok)
	}
	if got, ok := ctx.AddedSize(ids["c"]); !ok || got != 5 {
		t.Errorf("AddedSize(c) = %d, %v, want 5, true", got, ok)
	}
	// d is shared, not a top-level member: not applicable.
	if _, ok := ctx.AddedSize(ids["d"]); ok {
		t.Error("AddedSize(d) applicable, want not-applicable outside context")
	}
}

func TestAddedSizeDisjointClosuresEqualClosureSize(t *testing.T) {
	reg, g, ids := buildFixture(t, []testNode{
		{name: "root", size: 1, deps: []string{"x", "y"}},
		{name: "x", size: 7, deps: []string{"xlib"}},
		{name: "xlib", size: 3},
		{name: "y", size: 11},
	})
	e := New(g, reg)
	ctx := e.NewContext([]store.Index{ids["x"], ids["y"]})

	if got, _ := ctx.AddedSize(ids["x"]); got != e.ClosureSize(ids["x"]) {
		t.Errorf("AddedSize(x) = %d, want closure size %d", got, e.ClosureSize(ids["x"]))
	}
	if got, _ := ctx.AddedSize(ids["y"]); got != 11 {
		t.Errorf("AddedSize(y) = %d, want 11", got)
	}
}

func TestAddedSizeSubsetClosureIsZero(t *testing.T) {
	// small's closure is a strict subset of big's.
	reg, g, ids := buildFixture(t, []testNode{
		{name: "big", size: 2, deps: []string{"small"}},
		{name: "small", size: 9, deps: []string{"leaf"}},
		{name: "leaf", size: 4},
	})
	e := New(g, reg)
	ctx := e.NewContext([]store.Index{ids["big"], ids["small"]})

	if got, ok := ctx.AddedSize(ids["small"]); !ok || got != 0 {
		t.Errorf("AddedSize(small) = %d, %v, want 0, true", got, ok)
	}
	// small remains a sibling keeping its own closure alive, so removing
	// big only frees big itself.
	if got, _ := ctx.AddedSize(ids["big"]); got != 2 {
		t.Errorf("AddedSize(big) = %d, want 2", got)
	}
}

func TestAddedSizeSumPropertyForPartition(t *testing.T) {
	// Root with three children whose closures share nothing: added sizes
	// over the children sum to the root's closure minus its own size.
	reg, g, ids := buildFixture(t, []testNode{
		{name: "root", size: 100, deps: []string{"p", "q", "r"}},
		{name: "p", size: 1, deps: []string{"pl"}},
		{name: "pl", size: 2},
		{name: "q", size: 4},
		{name: "r", size: 8, deps: []string{"rl"}},
		{name: "rl", size: 16},
	})
	e := New(g, reg)
	ctx := e.NewContext([]store.Index{ids["p"], ids["q"], ids["r"]})

	var sum int64
	for _, name := range []string{"p", "q", "r"} {
		v, ok := ctx.AddedSize(ids[name])
		if !ok {
			t.Fatalf("AddedSize(%s) not applicable", name)
		}
		sum += v
	}
	want := e.ClosureSize(ids["root"]) - 100
	if sum != want {
		t.Errorf("sum of added sizes = %d, want %d", sum, want)
	}
}

func TestAddedSizeIdempotentAcrossQueries(t *testing.T) {
	reg, g, ids := buildFixture(t, diamond)
	e := New(g, reg)
	ctx := e.NewContext([]store.Index{ids["b"], ids["c"]})

	v1, _ := ctx.AddedSize(ids["b"])
	v2, _ := ctx.AddedSize(ids["b"])
	if v1 != v2 {
		t.Errorf("repeated AddedSize = %d then %d", v1, v2)
	}
}

func TestContextGenerationsAreDistinct(t *testing.T) {
	reg, g, ids := buildFixture(t, diamond)
	e := New(g, reg)

	c1 := e.NewContext([]store.Index{ids["b"]})
	c2 := e.NewContext([]store.Index{ids["b"]})
	if c1.Generation() == c2.Generation() {
		t.Error("distinct contexts share a generation")
	}
}

func TestContextDeduplicatesMembers(t *testing.T) {
	reg, g, ids := buildFixture(t, diamond)
	e := New(g, reg)

	ctx := e.NewContext([]store.Index{ids["b"], ids["b"], ids["c"]})
	if len(ctx.Members()) != 2 {
		t.Errorf("Members() = %v, want 2 unique members", ctx.Members())
	}
	// b duplicated must not count itself as a sibling.
	if got, _ := ctx.AddedSize(ids["b"]); got != 5 {
		t.Errorf("AddedSize(b) = %d, want 5", got)
	}
}
