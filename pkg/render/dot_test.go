package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/store"
)

// chainFixture interns a -> b -> c and returns the graph plus registry.
func chainFixture(t *testing.T) (*depgraph.Graph, *store.Registry, []store.Index) {
	t.Helper()

	reg := store.NewRegistry()
	names := []string{"app-1.0", "lib-2.0", "base-3.0"}
	idx := make([]store.Index, len(names))
	for i, name := range names {
		hash := strings.Repeat("z", 31) + string(rune('a'+i))
		full := fmt.Sprintf("/nix/store/%s-%s", hash, name)
		var err error
		idx[i], err = reg.Intern(full, store.Info{NarSize: 100, ClosureSize: 300})
		if err != nil {
			t.Fatalf("Intern(%s): %v", name, err)
		}
	}

	refs := [][]store.Index{
		{idx[1]}, // app -> lib
		{idx[2]}, // lib -> base
		{},
	}
	g, err := depgraph.Build(reg.Len(), refs)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g, reg, idx
}

func TestToDOTFullClosure(t *testing.T) {
	g, reg, idx := chainFixture(t)

	dot := ToDOT(g, reg, []store.Index{idx[0]}, Options{})

	for _, name := range []string{"app-1.0", "lib-2.0", "base-3.0"} {
		if !strings.Contains(dot, name) {
			t.Errorf("DOT missing node %s", name)
		}
	}
	edge := fmt.Sprintf("%q -> %q", reg.Path(idx[0]).Full, reg.Path(idx[1]).Full)
	if !strings.Contains(dot, edge) {
		t.Errorf("DOT missing edge %s", edge)
	}
	if !strings.Contains(dot, "fillcolor=lightblue") {
		t.Error("root node not highlighted")
	}
	if !strings.HasPrefix(dot, "digraph closure {") || !strings.HasSuffix(dot, "}\n") {
		t.Error("DOT not wrapped in a digraph block")
	}
}

func TestToDOTMaxDepth(t *testing.T) {
	g, reg, idx := chainFixture(t)

	dot := ToDOT(g, reg, []store.Index{idx[0]}, Options{MaxDepth: 1})

	if !strings.Contains(dot, "lib-2.0") {
		t.Error("depth-1 neighbor missing")
	}
	if strings.Contains(dot, "base-3.0") {
		t.Error("node beyond MaxDepth included")
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	g, reg, idx := chainFixture(t)

	dot := ToDOT(g, reg, []store.Index{idx[0]}, Options{Detailed: true})

	if !strings.Contains(dot, "nar:") || !strings.Contains(dot, "closure:") {
		t.Error("detailed labels missing size lines")
	}
	if !strings.Contains(dot, "100 B") {
		t.Error("nar size not humanized in label")
	}
}

func TestToDOTStartsMidGraph(t *testing.T) {
	g, reg, idx := chainFixture(t)

	dot := ToDOT(g, reg, []store.Index{idx[1]}, Options{})

	if strings.Contains(dot, "app-1.0") {
		t.Error("referrer of the root leaked into the export")
	}
	if !strings.Contains(dot, "base-3.0") {
		t.Error("dependency of the root missing")
	}
}
