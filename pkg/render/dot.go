package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-graphviz"

	"github.com/nixscope/nixscope/pkg/depgraph"
	"github.com/nixscope/nixscope/pkg/store"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds nar and closure sizes to node labels. When false,
	// only the display name is shown.
	Detailed bool

	// MaxDepth limits how many reference levels below the roots are
	// included. Zero means the full reachable subgraph.
	MaxDepth int
}

// ToDOT converts the subgraph reachable from roots into Graphviz DOT
// text. Root nodes are filled to stand out; edges follow the reference
// direction, so arrows point at dependencies.
func ToDOT(g *depgraph.Graph, reg *store.Registry, roots []store.Index, opts Options) string {
	included := collect(g, roots, opts.MaxDepth)

	isRoot := make(map[store.Index]bool, len(roots))
	for _, r := range roots {
		isRoot[r] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph closure {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	included.ForEach(func(i store.Index) {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(reg, i, opts.Detailed))}
		if isRoot[i] {
			attrs = append(attrs, "fillcolor=lightblue")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", reg.Path(i).Full, strings.Join(attrs, ", "))
	})

	buf.WriteString("\n")
	included.ForEach(func(i store.Index) {
		for _, ref := range g.Dependencies(i) {
			if included.Has(ref) {
				fmt.Fprintf(&buf, "  %q -> %q;\n", reg.Path(i).Full, reg.Path(ref).Full)
			}
		}
	})

	buf.WriteString("}\n")
	return buf.String()
}

// collect returns the set of nodes within maxDepth reference hops of the
// roots; maxDepth <= 0 means everything reachable.
func collect(g *depgraph.Graph, roots []store.Index, maxDepth int) *depgraph.Set {
	if maxDepth <= 0 {
		included := depgraph.NewSet(g.Len())
		for _, r := range roots {
			included.UnionWith(g.ReachableFrom(r))
		}
		return included
	}

	included := depgraph.NewSet(g.Len())
	frontier := roots
	for _, r := range frontier {
		included.Add(r)
	}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []store.Index
		for _, n := range frontier {
			for _, ref := range g.Dependencies(n) {
				if !included.Has(ref) {
					included.Add(ref)
					next = append(next, ref)
				}
			}
		}
		frontier = next
	}
	return included
}

func nodeLabel(reg *store.Registry, i store.Index, detailed bool) string {
	name := reg.DisplayName(i)
	if !detailed {
		return name
	}
	info := reg.Info(i)
	return fmt.Sprintf("%s\nnar: %s\nclosure: %s",
		name, humanize.Bytes(uint64(info.NarSize)), humanize.Bytes(uint64(info.ClosureSize)))
}

// RenderSVG renders DOT text to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.SVG)
}

// RenderPNG renders DOT text to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderFormat(ctx, dot, graphviz.PNG)
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
