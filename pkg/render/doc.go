// Package render exports dependency graphs as Graphviz diagrams.
//
// [ToDOT] converts the subgraph reachable from a set of roots into DOT
// text, with store paths shown under their disambiguated display names
// and closure sizes in the labels. [RenderSVG] and [RenderPNG] rasterize
// the DOT text through Graphviz.
//
//	dot := render.ToDOT(g, reg, roots, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
package render
