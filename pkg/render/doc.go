// Package render draws portable bundles as node-link diagrams.
//
// # Overview
//
// [ToDOT] turns a bundle's node tree into Graphviz DOT source: one box per
// node, an arrow from each parent to its children, and (with
// Options.Assets) one note per asset file linked from the nodes that use
// it. [RenderSVG] lays the DOT out in-process with go-graphviz.
//
//	dot := render.ToDOT(b, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// # Format Conversion
//
// [Rasterize] turns the SVG into PDF or PNG by piping it through the
// external rsvg-convert tool from librsvg.
package render
