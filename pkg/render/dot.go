package render

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds geometry and the property keys to node labels.
	// When false, labels show only the name and kind.
	Detailed bool

	// Assets draws asset files and links image nodes to them.
	Assets bool
}

// ToDOT converts b's node tree to Graphviz DOT.
//
// Group-like nodes are drawn dashed, and nodes with an image reference are
// filled light blue.
func ToDOT(b *portable.Bundle, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := make(map[*portable.Node]string)
	var edges []string
	var imageEdges []string
	_ = portable.Walk(b.Nodes, func(n, parent *portable.Node, _ int) error {
		id := fmt.Sprintf("n%d", len(ids))
		ids[n] = id
		fmt.Fprintf(&buf, "  %s [%s];\n", id, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
		if parent != nil {
			edges = append(edges, fmt.Sprintf("  %s -> %s;\n", ids[parent], id))
		}
		if opts.Assets && n.Image != nil {
			imageEdges = append(imageEdges, fmt.Sprintf("  %s -> %q [style=dashed, arrowhead=none];\n", id, n.Image.File))
		}
		return nil
	})

	if opts.Assets && len(b.Assets) > 0 {
		buf.WriteString("\n")
		for _, name := range slices.Sorted(maps.Keys(b.Assets)) {
			label := fmt.Sprintf("%s\n%d bytes", name, len(b.Assets[name]))
			fmt.Fprintf(&buf, "  %q [shape=note, style=filled, fillcolor=lightyellow, label=%q];\n", name, label)
		}
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	for _, e := range imageEdges {
		buf.WriteString(e)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *portable.Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = n.ID
	}
	head := name + "\n" + string(n.Kind)
	if !detailed {
		return head
	}

	parts := []string{fmt.Sprintf("%gx%g at (%g, %g)", n.Width, n.Height, n.X, n.Y)}
	if len(n.Props) > 0 {
		keys := make([]string, 0, len(n.Props))
		for k := range n.Props {
			keys = append(keys, string(k))
		}
		slices.Sort(keys)
		parts = append(parts, strings.Join(keys, ", "))
	}
	if len(n.Segments) > 0 {
		parts = append(parts, fmt.Sprintf("%d segments", len(n.Segments)))
	}
	return head + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n *portable.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	switch {
	case classify.IsGroupLike(n.Kind):
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	case n.Kind == scene.KindText:
		attrs = append(attrs, "shape=plaintext")
	case !classify.Known(n.Kind):
		attrs = append(attrs, "fillcolor=lightgrey", "fontcolor=black")
	}
	if n.Image != nil {
		attrs = append(attrs, "fillcolor=lightblue")
	}
	return attrs
}
