package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		depth  int
		stored bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [bundle]",
		Short: "Summarize a bundle and print its node tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], stored, depth)
		},
	}

	cmd.Flags().IntVarP(&depth, "depth", "d", 3, "tree depth to print (0 for all)")
	cmd.Flags().BoolVar(&stored, "stored", false, "treat the argument as a stored bundle id")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, source string, stored bool, depth int) error {
	b, err := c.loadBundle(ctx, source, stored)
	if err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		printWarning("bundle is invalid: %v", err)
	}

	fmt.Println(StyleTitle.Render(source))
	for _, kv := range summarize(b) {
		printKeyValue(kv[0], kv[1])
	}
	printNewline()
	fmt.Println(bundleTree(b, depth))
	return nil
}

// summarize returns the key/value lines describing b.
func summarize(b *portable.Bundle) [][2]string {
	kinds := map[scene.Kind]int{}
	images := 0
	_ = portable.Walk(b.Nodes, func(n, _ *portable.Node, _ int) error {
		kinds[n.Kind]++
		if n.Image != nil {
			images++
		}
		return nil
	})

	var kindParts []string
	for _, k := range slices.Sorted(maps.Keys(kinds)) {
		kindParts = append(kindParts, fmt.Sprintf("%s %d", k, kinds[k]))
	}

	lines := [][2]string{
		{"Version", fmt.Sprintf("%d", b.Version)},
		{"Document", orDash(b.Metadata.Document)},
		{"Target", orDash(b.Metadata.Target)},
		{"Generator", orDash(b.Metadata.Generator)},
	}
	if !b.Metadata.CreatedAt.IsZero() {
		lines = append(lines, [2]string{"Created", b.Metadata.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	lines = append(lines,
		[2]string{"Roots", fmt.Sprintf("%d", len(b.Nodes))},
		[2]string{"Nodes", fmt.Sprintf("%d (depth %d)", portable.Count(b.Nodes), portable.Depth(b.Nodes))},
		[2]string{"Kinds", orDash(strings.Join(kindParts, ", "))},
		[2]string{"Images", fmt.Sprintf("%d refs, %d files, %s", images, len(b.Assets), formatBytes(b.AssetSize()))},
	)
	return lines
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

var (
	treeKindStyle  = lipgloss.NewStyle().Foreground(colorSubtle)
	treeGroupStyle = lipgloss.NewStyle().Foreground(colorAccent)
	treeImageStyle = lipgloss.NewStyle().Foreground(colorLink)
)

// bundleTree renders the node forest. Levels below depth are collapsed into
// a count; depth 0 prints everything.
func bundleTree(b *portable.Bundle, depth int) string {
	root := tree.Root(StyleDim.Render(fmt.Sprintf("%d roots", len(b.Nodes)))).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(StyleDim)
	for _, n := range b.Nodes {
		root.Child(nodeTree(n, 1, depth))
	}
	return root.String()
}

func nodeTree(n *portable.Node, level, depth int) any {
	label := nodeLabel(n)
	if len(n.Children) == 0 {
		return label
	}
	t := tree.Root(label)
	if depth > 0 && level >= depth {
		return t.Child(StyleDim.Render(fmt.Sprintf("… %d more", portable.Count(n.Children))))
	}
	for _, child := range n.Children {
		t.Child(nodeTree(child, level+1, depth))
	}
	return t
}

func nodeLabel(n *portable.Node) string {
	kind := treeKindStyle
	if classify.IsGroupLike(n.Kind) {
		kind = treeGroupStyle
	}
	label := StyleValue.Render(n.Name) + " " + kind.Render(string(n.Kind))
	label += StyleDim.Render(fmt.Sprintf(" %gx%g", n.Width, n.Height))
	if n.Image != nil {
		label += " " + treeImageStyle.Render(n.Image.File)
	}
	return label
}
