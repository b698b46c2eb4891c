package serialize_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/canvasport/pkg/assets"
	"github.com/matzehuels/canvasport/pkg/memhost"
	"github.com/matzehuels/canvasport/pkg/scene"
	"github.com/matzehuels/canvasport/pkg/serialize"
)

func ExampleSerializer_Export() {
	h, _ := memhost.FromDocument(&memhost.Document{
		Name: "example",
		Pages: []*memhost.Page{{ID: "p", Name: "Page", Children: []*memhost.NodeData{{
			ID: "g", Name: "Badge", Kind: scene.KindGroup,
			Bounds: scene.Rect{X: 100, Y: 50, Width: 40, Height: 40},
			Children: []*memhost.NodeData{{
				ID: "c", Name: "Dot", Kind: scene.KindEllipse,
				Bounds: scene.Rect{X: 120, Y: 70, Width: 8, Height: 8},
			}},
		}}}},
	})
	g, _ := h.Node("g")

	b, stats, err := serialize.New(serialize.Options{}).Export(context.Background(), []scene.Node{g}, h, assets.New())
	if err != nil {
		fmt.Println(err)
		return
	}
	dot := b.Nodes[0].Children[0]
	fmt.Printf("%s at (%g, %g) relative to %s\n", dot.Name, dot.X, dot.Y, b.Nodes[0].Name)
	fmt.Println("exported:", stats.Exported, "nodes:", stats.Nodes)
	// Output:
	// Dot at (20, 20) relative to Badge
	// exported: 1 nodes: 2
}
