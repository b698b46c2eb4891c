package portable

import (
	"time"

	"github.com/matzehuels/canvasport/pkg/scene"
)

// Version is the bundle schema version written by this package.
const Version = 1

// Paint slots that can hold the node's image.
const (
	SlotFills   = scene.PropFills
	SlotStrokes = scene.PropStrokes
)

// Node is one node of a portable tree.
type Node struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Kind   scene.Kind `json:"kind"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`

	// Props holds the kind's captured properties. Image paints are kept
	// without their host hash; see Image.
	Props scene.Props `json:"props,omitempty"`

	// Segments is set only for text whose style varies across ranges.
	Segments []scene.Segment `json:"segments,omitempty"`

	Image *ImageRef `json:"image,omitempty"`

	// Preview names a rendered PNG of the node in the asset table.
	Preview string `json:"preview,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// ImageRef ties a node's image paint to an asset file. When Segment is set
// the paint is in that styled range's fills instead of the node's props.
type ImageRef struct {
	File    string     `json:"file"`
	Slot    scene.Prop `json:"slot"`
	Index   int        `json:"index"`
	Segment *int       `json:"segment,omitempty"`
}

// Metadata describes where a bundle came from.
type Metadata struct {
	Document  string    `json:"document,omitempty"`
	Target    string    `json:"target,omitempty"`
	Generator string    `json:"generator,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	NodeCount int       `json:"nodeCount"`
}

// Bundle is a portable node tree with its assets.
type Bundle struct {
	Version  int               `json:"version"`
	Metadata Metadata          `json:"metadata"`
	Nodes    []*Node           `json:"nodes"`
	Assets   map[string][]byte `json:"assets,omitempty"`
}

// New returns an empty bundle at the current version.
func New() *Bundle {
	return &Bundle{
		Version: Version,
		Assets:  make(map[string][]byte),
	}
}

// AssetSize returns the total size of all asset payloads in bytes.
func (b *Bundle) AssetSize() int {
	n := 0
	for _, data := range b.Assets {
		n += len(data)
	}
	return n
}
