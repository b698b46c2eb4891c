package scene

import (
	"context"
	"errors"
)

// Sentinel errors hosts return (wrapped) from capability calls.
var (
	// ErrUnsupportedKind is returned by CreateNode for kinds the host cannot construct.
	ErrUnsupportedKind = errors.New("unsupported node kind")

	// ErrNotFound is returned when an image hash or font is unknown to the host.
	ErrNotFound = errors.New("not found")

	// ErrFontNotLoaded is returned when text is edited before its font is loaded.
	ErrFontNotLoaded = errors.New("font not loaded")
)

// Rect is a node's position and size.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Segment is a run of characters sharing the same values for a set of text
// style properties. Start and End are rune offsets; End is exclusive.
type Segment struct {
	Characters string `json:"characters"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Styles     Props  `json:"styles"`
}

// Node is the read-only view of a host node.
type Node interface {
	ID() string
	Kind() Kind
	Name() string
	Bounds() Rect

	// Children returns the ordered child list, or nil for leaf kinds.
	Children() ([]Node, error)

	// Get reads one property. Text properties may be Mixed.
	Get(p Prop) (Value, error)

	// Segments splits a text node into runs that are uniform over fields.
	Segments(fields []Prop) ([]Segment, error)
}

// Page is a top-level container of the document.
type Page interface {
	ID() string
	Name() string
	Children() ([]Node, error)
}

// Host is the capability surface canvasport needs from the scene-graph
// runtime. Calls are made from one goroutine at a time during import; export
// only reads through [Node].
type Host interface {
	// DocumentName returns a display name for the open document.
	DocumentName() string

	// CreateNode creates an empty node of kind on the current page.
	CreateNode(ctx context.Context, kind Kind) (Node, error)
	SetName(n Node, name string) error
	Move(n Node, x, y float64) error
	Resize(n Node, width, height float64) error
	Set(n Node, p Prop, v any) error

	// SetRange applies a text property to characters [start, end).
	SetRange(n Node, start, end int, p Prop, v any) error

	// LoadFont must succeed before text using font can be edited.
	LoadFont(ctx context.Context, font FontName) error

	// ImageBytes returns the encoded image stored under hash.
	ImageBytes(ctx context.Context, hash string) ([]byte, error)

	// CreateImage registers image data and returns its hash.
	CreateImage(ctx context.Context, data []byte) (string, error)

	// AppendChild moves child to the end of parent's children.
	AppendChild(parent, child Node) error

	// Remove deletes n and everything it contains.
	Remove(n Node) error

	Selection() ([]Node, error)
	SetSelection(nodes []Node) error
	FocusViewport(nodes []Node) error
	CurrentPage() (Page, error)
	Pages() ([]Page, error)
}

// Renderer is implemented by hosts that can rasterize a node.
type Renderer interface {
	// Render returns a PNG snapshot of n.
	Render(ctx context.Context, n Node) ([]byte, error)
}

// InstanceCreator is implemented by hosts that can instantiate components.
type InstanceCreator interface {
	CreateInstance(ctx context.Context, component Node) (Node, error)
}
