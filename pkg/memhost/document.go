// Package memhost is an in-memory scene-graph host backed by a JSON document.
//
// It implements every [scene.Host] capability plus [scene.Renderer] and
// [scene.InstanceCreator], and enforces the host rules canvasport has to
// respect:
//
//   - text cannot be edited until every font it uses (and any font being
//     applied) has been loaded with LoadFont
//   - only paint hashes registered with CreateImage can be used
//   - properties must belong to the node's kind and hold the property's type
//   - children of GROUP and BOOLEAN_OPERATION report coordinates in the
//     group's parent space; the host stores whatever it is given
//
// The CLI uses it to export from and import into document files; tests use it
// as the host double.
//
//	h, err := memhost.Open("design.json")
//	...
//	err = h.Save("design.json")
package memhost

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/canvasport/pkg/scene"
)

// DefaultFont is the font new text nodes start with.
var DefaultFont = scene.FontName{Family: "Inter", Style: "Regular"}

// Document is the persisted state of a host.
type Document struct {
	Name        string            `json:"name"`
	Pages       []*Page           `json:"pages"`
	CurrentPage string            `json:"currentPage,omitempty"`
	Selection   []string          `json:"selection,omitempty"`
	Viewport    []string          `json:"viewport,omitempty"`
	Images      map[string][]byte `json:"images,omitempty"`

	// Fonts lists loadable fonts. An empty list means every font loads.
	Fonts []scene.FontName `json:"fonts,omitempty"`
}

// Page is a top-level container.
type Page struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Children []*NodeData `json:"children,omitempty"`
}

// NodeData is the stored form of a node.
type NodeData struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Kind     scene.Kind  `json:"kind"`
	Bounds   scene.Rect  `json:"bounds"`
	Props    scene.Props `json:"props,omitempty"`
	Runs     []Run       `json:"runs,omitempty"`
	Children []*NodeData `json:"children,omitempty"`
}

// Run is a range of text characters sharing one style. Runs of a text node
// are ordered and cover every character.
type Run struct {
	Start  int         `json:"start"`
	End    int         `json:"end"`
	Styles scene.Props `json:"styles"`
}

// Read decodes a document and returns a host for it.
func Read(r io.Reader) (*Host, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return newHost(&doc)
}

// FromDocument returns a host for doc. The host takes ownership of doc.
func FromDocument(doc *Document, opts ...Option) (*Host, error) {
	return newHost(doc, opts...)
}

// Open reads a document file.
func Open(path string) (*Host, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// Write encodes the document as indented JSON.
func (h *Host) Write(w io.Writer) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(h.doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}

// Save writes the document to path.
func (h *Host) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := h.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
