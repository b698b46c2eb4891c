package memhost

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// Host is an in-memory scene host. It is safe for concurrent use.
type Host struct {
	mu          sync.RWMutex
	doc         *Document
	index       map[string]*entry
	loaded      map[scene.FontName]bool
	unsupported map[scene.Kind]bool
}

type entry struct {
	data   *NodeData
	parent *NodeData
	page   *Page
}

// Option configures a Host.
type Option func(*Host)

// WithUnsupported makes CreateNode reject kinds, as hosts do for kinds
// that cannot be created empty.
func WithUnsupported(kinds ...scene.Kind) Option {
	return func(h *Host) {
		for _, k := range kinds {
			h.unsupported[k] = true
		}
	}
}

// WithFonts restricts the loadable fonts.
func WithFonts(fonts ...scene.FontName) Option {
	return func(h *Host) {
		h.doc.Fonts = append([]scene.FontName(nil), fonts...)
	}
}

// New returns a host with an empty document holding one page.
// INSTANCE and COMPONENT_SET cannot be created with CreateNode.
func New(name string, opts ...Option) *Host {
	page := &Page{ID: uuid.NewString(), Name: "Page 1"}
	doc := &Document{
		Name:        name,
		Pages:       []*Page{page},
		CurrentPage: page.ID,
	}
	h, _ := newHost(doc, opts...)
	return h
}

func newHost(doc *Document, opts ...Option) (*Host, error) {
	if len(doc.Pages) == 0 {
		doc.Pages = []*Page{{ID: uuid.NewString(), Name: "Page 1"}}
	}
	if doc.CurrentPage == "" {
		doc.CurrentPage = doc.Pages[0].ID
	}
	if doc.Images == nil {
		doc.Images = make(map[string][]byte)
	}
	h := &Host{
		doc:    doc,
		index:  make(map[string]*entry),
		loaded: make(map[scene.FontName]bool),
		unsupported: map[scene.Kind]bool{
			scene.KindInstance:     true,
			scene.KindComponentSet: true,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	for _, p := range doc.Pages {
		for _, n := range p.Children {
			if err := h.indexTree(n, nil, p); err != nil {
				return nil, err
			}
		}
	}
	if h.page(doc.CurrentPage) == nil {
		return nil, fmt.Errorf("current page %q not found", doc.CurrentPage)
	}
	return h, nil
}

func (h *Host) indexTree(n, parent *NodeData, p *Page) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if _, dup := h.index[n.ID]; dup {
		return fmt.Errorf("duplicate node id %q", n.ID)
	}
	if n.Kind == scene.KindText && len(n.Runs) == 0 {
		n.Runs = []Run{{End: runeLen(stringProp(n.Props, scene.PropCharacters)), Styles: defaultTextStyle()}}
	}
	h.index[n.ID] = &entry{data: n, parent: parent, page: p}
	for _, c := range n.Children {
		if err := h.indexTree(c, n, p); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) page(id string) *Page {
	for _, p := range h.doc.Pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (h *Host) lookup(n scene.Node) (*entry, error) {
	if n == nil {
		return nil, fmt.Errorf("nil node: %w", scene.ErrNotFound)
	}
	e, ok := h.index[n.ID()]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", n.ID(), scene.ErrNotFound)
	}
	return e, nil
}

func (h *Host) wrap(d *NodeData) scene.Node {
	return &node{h: h, id: d.ID}
}

// DocumentName returns the document's name.
func (h *Host) DocumentName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.doc.Name
}

// CreateNode creates an empty node at the end of the current page.
func (h *Host) CreateNode(_ context.Context, kind scene.Kind) (scene.Node, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !classify.Known(kind) || h.unsupported[kind] {
		return nil, fmt.Errorf("create %s: %w", kind, scene.ErrUnsupportedKind)
	}
	d := &NodeData{
		ID:     uuid.NewString(),
		Name:   defaultName(kind),
		Kind:   kind,
		Bounds: scene.Rect{Width: 100, Height: 100},
	}
	if kind == scene.KindText {
		d.Runs = []Run{{Styles: defaultTextStyle()}}
	}
	p := h.page(h.doc.CurrentPage)
	p.Children = append(p.Children, d)
	h.index[d.ID] = &entry{data: d, page: p}
	return h.wrap(d), nil
}

func defaultName(kind scene.Kind) string {
	switch kind {
	case scene.KindBooleanOp:
		return "Boolean"
	case scene.KindComponentSet:
		return "Component Set"
	}
	k := string(kind)
	return k[:1] + strings.ToLower(k[1:])
}

func defaultTextStyle() scene.Props {
	return scene.Props{
		scene.PropFontName: DefaultFont,
		scene.PropFontSize: 12.0,
	}
}

// SetName renames n.
func (h *Host) SetName(n scene.Node, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.lookup(n)
	if err != nil {
		return err
	}
	e.data.Name = name
	return nil
}

// Move sets n's position. Coordinates are stored as given.
func (h *Host) Move(n scene.Node, x, y float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.lookup(n)
	if err != nil {
		return err
	}
	e.data.Bounds.X = x
	e.data.Bounds.Y = y
	return nil
}

// Resize sets n's size.
func (h *Host) Resize(n scene.Node, width, height float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.lookup(n)
	if err != nil {
		return err
	}
	if width < 0 || height < 0 {
		return fmt.Errorf("resize %s to %gx%g: negative size", e.data.ID, width, height)
	}
	e.data.Bounds.Width = width
	e.data.Bounds.Height = height
	return nil
}

// Set assigns a property to the whole node.
func (h *Host) Set(n scene.Node, p scene.Prop, v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.lookup(n)
	if err != nil {
		return err
	}
	d := e.data
	if !classify.Allows(classify.Of(d.Kind), p) {
		return fmt.Errorf("%s has no property %s", d.Kind, p)
	}
	val, err := normalize(p, v)
	if err != nil {
		return err
	}
	if err := h.checkImages(val); err != nil {
		return err
	}

	if d.Kind == scene.KindText {
		return h.setText(d, p, val)
	}
	if d.Props == nil {
		d.Props = make(scene.Props)
	}
	d.Props[p] = val
	return nil
}

// SetRange assigns a text style property to characters [start, end).
func (h *Host) SetRange(n scene.Node, start, end int, p scene.Prop, v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.lookup(n)
	if err != nil {
		return err
	}
	d := e.data
	if d.Kind != scene.KindText {
		return fmt.Errorf("%s: range styles need a TEXT node", d.Kind)
	}
	if !classify.IsSegmentField(p) {
		return fmt.Errorf("%s cannot vary across ranges", p)
	}
	val, err := normalize(p, v)
	if err != nil {
		return err
	}
	if err := h.checkImages(val); err != nil {
		return err
	}
	return h.setRange(d, start, end, p, val)
}

// checkImages rejects image paints whose hash was never registered.
func (h *Host) checkImages(v any) error {
	paints, ok := v.([]scene.Paint)
	if !ok {
		return nil
	}
	for _, pt := range paints {
		if pt.IsImage() && pt.ImageHash != "" {
			if _, ok := h.doc.Images[pt.ImageHash]; !ok {
				return fmt.Errorf("image %s: %w", pt.ImageHash, scene.ErrNotFound)
			}
		}
	}
	return nil
}

// normalize converts v to the registered Go type of p, copying it.
func normalize(p scene.Prop, v any) (any, error) {
	data, err := json.Marshal(map[scene.Prop]any{p: v})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", p, err)
	}
	var out scene.Props
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", p, err)
	}
	return out[p], nil
}

// LoadFont marks font as loaded.
func (h *Host) LoadFont(ctx context.Context, font scene.FontName) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.doc.Fonts) > 0 && !slices.Contains(h.doc.Fonts, font) {
		return fmt.Errorf("font %s: %w", font, scene.ErrNotFound)
	}
	h.loaded[font] = true
	return nil
}

// FontLoaded reports whether font has been loaded.
func (h *Host) FontLoaded(font scene.FontName) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded[font]
}

// ImageBytes returns the bytes registered under hash.
func (h *Host) ImageBytes(ctx context.Context, hash string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	data, ok := h.doc.Images[hash]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", hash, scene.ErrNotFound)
	}
	return data, nil
}

// CreateImage stores data and returns its content hash.
func (h *Host) CreateImage(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("create image: no data")
	}
	hash := cache.Hash(data)[:40]
	h.mu.Lock()
	defer h.mu.Unlock()
	h.doc.Images[hash] = append([]byte(nil), data...)
	return hash, nil
}

// AppendChild moves child to the end of parent's children.
func (h *Host) AppendChild(parent, child scene.Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	pe, err := h.lookup(parent)
	if err != nil {
		return err
	}
	ce, err := h.lookup(child)
	if err != nil {
		return err
	}
	if !classify.Of(pe.data.Kind).Has(classify.Children) {
		return fmt.Errorf("%s cannot have children", pe.data.Kind)
	}
	for a := pe; a != nil; a = h.index[idOf(a.parent)] {
		if a.data == ce.data {
			return fmt.Errorf("append %s to %s: would create a cycle", ce.data.ID, pe.data.ID)
		}
	}

	h.detach(ce)
	pe.data.Children = append(pe.data.Children, ce.data)
	h.reparent(ce.data, pe.data, pe.page)
	return nil
}

func idOf(d *NodeData) string {
	if d == nil {
		return ""
	}
	return d.ID
}

func (h *Host) detach(e *entry) {
	if e.parent != nil {
		e.parent.Children = removeData(e.parent.Children, e.data)
	} else {
		e.page.Children = removeData(e.page.Children, e.data)
	}
}

func (h *Host) reparent(d, parent *NodeData, p *Page) {
	e := h.index[d.ID]
	e.parent = parent
	e.page = p
	for _, c := range d.Children {
		h.reparent(c, d, p)
	}
}

func removeData(list []*NodeData, d *NodeData) []*NodeData {
	return slices.DeleteFunc(list, func(x *NodeData) bool { return x == d })
}

// Remove deletes n and its descendants.
func (h *Host) Remove(n scene.Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.lookup(n)
	if err != nil {
		return err
	}
	h.detach(e)
	h.forget(e.data)
	return nil
}

func (h *Host) forget(d *NodeData) {
	delete(h.index, d.ID)
	h.doc.Selection = slices.DeleteFunc(h.doc.Selection, func(id string) bool { return id == d.ID })
	for _, c := range d.Children {
		h.forget(c)
	}
}

// Selection returns the selected nodes that still exist.
func (h *Host) Selection() ([]scene.Node, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []scene.Node
	for _, id := range h.doc.Selection {
		if e, ok := h.index[id]; ok {
			out = append(out, h.wrap(e.data))
		}
	}
	return out, nil
}

// SetSelection replaces the selection.
func (h *Host) SetSelection(nodes []scene.Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, err := h.lookup(n); err != nil {
			return err
		}
		ids = append(ids, n.ID())
	}
	h.doc.Selection = ids
	return nil
}

// FocusViewport records the nodes the viewport was scrolled to.
func (h *Host) FocusViewport(nodes []scene.Node) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID())
	}
	h.doc.Viewport = ids
	return nil
}

// Viewport returns the ids last passed to FocusViewport.
func (h *Host) Viewport() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.doc.Viewport)
}

// CurrentPage returns the page new nodes are created on.
func (h *Host) CurrentPage() (scene.Page, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return &page{h: h, id: h.doc.CurrentPage}, nil
}

// Pages returns every page in order.
func (h *Host) Pages() ([]scene.Page, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]scene.Page, len(h.doc.Pages))
	for i, p := range h.doc.Pages {
		out[i] = &page{h: h, id: p.ID}
	}
	return out, nil
}

// AddPage appends a page and makes it current.
func (h *Host) AddPage(name string) scene.Page {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := &Page{ID: uuid.NewString(), Name: name}
	h.doc.Pages = append(h.doc.Pages, p)
	h.doc.CurrentPage = p.ID
	return &page{h: h, id: p.ID}
}

// Node returns the node with id.
func (h *Host) Node(id string) (scene.Node, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.index[id]
	if !ok {
		return nil, false
	}
	return h.wrap(e.data), true
}

// Parent returns the id of n's parent node, or "" for page children.
func (h *Host) Parent(n scene.Node) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.index[n.ID()]
	if !ok {
		return ""
	}
	return idOf(e.parent)
}

// Len returns the number of nodes in the document.
func (h *Host) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.index)
}

// Images returns the number of registered images.
func (h *Host) Images() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.doc.Images)
}

var (
	_ scene.Host            = (*Host)(nil)
	_ scene.Renderer        = (*Host)(nil)
	_ scene.InstanceCreator = (*Host)(nil)
)
