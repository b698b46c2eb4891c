package memhost

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/matzehuels/canvasport/pkg/scene"
)

func mustCreate(t *testing.T, h *Host, kind scene.Kind) scene.Node {
	t.Helper()
	n, err := h.CreateNode(context.Background(), kind)
	if err != nil {
		t.Fatalf("CreateNode(%s): %v", kind, err)
	}
	return n
}

func TestCreateNode(t *testing.T) {
	h := New("doc")
	n := mustCreate(t, h, scene.KindRectangle)

	if n.Kind() != scene.KindRectangle || n.Name() != "Rectangle" {
		t.Errorf("node = %s %q", n.Kind(), n.Name())
	}
	page, _ := h.CurrentPage()
	kids, _ := page.Children()
	if len(kids) != 1 || kids[0].ID() != n.ID() {
		t.Errorf("page children = %v", kids)
	}

	for _, k := range []scene.Kind{scene.KindInstance, scene.KindComponentSet, "STICKY"} {
		if _, err := h.CreateNode(context.Background(), k); !errors.Is(err, scene.ErrUnsupportedKind) {
			t.Errorf("CreateNode(%s) err = %v, want ErrUnsupportedKind", k, err)
		}
	}

	h2 := New("doc", WithUnsupported(scene.KindStar))
	if _, err := h2.CreateNode(context.Background(), scene.KindStar); !errors.Is(err, scene.ErrUnsupportedKind) {
		t.Errorf("WithUnsupported not honoured: %v", err)
	}
}

func TestGeometry(t *testing.T) {
	h := New("doc")
	n := mustCreate(t, h, scene.KindFrame)
	if err := h.Move(n, 12, 34); err != nil {
		t.Fatal(err)
	}
	if err := h.Resize(n, 200, 100); err != nil {
		t.Fatal(err)
	}
	if got := n.Bounds(); got != (scene.Rect{X: 12, Y: 34, Width: 200, Height: 100}) {
		t.Errorf("Bounds = %+v", got)
	}
	if err := h.Resize(n, -1, 10); err == nil {
		t.Error("negative resize should fail")
	}
}

func TestSetAndGet(t *testing.T) {
	h := New("doc")
	n := mustCreate(t, h, scene.KindRectangle)

	if err := h.Set(n, scene.PropOpacity, 0.5); err != nil {
		t.Fatal(err)
	}
	v, err := n.Get(scene.PropOpacity)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := v.Get(); got != 0.5 {
		t.Errorf("opacity = %v", got)
	}

	// Unset allowed props read as uniform nil.
	v, err = n.Get(scene.PropCornerRadius)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := v.Get(); !ok || got != nil {
		t.Errorf("unset cornerRadius = %v, %v", got, ok)
	}

	if err := h.Set(n, scene.PropLayoutMode, "HORIZONTAL"); err == nil {
		t.Error("layoutMode on a rectangle should fail")
	}
	if _, err := n.Get(scene.PropLayoutMode); err == nil {
		t.Error("reading layoutMode on a rectangle should fail")
	}
	if err := h.Set(n, scene.PropOpacity, "opaque"); err == nil {
		t.Error("wrong value type should fail")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	h := New("doc")
	n := mustCreate(t, h, scene.KindRectangle)
	hash, err := h.CreateImage(ctx, []byte("pixels"))
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Set(n, scene.PropFills, []scene.Paint{{Type: scene.PaintImage, ImageHash: hash}}); err != nil {
		t.Fatal(err)
	}

	v, _ := n.Get(scene.PropFills)
	raw, _ := v.Get()
	raw.([]scene.Paint)[0].ImageHash = ""

	v, _ = n.Get(scene.PropFills)
	raw, _ = v.Get()
	if raw.([]scene.Paint)[0].ImageHash != hash {
		t.Error("mutating a read value changed the stored value")
	}
}

func TestImages(t *testing.T) {
	ctx := context.Background()
	h := New("doc")
	n := mustCreate(t, h, scene.KindRectangle)

	err := h.Set(n, scene.PropFills, []scene.Paint{{Type: scene.PaintImage, ImageHash: "unknown"}})
	if !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("unknown image hash err = %v", err)
	}

	hash, err := h.CreateImage(ctx, []byte("pixels"))
	if err != nil {
		t.Fatal(err)
	}
	again, _ := h.CreateImage(ctx, []byte("pixels"))
	if hash != again {
		t.Error("same bytes should produce the same hash")
	}
	data, err := h.ImageBytes(ctx, hash)
	if err != nil || string(data) != "pixels" {
		t.Errorf("ImageBytes = %q, %v", data, err)
	}
	if _, err := h.ImageBytes(ctx, "nope"); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("missing image err = %v", err)
	}
	if h.Images() != 1 {
		t.Errorf("Images = %d", h.Images())
	}
}

func TestAppendChildAndRemove(t *testing.T) {
	h := New("doc")
	parent := mustCreate(t, h, scene.KindFrame)
	a := mustCreate(t, h, scene.KindRectangle)
	b := mustCreate(t, h, scene.KindEllipse)

	for _, c := range []scene.Node{a, b} {
		if err := h.AppendChild(parent, c); err != nil {
			t.Fatal(err)
		}
	}
	kids, _ := parent.Children()
	if len(kids) != 2 || kids[0].ID() != a.ID() || kids[1].ID() != b.ID() {
		t.Fatalf("children = %v", kids)
	}
	page, _ := h.CurrentPage()
	top, _ := page.Children()
	if len(top) != 1 {
		t.Errorf("page should only hold the parent, got %d nodes", len(top))
	}
	if h.Parent(a) != parent.ID() {
		t.Errorf("Parent(a) = %q", h.Parent(a))
	}

	if err := h.AppendChild(a, b); err == nil {
		t.Error("rectangle cannot have children")
	}
	if err := h.AppendChild(parent, parent); err == nil {
		t.Error("self append should fail")
	}

	if err := h.SetSelection([]scene.Node{a}); err != nil {
		t.Fatal(err)
	}
	if err := h.Remove(parent); err != nil {
		t.Fatal(err)
	}
	if h.Len() != 0 {
		t.Errorf("Len after Remove = %d", h.Len())
	}
	if sel, _ := h.Selection(); len(sel) != 0 {
		t.Errorf("removed nodes should leave the selection, got %v", sel)
	}
	if _, err := a.Children(); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("removed node Children err = %v", err)
	}
}

func TestAppendChildCycle(t *testing.T) {
	h := New("doc")
	outer := mustCreate(t, h, scene.KindFrame)
	inner := mustCreate(t, h, scene.KindFrame)
	if err := h.AppendChild(outer, inner); err != nil {
		t.Fatal(err)
	}
	if err := h.AppendChild(inner, outer); err == nil {
		t.Error("appending an ancestor should fail")
	}
}

func TestSelectionAndViewport(t *testing.T) {
	h := New("doc")
	a := mustCreate(t, h, scene.KindFrame)
	if err := h.SetSelection([]scene.Node{a}); err != nil {
		t.Fatal(err)
	}
	sel, _ := h.Selection()
	if len(sel) != 1 || sel[0].ID() != a.ID() {
		t.Errorf("Selection = %v", sel)
	}
	if err := h.FocusViewport(sel); err != nil {
		t.Fatal(err)
	}
	if vp := h.Viewport(); len(vp) != 1 || vp[0] != a.ID() {
		t.Errorf("Viewport = %v", vp)
	}
}

func TestPages(t *testing.T) {
	h := New("doc")
	mustCreate(t, h, scene.KindFrame)
	h.AddPage("Second")
	mustCreate(t, h, scene.KindRectangle)

	pages, _ := h.Pages()
	if len(pages) != 2 || pages[1].Name() != "Second" {
		t.Fatalf("pages = %v", pages)
	}
	cur, _ := h.CurrentPage()
	if cur.ID() != pages[1].ID() {
		t.Error("AddPage should make the new page current")
	}
	kids, _ := pages[1].Children()
	if len(kids) != 1 || kids[0].Kind() != scene.KindRectangle {
		t.Errorf("second page children = %v", kids)
	}
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	h := New("Saved")
	f := mustCreate(t, h, scene.KindFrame)
	r := mustCreate(t, h, scene.KindRectangle)
	_ = h.Set(r, scene.PropCornerRadius, 4.0)
	_ = h.AppendChild(f, r)
	_ = h.SetSelection([]scene.Node{f})
	hash, _ := h.CreateImage(ctx, []byte("img"))

	var buf bytes.Buffer
	if err := h.Write(&buf); err != nil {
		t.Fatal(err)
	}
	h2, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if h2.DocumentName() != "Saved" || h2.Len() != 2 {
		t.Errorf("loaded %q with %d nodes", h2.DocumentName(), h2.Len())
	}
	r2, ok := h2.Node(r.ID())
	if !ok {
		t.Fatal("rectangle missing after reload")
	}
	v, _ := r2.Get(scene.PropCornerRadius)
	if got, _ := v.Get(); got != 4.0 {
		t.Errorf("cornerRadius = %v", got)
	}
	if h2.Parent(r2) != f.ID() {
		t.Error("parent lost after reload")
	}
	if sel, _ := h2.Selection(); len(sel) != 1 {
		t.Errorf("selection = %v", sel)
	}
	if _, err := h2.ImageBytes(ctx, hash); err != nil {
		t.Errorf("image lost after reload: %v", err)
	}
}

func TestFromDocumentDuplicateIDs(t *testing.T) {
	doc := &Document{
		Name: "dup",
		Pages: []*Page{{ID: "p", Name: "P", Children: []*NodeData{
			{ID: "1", Kind: scene.KindFrame},
			{ID: "1", Kind: scene.KindFrame},
		}}},
	}
	if _, err := FromDocument(doc); err == nil {
		t.Error("duplicate ids should fail")
	}
}

func TestRender(t *testing.T) {
	h := New("doc")
	n := mustCreate(t, h, scene.KindRectangle)
	_ = h.Resize(n, 1000, 500)
	_ = h.Set(n, scene.PropFills, []scene.Paint{{Type: scene.PaintSolid, Color: &scene.Color{R: 1}}})

	data, err := h.Render(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 128 {
		t.Errorf("size = %dx%d, want 256x128", b.Dx(), b.Dy())
	}
	r, _, _, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || a>>8 != 255 {
		t.Errorf("pixel = r%d a%d", r>>8, a>>8)
	}
}

func TestRenderClampsColor(t *testing.T) {
	h := New("doc")
	n := mustCreate(t, h, scene.KindRectangle)
	opacity := 1.5
	_ = h.Set(n, scene.PropFills, []scene.Paint{{
		Type: scene.PaintSolid, Color: &scene.Color{R: 2, G: -1, B: 0.5}, Opacity: &opacity,
	}})

	data, err := h.Render(context.Background(), n)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("not a PNG: %v", err)
	}
	r, g, b, a := img.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 128 || a>>8 != 255 {
		t.Errorf("pixel = r%d g%d b%d a%d, want r255 g0 b128 a255", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestCreateInstance(t *testing.T) {
	ctx := context.Background()
	h := New("doc")
	comp := mustCreate(t, h, scene.KindComponent)
	child := mustCreate(t, h, scene.KindRectangle)
	_ = h.AppendChild(comp, child)

	inst, err := h.CreateInstance(ctx, comp)
	if err != nil {
		t.Fatal(err)
	}
	if inst.Kind() != scene.KindInstance {
		t.Errorf("kind = %s", inst.Kind())
	}
	v, _ := inst.Get(scene.PropMainComponent)
	if got, _ := v.Get(); got != comp.ID() {
		t.Errorf("mainComponent = %v", got)
	}
	kids, _ := inst.Children()
	if len(kids) != 1 || kids[0].ID() == child.ID() {
		t.Errorf("instance children = %v", kids)
	}

	if _, err := h.CreateInstance(ctx, child); err == nil {
		t.Error("instantiating a rectangle should fail")
	}
}
