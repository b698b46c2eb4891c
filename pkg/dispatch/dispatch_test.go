package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/memhost"
	"github.com/matzehuels/canvasport/pkg/scene"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func rect(id string) *memhost.NodeData {
	return &memhost.NodeData{ID: id, Name: id, Kind: scene.KindRectangle, Bounds: scene.Rect{Width: 10, Height: 10}}
}

func newHost(t *testing.T, selection []string, pages ...*memhost.Page) *memhost.Host {
	t.Helper()
	h, err := memhost.FromDocument(&memhost.Document{
		Name:      "doc",
		Pages:     pages,
		Selection: selection,
		Images:    map[string][]byte{"h1": []byte("png")},
	})
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	return h
}

func TestExportTargets(t *testing.T) {
	h := newHost(t, []string{"B"},
		&memhost.Page{ID: "p1", Name: "One", Children: []*memhost.NodeData{rect("A"), rect("B")}},
		&memhost.Page{ID: "p2", Name: "Two", Children: []*memhost.NodeData{rect("C")}},
	)
	d := New(h, Options{Logger: quiet()})

	tests := []struct {
		target string
		want   []string
	}{
		{TargetSelected, []string{"B"}},
		{TargetPage, []string{"A", "B"}},
		{TargetFile, []string{"A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp := d.Dispatch(context.Background(), Request{Type: TypeExport, Target: tt.target})
			if resp.Type != "export-success" {
				t.Fatalf("response = %+v", resp)
			}
			res := resp.Data.(ExportResult)
			var got []string
			for _, n := range res.Bundle.Nodes {
				got = append(got, n.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("exported %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("exported %v, want %v", got, tt.want)
				}
			}
			if res.Bundle.Metadata.Document != "doc" || res.Bundle.Metadata.Target != tt.target {
				t.Errorf("metadata = %+v", res.Bundle.Metadata)
			}
			if res.Stats.Exported != len(tt.want) {
				t.Errorf("stats = %+v", res.Stats)
			}
		})
	}
}

func TestExportEmptySelection(t *testing.T) {
	h := newHost(t, nil, &memhost.Page{ID: "p", Name: "P", Children: []*memhost.NodeData{rect("A")}})
	resp := New(h, Options{Logger: quiet()}).Dispatch(context.Background(), Request{Type: TypeExport, Target: TargetSelected})

	if resp.Type != "export-error" || resp.Code != errors.ErrCodeEmptySelection {
		t.Errorf("response = %+v, want EMPTY_SELECTION", resp)
	}
	if resp.OK() {
		t.Error("OK() = true for an error response")
	}
}

func TestExportEmptyContainer(t *testing.T) {
	h := newHost(t, nil, &memhost.Page{ID: "p", Name: "P"})
	d := New(h, Options{Logger: quiet()})

	for _, target := range []string{TargetPage, TargetFile} {
		resp := d.Dispatch(context.Background(), Request{Type: TypeExport, Target: target})
		if resp.Code != errors.ErrCodeEmptyContainer {
			t.Errorf("%s: response = %+v, want EMPTY_CONTAINER", target, resp)
		}
	}
}

func TestInvalidMessages(t *testing.T) {
	h := newHost(t, nil, &memhost.Page{ID: "p", Name: "P", Children: []*memhost.NodeData{rect("A")}})
	d := New(h, Options{Logger: quiet()})
	ctx := context.Background()

	tests := []struct {
		name string
		resp Response
		typ  string
	}{
		{"unknown type", d.Dispatch(ctx, Request{Type: "delete"}), "delete-error"},
		{"unknown target", d.Dispatch(ctx, Request{Type: TypeExport, Target: "everything"}), "export-error"},
		{"missing bundle", d.Dispatch(ctx, Request{Type: TypeImport}), "import-error"},
		{"malformed json", d.DispatchJSON(ctx, []byte(`{"type":`)), "message-error"},
		{"bad version", d.DispatchJSON(ctx, []byte(`{"type":"import","bundle":{"version":7}}`)), "import-error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.resp.Type != tt.typ || tt.resp.Code != errors.ErrCodeInvalidMessage {
				t.Errorf("response = %+v, want %s INVALID_MESSAGE", tt.resp, tt.typ)
			}
			if tt.resp.Message == "" {
				t.Error("error response has no message")
			}
		})
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Default()
	log.SetDefault(log.New(&buf))
	t.Cleanup(func() { log.SetDefault(prev) })

	h := newHost(t, nil, &memhost.Page{ID: "p", Name: "P", Children: []*memhost.NodeData{rect("A")}})
	d := New(h, Options{})
	if d.logger == log.Default() {
		t.Fatal("nil Logger fell back to the package default")
	}
	resp := d.Dispatch(context.Background(), Request{Type: TypeExport, Target: "everything"})
	if resp.Type != "export-error" {
		t.Fatalf("response = %+v", resp)
	}
	if buf.Len() > 0 {
		t.Errorf("default logger got output: %q", buf.String())
	}
}

func TestExportImportThroughJSON(t *testing.T) {
	photo := rect("photo")
	photo.Bounds.X, photo.Bounds.Y = 120, 70
	photo.Props = scene.Props{scene.PropFills: []scene.Paint{{Type: scene.PaintImage, ImageHash: "h1"}}}
	src := newHost(t, []string{"G"}, &memhost.Page{ID: "p", Name: "P", Children: []*memhost.NodeData{{
		ID: "G", Name: "G", Kind: scene.KindGroup, Bounds: scene.Rect{X: 100, Y: 50},
		Children: []*memhost.NodeData{photo},
	}}})
	ctx := context.Background()

	resp := New(src, Options{Logger: quiet()}).DispatchJSON(ctx, []byte(`{"type":"export","target":"selected"}`))
	if !resp.OK() {
		t.Fatalf("export: %+v", resp)
	}
	wire, err := json.Marshal(Request{Type: TypeImport, Bundle: resp.Data.(ExportResult).Bundle})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	dst := memhost.New("target")
	resp = New(dst, Options{Logger: quiet()}).DispatchJSON(ctx, wire)
	if resp.Type != "import-success" {
		t.Fatalf("import: %+v", resp)
	}
	res := resp.Data.(ImportResult)
	if len(res.Nodes) != 1 || res.Stats.Nodes != 2 || res.Stats.Images != 1 {
		t.Errorf("result = %+v", res)
	}

	sel, _ := dst.Selection()
	if len(sel) != 1 || sel[0].ID() != res.Nodes[0] {
		t.Errorf("selection = %v, want %v", sel, res.Nodes)
	}
	if vp := dst.Viewport(); len(vp) != 1 || vp[0] != res.Nodes[0] {
		t.Errorf("viewport = %v", vp)
	}
	if dst.Images() != 1 {
		t.Errorf("images = %d", dst.Images())
	}

	g, _ := dst.Node(res.Nodes[0])
	kids, _ := g.Children()
	if b := kids[0].Bounds(); b.X != 120 || b.Y != 70 {
		t.Errorf("photo at (%g,%g), want (120,70)", b.X, b.Y)
	}
}

func TestExportUsesImageCache(t *testing.T) {
	photo := rect("photo")
	photo.Props = scene.Props{scene.PropFills: []scene.Paint{{Type: scene.PaintImage, ImageHash: "h1"}}}
	h := newHost(t, []string{"photo"}, &memhost.Page{ID: "p", Name: "P", Children: []*memhost.NodeData{photo}})

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	d := New(h, Options{Logger: quiet(), Cache: fc})
	defer d.Close()

	ctx := context.Background()
	if _, _, err := d.Export(ctx, TargetSelected); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, hit, err := fc.Get(ctx, cache.NewDefaultKeyer().ImageKey("h1"))
	if err != nil || !hit || string(data) != "png" {
		t.Errorf("cache entry = %q, %v, %v", data, hit, err)
	}
}

func TestFreshRegistryPerCall(t *testing.T) {
	a := rect("A")
	a.Props = scene.Props{scene.PropFills: []scene.Paint{{Type: scene.PaintImage, ImageHash: "h1"}}}
	h := newHost(t, []string{"A"}, &memhost.Page{ID: "p", Name: "P", Children: []*memhost.NodeData{a}})
	d := New(h, Options{Logger: quiet()})
	ctx := context.Background()

	first, _, err := d.Export(ctx, TargetSelected)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := d.Export(ctx, TargetSelected)
	if err != nil {
		t.Fatal(err)
	}
	if first.Nodes[0].Image.File != "img/image_1.png" || second.Nodes[0].Image.File != "img/image_1.png" {
		t.Errorf("files = %s, %s", first.Nodes[0].Image.File, second.Nodes[0].Image.File)
	}
}
