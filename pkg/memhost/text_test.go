package memhost

import (
	"context"
	"errors"
	"testing"

	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/scene"
)

var (
	interBold    = scene.FontName{Family: "Inter", Style: "Bold"}
	interRegular = scene.FontName{Family: "Inter", Style: "Regular"}
)

func newText(t *testing.T, h *Host, chars string) scene.Node {
	t.Helper()
	ctx := context.Background()
	n := mustCreate(t, h, scene.KindText)
	if err := h.LoadFont(ctx, DefaultFont); err != nil {
		t.Fatal(err)
	}
	if err := h.Set(n, scene.PropCharacters, chars); err != nil {
		t.Fatalf("set characters: %v", err)
	}
	return n
}

func TestTextRequiresLoadedFont(t *testing.T) {
	h := New("doc")
	n := mustCreate(t, h, scene.KindText)

	err := h.Set(n, scene.PropCharacters, "Hi")
	if !errors.Is(err, scene.ErrFontNotLoaded) {
		t.Fatalf("err = %v, want ErrFontNotLoaded", err)
	}
	if err := h.Set(n, scene.PropFontName, interBold); !errors.Is(err, scene.ErrFontNotLoaded) {
		t.Fatalf("fontName err = %v, want ErrFontNotLoaded", err)
	}

	// Fills do not touch glyphs.
	if err := h.Set(n, scene.PropFills, []scene.Paint{{Type: scene.PaintSolid, Color: &scene.Color{}}}); err != nil {
		t.Errorf("fills without font: %v", err)
	}

	_ = h.LoadFont(context.Background(), interBold)
	if err := h.Set(n, scene.PropFontName, interBold); err != nil {
		t.Fatal(err)
	}
	if err := h.Set(n, scene.PropCharacters, "Hi"); err != nil {
		t.Fatalf("characters after font load: %v", err)
	}
}

func TestLoadFontRestricted(t *testing.T) {
	h := New("doc", WithFonts(interRegular))
	if err := h.LoadFont(context.Background(), interBold); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := h.LoadFont(context.Background(), interRegular); err != nil {
		t.Error(err)
	}
	if !h.FontLoaded(interRegular) || h.FontLoaded(interBold) {
		t.Error("FontLoaded mismatch")
	}
}

func TestSetRangeMixed(t *testing.T) {
	ctx := context.Background()
	h := New("doc")
	n := newText(t, h, "Hello World")
	_ = h.LoadFont(ctx, interBold)

	if err := h.SetRange(n, 0, 5, scene.PropFontName, interBold); err != nil {
		t.Fatal(err)
	}

	v, err := n.Get(scene.PropFontName)
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsMixed() {
		t.Error("fontName should be mixed")
	}
	v, _ = n.Get(scene.PropFontSize)
	if v.IsMixed() {
		t.Error("fontSize should be uniform")
	}

	segs, err := n.Segments(classify.SegmentFields)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("segments = %+v", segs)
	}
	want := []struct {
		chars      string
		start, end int
		font       scene.FontName
	}{
		{"Hello", 0, 5, interBold},
		{" World", 5, 11, interRegular},
	}
	for i, w := range want {
		s := segs[i]
		f, _ := s.Styles.Font()
		if s.Characters != w.chars || s.Start != w.start || s.End != w.end || f != w.font {
			t.Errorf("segment %d = %q [%d,%d) %v", i, s.Characters, s.Start, s.End, f)
		}
	}

	// Restyling the rest merges the runs back.
	if err := h.SetRange(n, 5, 11, scene.PropFontName, interBold); err != nil {
		t.Fatal(err)
	}
	segs, _ = n.Segments(classify.SegmentFields)
	if len(segs) != 1 {
		t.Errorf("segments after merge = %+v", segs)
	}
}

func TestSetRangeRunes(t *testing.T) {
	h := New("doc")
	n := newText(t, h, "héllo wörld")
	if err := h.SetRange(n, 6, 11, scene.PropFontSize, 20.0); err != nil {
		t.Fatal(err)
	}
	segs, _ := n.Segments([]scene.Prop{scene.PropFontSize})
	if len(segs) != 2 || segs[1].Characters != "wörld" {
		t.Errorf("segments = %+v", segs)
	}
}

func TestSetRangeErrors(t *testing.T) {
	h := New("doc")
	n := newText(t, h, "Hello")

	tests := []struct {
		name       string
		start, end int
		prop       scene.Prop
		val        any
	}{
		{"past end", 0, 6, scene.PropFontSize, 10.0},
		{"empty", 2, 2, scene.PropFontSize, 10.0},
		{"negative", -1, 2, scene.PropFontSize, 10.0},
		{"not a segment field", 0, 2, scene.PropTextCase, "UPPER"},
		{"font not loaded", 0, 2, scene.PropFontName, interBold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.SetRange(n, tt.start, tt.end, tt.prop, tt.val); err == nil {
				t.Error("expected error")
			}
		})
	}

	rect := mustCreate(t, h, scene.KindRectangle)
	if err := h.SetRange(rect, 0, 1, scene.PropFontSize, 10.0); err == nil {
		t.Error("SetRange on a rectangle should fail")
	}
}

func TestSetCharactersResetsRuns(t *testing.T) {
	ctx := context.Background()
	h := New("doc")
	n := newText(t, h, "Hello World")
	_ = h.LoadFont(ctx, interBold)
	_ = h.SetRange(n, 0, 5, scene.PropFontName, interBold)

	if err := h.Set(n, scene.PropCharacters, "Bye"); err != nil {
		t.Fatal(err)
	}
	segs, _ := n.Segments(classify.SegmentFields)
	if len(segs) != 1 || segs[0].End != 3 {
		t.Errorf("segments = %+v", segs)
	}
	// The first run's style is kept.
	f, _ := segs[0].Styles.Font()
	if f != interBold {
		t.Errorf("font = %v, want %v", f, interBold)
	}
}

func TestSegmentsOnlyForText(t *testing.T) {
	h := New("doc")
	r := mustCreate(t, h, scene.KindRectangle)
	if _, err := r.Segments(classify.SegmentFields); err == nil {
		t.Error("Segments on a rectangle should fail")
	}
}
