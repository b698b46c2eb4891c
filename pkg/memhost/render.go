package memhost

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/matzehuels/canvasport/pkg/scene"
)

// maxRenderSide caps preview dimensions in pixels.
const maxRenderSide = 256

// Render returns a PNG filled with n's first visible solid fill, scaled to
// fit within 256x256.
func (h *Host) Render(ctx context.Context, n scene.Node) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	e, err := h.lookup(n)
	if err != nil {
		h.mu.RUnlock()
		return nil, err
	}
	bounds := e.data.Bounds
	fill := solidFill(e.data)
	h.mu.RUnlock()

	w, ht := fit(bounds.Width, bounds.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, ht))
	for y := 0; y < ht; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func fit(w, h float64) (int, int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if scale := maxRenderSide / max(w, h); scale < 1 {
		w *= scale
		h *= scale
	}
	return max(int(math.Round(w)), 1), max(int(math.Round(h)), 1)
}

func solidFill(d *NodeData) color.Color {
	var paints []scene.Paint
	if d.Kind == scene.KindText && len(d.Runs) > 0 {
		paints, _ = d.Runs[0].Styles.Paints(scene.PropFills)
	} else {
		paints, _ = d.Props.Paints(scene.PropFills)
	}
	for _, p := range paints {
		if p.Type != scene.PaintSolid || p.Color == nil || (p.Visible != nil && !*p.Visible) {
			continue
		}
		a := 1.0
		if p.Opacity != nil {
			a = *p.Opacity
		}
		return color.NRGBA{
			R: channel(p.Color.R),
			G: channel(p.Color.G),
			B: channel(p.Color.B),
			A: channel(a),
		}
	}
	return color.Transparent
}

// channel maps a [0,1] color component to a byte, clamping values outside
// the range.
func channel(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 1) * 255))
}
