package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"
)

// RenderSVG lays out DOT source with Graphviz and returns SVG sized in
// pixels.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse diagram: %w", err)
	}
	defer g.Close()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("start graphviz: %w", err)
	}
	defer gv.Close()

	var svg bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &svg); err != nil {
		return nil, fmt.Errorf("lay out diagram: %w", err)
	}
	return sizeInPixels(svg.Bytes()), nil
}

var (
	rootTagRe = regexp.MustCompile(`<svg\b[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="[-0-9.]+\s+[-0-9.]+\s+([0-9.]+)\s+([0-9.]+)"`)
	sizeRe    = regexp.MustCompile(`\s(width|height)="[^"]*"`)
)

// sizeInPixels rewrites the root element's width and height, which Graphviz
// emits in points, to the viewBox extent so browsers show the diagram 1:1.
// Documents without a usable viewBox are returned unchanged.
func sizeInPixels(svg []byte) []byte {
	loc := rootTagRe.FindIndex(svg)
	if loc == nil {
		return svg
	}
	tag := svg[loc[0]:loc[1]]
	m := viewBoxRe.FindSubmatch(tag)
	if m == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(m[1]), 64)
	h, _ := strconv.ParseFloat(string(m[2]), 64)
	if w <= 0 || h <= 0 {
		return svg
	}

	fixed := sizeRe.ReplaceAllFunc(tag, func(attr []byte) []byte {
		v := w
		if bytes.Contains(attr, []byte("height")) {
			v = h
		}
		name := bytes.TrimSpace(attr[:bytes.IndexByte(attr, '=')])
		return fmt.Appendf(nil, ` %s="%d"`, name, int(math.Ceil(v)))
	})

	out := make([]byte, 0, len(svg)+len(fixed)-len(tag))
	out = append(out, svg[:loc[0]]...)
	out = append(out, fixed...)
	return append(out, svg[loc[1]:]...)
}
