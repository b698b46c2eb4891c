package memhost

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/scene"
)

func stringProp(p scene.Props, key scene.Prop) string {
	s, _ := p[key].(string)
	return s
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// fontsIn returns the fonts of runs overlapping [start, end).
func fontsIn(runs []Run, start, end int) []scene.FontName {
	var fonts []scene.FontName
	seen := make(map[scene.FontName]bool)
	for _, r := range runs {
		overlaps := r.Start < end && (r.End > start || r.Start == r.End)
		if !overlaps {
			continue
		}
		if f, ok := r.Styles.Font(); ok && !seen[f] {
			seen[f] = true
			fonts = append(fonts, f)
		}
	}
	return fonts
}

func (h *Host) requireFonts(fonts ...scene.FontName) error {
	for _, f := range fonts {
		if !h.loaded[f] {
			return fmt.Errorf("%s: %w", f, scene.ErrFontNotLoaded)
		}
	}
	return nil
}

// setText applies a whole-node property to a text node.
func (h *Host) setText(d *NodeData, p scene.Prop, val any) error {
	switch {
	case p == scene.PropFontName:
		f, _ := val.(scene.FontName)
		if err := h.requireFonts(f); err != nil {
			return err
		}
	case classify.Allows(classify.Text, p):
		if err := h.requireFonts(fontsIn(d.Runs, 0, math.MaxInt)...); err != nil {
			return err
		}
	}

	if d.Props == nil {
		d.Props = make(scene.Props)
	}
	switch {
	case p == scene.PropCharacters:
		s, _ := val.(string)
		style := defaultTextStyle()
		if len(d.Runs) > 0 {
			style = d.Runs[0].Styles.Clone()
		}
		d.Props[p] = s
		d.Runs = []Run{{Start: 0, End: runeLen(s), Styles: style}}
	case classify.IsSegmentField(p):
		for i := range d.Runs {
			d.Runs[i].Styles = d.Runs[i].Styles.Clone()
			d.Runs[i].Styles[p] = val
		}
		d.Runs = coalesce(d.Runs)
	default:
		d.Props[p] = val
	}
	return nil
}

// setRange applies a style property to characters [start, end).
func (h *Host) setRange(d *NodeData, start, end int, p scene.Prop, val any) error {
	n := runeLen(stringProp(d.Props, scene.PropCharacters))
	if start < 0 || end > n || start >= end {
		return fmt.Errorf("range [%d,%d) outside text of length %d", start, end, n)
	}
	if p == scene.PropFontName {
		f, _ := val.(scene.FontName)
		if err := h.requireFonts(f); err != nil {
			return err
		}
	} else if err := h.requireFonts(fontsIn(d.Runs, start, end)...); err != nil {
		return err
	}

	runs := splitAt(splitAt(d.Runs, start), end)
	for i := range runs {
		if runs[i].Start >= start && runs[i].End <= end {
			runs[i].Styles = runs[i].Styles.Clone()
			runs[i].Styles[p] = val
		}
	}
	d.Runs = coalesce(runs)
	return nil
}

// splitAt splits the run containing pos so that a run boundary falls on pos.
func splitAt(runs []Run, pos int) []Run {
	out := make([]Run, 0, len(runs)+1)
	for _, r := range runs {
		if r.Start < pos && pos < r.End {
			out = append(out,
				Run{Start: r.Start, End: pos, Styles: r.Styles.Clone()},
				Run{Start: pos, End: r.End, Styles: r.Styles.Clone()})
			continue
		}
		out = append(out, r)
	}
	return out
}

// coalesce merges adjacent runs with identical styles.
func coalesce(runs []Run) []Run {
	if len(runs) < 2 {
		return runs
	}
	out := []Run{runs[0]}
	for _, r := range runs[1:] {
		last := &out[len(out)-1]
		if last.End == r.Start && scene.Equal(last.Styles, r.Styles) {
			last.End = r.End
			continue
		}
		out = append(out, r)
	}
	return out
}

// textValue reads a style property across all runs.
func textValue(runs []Run, p scene.Prop) scene.Value {
	if len(runs) == 0 {
		return scene.Uniform(nil)
	}
	v := runs[0].Styles[p]
	for _, r := range runs[1:] {
		if !scene.Equal(r.Styles[p], v) {
			return scene.Mixed()
		}
	}
	return scene.Uniform(v)
}

// segments groups runs that agree on fields.
func segments(d *NodeData, fields []scene.Prop) []scene.Segment {
	chars := []rune(stringProp(d.Props, scene.PropCharacters))
	var segs []scene.Segment
	for _, r := range d.Runs {
		if r.End <= r.Start {
			continue
		}
		styles := make(scene.Props, len(fields))
		for _, f := range fields {
			if v, ok := r.Styles[f]; ok && v != nil {
				styles[f] = v
			}
		}
		if n := len(segs); n > 0 && segs[n-1].End == r.Start && scene.Equal(segs[n-1].Styles, styles) {
			segs[n-1].End = r.End
			continue
		}
		segs = append(segs, scene.Segment{Start: r.Start, End: r.End, Styles: styles.Clone()})
	}
	for i := range segs {
		end := min(segs[i].End, len(chars))
		start := min(segs[i].Start, end)
		segs[i].Characters = string(chars[start:end])
	}
	return segs
}
