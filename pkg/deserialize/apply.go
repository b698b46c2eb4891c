package deserialize

import (
	"context"
	"slices"

	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// applyProps sets every stored property the created kind supports. The
// image slot is left to applyImage and mainComponent is never copied.
func (d *Deserializer) applyProps(ctx context.Context, n scene.Node, pn *portable.Node, set classify.Set) {
	if set.Has(classify.Text) {
		d.applyBaseFont(ctx, n, pn)
	}
	for _, p := range classify.Props(set) {
		switch {
		case p == scene.PropFontName, p == scene.PropMainComponent:
			continue
		case pn.Image != nil && pn.Image.Segment == nil && p == pn.Image.Slot:
			continue
		}
		v, ok := pn.Props[p]
		if !ok || v == nil {
			continue
		}
		if paints, ok := v.([]scene.Paint); ok {
			v = dropUnresolved(paints)
		}
		if err := d.host.Set(n, p, v); err != nil {
			d.warnProp(pn, p, err)
		}
	}
}

// applyBaseFont loads and sets the node-wide font before any text is
// assigned. Mixed-font text starts from its first segment's font.
func (d *Deserializer) applyBaseFont(ctx context.Context, n scene.Node, pn *portable.Node) {
	font, ok := pn.Props.Font()
	if !ok {
		for _, seg := range pn.Segments {
			if font, ok = seg.Styles.Font(); ok {
				break
			}
		}
	}
	if !ok {
		font = d.opts.FallbackFont
	}
	usable, err := d.font(ctx, font)
	if err != nil {
		d.logger.Warn("no usable font", "node", pn.ID, "err", err)
		return
	}
	if err := d.host.Set(n, scene.PropFontName, usable); err != nil {
		d.warnProp(pn, scene.PropFontName, err)
	}
}

// font loads f, falling back to the configured fallback font. Results are
// remembered for the rest of the import.
func (d *Deserializer) font(ctx context.Context, f scene.FontName) (scene.FontName, error) {
	err := d.load(ctx, f)
	if err == nil {
		return f, nil
	}
	fb := d.opts.FallbackFont
	if fb == f {
		return scene.FontName{}, err
	}
	if fbErr := d.load(ctx, fb); fbErr != nil {
		return scene.FontName{}, fbErr
	}
	d.logger.Warn("font unavailable, using fallback", "font", f, "fallback", fb, "err", err)
	return fb, nil
}

func (d *Deserializer) load(ctx context.Context, f scene.FontName) error {
	if err, ok := d.fonts[f]; ok {
		return err
	}
	var err error
	if loadErr := d.host.LoadFont(ctx, f); loadErr != nil {
		err = errors.Wrap(errors.ErrCodeFontLoad, loadErr, "load %s", f)
	}
	d.fonts[f] = err
	return err
}

// applySegments applies each styled range. A field that fails is logged and
// the remaining fields and ranges still apply.
func (d *Deserializer) applySegments(ctx context.Context, n scene.Node, pn *portable.Node) {
	for i, seg := range pn.Segments {
		for _, p := range classify.SegmentFields {
			v, ok := seg.Styles[p]
			if !ok || v == nil {
				continue
			}
			switch val := v.(type) {
			case scene.FontName:
				usable, err := d.font(ctx, val)
				if err != nil {
					d.warnProp(pn, p, err)
					continue
				}
				v = usable
			case []scene.Paint:
				if ref := pn.Image; ref != nil && ref.Segment != nil && *ref.Segment == i && p == ref.Slot {
					val = d.resolveImage(ctx, pn, val)
				}
				v = dropUnresolved(val)
			}
			if err := d.host.SetRange(n, seg.Start, seg.End, p, v); err != nil {
				d.logger.Warn("skipping text range",
					"node", pn.ID, "start", seg.Start, "end", seg.End, "prop", p,
					"err", errors.Wrap(errors.ErrCodePropertyApply, err, "set %s", p))
			}
		}
	}
}

// applyImage registers the referenced asset with the host and sets the
// image slot with the new handle. Without a usable asset the slot is set
// without its image paints. Images inside a styled range are applied by
// applySegments.
func (d *Deserializer) applyImage(ctx context.Context, n scene.Node, pn *portable.Node, set classify.Set) {
	ref := pn.Image
	if ref == nil || ref.Segment != nil || !classify.Allows(set, ref.Slot) {
		return
	}
	paints, ok := pn.Props.Paints(ref.Slot)
	if !ok {
		d.logger.Warn("image slot missing", "node", pn.ID, "slot", ref.Slot)
		return
	}
	paints = d.resolveImage(ctx, pn, paints)
	if err := d.host.Set(n, ref.Slot, dropUnresolved(paints)); err != nil {
		d.warnProp(pn, ref.Slot, err)
	}
}

// resolveImage returns a copy of paints with the referenced paint carrying
// the host handle for pn's image asset.
func (d *Deserializer) resolveImage(ctx context.Context, pn *portable.Node, paints []scene.Paint) []scene.Paint {
	ref := pn.Image
	paints = slices.Clone(paints)
	handle, err := d.resolver.Resolve(ctx, ref.File)
	switch {
	case err != nil:
		d.logger.Warn("image unavailable", "node", pn.ID, "file", ref.File, "err", err)
	case ref.Index >= len(paints) || !paints[ref.Index].IsImage():
		d.logger.Warn("image paint missing", "node", pn.ID, "slot", ref.Slot, "index", ref.Index)
	default:
		paints[ref.Index].ImageHash = handle
	}
	return paints
}

// dropUnresolved removes image paints that carry no host handle.
func dropUnresolved(paints []scene.Paint) []scene.Paint {
	out := make([]scene.Paint, 0, len(paints))
	for _, p := range paints {
		if p.IsImage() && p.ImageHash == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (d *Deserializer) warnProp(pn *portable.Node, p scene.Prop, err error) {
	if !errors.Recoverable(err) {
		err = errors.Wrap(errors.ErrCodePropertyApply, err, "set %s", p)
	}
	d.logger.Warn("skipping property", "node", pn.ID, "prop", p, "err", err)
}
