package classify

import "github.com/matzehuels/canvasport/pkg/scene"

var (
	visualProps = []scene.Prop{
		scene.PropVisible,
		scene.PropLocked,
		scene.PropOpacity,
		scene.PropBlendMode,
		scene.PropRotation,
		scene.PropEffects,
	}

	paintProps = []scene.Prop{
		scene.PropFills,
		scene.PropStrokes,
		scene.PropStrokeWeight,
		scene.PropStrokeAlign,
		scene.PropStrokeCap,
		scene.PropStrokeJoin,
		scene.PropDashPattern,
		scene.PropCornerRadius,
	}

	layoutProps = []scene.Prop{
		scene.PropLayoutMode,
		scene.PropLayoutWrap,
		scene.PropPaddingLeft,
		scene.PropPaddingRight,
		scene.PropPaddingTop,
		scene.PropPaddingBottom,
		scene.PropItemSpacing,
		scene.PropPrimaryAxisAlignItems,
		scene.PropCounterAxisAlignItems,
		scene.PropPrimaryAxisSizingMode,
		scene.PropCounterAxisSizingMode,
		scene.PropClipsContent,
	}

	// fontName and characters come first so import can load the font before
	// it assigns text.
	textProps = []scene.Prop{
		scene.PropFontName,
		scene.PropCharacters,
		scene.PropFontSize,
		scene.PropLineHeight,
		scene.PropLetterSpacing,
		scene.PropTextAlignHorizontal,
		scene.PropTextAlignVertical,
		scene.PropTextCase,
		scene.PropTextDecoration,
		scene.PropParagraphIndent,
		scene.PropParagraphSpacing,
		scene.PropTextAutoResize,
	}
)

// SegmentFields are the text properties that can vary across character ranges.
var SegmentFields = []scene.Prop{
	scene.PropFontName,
	scene.PropFontSize,
	scene.PropFills,
	scene.PropLetterSpacing,
	scene.PropLineHeight,
}

// IsSegmentField reports whether p is one of [SegmentFields].
func IsSegmentField(p scene.Prop) bool {
	for _, f := range SegmentFields {
		if f == p {
			return true
		}
	}
	return false
}

// Props returns the ordered property list for s.
func Props(s Set) []scene.Prop {
	var out []scene.Prop
	if s.Has(Visual) {
		out = append(out, visualProps...)
	}
	if s.Has(Paint) {
		out = append(out, paintProps...)
	}
	if s.Has(Layout) {
		out = append(out, layoutProps...)
	}
	if s.Has(Text) {
		out = append(out, textProps...)
	}
	if s.Has(BooleanOp) {
		out = append(out, scene.PropBooleanOperation)
	}
	if s.Has(Points) {
		out = append(out, scene.PropPointCount, scene.PropInnerRadius)
	}
	if s.Has(Instance) {
		out = append(out, scene.PropMainComponent)
	}
	return out
}

// Allows reports whether p belongs to s.
func Allows(s Set, p scene.Prop) bool {
	for _, q := range Props(s) {
		if q == p {
			return true
		}
	}
	return false
}
