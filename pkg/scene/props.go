package scene

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
)

// Prop is a node property key. Keys match the host's property names so a
// bag can be applied to a host node key by key.
type Prop string

// Properties shared by every visible node.
const (
	PropOpacity   Prop = "opacity"
	PropBlendMode Prop = "blendMode"
	PropVisible   Prop = "visible"
	PropLocked    Prop = "locked"
	PropRotation  Prop = "rotation"
	PropEffects   Prop = "effects"
)

// Fill and stroke properties.
const (
	PropFills        Prop = "fills"
	PropStrokes      Prop = "strokes"
	PropStrokeWeight Prop = "strokeWeight"
	PropStrokeAlign  Prop = "strokeAlign"
	PropStrokeCap    Prop = "strokeCap"
	PropStrokeJoin   Prop = "strokeJoin"
	PropDashPattern  Prop = "dashPattern"
	PropCornerRadius Prop = "cornerRadius"
)

// Auto-layout properties.
const (
	PropLayoutMode            Prop = "layoutMode"
	PropLayoutWrap            Prop = "layoutWrap"
	PropPaddingLeft           Prop = "paddingLeft"
	PropPaddingRight          Prop = "paddingRight"
	PropPaddingTop            Prop = "paddingTop"
	PropPaddingBottom         Prop = "paddingBottom"
	PropItemSpacing           Prop = "itemSpacing"
	PropPrimaryAxisAlignItems Prop = "primaryAxisAlignItems"
	PropCounterAxisAlignItems Prop = "counterAxisAlignItems"
	PropPrimaryAxisSizingMode Prop = "primaryAxisSizingMode"
	PropCounterAxisSizingMode Prop = "counterAxisSizingMode"
	PropClipsContent          Prop = "clipsContent"
)

// Text properties.
const (
	PropCharacters          Prop = "characters"
	PropFontName            Prop = "fontName"
	PropFontSize            Prop = "fontSize"
	PropLineHeight          Prop = "lineHeight"
	PropLetterSpacing       Prop = "letterSpacing"
	PropTextAlignHorizontal Prop = "textAlignHorizontal"
	PropTextAlignVertical   Prop = "textAlignVertical"
	PropTextCase            Prop = "textCase"
	PropTextDecoration      Prop = "textDecoration"
	PropParagraphIndent     Prop = "paragraphIndent"
	PropParagraphSpacing    Prop = "paragraphSpacing"
	PropTextAutoResize      Prop = "textAutoResize"
)

// Kind-specific properties.
const (
	PropBooleanOperation Prop = "booleanOperation"
	PropPointCount       Prop = "pointCount"
	PropInnerRadius      Prop = "innerRadius"
	PropMainComponent    Prop = "mainComponent"
)

// Paint types.
const (
	PaintSolid          = "SOLID"
	PaintImage          = "IMAGE"
	PaintGradientLinear = "GRADIENT_LINEAR"
	PaintGradientRadial = "GRADIENT_RADIAL"
)

// Color is an RGB color with channels in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// RGBA is a color with alpha, used by effects and gradient stops.
type RGBA struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// ColorStop is a gradient stop.
type ColorStop struct {
	Position float64 `json:"position"`
	Color    RGBA    `json:"color"`
}

// Vector is a 2D offset.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Paint is one entry of a fills or strokes list.
//
// ImageHash is the host's handle for image data. It is only meaningful inside
// one host; portable bundles never carry it.
type Paint struct {
	Type              string         `json:"type"`
	Visible           *bool          `json:"visible,omitempty"`
	Opacity           *float64       `json:"opacity,omitempty"`
	BlendMode         string         `json:"blendMode,omitempty"`
	Color             *Color         `json:"color,omitempty"`
	GradientStops     []ColorStop    `json:"gradientStops,omitempty"`
	GradientTransform *[2][3]float64 `json:"gradientTransform,omitempty"`
	ScaleMode         string         `json:"scaleMode,omitempty"`
	ImageHash         string         `json:"imageHash,omitempty"`
}

// IsImage reports whether p is an image paint.
func (p Paint) IsImage() bool { return p.Type == PaintImage }

// Effect is a shadow or blur.
type Effect struct {
	Type      string  `json:"type"`
	Visible   bool    `json:"visible"`
	Radius    float64 `json:"radius"`
	Color     *RGBA   `json:"color,omitempty"`
	Offset    *Vector `json:"offset,omitempty"`
	Spread    float64 `json:"spread,omitempty"`
	BlendMode string  `json:"blendMode,omitempty"`
}

// FontName identifies a font face.
type FontName struct {
	Family string `json:"family"`
	Style  string `json:"style"`
}

func (f FontName) String() string { return f.Family + " " + f.Style }

// LineHeight is AUTO or a value in PIXELS or PERCENT.
type LineHeight struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value,omitempty"`
}

// LetterSpacing is a value in PIXELS or PERCENT.
type LetterSpacing struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

type decoder func(json.RawMessage) (any, error)

func decodeAs[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

var decoders = map[Prop]decoder{}

func register(d decoder, props ...Prop) {
	for _, p := range props {
		decoders[p] = d
	}
}

func init() {
	register(decodeAs[float64],
		PropOpacity, PropRotation, PropStrokeWeight, PropCornerRadius,
		PropPaddingLeft, PropPaddingRight, PropPaddingTop, PropPaddingBottom, PropItemSpacing,
		PropFontSize, PropParagraphIndent, PropParagraphSpacing, PropInnerRadius)
	register(decodeAs[string],
		PropBlendMode, PropStrokeAlign, PropStrokeCap, PropStrokeJoin,
		PropLayoutMode, PropLayoutWrap, PropPrimaryAxisAlignItems, PropCounterAxisAlignItems,
		PropPrimaryAxisSizingMode, PropCounterAxisSizingMode,
		PropCharacters, PropTextAlignHorizontal, PropTextAlignVertical, PropTextCase,
		PropTextDecoration, PropTextAutoResize, PropBooleanOperation, PropMainComponent)
	register(decodeAs[bool], PropVisible, PropLocked, PropClipsContent)
	register(decodeAs[int], PropPointCount)
	register(decodeAs[[]float64], PropDashPattern)
	register(decodeAs[[]Paint], PropFills, PropStrokes)
	register(decodeAs[[]Effect], PropEffects)
	register(decodeAs[FontName], PropFontName)
	register(decodeAs[LineHeight], PropLineHeight)
	register(decodeAs[LetterSpacing], PropLetterSpacing)
}

// Known reports whether p has a registered Go type.
func Known(p Prop) bool {
	_, ok := decoders[p]
	return ok
}

// Props is a property bag. Values of known keys hold the key's Go type.
type Props map[Prop]any

// UnmarshalJSON decodes known keys into their Go types. Unknown keys are kept
// as generic JSON values.
func (p *Props) UnmarshalJSON(data []byte) error {
	var raw map[Prop]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Props, len(raw))
	for k, v := range raw {
		dec, ok := decoders[k]
		if !ok {
			dec = decodeAs[any]
		}
		val, err := dec(v)
		if err != nil {
			return fmt.Errorf("prop %s: %w", k, err)
		}
		out[k] = val
	}
	*p = out
	return nil
}

// Paints returns the paint list stored under p, if any.
func (p Props) Paints(key Prop) ([]Paint, bool) {
	v, ok := p[key].([]Paint)
	return v, ok
}

// Font returns the fontName value, if set.
func (p Props) Font() (FontName, bool) {
	v, ok := p[PropFontName].(FontName)
	return v, ok
}

// Clone returns a copy of p. Paint slices are copied so callers can edit
// image hashes without touching the source bag.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := maps.Clone(p)
	for k, v := range out {
		if paints, ok := v.([]Paint); ok {
			out[k] = append([]Paint(nil), paints...)
		}
	}
	return out
}

// Equal reports whether two property values are deeply equal.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
