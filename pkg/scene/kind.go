package scene

// Kind is the host node type tag.
// Values outside the constants below are legal and treated as unknown.
type Kind string

// Node kinds understood by canvasport.
const (
	KindFrame        Kind = "FRAME"
	KindGroup        Kind = "GROUP"
	KindText         Kind = "TEXT"
	KindRectangle    Kind = "RECTANGLE"
	KindEllipse      Kind = "ELLIPSE"
	KindPolygon      Kind = "POLYGON"
	KindStar         Kind = "STAR"
	KindVector       Kind = "VECTOR"
	KindLine         Kind = "LINE"
	KindBooleanOp    Kind = "BOOLEAN_OPERATION"
	KindComponent    Kind = "COMPONENT"
	KindComponentSet Kind = "COMPONENT_SET"
	KindInstance     Kind = "INSTANCE"
	KindSection      Kind = "SECTION"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{
	KindFrame,
	KindGroup,
	KindText,
	KindRectangle,
	KindEllipse,
	KindPolygon,
	KindStar,
	KindVector,
	KindLine,
	KindBooleanOp,
	KindComponent,
	KindComponentSet,
	KindInstance,
	KindSection,
}

func (k Kind) String() string { return string(k) }
