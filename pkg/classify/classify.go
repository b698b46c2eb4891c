// Package classify maps node kinds to the property groups that apply to them.
//
// Export and import both branch on the capability [Set] returned by [Of]
// instead of on kind strings, so the kind-to-property mapping is defined once
// here and cannot drift between the two directions.
package classify

import (
	"strings"

	"github.com/matzehuels/canvasport/pkg/scene"
)

// Set is a bitset of capabilities.
type Set uint16

// Capability flags.
const (
	// Visual nodes carry opacity, blend mode, visibility, rotation and effects.
	Visual Set = 1 << iota
	// Paint nodes carry fills and strokes.
	Paint
	// Text nodes carry characters and typography.
	Text
	// Layout nodes carry auto-layout settings.
	Layout
	// Children nodes contain other nodes.
	Children
	// GroupLike nodes report child coordinates in their own parent's space.
	GroupLike
	// BooleanOp nodes combine their children with a boolean operation.
	BooleanOp
	// Points nodes (polygons and stars) have a point count.
	Points
	// Instance nodes reference a main component.
	Instance
)

var table = map[scene.Kind]Set{
	scene.KindFrame:        Visual | Paint | Layout | Children,
	scene.KindComponent:    Visual | Paint | Layout | Children,
	scene.KindComponentSet: Visual | Paint | Layout | Children,
	scene.KindInstance:     Visual | Paint | Layout | Children | Instance,
	scene.KindSection:      Visual | Paint | Children,
	scene.KindGroup:        Visual | Children | GroupLike,
	scene.KindBooleanOp:    Visual | Paint | Children | GroupLike | BooleanOp,
	scene.KindText:         Visual | Paint | Text,
	scene.KindRectangle:    Visual | Paint,
	scene.KindEllipse:      Visual | Paint,
	scene.KindVector:       Visual | Paint,
	scene.KindLine:         Visual | Paint,
	scene.KindPolygon:      Visual | Paint | Points,
	scene.KindStar:         Visual | Paint | Points,
}

// Of returns the capabilities of kind. Unknown kinds have none.
func Of(kind scene.Kind) Set {
	return table[kind]
}

// Known reports whether kind is recognised.
func Known(kind scene.Kind) bool {
	_, ok := table[kind]
	return ok
}

// IsGroupLike reports whether children of kind store group-relative coordinates.
func IsGroupLike(kind scene.Kind) bool {
	return Of(kind).Has(GroupLike)
}

// Has reports whether s contains every flag in f.
func (s Set) Has(f Set) bool { return s&f == f }

var names = []struct {
	flag Set
	name string
}{
	{Visual, "visual"},
	{Paint, "paint"},
	{Text, "text"},
	{Layout, "layout"},
	{Children, "children"},
	{GroupLike, "group-like"},
	{BooleanOp, "boolean-op"},
	{Points, "points"},
	{Instance, "instance"},
}

func (s Set) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, n := range names {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
