package deserialize

import (
	"fmt"
	"strings"

	"github.com/matzehuels/canvasport/pkg/scene"
)

// Policy decides what happens to nodes whose kind the host cannot create.
type Policy string

// Unsupported-kind policies.
const (
	// PolicySkip logs a warning and leaves the node (and its subtree) out.
	PolicySkip Policy = "skip"
	// PolicyReject fails the import with UNSUPPORTED_KIND.
	PolicyReject Policy = "reject"
	// PolicySubstitute creates a visually similar kind instead.
	PolicySubstitute Policy = "substitute"
)

// DefaultPolicy is used when Options.Unsupported is empty.
const DefaultPolicy = PolicySkip

// Policies lists the valid policies.
var Policies = []Policy{PolicySkip, PolicyReject, PolicySubstitute}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(s)); p {
	case PolicySkip, PolicyReject, PolicySubstitute:
		return p, nil
	case "":
		return DefaultPolicy, nil
	}
	return "", fmt.Errorf("unknown unsupported-kind policy %q (want skip, reject or substitute)", s)
}

var substitutes = map[scene.Kind]scene.Kind{
	scene.KindInstance:     scene.KindFrame,
	scene.KindComponent:    scene.KindFrame,
	scene.KindComponentSet: scene.KindFrame,
	scene.KindSection:      scene.KindFrame,
	scene.KindBooleanOp:    scene.KindGroup,
	scene.KindStar:         scene.KindRectangle,
	scene.KindPolygon:      scene.KindRectangle,
	scene.KindVector:       scene.KindRectangle,
	scene.KindLine:         scene.KindRectangle,
}

// Substitute returns the kind created in place of kind under
// PolicySubstitute. Unknown kinds become frames so their children survive.
func Substitute(kind scene.Kind) (scene.Kind, bool) {
	if k, ok := substitutes[kind]; ok {
		return k, true
	}
	switch kind {
	case scene.KindFrame, scene.KindGroup, scene.KindText, scene.KindRectangle, scene.KindEllipse:
		return "", false
	}
	return scene.KindFrame, true
}
