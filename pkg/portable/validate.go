package portable

import (
	"unicode/utf8"

	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// Validate checks the bundle's structure. Failures are INVALID_MESSAGE errors.
//
// Missing asset files are not a validation failure: import treats them as a
// recoverable per-node problem.
func (b *Bundle) Validate() error {
	if b == nil {
		return errors.New(errors.ErrCodeInvalidMessage, "bundle is empty")
	}
	if b.Version != Version {
		return errors.New(errors.ErrCodeInvalidMessage, "unsupported bundle version %d", b.Version)
	}

	for name := range b.Assets {
		if err := errors.ValidateAssetName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMessage, err, "asset %q", name)
		}
	}

	seen := make(map[string]bool)
	return Walk(b.Nodes, func(n, _ *Node, _ int) error {
		if n.Kind == "" {
			return errors.New(errors.ErrCodeInvalidMessage, "node %q has no kind", n.ID)
		}
		if n.ID != "" {
			if seen[n.ID] {
				return errors.New(errors.ErrCodeInvalidMessage, "duplicate node id %q", n.ID)
			}
			seen[n.ID] = true
		}
		if n.Width < 0 || n.Height < 0 {
			return errors.New(errors.ErrCodeInvalidMessage, "node %q has negative size", n.ID)
		}
		if err := validateImage(n); err != nil {
			return err
		}
		if n.Preview != "" {
			if err := errors.ValidateAssetName(n.Preview); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidMessage, err, "node %q preview", n.ID)
			}
		}
		return validateSegments(n)
	})
}

func validateImage(n *Node) error {
	ref := n.Image
	if ref == nil {
		return nil
	}
	if err := errors.ValidateAssetName(ref.File); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidMessage, err, "node %q image", n.ID)
	}
	if ref.Slot != SlotFills && ref.Slot != SlotStrokes {
		return errors.New(errors.ErrCodeInvalidMessage, "node %q image slot %q", n.ID, ref.Slot)
	}
	if ref.Index < 0 {
		return errors.New(errors.ErrCodeInvalidMessage, "node %q image index %d", n.ID, ref.Index)
	}
	if seg := ref.Segment; seg != nil {
		if *seg < 0 || *seg >= len(n.Segments) {
			return errors.New(errors.ErrCodeInvalidMessage, "node %q image segment %d", n.ID, *seg)
		}
		if ref.Slot != SlotFills {
			return errors.New(errors.ErrCodeInvalidMessage, "node %q segment image slot %q", n.ID, ref.Slot)
		}
	}
	return nil
}

// validateSegments requires non-empty ranges that tile the characters:
// the first starts at 0, each starts where the previous ended, and the last
// ends at the rune length of the text.
func validateSegments(n *Node) error {
	if len(n.Segments) == 0 {
		return nil
	}
	end := 0
	for i, s := range n.Segments {
		if s.Start != end || s.End <= s.Start {
			return errors.New(errors.ErrCodeInvalidMessage,
				"node %q segment %d has range [%d,%d)", n.ID, i, s.Start, s.End)
		}
		end = s.End
	}
	chars, _ := n.Props[scene.PropCharacters].(string)
	if length := utf8.RuneCountInString(chars); end != length {
		return errors.New(errors.ErrCodeInvalidMessage,
			"node %q segments end at %d, text has %d characters", n.ID, end, length)
	}
	return nil
}
