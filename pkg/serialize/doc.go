// Package serialize exports host node trees into portable bundles.
//
// # Walk
//
// [Serializer.Node] converts one host node and its descendants into a
// [portable.Node]. The walk is read-only and pure: image paints found along
// the way are not fetched, they are reported as [Request] values. The walk
// captures, per node:
//
//   - identity and geometry, copied verbatim
//   - the property bag for the node's capability set (see package classify)
//   - text segments, when the style varies across character ranges
//   - the first image paint in fills or strokes, as a Request
//   - children, in host order
//
// After a group-like node's children are exported their x and y are rewritten
// relative to the group. Deeper levels are handled by their own group, so the
// shift is applied exactly once per level.
//
// # Interning
//
// [Intern] resolves requests through an [assets.Registry]: identical hashes
// share one file, and a failed fetch leaves the node without an image.
// [Serializer.Export] runs the walk over a list of roots and then the
// interning pass, producing a complete [portable.Bundle].
//
// # Failures
//
// A property that cannot be read is logged and skipped. A child whose
// children cannot be listed is dropped. A root that fails is dropped from
// the bundle and counted in [Stats]. Only context cancellation fails an
// export as a whole.
package serialize
