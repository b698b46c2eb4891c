// Package scene describes the host scene graph as canvasport sees it.
//
// # Overview
//
// The host is the design tool that owns the document: node identity,
// property storage, fonts, images and rendering. canvasport never owns host
// nodes; it reads them through [Node] during export and creates them through
// [Host] during import. Any scene-graph runtime that implements these
// interfaces can be exported from and imported into.
//
// # Properties
//
// Node properties are addressed by [Prop] keys. Each known key has one Go
// type (for example [PropFills] is []Paint, [PropFontSize] is float64), and
// [Props] decodes JSON into those types so that a property bag read back from
// a bundle is interchangeable with one read from a live host.
//
// Text properties can vary across ranges of characters. Reads therefore
// return a [Value], which is either Uniform or Mixed. Callers branch on
// [Value.IsMixed] and fall back to [Node.Segments] for per-range styles.
//
// # Coordinates
//
// [Rect] X and Y are parent-local, except for children of group-like nodes
// (GROUP, BOOLEAN_OPERATION), whose coordinates are in the group's parent
// space. The serializer and deserializer convert between the two; hosts just
// report what they store.
//
// # Caching
//
// [WithImageCache] wraps a host so that image bytes fetched during export
// are kept in a [cache.Cache], keyed by the host's content hash.
//
// [cache.Cache]: github.com/matzehuels/canvasport/pkg/cache.Cache
package scene
