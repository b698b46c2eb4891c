// Package deserialize rebuilds host node trees from portable bundles.
//
// # Construction order
//
// [Deserializer.Node] builds one portable node and its descendants:
//
//  1. create a host node of the kind, following the unsupported-kind [Policy]
//  2. set the name and position (group children are shifted back by the
//     group's host position)
//  3. resize
//  4. apply the capability set's properties; for text the font is loaded
//     and set before the characters
//  5. apply styled segments, each range independently
//  6. resolve the image reference and set it on its paint slot
//  7. build every child, then append them in order
//
// # Failures
//
// Property, font and image problems are logged and the node continues
// without them. A child that cannot be built is removed from the host and
// skipped; its siblings and parent are unaffected. A root that cannot be
// built is dropped from the import. Under [PolicyReject] an unsupported kind
// anywhere in the bundle aborts the whole import and removes what was built.
//
// A Deserializer holds per-import state (the portable id to host node map
// and the asset resolver). Create one per import.
package deserialize
