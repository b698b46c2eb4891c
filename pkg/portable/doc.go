// Package portable defines the host-independent bundle format.
//
// # Overview
//
// A [Bundle] is a self-contained snapshot of a node tree: an ordered list of
// [Node] roots and a side table of image payloads keyed by file name. Nothing
// in a bundle refers to host state. Host image hashes are replaced by an
// [ImageRef] pointing into the asset table, and node ids are only used to
// relate nodes inside the same bundle (for example an instance to its main
// component).
//
// # Coordinates
//
// Children of group-like nodes (GROUP, BOOLEAN_OPERATION) store x and y
// relative to the group. All other nodes store the coordinates the host
// reported. This mirrors the host model and must be preserved by every
// writer and reader.
//
// # Formats
//
// Three encodings carry the same schema:
//
//   - JSON: the canonical form; assets are base64 strings
//   - YAML: the JSON document re-encoded as YAML, for hand editing
//   - Zip: bundle.json with an empty asset table plus one entry per asset
//     file, so images stay binary
//
// Use [Export] and [Import] to pick the format from a file extension, or the
// Write/Read functions for streams:
//
//	b, err := portable.Import("design.zip")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = portable.Export(b, "design.json")
//
// # Validation
//
// [Bundle.Validate] checks structural rules that import relies on: a known
// version, non-empty kinds, unique ids, well-formed segments and safe asset
// names. Readers do not validate; callers decide when to.
package portable
