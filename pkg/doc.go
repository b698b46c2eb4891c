// Package pkg provides the core libraries for canvasport, which moves design
// nodes between documents as self-contained bundles.
//
// # Overview
//
// A bundle is a portable node tree plus the image files its nodes reference.
// The pkg directory is organized into four areas:
//
//  1. [scene] and [classify] - the host scene graph as canvasport sees it,
//     and which properties each node kind carries
//  2. [serialize], [deserialize] and [assets] - export to and import from
//     bundles, with image deduplication
//  3. [portable] - the bundle format (JSON, YAML, zip) and its validation
//  4. [dispatch] - the message boundary a UI layer talks to
//
// Supporting packages: [cache] (image bytes), [storage] (stored bundles),
// [config], [errors], [observability], [render] (Graphviz diagrams of
// bundles) and [memhost] (an in-memory host backed by document files).
//
// # Architecture
//
//	host nodes ──serialize──▶ portable tree + asset registry ──▶ bundle
//	bundle ──deserialize──▶ new host nodes (selected, in view)
//
// Export walks the requested roots, captures each kind's properties,
// converts coordinates of group children to parent-local ones and interns
// every referenced image once. Import rebuilds the tree in order, loading
// fonts before text edits, resolving images through a per-import registry
// and isolating failures to the node that caused them.
//
// # Quick Start
//
//	h, _ := memhost.Open("design.json")
//	d := dispatch.New(h, dispatch.Options{})
//	resp := d.Dispatch(ctx, dispatch.Request{Type: "export", Target: "page"})
//
// [scene]: github.com/matzehuels/canvasport/pkg/scene
// [classify]: github.com/matzehuels/canvasport/pkg/classify
// [serialize]: github.com/matzehuels/canvasport/pkg/serialize
// [deserialize]: github.com/matzehuels/canvasport/pkg/deserialize
// [assets]: github.com/matzehuels/canvasport/pkg/assets
// [portable]: github.com/matzehuels/canvasport/pkg/portable
// [dispatch]: github.com/matzehuels/canvasport/pkg/dispatch
// [cache]: github.com/matzehuels/canvasport/pkg/cache
// [storage]: github.com/matzehuels/canvasport/pkg/storage
// [config]: github.com/matzehuels/canvasport/pkg/config
// [errors]: github.com/matzehuels/canvasport/pkg/errors
// [observability]: github.com/matzehuels/canvasport/pkg/observability
// [render]: github.com/matzehuels/canvasport/pkg/render
// [memhost]: github.com/matzehuels/canvasport/pkg/memhost
package pkg
