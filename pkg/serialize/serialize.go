package serialize

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/canvasport/pkg/assets"
	"github.com/matzehuels/canvasport/pkg/buildinfo"
	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/observability"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// Options configures a Serializer.
type Options struct {
	// Logger receives per-node warnings. Defaults to a discard logger.
	Logger *log.Logger

	// Concurrency bounds how many siblings are exported at once.
	// Values below 2 export children sequentially.
	Concurrency int

	// Previews renders each root through Renderer and stores the PNG.
	Previews bool
	Renderer scene.Renderer
}

// Request is an image reference found during the walk. Segment is the
// index of the styled range holding the paint, or nil for the node itself.
type Request struct {
	Node    *portable.Node
	Slot    scene.Prop
	Index   int
	Segment *int
	Hash    string
}

// Stats summarizes an export.
type Stats struct {
	// Requested is the number of roots passed to Export.
	Requested int `json:"requested"`
	// Exported is the number of roots in the bundle.
	Exported int `json:"exported"`
	// Failed is the number of roots dropped.
	Failed int `json:"failed"`
	// Dropped is the number of descendants dropped.
	Dropped int `json:"dropped"`
	// Nodes is the total node count of the bundle.
	Nodes int `json:"nodes"`
	// Assets is the number of distinct asset files.
	Assets int `json:"assets"`
	// Unresolved is the number of image references that could not be fetched.
	Unresolved int `json:"unresolved"`
}

// ImageSource supplies image bytes by host hash.
type ImageSource interface {
	ImageBytes(ctx context.Context, hash string) ([]byte, error)
}

// Serializer converts host trees to portable trees. A Serializer runs one
// export at a time.
type Serializer struct {
	opts    Options
	logger  *log.Logger
	dropped atomic.Int64
}

// New returns a Serializer.
func New(opts Options) *Serializer {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Serializer{opts: opts, logger: logger}
}

// Export walks roots and interns their images into reg, which is reset
// first. Roots that fail are logged and left out of the bundle.
func (s *Serializer) Export(ctx context.Context, roots []scene.Node, images ImageSource, reg *assets.Registry) (*portable.Bundle, Stats, error) {
	start := time.Now()
	hooks := observability.Transfer()
	hooks.OnExportStart(ctx, len(roots))

	reg.Reset()
	s.dropped.Store(0)

	stats := Stats{Requested: len(roots)}
	b := portable.New()
	var reqs []Request
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			hooks.OnExportComplete(ctx, stats.Exported, stats.Failed, time.Since(start), err)
			return nil, stats, err
		}
		pn, rs, err := s.Node(ctx, root)
		if err != nil {
			stats.Failed++
			s.logger.Warn("skipping node", "node", root.ID(), "kind", root.Kind(), "err", err)
			hooks.OnNodeFailed(ctx, "export", string(root.Kind()), err)
			continue
		}
		b.Nodes = append(b.Nodes, pn)
		reqs = append(reqs, rs...)
		stats.Exported++
	}

	stats.Unresolved = Intern(ctx, reg, reqs, images.ImageBytes, s.logger)
	if s.opts.Previews && s.opts.Renderer != nil {
		s.previews(ctx, roots, b.Nodes, reg)
	}

	b.Assets = reg.Files()
	b.Metadata = portable.Metadata{
		Generator: buildinfo.Generator(),
		CreatedAt: time.Now().UTC(),
		NodeCount: portable.Count(b.Nodes),
	}

	stats.Dropped = int(s.dropped.Load())
	stats.Nodes = b.Metadata.NodeCount
	stats.Assets = len(b.Assets)

	s.logger.Debug("exported",
		"roots", stats.Exported,
		"nodes", stats.Nodes,
		"assets", stats.Assets,
		"duration", time.Since(start))
	hooks.OnExportComplete(ctx, stats.Exported, stats.Failed, time.Since(start), nil)
	return b, stats, nil
}

// previews renders each exported root. Failures only cost the preview.
func (s *Serializer) previews(ctx context.Context, roots []scene.Node, nodes []*portable.Node, reg *assets.Registry) {
	byID := make(map[string]scene.Node, len(roots))
	for _, r := range roots {
		byID[r.ID()] = r
	}
	for _, pn := range nodes {
		root, ok := byID[pn.ID]
		if !ok {
			continue
		}
		data, err := s.opts.Renderer.Render(ctx, root)
		if err != nil {
			s.logger.Warn("preview failed", "node", pn.ID, "err", err)
			continue
		}
		name, err := reg.InternBytes(ctx, data)
		if err != nil {
			s.logger.Warn("preview failed", "node", pn.ID, "err", err)
			continue
		}
		pn.Preview = name
	}
}

// Node exports n and its descendants. It fails only when n's own children
// cannot be listed or ctx is done.
func (s *Serializer) Node(ctx context.Context, n scene.Node) (*portable.Node, []Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	b := n.Bounds()
	pn := &portable.Node{
		ID:     n.ID(),
		Name:   n.Name(),
		Kind:   n.Kind(),
		X:      b.X,
		Y:      b.Y,
		Width:  b.Width,
		Height: b.Height,
	}
	set := classify.Of(pn.Kind)

	s.props(n, pn, set)
	if set.Has(classify.Text) {
		s.segments(n, pn)
	}

	var reqs []Request
	if req, ok := imageRequest(pn); ok {
		reqs = append(reqs, req)
	}

	if set.Has(classify.Children) {
		kids, err := n.Children()
		if err != nil {
			return nil, nil, fmt.Errorf("list children of %s: %w", pn.ID, err)
		}
		children, childReqs, err := s.children(ctx, kids)
		if err != nil {
			return nil, nil, err
		}
		pn.Children = children
		reqs = append(reqs, childReqs...)

		if set.Has(classify.GroupLike) {
			for _, c := range pn.Children {
				c.X -= b.X
				c.Y -= b.Y
			}
		}
	}
	return pn, reqs, nil
}

type childResult struct {
	node *portable.Node
	reqs []Request
	err  error
}

// children exports kids, keeping host order. A child that fails is dropped.
func (s *Serializer) children(ctx context.Context, kids []scene.Node) ([]*portable.Node, []Request, error) {
	results := make([]childResult, len(kids))

	if s.opts.Concurrency > 1 && len(kids) > 1 {
		var g errgroup.Group
		g.SetLimit(s.opts.Concurrency)
		for i, k := range kids {
			g.Go(func() error {
				pn, reqs, err := s.Node(ctx, k)
				results[i] = childResult{pn, reqs, err}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, k := range kids {
			pn, reqs, err := s.Node(ctx, k)
			results[i] = childResult{pn, reqs, err}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out := make([]*portable.Node, 0, len(kids))
	var reqs []Request
	for i, r := range results {
		if r.err != nil {
			s.dropped.Add(1)
			s.logger.Warn("dropping child", "node", kids[i].ID(), "err", r.err)
			continue
		}
		out = append(out, r.node)
		reqs = append(reqs, r.reqs...)
	}
	return out, reqs, nil
}

// props captures the capability set's properties. Mixed and unset values
// are not stored.
func (s *Serializer) props(n scene.Node, pn *portable.Node, set classify.Set) {
	for _, p := range classify.Props(set) {
		v, err := n.Get(p)
		if err != nil {
			s.logger.Warn("skipping property", "node", pn.ID, "prop", p, "err", err)
			continue
		}
		raw, ok := v.Get()
		if !ok || raw == nil {
			continue
		}
		if pn.Props == nil {
			pn.Props = make(scene.Props)
		}
		pn.Props[p] = raw
	}
}

// segments stores styled ranges when a text node has more than one.
func (s *Serializer) segments(n scene.Node, pn *portable.Node) {
	segs, err := n.Segments(classify.SegmentFields)
	if err != nil {
		s.logger.Warn("reading text segments", "node", pn.ID, "err", err)
		return
	}
	if len(segs) < 2 {
		return
	}
	for i := range segs {
		segs[i].Styles = segs[i].Styles.Clone()
	}
	pn.Segments = segs
}

// imageRequest finds the first image paint, then removes host hashes from
// every paint of the node. Styled ranges are searched only when the node's
// own slots hold no image.
func imageRequest(pn *portable.Node) (Request, bool) {
	var req Request
	found := false
	for _, slot := range []scene.Prop{portable.SlotFills, portable.SlotStrokes} {
		paints, ok := pn.Props.Paints(slot)
		if !ok {
			continue
		}
		for i, p := range paints {
			if !found && p.IsImage() && p.ImageHash != "" {
				req = Request{Node: pn, Slot: slot, Index: i, Hash: p.ImageHash}
				found = true
			}
		}
		stripImageHashes(pn.Props, slot)
	}
	for i, seg := range pn.Segments {
		paints, _ := seg.Styles.Paints(portable.SlotFills)
		for j, p := range paints {
			if !found && p.IsImage() && p.ImageHash != "" {
				req = Request{Node: pn, Slot: portable.SlotFills, Index: j, Segment: &i, Hash: p.ImageHash}
				found = true
			}
		}
		stripImageHashes(seg.Styles, portable.SlotFills)
	}
	return req, found
}

func stripImageHashes(props scene.Props, slot scene.Prop) {
	paints, ok := props.Paints(slot)
	if !ok {
		return
	}
	out := make([]scene.Paint, len(paints))
	for i, p := range paints {
		p.ImageHash = ""
		out[i] = p
	}
	props[slot] = out
}

// Intern resolves image requests through reg and links each node to its
// file. It returns the number of requests that could not be resolved; those
// nodes keep their paints but have no image.
func Intern(ctx context.Context, reg *assets.Registry, reqs []Request, fetch assets.FetchFunc, logger *log.Logger) int {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	failed := 0
	for _, req := range reqs {
		name, err := reg.Intern(ctx, req.Hash, fetch)
		if err != nil {
			failed++
			logger.Warn("image unavailable", "node", req.Node.ID, "hash", req.Hash, "err", err)
			continue
		}
		req.Node.Image = &portable.ImageRef{File: name, Slot: req.Slot, Index: req.Index, Segment: req.Segment}
	}
	return failed
}
