package deserialize

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvasport/pkg/assets"
	"github.com/matzehuels/canvasport/pkg/classify"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/observability"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
)

// DefaultFallbackFont replaces fonts that fail to load.
var DefaultFallbackFont = scene.FontName{Family: "Inter", Style: "Regular"}

// ErrSkipped marks a node left out under PolicySkip.
var ErrSkipped = stderrors.New("node skipped")

// Options configures a Deserializer.
type Options struct {
	// Logger receives per-node warnings. Defaults to a discard logger.
	Logger *log.Logger

	// Unsupported is the policy for kinds the host cannot create.
	Unsupported Policy

	// FallbackFont is loaded when a text font fails to load.
	FallbackFont scene.FontName
}

// Stats summarizes an import.
type Stats struct {
	// Requested is the number of roots in the bundle.
	Requested int `json:"requested"`
	// Created is the number of roots built.
	Created int `json:"created"`
	// Failed is the number of roots that could not be built.
	Failed int `json:"failed"`
	// Skipped counts nodes left out by PolicySkip, at any depth.
	Skipped int `json:"skipped"`
	// Substituted counts nodes built as a different kind.
	Substituted int `json:"substituted"`
	// Nodes is the total number of host nodes created.
	Nodes int `json:"nodes"`
	// Images is the number of distinct images registered with the host.
	Images int `json:"images"`
}

// Deserializer builds host nodes from portable nodes.
type Deserializer struct {
	host     scene.Host
	opts     Options
	logger   *log.Logger
	resolver *assets.Resolver
	ids      map[string]scene.Node
	fonts    map[scene.FontName]error
	stats    Stats
}

// New returns a Deserializer for one import into host.
func New(host scene.Host, opts Options) *Deserializer {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Unsupported == "" {
		opts.Unsupported = DefaultPolicy
	}
	if opts.FallbackFont == (scene.FontName{}) {
		opts.FallbackFont = DefaultFallbackFont
	}
	return &Deserializer{
		host:     host,
		opts:     opts,
		logger:   opts.Logger,
		resolver: assets.NewResolver(nil, host),
		ids:      make(map[string]scene.Node),
		fonts:    make(map[scene.FontName]error),
	}
}

// Import validates b and builds its roots on the current page. It returns
// the created roots in bundle order.
func (d *Deserializer) Import(ctx context.Context, b *portable.Bundle) ([]scene.Node, Stats, error) {
	if err := b.Validate(); err != nil {
		return nil, Stats{}, err
	}

	start := time.Now()
	hooks := observability.Transfer()
	hooks.OnImportStart(ctx, len(b.Nodes))

	d.resolver = assets.NewResolver(b.Assets, d.host)
	d.stats = Stats{Requested: len(b.Nodes)}

	var created []scene.Node
	for _, pn := range b.Nodes {
		n, err := d.Node(ctx, pn, "", 0, 0)
		if err == nil {
			created = append(created, n)
			d.stats.Created++
			continue
		}
		if ctx.Err() != nil || d.fatal(err) {
			d.rollback(created)
			hooks.OnImportComplete(ctx, 0, d.stats.Failed+1, time.Since(start), err)
			return nil, d.stats, err
		}
		if stderrors.Is(err, ErrSkipped) {
			continue
		}
		d.stats.Failed++
		d.logger.Warn("skipping node", "node", pn.ID, "kind", pn.Kind, "err", err)
		hooks.OnNodeFailed(ctx, "import", string(pn.Kind), err)
	}

	d.stats.Images = d.resolver.Registered()
	d.stats.Nodes = count(created)
	d.logger.Debug("imported",
		"roots", d.stats.Created,
		"nodes", d.stats.Nodes,
		"images", d.stats.Images,
		"duration", time.Since(start))
	hooks.OnImportComplete(ctx, d.stats.Created, d.stats.Failed, time.Since(start), nil)
	return created, d.stats, nil
}

// count returns the number of host nodes in the given trees.
func count(nodes []scene.Node) int {
	total := 0
	for _, n := range nodes {
		total++
		kids, err := n.Children()
		if err == nil {
			total += count(kids)
		}
	}
	return total
}

func (d *Deserializer) rollback(nodes []scene.Node) {
	for _, n := range nodes {
		if err := d.host.Remove(n); err != nil {
			d.logger.Warn("rollback failed", "node", n.ID(), "err", err)
		}
	}
}

// fatal reports whether err must abort the whole import.
func (d *Deserializer) fatal(err error) bool {
	return d.opts.Unsupported == PolicyReject && errors.Is(err, errors.ErrCodeUnsupportedKind)
}

// Node builds pn and its subtree. parentKind is the host parent's kind
// ("" for roots) and parentX, parentY its host position.
//
// On error nothing built for pn is left in the host.
func (d *Deserializer) Node(ctx context.Context, pn *portable.Node, parentKind scene.Kind, parentX, parentY float64) (scene.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, linked, err := d.create(ctx, pn)
	if err != nil {
		return nil, err
	}
	if err := d.build(ctx, n, pn, linked, parentKind, parentX, parentY); err != nil {
		if rmErr := d.host.Remove(n); rmErr != nil {
			d.logger.Warn("removing failed node", "node", n.ID(), "err", rmErr)
		}
		return nil, err
	}
	return n, nil
}

func (d *Deserializer) build(ctx context.Context, n scene.Node, pn *portable.Node, linked bool, parentKind scene.Kind, parentX, parentY float64) error {
	x, y := pn.X, pn.Y
	if classify.IsGroupLike(parentKind) {
		x += parentX
		y += parentY
	}
	if err := d.host.SetName(n, pn.Name); err != nil {
		return errors.Wrap(errors.ErrCodeNodeConstruction, err, "set name").At(pn.ID)
	}
	if err := d.host.Move(n, x, y); err != nil {
		return errors.Wrap(errors.ErrCodeNodeConstruction, err, "move").At(pn.ID)
	}
	if err := d.host.Resize(n, pn.Width, pn.Height); err != nil {
		return errors.Wrap(errors.ErrCodeNodeConstruction, err, "resize").At(pn.ID)
	}
	if pn.ID != "" {
		d.ids[pn.ID] = n
	}

	set := classify.Of(n.Kind())
	d.applyProps(ctx, n, pn, set)
	if set.Has(classify.Text) {
		d.applySegments(ctx, n, pn)
	}
	d.applyImage(ctx, n, pn, set)

	if linked || len(pn.Children) == 0 {
		return nil
	}
	if !set.Has(classify.Children) {
		d.logger.Warn("dropping children", "node", pn.ID, "kind", n.Kind(), "count", len(pn.Children))
		return nil
	}
	return d.children(ctx, n, pn, x, y)
}

// create makes the host node for pn. linked is true for instances created
// from a component built earlier in this import; their children come from
// the component.
func (d *Deserializer) create(ctx context.Context, pn *portable.Node) (n scene.Node, linked bool, err error) {
	if pn.Kind == scene.KindInstance {
		if n, ok := d.instance(ctx, pn); ok {
			return n, true, nil
		}
	}

	n, err = d.host.CreateNode(ctx, pn.Kind)
	if err == nil {
		return n, false, nil
	}
	if !stderrors.Is(err, scene.ErrUnsupportedKind) {
		return nil, false, errors.Wrap(errors.ErrCodeNodeConstruction, err, "create %s", pn.Kind).At(pn.ID)
	}

	switch d.opts.Unsupported {
	case PolicyReject:
		return nil, false, errors.Wrap(errors.ErrCodeUnsupportedKind, err, "create %s", pn.Kind).At(pn.ID)
	case PolicySubstitute:
		sub, ok := Substitute(pn.Kind)
		if !ok {
			return nil, false, errors.Wrap(errors.ErrCodeUnsupportedKind, err, "create %s", pn.Kind).At(pn.ID)
		}
		n, err = d.host.CreateNode(ctx, sub)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeUnsupportedKind, err, "substitute %s for %s", sub, pn.Kind).At(pn.ID)
		}
		d.stats.Substituted++
		d.logger.Info("substituted kind", "node", pn.ID, "kind", pn.Kind, "as", sub)
		return n, false, nil
	default:
		d.stats.Skipped++
		d.logger.Warn("skipping unsupported kind", "node", pn.ID, "kind", pn.Kind)
		return nil, false, errors.Wrap(errors.ErrCodeUnsupportedKind, ErrSkipped, "create %s", pn.Kind).At(pn.ID)
	}
}

// instance creates pn from its main component if that component was built
// earlier in this import and the host can instantiate components.
func (d *Deserializer) instance(ctx context.Context, pn *portable.Node) (scene.Node, bool) {
	mainID, _ := pn.Props[scene.PropMainComponent].(string)
	component, ok := d.ids[mainID]
	if !ok {
		return nil, false
	}
	ic, ok := scene.AsInstanceCreator(d.host)
	if !ok {
		return nil, false
	}
	n, err := ic.CreateInstance(ctx, component)
	if err != nil {
		d.logger.Warn("instantiating component", "node", pn.ID, "component", mainID, "err", err)
		return nil, false
	}
	return n, true
}

// children builds every child of pn, then appends them to n in order.
func (d *Deserializer) children(ctx context.Context, n scene.Node, pn *portable.Node, x, y float64) error {
	built := make([]scene.Node, 0, len(pn.Children))
	for _, child := range pn.Children {
		c, err := d.Node(ctx, child, n.Kind(), x, y)
		if err == nil {
			built = append(built, c)
			continue
		}
		if ctx.Err() != nil || d.fatal(err) {
			d.rollback(built)
			return err
		}
		if !stderrors.Is(err, ErrSkipped) {
			d.logger.Warn("skipping child", "node", child.ID, "parent", pn.ID, "err", err)
			observability.Transfer().OnNodeFailed(ctx, "import", string(child.Kind), err)
		}
	}

	for _, c := range built {
		if err := d.host.AppendChild(n, c); err != nil {
			d.logger.Warn("attaching child", "node", c.ID(), "parent", pn.ID, "err", err)
			if rmErr := d.host.Remove(c); rmErr != nil {
				d.logger.Warn("removing detached child", "node", c.ID(), "err", rmErr)
			}
		}
	}
	return nil
}
