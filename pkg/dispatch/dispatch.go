// Package dispatch is the message boundary between a UI layer and the
// serializer and deserializer.
//
// A [Dispatcher] receives "export" and "import" requests, runs them against
// its host and answers with a success or error [Response]. Each call gets a
// fresh asset registry and deserializer; nothing survives between calls.
//
//	d := dispatch.New(host, dispatch.Options{Logger: logger})
//	resp := d.Dispatch(ctx, dispatch.Request{Type: "export", Target: "selected"})
package dispatch

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvasport/pkg/assets"
	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/deserialize"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
	"github.com/matzehuels/canvasport/pkg/serialize"
)

// Options configures a Dispatcher.
type Options struct {
	Logger *log.Logger

	// Export and Import configure each call. Their loggers default to the
	// dispatcher's.
	Export serialize.Options
	Import deserialize.Options

	// Cache holds image bytes read during export. Nil disables caching.
	Cache    cache.Cache
	Keyer    cache.Keyer
	CacheTTL time.Duration
}

// Dispatcher runs requests against one host, one at a time.
type Dispatcher struct {
	host   scene.Host
	images scene.Host
	opts   Options
	logger *log.Logger
	mu     sync.Mutex
}

// New returns a Dispatcher for host. If opts.Cache is nil a NullCache is
// used. A nil opts.Logger discards output.
func New(host scene.Host, opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Export.Logger == nil {
		opts.Export.Logger = opts.Logger
	}
	if opts.Import.Logger == nil {
		opts.Import.Logger = opts.Logger
	}
	if opts.Export.Previews && opts.Export.Renderer == nil {
		if r, ok := scene.AsRenderer(host); ok {
			opts.Export.Renderer = r
		}
	}
	return &Dispatcher{
		host:   host,
		images: scene.WithImageCache(host, opts.Cache, opts.Keyer, opts.CacheTTL),
		opts:   opts,
		logger: opts.Logger,
	}
}

// Host returns the host requests run against.
func (d *Dispatcher) Host() scene.Host { return d.host }

// Dispatch runs req and never returns an error: failures become error
// responses.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	switch req.Type {
	case TypeExport:
		b, stats, err := d.Export(ctx, req.Target)
		if err != nil {
			d.logger.Error("export failed", "target", req.Target, "err", err)
			return failure(req.Type, err)
		}
		return success(req.Type, ExportResult{Bundle: b, Stats: stats})
	case TypeImport:
		nodes, stats, err := d.Import(ctx, req.Bundle)
		if err != nil {
			d.logger.Error("import failed", "err", err)
			return failure(req.Type, err)
		}
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID()
		}
		return success(req.Type, ImportResult{Nodes: ids, Stats: stats})
	}
	return failure(req.Type, errors.New(errors.ErrCodeInvalidMessage, "unknown message type %q", req.Type))
}

// DispatchJSON decodes a JSON request and dispatches it.
func (d *Dispatcher) DispatchJSON(ctx context.Context, data []byte) Response {
	req, err := DecodeRequest(data)
	if err != nil {
		return failure("", err)
	}
	return d.Dispatch(ctx, req)
}

// Export serializes the nodes named by target.
func (d *Dispatcher) Export(ctx context.Context, target string) (*portable.Bundle, serialize.Stats, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	roots, err := d.targets(target)
	if err != nil {
		return nil, serialize.Stats{}, err
	}
	d.logger.Info("exporting", "target", target, "roots", len(roots))

	b, stats, err := serialize.New(d.opts.Export).Export(ctx, roots, d.images, assets.New())
	if err != nil {
		return nil, stats, err
	}
	b.Metadata.Document = d.host.DocumentName()
	b.Metadata.Target = target
	if stats.Failed > 0 {
		d.logger.Warn("partial export", "exported", stats.Exported, "requested", stats.Requested)
	}
	return b, stats, nil
}

// targets resolves an export target to its root nodes.
func (d *Dispatcher) targets(target string) ([]scene.Node, error) {
	switch target {
	case TargetSelected:
		sel, err := d.host.Selection()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read selection")
		}
		if len(sel) == 0 {
			return nil, errors.New(errors.ErrCodeEmptySelection, "nothing is selected")
		}
		return sel, nil
	case TargetPage:
		page, err := d.host.CurrentPage()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "read current page")
		}
		kids, err := page.Children()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "list page %s", page.Name())
		}
		if len(kids) == 0 {
			return nil, errors.New(errors.ErrCodeEmptyContainer, "page %q is empty", page.Name())
		}
		return kids, nil
	case TargetFile:
		pages, err := d.host.Pages()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "list pages")
		}
		var roots []scene.Node
		for _, p := range pages {
			kids, err := p.Children()
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "list page %s", p.Name())
			}
			roots = append(roots, kids...)
		}
		if len(roots) == 0 {
			return nil, errors.New(errors.ErrCodeEmptyContainer, "document %q is empty", d.host.DocumentName())
		}
		return roots, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidMessage, "unknown export target %q", target)
}

// Import builds b on the current page, then selects and focuses the created
// nodes.
func (d *Dispatcher) Import(ctx context.Context, b *portable.Bundle) ([]scene.Node, deserialize.Stats, error) {
	if b == nil {
		return nil, deserialize.Stats{}, errors.New(errors.ErrCodeInvalidMessage, "import request has no bundle")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	nodes, stats, err := deserialize.New(d.host, d.opts.Import).Import(ctx, b)
	if err != nil {
		return nil, stats, err
	}
	d.logger.Info("imported", "roots", stats.Created, "nodes", stats.Nodes, "failed", stats.Failed)
	if len(nodes) == 0 {
		return nodes, stats, nil
	}

	if err := d.host.SetSelection(nodes); err != nil {
		d.logger.Warn("selecting imported nodes", "err", err)
	}
	if err := d.host.FocusViewport(nodes); err != nil {
		d.logger.Warn("focusing viewport", "err", err)
	}
	return nodes, stats, nil
}

// Close releases the image cache.
func (d *Dispatcher) Close() error {
	if d.opts.Cache != nil {
		return d.opts.Cache.Close()
	}
	return nil
}
