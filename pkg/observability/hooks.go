// Package observability lets a binary watch exports, imports, the image
// cache and the HTTP server without the core packages knowing who listens.
//
// Core packages fetch the current hooks at the point an event happens:
//
//	hooks := observability.Transfer()
//	hooks.OnExportStart(ctx, len(roots))
//	...
//	hooks.OnExportComplete(ctx, stats.Exported, stats.Failed, time.Since(start), err)
//
// Binaries swap in their own implementations before serving traffic. Every
// interface has a Noop type to embed, so an implementation only spells out
// the events it cares about. [LogHooks] reports transfer and cache events
// to a logger.
package observability

import (
	"context"
	"sync"
	"time"
)

// TransferHooks receives events from export and import.
type TransferHooks interface {
	OnExportStart(ctx context.Context, requested int)
	OnExportComplete(ctx context.Context, exported, failed int, duration time.Duration, err error)
	OnImportStart(ctx context.Context, requested int)
	OnImportComplete(ctx context.Context, created, failed int, duration time.Duration, err error)

	// OnNodeFailed reports a node dropped during op ("export" or "import").
	OnNodeFailed(ctx context.Context, op, kind string, err error)

	// OnAssetInterned reports a new file in the bundle's asset table.
	OnAssetInterned(ctx context.Context, name string, size int)
}

// CacheHooks receives image cache lookups and writes. keyType is the kind of
// key, currently always "image".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives one OnRequest and one OnResponse per server request.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

type NoopTransferHooks struct{}

func (NoopTransferHooks) OnExportStart(context.Context, int)                              {}
func (NoopTransferHooks) OnExportComplete(context.Context, int, int, time.Duration, error) {}
func (NoopTransferHooks) OnImportStart(context.Context, int)                              {}
func (NoopTransferHooks) OnImportComplete(context.Context, int, int, time.Duration, error) {}
func (NoopTransferHooks) OnNodeFailed(context.Context, string, string, error)             {}
func (NoopTransferHooks) OnAssetInterned(context.Context, string, int)                    {}

type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// slot holds the current implementation of one hook interface.
type slot[T any] struct {
	mu  sync.RWMutex
	cur T
	def T
}

func newSlot[T any](def T) *slot[T] { return &slot[T]{cur: def, def: def} }

func (s *slot[T]) load() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *slot[T]) store(v T) {
	s.mu.Lock()
	s.cur = v
	s.mu.Unlock()
}

func (s *slot[T]) reset() { s.store(s.def) }

var (
	transfer = newSlot[TransferHooks](NoopTransferHooks{})
	caching  = newSlot[CacheHooks](NoopCacheHooks{})
	serving  = newSlot[HTTPHooks](NoopHTTPHooks{})
)

// SetTransferHooks replaces the transfer hooks. nil is ignored.
func SetTransferHooks(h TransferHooks) {
	if h != nil {
		transfer.store(h)
	}
}

// SetCacheHooks replaces the cache hooks. nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		caching.store(h)
	}
}

// SetHTTPHooks replaces the HTTP hooks. nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		serving.store(h)
	}
}

func Transfer() TransferHooks { return transfer.load() }
func Cache() CacheHooks       { return caching.load() }
func HTTP() HTTPHooks         { return serving.load() }

// Reset restores the no-op hooks.
func Reset() {
	transfer.reset()
	caching.reset()
	serving.reset()
}
