package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports transfer and cache events to a logger. Per-node and cache
// events are logged at debug level, completed operations at info. The HTTP
// server logs its own requests.
type LogHooks struct {
	Logger *log.Logger
}

// UseLogger installs LogHooks for l as the transfer and cache hooks.
func UseLogger(l *log.Logger) {
	h := LogHooks{Logger: l}
	SetTransferHooks(h)
	SetCacheHooks(h)
}

func (h LogHooks) OnExportStart(_ context.Context, requested int) {
	h.Logger.Debug("export started", "roots", requested)
}

func (h LogHooks) OnExportComplete(_ context.Context, exported, failed int, d time.Duration, err error) {
	h.complete("export", exported, failed, d, err)
}

func (h LogHooks) OnImportStart(_ context.Context, requested int) {
	h.Logger.Debug("import started", "roots", requested)
}

func (h LogHooks) OnImportComplete(_ context.Context, created, failed int, d time.Duration, err error) {
	h.complete("import", created, failed, d, err)
}

func (h LogHooks) complete(op string, done, failed int, d time.Duration, err error) {
	kv := []any{"op", op, "ok", done, "failed", failed, "took", d.Round(time.Millisecond)}
	if err != nil {
		h.Logger.Error("transfer failed", append(kv, "err", err)...)
		return
	}
	h.Logger.Info("transfer complete", kv...)
}

func (h LogHooks) OnNodeFailed(_ context.Context, op, kind string, err error) {
	h.Logger.Debug("node dropped", "op", op, "kind", kind, "err", err)
}

func (h LogHooks) OnAssetInterned(_ context.Context, name string, size int) {
	h.Logger.Debug("asset interned", "name", name, "bytes", size)
}

func (h LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ TransferHooks = LogHooks{}
	_ CacheHooks    = LogHooks{}
)
