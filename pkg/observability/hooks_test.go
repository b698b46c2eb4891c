package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopTransferHooks{}
	p.OnExportStart(ctx, 3)
	p.OnExportComplete(ctx, 2, 1, time.Second, nil)
	p.OnImportStart(ctx, 3)
	p.OnImportComplete(ctx, 3, 0, time.Second, nil)
	p.OnNodeFailed(ctx, "import", "TEXT", nil)
	p.OnAssetInterned(ctx, "img/image_1.png", 1024)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "image")
	c.OnCacheMiss(ctx, "image")
	c.OnCacheSet(ctx, "image", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/messages")
	h.OnResponse(ctx, "POST", "/v1/messages", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Transfer().(NoopTransferHooks); !ok {
		t.Error("Transfer() should return NoopTransferHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customTransfer := &testTransferHooks{}
	SetTransferHooks(customTransfer)
	if Transfer() != customTransfer {
		t.Error("SetTransferHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// nil is ignored
	SetTransferHooks(nil)
	if Transfer() != customTransfer {
		t.Error("SetTransferHooks(nil) should keep existing hooks")
	}

	Reset()
	if _, ok := Transfer().(NoopTransferHooks); !ok {
		t.Error("Reset should restore NoopTransferHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset should restore NoopCacheHooks")
	}
}

type testTransferHooks struct{ NoopTransferHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

func TestUseLogger(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	UseLogger(log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel}))
	ctx := context.Background()

	Transfer().OnExportComplete(ctx, 2, 1, time.Second, nil)
	Transfer().OnImportComplete(ctx, 0, 1, time.Second, errors.New("boom"))
	Cache().OnCacheMiss(ctx, "image")

	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("UseLogger should leave the HTTP hooks alone")
	}

	out := buf.String()
	for _, want := range []string{"transfer complete", "op=export", "transfer failed", "err=boom", "cache miss"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output lacks %q:\n%s", want, out)
		}
	}
}
