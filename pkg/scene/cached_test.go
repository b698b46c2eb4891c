package scene

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/observability"
)

type imageHost struct {
	Host
	images map[string][]byte
	calls  int
}

func (h *imageHost) ImageBytes(_ context.Context, hash string) ([]byte, error) {
	h.calls++
	data, ok := h.images[hash]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

type renderHost struct{ imageHost }

func (renderHost) Render(context.Context, Node) ([]byte, error) { return []byte("png"), nil }

type countingCacheHooks struct {
	observability.NoopCacheHooks
	hits, misses, sets int
}

func (c *countingCacheHooks) OnCacheHit(context.Context, string)      { c.hits++ }
func (c *countingCacheHooks) OnCacheMiss(context.Context, string)     { c.misses++ }
func (c *countingCacheHooks) OnCacheSet(context.Context, string, int) { c.sets++ }

func TestWithImageCache(t *testing.T) {
	hooks := &countingCacheHooks{}
	observability.SetCacheHooks(hooks)
	defer observability.Reset()

	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := &imageHost{images: map[string][]byte{"abc": []byte("pixels")}}
	h := WithImageCache(inner, fc, nil, time.Hour)

	for i := 0; i < 3; i++ {
		data, err := h.ImageBytes(ctx, "abc")
		if err != nil {
			t.Fatalf("ImageBytes #%d: %v", i, err)
		}
		if string(data) != "pixels" {
			t.Errorf("ImageBytes #%d = %q", i, data)
		}
	}
	if inner.calls != 1 {
		t.Errorf("host fetched %d times, want 1", inner.calls)
	}
	if hooks.misses != 1 || hooks.hits != 2 || hooks.sets != 1 {
		t.Errorf("hooks hits=%d misses=%d sets=%d", hooks.hits, hooks.misses, hooks.sets)
	}
}

func TestWithImageCacheFetchError(t *testing.T) {
	ctx := context.Background()
	inner := &imageHost{images: map[string][]byte{}}
	h := WithImageCache(inner, cache.NewNullCache(), nil, 0)

	if _, err := h.ImageBytes(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWithImageCacheNilCache(t *testing.T) {
	inner := &imageHost{}
	if h := WithImageCache(inner, nil, nil, 0); h != Host(inner) {
		t.Error("nil cache should return the host unchanged")
	}
}

func TestAsRenderer(t *testing.T) {
	plain := WithImageCache(&imageHost{}, cache.NewNullCache(), nil, 0)
	if _, ok := AsRenderer(plain); ok {
		t.Error("host without Render should not be a Renderer")
	}

	wrapped := WithImageCache(&renderHost{}, cache.NewNullCache(), nil, 0)
	r, ok := AsRenderer(wrapped)
	if !ok {
		t.Fatal("Renderer should be found through the cache wrapper")
	}
	if data, _ := r.Render(context.Background(), nil); string(data) != "png" {
		t.Errorf("Render = %q", data)
	}

	if _, ok := AsInstanceCreator(wrapped); ok {
		t.Error("renderHost is not an InstanceCreator")
	}
}
