package scene

import (
	"context"
	"time"

	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/observability"
)

const imageKeyType = "image"

// cachedHost serves ImageBytes from a cache before asking the wrapped host.
type cachedHost struct {
	Host
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// WithImageCache wraps h so image bytes are read through c. Keys come from
// keyer (the default keyer if nil). A ttl of zero keeps entries until evicted.
//
// Optional capabilities of h stay reachable through [AsRenderer] and
// [AsInstanceCreator].
func WithImageCache(h Host, c cache.Cache, keyer cache.Keyer, ttl time.Duration) Host {
	if c == nil {
		return h
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &cachedHost{Host: h, cache: c, keyer: keyer, ttl: ttl}
}

// ImageBytes returns cached bytes for hash, fetching and storing them on a miss.
// Cache failures degrade to a direct fetch.
func (h *cachedHost) ImageBytes(ctx context.Context, hash string) ([]byte, error) {
	key := h.keyer.ImageKey(hash)
	if data, hit, err := h.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, imageKeyType)
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, imageKeyType)

	data, err := h.Host.ImageBytes(ctx, hash)
	if err != nil {
		return nil, err
	}

	err = cache.DefaultBackoff.Do(ctx, func() error {
		return h.cache.Set(ctx, key, data, h.ttl)
	})
	if err == nil {
		observability.Cache().OnCacheSet(ctx, imageKeyType, len(data))
	}
	return data, nil
}

// Unwrap returns the wrapped host.
func (h *cachedHost) Unwrap() Host { return h.Host }

type unwrapper interface {
	Unwrap() Host
}

// AsRenderer returns h's Renderer, looking through wrappers.
func AsRenderer(h Host) (Renderer, bool) {
	for h != nil {
		if r, ok := h.(Renderer); ok {
			return r, true
		}
		u, ok := h.(unwrapper)
		if !ok {
			break
		}
		h = u.Unwrap()
	}
	return nil, false
}

// AsInstanceCreator returns h's InstanceCreator, looking through wrappers.
func AsInstanceCreator(h Host) (InstanceCreator, bool) {
	for h != nil {
		if ic, ok := h.(InstanceCreator); ok {
			return ic, true
		}
		u, ok := h.(unwrapper)
		if !ok {
			break
		}
		h = u.Unwrap()
	}
	return nil, false
}
