// Package cache provides byte caches for data fetched from the host.
//
// The export path asks the host for the encoded bytes of every image it
// references. Hosts often rasterize or download those bytes on demand, so a
// [Cache] keyed by the host's content hash lets repeated exports of the same
// document skip the fetch. The cache sits below the per-session asset
// registry: naming and deduplication inside a bundle never depend on what
// the cache holds.
//
// Backends:
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key. hit is false on a miss or expired entry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ImageKey returns the key for image bytes with the given host hash.
	ImageKey(hash string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ImageKey returns "image:<hash>".
func (DefaultKeyer) ImageKey(hash string) string { return "image:" + hash }

// ScopedKeyer wraps a Keyer with a prefix. Image hashes are only unique
// within one host, so keys are scoped per document when several hosts share
// a cache.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ImageKey generates a prefixed image key.
func (k *ScopedKeyer) ImageKey(hash string) string {
	return k.prefix + k.inner.ImageKey(hash)
}

// Hash returns the hex SHA-256 of data. Bundle image names and file cache
// paths are both derived from it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NullCache misses on every read. Export uses it when caching is off.
type NullCache struct{}

// NewNullCache returns a NullCache.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
