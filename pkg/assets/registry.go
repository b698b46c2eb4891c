// Package assets deduplicates image payloads within one export or import.
//
// On export a [Registry] maps each content key (the host's image hash, or a
// local content hash for rendered previews) to a bundle file name and keeps
// the bytes once, however many nodes reference them. On import a [Resolver]
// turns bundle file names back into host image handles, registering each
// file with the host at most once.
//
// Both are single-session values: create one per export or import call.
package assets

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/observability"
)

// Dir is the directory prefix of every asset file name.
const Dir = "img"

// FetchFunc returns the bytes for a content key.
type FetchFunc func(ctx context.Context, key string) ([]byte, error)

// Registry interns image payloads by content key.
type Registry struct {
	mu      sync.Mutex
	counter int
	names   map[string]string
	files   map[string][]byte
}

// New returns an empty registry.
func New() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// Reset forgets every interned asset and restarts file numbering at 1.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counter = 0
	r.names = make(map[string]string)
	r.files = make(map[string][]byte)
}

// Intern returns the file name for key. A key seen before returns the same
// name without calling fetch. Otherwise fetch supplies the bytes and the next
// name in sequence is assigned. A failed fetch leaves the registry unchanged
// and returns an ASSET_RESOLUTION error.
func (r *Registry) Intern(ctx context.Context, key string, fetch FetchFunc) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name, ok := r.names[key]; ok {
		return name, nil
	}

	data, err := fetch(ctx, key)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAssetResolution, err, "fetch image %s", key)
	}
	if len(data) == 0 {
		return "", errors.New(errors.ErrCodeAssetResolution, "image %s is empty", key)
	}

	return r.add(ctx, key, data), nil
}

// InternBytes interns data under its SHA-256 content hash. It is used for
// payloads the host has no handle for, such as rendered previews.
func (r *Registry) InternBytes(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New(errors.ErrCodeAssetResolution, "empty image data")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := "sha256:" + cache.Hash(data)
	if name, ok := r.names[key]; ok {
		return name, nil
	}
	return r.add(ctx, key, data), nil
}

func (r *Registry) add(ctx context.Context, key string, data []byte) string {
	r.counter++
	name := fmt.Sprintf("%s/image_%d.png", Dir, r.counter)
	r.names[key] = name
	r.files[name] = data
	observability.Transfer().OnAssetInterned(ctx, name, len(data))
	return name
}

// Files returns the interned payloads keyed by file name.
// The map is a copy; the byte slices are shared.
func (r *Registry) Files() map[string][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string][]byte, len(r.files))
	for k, v := range r.files {
		out[k] = v
	}
	return out
}

// Names returns the interned file names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.files))
	for k := range r.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct payloads.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}
