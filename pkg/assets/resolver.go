package assets

import (
	"context"

	"github.com/matzehuels/canvasport/pkg/errors"
)

// ImageCreator registers image bytes with the host and returns its handle.
type ImageCreator interface {
	CreateImage(ctx context.Context, data []byte) (string, error)
}

// Resolver maps bundle file names to host image handles during one import.
type Resolver struct {
	files   map[string][]byte
	host    ImageCreator
	handles map[string]string
}

// NewResolver returns a resolver over the bundle's asset table.
func NewResolver(files map[string][]byte, host ImageCreator) *Resolver {
	return &Resolver{
		files:   files,
		host:    host,
		handles: make(map[string]string),
	}
}

// Resolve returns the host handle for file, registering the bytes with the
// host on first use. Missing files and host failures are ASSET_RESOLUTION
// errors; a failed registration is retried on the next call.
func (r *Resolver) Resolve(ctx context.Context, file string) (string, error) {
	if h, ok := r.handles[file]; ok {
		return h, nil
	}
	data, ok := r.files[file]
	if !ok || len(data) == 0 {
		return "", errors.New(errors.ErrCodeAssetResolution, "asset %s not in bundle", file)
	}
	h, err := r.host.CreateImage(ctx, data)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAssetResolution, err, "register asset %s", file)
	}
	r.handles[file] = h
	return h, nil
}

// Registered returns how many distinct files were registered with the host.
func (r *Resolver) Registered() int { return len(r.handles) }
