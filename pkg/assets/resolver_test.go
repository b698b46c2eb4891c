package assets

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/matzehuels/canvasport/pkg/errors"
)

type fakeHost struct {
	created [][]byte
	fail    bool
}

func (h *fakeHost) CreateImage(_ context.Context, data []byte) (string, error) {
	if h.fail {
		return "", stderrors.New("host rejected image")
	}
	h.created = append(h.created, data)
	return fmt.Sprintf("handle-%d", len(h.created)), nil
}

func TestResolverRegistersOnce(t *testing.T) {
	ctx := context.Background()
	host := &fakeHost{}
	r := NewResolver(map[string][]byte{"img/image_1.png": []byte("A")}, host)

	h1, err := r.Resolve(ctx, "img/image_1.png")
	if err != nil {
		t.Fatal(err)
	}
	h2, err := r.Resolve(ctx, "img/image_1.png")
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 || h1 != "handle-1" {
		t.Errorf("handles = %q, %q", h1, h2)
	}
	if len(host.created) != 1 {
		t.Errorf("CreateImage called %d times, want 1", len(host.created))
	}
	if r.Registered() != 1 {
		t.Errorf("Registered = %d", r.Registered())
	}
}

func TestResolverMissingFile(t *testing.T) {
	r := NewResolver(map[string][]byte{}, &fakeHost{})
	_, err := r.Resolve(context.Background(), "img/image_9.png")
	if !errors.Is(err, errors.ErrCodeAssetResolution) {
		t.Errorf("err = %v, want ASSET_RESOLUTION", err)
	}
}

func TestResolverHostFailure(t *testing.T) {
	host := &fakeHost{fail: true}
	r := NewResolver(map[string][]byte{"img/image_1.png": []byte("A")}, host)
	if _, err := r.Resolve(context.Background(), "img/image_1.png"); !errors.Is(err, errors.ErrCodeAssetResolution) {
		t.Fatalf("err = %v, want ASSET_RESOLUTION", err)
	}

	host.fail = false
	if _, err := r.Resolve(context.Background(), "img/image_1.png"); err != nil {
		t.Errorf("retry after host failure: %v", err)
	}
}
