package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/scene"
)

func sampleBundle(doc string) *portable.Bundle {
	b := portable.New()
	b.Metadata.Document = doc
	b.Metadata.Target = "page"
	b.Nodes = []*portable.Node{{
		ID: "F", Name: "Frame", Kind: scene.KindFrame, Width: 100, Height: 100,
		Children: []*portable.Node{{
			ID: "R", Name: "Photo", Kind: scene.KindRectangle, Width: 10, Height: 10,
			Props: scene.Props{scene.PropFills: []scene.Paint{{Type: scene.PaintImage, ScaleMode: "FILL"}}},
			Image: &portable.ImageRef{File: "img/image_1.png", Slot: portable.SlotFills},
		}},
	}}
	b.Assets["img/image_1.png"] = []byte("png-bytes")
	return b
}

func runStoreTests(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	first, err := s.Put(ctx, "first", sampleBundle("Landing"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if first.ID == "" || first.NodeCount != 2 || first.AssetCount != 1 || first.Size == 0 {
		t.Errorf("record = %+v", first)
	}
	if first.Document != "Landing" || first.Target != "page" {
		t.Errorf("record metadata = %+v", first)
	}

	second, err := s.Put(ctx, "", sampleBundle("Checkout"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if second.Name != "Checkout" {
		t.Errorf("unnamed bundle got name %q, want document name", second.Name)
	}

	b, rec, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.ID != first.ID || rec.Name != "first" {
		t.Errorf("Get record = %+v", rec)
	}
	if string(b.Assets["img/image_1.png"]) != "png-bytes" || b.Nodes[0].Children[0].Image == nil {
		t.Errorf("bundle not restored: %+v", b)
	}

	recs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("List = %d records", len(recs))
	}
	if recs[0].CreatedAt.Before(recs[1].CreatedAt) {
		t.Errorf("List not newest first: %v then %v", recs[0].CreatedAt, recs[1].CreatedAt)
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := s.Get(ctx, first.ID); !errors.Is(err, errors.ErrCodeBundleNotFound) {
		t.Errorf("Get after Delete = %v, want BUNDLE_NOT_FOUND", err)
	}
	if err := s.Delete(ctx, first.ID); !errors.Is(err, errors.ErrCodeBundleNotFound) {
		t.Errorf("second Delete = %v, want BUNDLE_NOT_FOUND", err)
	}

	invalid := portable.New()
	invalid.Version = 0
	if _, err := s.Put(ctx, "bad", invalid); !errors.Is(err, errors.ErrCodeInvalidMessage) {
		t.Errorf("Put invalid = %v, want INVALID_MESSAGE", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Get(context.Background(), "../../etc/passwd"); !errors.Is(err, errors.ErrCodeBundleNotFound) {
		t.Errorf("Get = %v, want BUNDLE_NOT_FOUND", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "db", "bundles.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	runStoreTests(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, Options{Backend: "file", Path: dir})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("Open file = %T", s)
	}
	s.Close()

	s, err = Open(ctx, Options{Backend: "sqlite", Path: filepath.Join(dir, "b.db")})
	if err != nil {
		t.Fatalf("Open sqlite: %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("Open sqlite = %T", s)
	}
	s.Close()

	if _, err := Open(ctx, Options{Backend: "s3"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
