// Package storage keeps exported bundles for later import.
//
// Three backends implement [Store]:
//   - file: one JSON file per bundle plus a small metadata file (CLI default)
//   - sqlite: a single database file (modernc.org/sqlite, no cgo)
//   - mongo: a MongoDB collection for shared deployments
//
// Bundles are stored in their canonical JSON encoding. Records carry the
// bundle metadata so listings never decode bundle bodies.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/canvasport/pkg/errors"
	"github.com/matzehuels/canvasport/pkg/portable"
)

// Record describes a stored bundle.
type Record struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Document   string    `json:"document,omitempty" bson:"document,omitempty"`
	Target     string    `json:"target,omitempty" bson:"target,omitempty"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	NodeCount  int       `json:"node_count" bson:"node_count"`
	AssetCount int       `json:"asset_count" bson:"asset_count"`
	Size       int       `json:"size" bson:"size"`
}

// Store is the interface for bundle storage backends.
type Store interface {
	// Put stores b under a new id and returns its record.
	Put(ctx context.Context, name string, b *portable.Bundle) (Record, error)

	// Get returns the bundle with id. Unknown ids are BUNDLE_NOT_FOUND errors.
	Get(ctx context.Context, id string) (*portable.Bundle, Record, error)

	// List returns every record, newest first.
	List(ctx context.Context) ([]Record, error)

	// Delete removes the bundle with id. Unknown ids are BUNDLE_NOT_FOUND errors.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend       string
	Path          string
	MongoURI      string
	MongoDatabase string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "file":
		return NewFileStore(opts.Path)
	case "sqlite":
		return NewSQLiteStore(ctx, opts.Path)
	case "mongo":
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase)
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}

// encode validates b and returns its JSON form with a new record.
func encode(name string, b *portable.Bundle) (Record, []byte, error) {
	if err := b.Validate(); err != nil {
		return Record{}, nil, err
	}
	var buf bytes.Buffer
	if err := portable.WriteJSON(b, &buf); err != nil {
		return Record{}, nil, fmt.Errorf("encode bundle: %w", err)
	}
	if name == "" {
		name = b.Metadata.Document
	}
	rec := Record{
		ID:         uuid.NewString(),
		Name:       name,
		Document:   b.Metadata.Document,
		Target:     b.Metadata.Target,
		CreatedAt:  time.Now().UTC(),
		NodeCount:  portable.Count(b.Nodes),
		AssetCount: len(b.Assets),
		Size:       buf.Len(),
	}
	return rec, buf.Bytes(), nil
}

func decode(id string, data []byte) (*portable.Bundle, error) {
	b, err := portable.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode bundle %s: %w", id, err)
	}
	return b, nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeBundleNotFound, "bundle %s not found", id)
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
