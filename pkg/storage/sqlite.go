package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/canvasport/pkg/portable"
)

const schema = `
CREATE TABLE IF NOT EXISTS bundles (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	document    TEXT NOT NULL DEFAULT '',
	target      TEXT NOT NULL DEFAULT '',
	created_at  INTEGER NOT NULL,
	node_count  INTEGER NOT NULL,
	asset_count INTEGER NOT NULL,
	size        INTEGER NOT NULL,
	data        BLOB NOT NULL
)`

const recordColumns = "id, name, document, target, created_at, node_count, asset_count, size"

// SQLiteStore keeps bundles in one SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store needs a database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, name string, b *portable.Bundle) (Record, error) {
	rec, data, err := encode(name, b)
	if err != nil {
		return Record{}, err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO bundles ("+recordColumns+", data) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, rec.Name, rec.Document, rec.Target, rec.CreatedAt.UnixNano(),
		rec.NodeCount, rec.AssetCount, rec.Size, data)
	if err != nil {
		return Record{}, fmt.Errorf("insert bundle: %w", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner, extra ...any) (Record, error) {
	var rec Record
	var created int64
	dest := append([]any{&rec.ID, &rec.Name, &rec.Document, &rec.Target, &created,
		&rec.NodeCount, &rec.AssetCount, &rec.Size}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Record{}, err
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*portable.Bundle, Record, error) {
	var data []byte
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+", data FROM bundles WHERE id = ?", id)
	rec, err := scanRecord(row, &data)
	if err == sql.ErrNoRows {
		return nil, Record{}, notFound(id)
	}
	if err != nil {
		return nil, Record{}, fmt.Errorf("query bundle: %w", err)
	}
	b, err := decode(id, data)
	if err != nil {
		return nil, Record{}, err
	}
	return b, rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM bundles")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	sortRecords(recs)
	return recs, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bundles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete bundle: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
