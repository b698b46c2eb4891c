package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/matzehuels/canvasport/pkg/portable"
)

const metaSuffix = ".meta.json"

// FileStore keeps each bundle as <id>.json next to <id>.meta.json.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store in baseDir, creating it if needed.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("file store needs a directory")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create bundle dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) bundlePath(id string) string { return filepath.Join(s.baseDir, id+".json") }
func (s *FileStore) metaPath(id string) string   { return filepath.Join(s.baseDir, id+metaSuffix) }

// validID keeps ids from escaping the store directory.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *FileStore) Put(ctx context.Context, name string, b *portable.Bundle) (Record, error) {
	rec, data, err := encode(name, b)
	if err != nil {
		return Record{}, err
	}
	meta, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return Record{}, fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.bundlePath(rec.ID), data, 0600); err != nil {
		return Record{}, fmt.Errorf("write bundle file: %w", err)
	}
	if err := os.WriteFile(s.metaPath(rec.ID), meta, 0600); err != nil {
		os.Remove(s.bundlePath(rec.ID))
		return Record{}, fmt.Errorf("write record file: %w", err)
	}
	return rec, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*portable.Bundle, Record, error) {
	if !validID(id) {
		return nil, Record{}, notFound(id)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.readRecord(id)
	if err != nil {
		return nil, Record{}, err
	}
	data, err := os.ReadFile(s.bundlePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, Record{}, notFound(id)
		}
		return nil, Record{}, fmt.Errorf("read bundle file: %w", err)
	}
	b, err := decode(id, data)
	if err != nil {
		return nil, Record{}, err
	}
	return b, rec, nil
}

func (s *FileStore) readRecord(id string) (Record, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, notFound(id)
		}
		return Record{}, fmt.Errorf("read record file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse record %s: %w", id, err)
	}
	return rec, nil
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read bundle dir: %w", err)
	}
	var recs []Record
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		rec, err := s.readRecord(strings.TrimSuffix(name, metaSuffix))
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	sortRecords(recs)
	return recs, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.metaPath(id)); os.IsNotExist(err) {
		return notFound(id)
	}
	for _, path := range []string{s.bundlePath(id), s.metaPath(id)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the store directory.
func (s *FileStore) Path() string { return s.baseDir }

var _ Store = (*FileStore)(nil)
