package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"
)

// entryMagic starts every file cache entry. The 8 bytes that follow hold
// the expiry as big-endian Unix nanoseconds (zero for none), then the value.
var entryMagic = []byte("CPC1")

const headerLen = 4 + 8

// FileCache keeps one file per entry under a directory. Image payloads are
// stored raw so a cached PNG costs its own size on disk.
type FileCache struct {
	dir string
	now func() time.Time
}

// NewFileCache creates dir if needed and returns a cache rooted there.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir, now: time.Now}, nil
}

// Get reads key. Unreadable and expired entries are removed and reported
// as misses.
func (c *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	p := c.path(key)
	raw, err := os.ReadFile(p)
	switch {
	case os.IsNotExist(err):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}

	data, expires, ok := decodeEntry(raw)
	if !ok || (!expires.IsZero() && c.now().After(expires)) {
		_ = os.Remove(p)
		return nil, false, nil
	}
	return data, true, nil
}

// Set writes key through a temp file so readers never see a partial entry.
func (c *FileCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	p := c.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(encodeEntry(data, expires)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Delete removes key. A missing key is not an error.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

// path fans entries out over 256 subdirectories by key hash.
func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:]+".bin")
}

func encodeEntry(data []byte, expires time.Time) []byte {
	buf := make([]byte, headerLen, headerLen+len(data))
	copy(buf, entryMagic)
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(buf[4:headerLen], uint64(expires.UnixNano()))
	}
	return append(buf, data...)
}

func decodeEntry(raw []byte) (data []byte, expires time.Time, ok bool) {
	if len(raw) < headerLen || !bytes.Equal(raw[:4], entryMagic) {
		return nil, time.Time{}, false
	}
	if ns := binary.BigEndian.Uint64(raw[4:headerLen]); ns != 0 {
		expires = time.Unix(0, int64(ns))
	}
	return raw[headerLen:], expires, true
}

var _ Cache = (*FileCache)(nil)
