package cache

import (
	"context"
	"os"
	"path/filepath"
)

// Clearer is implemented by caches that can drop every entry they hold.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Clear removes every entry file and the emptied subdirectories.
func (c *FileCache) Clear(ctx context.Context) (int, error) {
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || path == c.dir {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() {
			if err := os.Remove(path); err == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return count, err
	}

	entries, _ := os.ReadDir(c.dir)
	for _, e := range entries {
		if e.IsDir() {
			_ = os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return count, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Clear deletes every image key. Scoped keys match as well.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	count := 0
	iter := c.client.Scan(ctx, 0, "*image:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return count, err
		}
		count++
	}
	return count, iter.Err()
}

// Clear does nothing.
func (NullCache) Clear(context.Context) (int, error) { return 0, nil }

var (
	_ Clearer = (*FileCache)(nil)
	_ Clearer = (*RedisCache)(nil)
	_ Clearer = NullCache{}
)
