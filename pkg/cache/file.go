package cache

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"k8s.io/utils/clock"
)

// FileCache stores entries as files below a directory, fanned out by the
// first two hex digits of the hashed key. Each file starts with one header
// line holding the expiry in Unix nanoseconds (0 for none) followed by the
// raw artifact bytes, so cached SVG stays readable on disk.
type FileCache struct {
	dir   string
	clock clock.PassiveClock
}

// NewFileCache creates a file cache in dir, creating the directory if needed.
func NewFileCache(dir string) (Cache, error) {
	return NewFileCacheWithClock(dir, clock.RealClock{})
}

// NewFileCacheWithClock creates a file cache that reads time from clk.
func NewFileCacheWithClock(dir string, clk clock.PassiveClock) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, clock: clk}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Get returns the entry for key. Unreadable and expired entries are removed
// and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	expires, data, ok := splitEntry(raw)
	if !ok || (!expires.IsZero() && c.clock.Now().After(expires)) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set writes the entry through a temporary file so readers never see a
// partial artifact.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = c.clock.Now().Add(ttl).UnixNano()
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	w.WriteString(strconv.FormatInt(expires, 10))
	w.WriteByte('\n')
	w.Write(data)
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the entry for key. Missing entries are not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Close is a no-op; entries stay on disk.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:])
}

func splitEntry(raw []byte) (time.Time, []byte, bool) {
	header, data, found := bytes.Cut(raw, []byte{'\n'})
	if !found {
		return time.Time{}, nil, false
	}
	nanos, err := strconv.ParseInt(string(header), 10, 64)
	if err != nil {
		return time.Time{}, nil, false
	}
	if nanos == 0 {
		return time.Time{}, data, true
	}
	return time.Unix(0, nanos), data, true
}

var _ Cache = (*FileCache)(nil)
