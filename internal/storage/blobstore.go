// Package storage provides the persistence backends for focuslog's work log:
// a directory of flat files and a Redis keyspace. Both store opaque blobs
// under string keys.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrNotFound is returned by Get when no blob exists for the key.
var ErrNotFound = errors.New("blob not found")

// BlobStore reads and writes whole blobs by key.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var validKey = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}

type fileBlobStore struct {
	dir string
}

// NewFileBlobStore creates a BlobStore keeping one file per key under
// basePath/store. Writes go through a temp file and rename, serialized
// across processes by a flock on store/.lock.
func NewFileBlobStore(basePath string) BlobStore {
	return &fileBlobStore{dir: filepath.Join(basePath, "store")}
}

func (s *fileBlobStore) path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *fileBlobStore) lock() (func() error, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return lockFile(filepath.Join(s.dir, ".lock"))
}

func (s *fileBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (s *fileBlobStore) Put(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.lock()
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	defer unlock()

	path := s.path(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: writing temp file: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing %s: renaming: %w", key, err)
	}
	return nil
}

func (s *fileBlobStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.lock()
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	defer unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *fileBlobStore) Close() error { return nil }
