// Package blob stores uploaded statement files on a filesystem.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileStore implements service.BlobStore over an afero filesystem, so tests
// run against an in-memory fs and production against the OS.
type FileStore struct {
	fs   afero.Fs
	root string
}

// NewFileStore stores blobs under root on the OS filesystem.
func NewFileStore(root string) *FileStore {
	return &FileStore{fs: afero.NewOsFs(), root: root}
}

// NewMemStore stores blobs in memory. For tests.
func NewMemStore() *FileStore {
	return &FileStore{fs: afero.NewMemMapFs(), root: "/blobs"}
}

// Save writes the blob under key, creating parent directories as needed. The
// content type is not persisted; callers keep it on the import batch.
func (f *FileStore) Save(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := f.fs.MkdirAll(filepath.Dir(p), 0750); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := afero.WriteFile(f.fs, p, data, 0640); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	return nil
}

// Open returns a reader over the stored blob.
func (f *FileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := f.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return file, nil
}

// Delete removes the stored blob.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.resolve(key)
	if err != nil {
		return err
	}
	if err := f.fs.Remove(p); err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// resolve maps a key to a path under root, rejecting keys that would escape
// it.
func (f *FileStore) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("blob key cannot be empty")
	}
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(f.root, filepath.FromSlash(clean)), nil
}
