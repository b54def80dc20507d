package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL path the stored photos are served under.
const PublicPrefix = "/uploads/"

//go:generate mockgen -source=blob_store.go -destination=mock/blob_store_mock.go -package=mock
type BlobStore interface {
	// Put stores r under name and returns the public URL.
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	// Delete removes the blob behind a URL returned by Put. Unknown URLs are
	// not an error.
	Delete(ctx context.Context, url string) error
}

type localStore struct {
	dir string
}

// NewLocalStore keeps blobs as plain files under dir.
func NewLocalStore(dir string) BlobStore {
	return &localStore{dir: dir}
}

func (s *localStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close blob: %w", err)
	}

	return PublicPrefix + filepath.Base(path), nil
}

func (s *localStore) Delete(ctx context.Context, url string) error {
	name, ok := strings.CutPrefix(url, PublicPrefix)
	if !ok || name == "" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
