package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores media under a root directory on the local filesystem.
// Keys map directly to paths below the root; URL returns the web path the
// storefront serves the root under.
type LocalStorage struct {
	root      string
	publicURL string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	Root      string
	PublicURL string // web path prefix, e.g. "/products"
}

// NewLocalStorage creates a local media store rooted at cfg.Root.
func NewLocalStorage(cfg *LocalConfig) (*LocalStorage, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{
		root:      cfg.Root,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// Root returns the filesystem root of the store.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Write stores an object, creating parent directories as needed.
func (s *LocalStorage) Write(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	dest := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close media file: %w", err)
	}
	return nil
}

// Exists checks whether an object exists.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	info, err := os.Stat(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

// List returns the keys of every file directly under the given key prefix.
func (s *LocalStorage) List(ctx context.Context, prefix string) ([]string, error) {
	dir := s.path(prefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys = append(keys, strings.TrimSuffix(prefix, "/")+"/"+entry.Name())
	}
	return keys, nil
}

// Delete removes an object.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the storefront-facing web path for an object.
func (s *LocalStorage) URL(key string) string {
	return s.publicURL + "/" + key
}
