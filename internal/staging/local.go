package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalStore stages uploads in a directory on the portal host. Used
// when no object store is configured.
type LocalStore struct {
	dir string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put writes the content under a fresh key.
func (s *LocalStore) Put(ctx context.Context, fileName string, content io.Reader, size int64) (string, error) {
	key := uuid.New().String() + "/" + filepath.Base(fileName)
	local := filepath.Join(s.dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging subdirectory: %w", err)
	}
	f, err := os.Create(local)
	if err != nil {
		return "", fmt.Errorf("failed to stage '%s': %w", fileName, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	return key, nil
}

// Fetch returns the local path of a staged file.
func (s *LocalStore) Fetch(ctx context.Context, key string) (string, error) {
	local := filepath.Join(s.dir, filepath.FromSlash(key))
	if _, err := os.Stat(local); err != nil {
		return "", fmt.Errorf("staged object '%s' is missing: %w", key, err)
	}
	return local, nil
}

// Remove deletes the staged file.
func (s *LocalStore) Remove(ctx context.Context, key string) error {
	local := filepath.Join(s.dir, filepath.FromSlash(key))
	return os.RemoveAll(filepath.Dir(local))
}
