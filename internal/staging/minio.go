package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MinioStore stages uploads in a MinIO bucket, keeping a scratch
// directory for the local copies that loaders read.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	scratchDir string
}

var _ Store = (*MinioStore)(nil)

// NewMinioStore creates a MinioStore using scratchDir for local copies.
func NewMinioStore(client *minio.Client, bucket, scratchDir string) (*MinioStore, error) {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &MinioStore{client: client, bucket: bucket, scratchDir: scratchDir}, nil
}

// Put uploads the content under a fresh key. The original file name is
// kept as the key suffix so format detection by extension still works.
func (s *MinioStore) Put(ctx context.Context, fileName string, content io.Reader, size int64) (string, error) {
	key := uuid.New().String() + "/" + filepath.Base(fileName)
	_, err := s.client.PutObject(ctx, s.bucket, key, content, size, minio.PutObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to stage '%s': %w", fileName, err)
	}
	return key, nil
}

// Fetch downloads the object into the scratch directory.
func (s *MinioStore) Fetch(ctx context.Context, key string) (string, error) {
	local := filepath.Join(s.scratchDir, filepath.FromSlash(key))
	if err := s.client.FGetObject(ctx, s.bucket, key, local, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("failed to fetch staged object '%s': %w", key, err)
	}
	return local, nil
}

// Remove deletes the staged object and its local copy.
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	local := filepath.Join(s.scratchDir, filepath.FromSlash(key))
	_ = os.RemoveAll(filepath.Dir(local))

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove staged object '%s': %w", key, err)
	}
	return nil
}
