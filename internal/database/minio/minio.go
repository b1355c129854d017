package minio

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docuchat/internal/config"
)

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// GetClient initializes and returns the singleton MinIO client. The
// connection is verified once for the lifetime of the process, and the
// configured bucket is created if it does not exist yet.
func GetClient(ctx context.Context, cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
		})
		if err != nil {
			initErr = fmt.Errorf("failed to create minio client: %w", err)
			return
		}

		exists, err := c.BucketExists(ctx, cfg.Bucket)
		if err != nil {
			initErr = fmt.Errorf("minio connectivity check failed: %w", err)
			return
		}
		if !exists {
			if err := c.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
				initErr = fmt.Errorf("failed to create bucket '%s': %w", cfg.Bucket, err)
				return
			}
		}
		client = c
	})

	return client, initErr
}

// HealthCheck verifies the MinIO connection.
func HealthCheck(ctx context.Context, bucket string) error {
	if client == nil {
		return fmt.Errorf("minio client is not initialized")
	}
	if _, err := client.BucketExists(ctx, bucket); err != nil {
		return fmt.Errorf("minio health check failed: %w", err)
	}
	return nil
}
