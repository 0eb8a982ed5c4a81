package storage

import (
	"context"
	"fmt"

	"mediashare/internal/config"
)

// Open builds the backend named by cfg.Driver and makes sure its bucket exists.
func Open(ctx context.Context, cfg config.StorageConfig) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Driver {
	case "minio":
		backend, err = NewMinioBackend(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.Region, cfg.UseSSL)
	case "s3":
		backend, err = NewS3Backend(ctx, S3Config{
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
			UseSSL:    cfg.UseSSL,
		})
	case "memory":
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}
	return backend, nil
}
