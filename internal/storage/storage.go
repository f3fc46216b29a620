// Package storage holds the object-store backends that keep uploaded media.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vidhub/backend/internal/config"
)

// ObjectStore uploads and removes blobs by key.
type ObjectStore interface {
	// Save uploads r under key and returns the public location of the object.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// New constructs the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "s3":
		return NewS3Storage(ctx, cfg)
	case "minio":
		return NewMinioStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func publicURL(baseURL, key string) string {
	if baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", baseURL, key)
}
