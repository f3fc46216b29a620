package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/vidhub/backend/internal/config"
)

func TestNewRejectsUnknownBackend(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Backend: "ftp", Bucket: "b"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewMinioStorageValidation(t *testing.T) {
	if _, err := NewMinioStorage(config.StorageConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Fatal("expected error for missing bucket")
	}
	if _, err := NewMinioStorage(config.StorageConfig{Bucket: "media"}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}

func TestNewMinioStorageDerivesPublicURL(t *testing.T) {
	s, err := NewMinioStorage(config.StorageConfig{
		Endpoint:  "localhost:9000",
		Bucket:    "media",
		AccessKey: "key",
		SecretKey: "secret",
	})
	if err != nil {
		t.Fatalf("NewMinioStorage() error = %v", err)
	}
	if got := publicURL(s.baseURL, "videos/a.mp4"); got != "http://localhost:9000/media/videos/a.mp4" {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestS3StorageEmptyKey(t *testing.T) {
	s := &S3Storage{bucket: "media"}
	if _, err := s.Save(context.Background(), "/", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if err := s.Delete(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}
