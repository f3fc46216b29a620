// Package assets uploads media files to the object store and removes them again.
package assets

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/vidhub/backend/internal/logging"
	"github.com/vidhub/backend/internal/metrics"
	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/storage"
)

// Kind distinguishes the two classes of media held remotely.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

func (k Kind) prefix() string {
	if k == KindVideo {
		return "videos"
	}
	return "images"
}

// ErrEmptyPath is returned when Upload is called without a local file.
var ErrEmptyPath = errors.New("asset path must be provided")

// Uploaded describes an object written to the asset store.
type Uploaded struct {
	URL      string
	PublicID string
	// Duration is reported in seconds for videos and zero for images.
	Duration float64
}

// Asset returns the persisted reference for the upload.
func (u Uploaded) Asset() models.Asset {
	return models.Asset{URL: u.URL, PublicID: u.PublicID}
}

// Store is the asset store contract consumed by services.
type Store interface {
	// Upload sends the local file to remote storage. The local file is removed
	// whether or not the upload succeeds.
	Upload(ctx context.Context, localPath string, kind Kind) (Uploaded, error)
	Delete(ctx context.Context, publicID string, kind Kind) error
}

// DurationProber reports the playback length of a local media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Client implements Store on top of an object store backend.
type Client struct {
	objects storage.ObjectStore
	prober  DurationProber
	metrics *metrics.Metrics
	newKey  func() string
}

var _ Store = (*Client)(nil)

// NewClient constructs a Client. prober and m may be nil.
func NewClient(objects storage.ObjectStore, prober DurationProber, m *metrics.Metrics) *Client {
	if objects == nil {
		panic("assets: object store must not be nil")
	}
	return &Client{
		objects: objects,
		prober:  prober,
		metrics: m,
		newKey:  uuid.NewString,
	}
}

// Upload stores the file at localPath under a fresh key and returns its reference.
func (c *Client) Upload(ctx context.Context, localPath string, kind Kind) (uploaded Uploaded, err error) {
	if strings.TrimSpace(localPath) == "" {
		return Uploaded{}, ErrEmptyPath
	}
	defer RemoveTemp(ctx, localPath)
	defer func() { c.metrics.AssetOperation("upload", string(kind), err) }()

	file, err := os.Open(localPath)
	if err != nil {
		return Uploaded{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Uploaded{}, fmt.Errorf("stat upload: %w", err)
	}

	var duration float64
	if kind == KindVideo && c.prober != nil {
		duration, err = c.prober.Duration(ctx, localPath)
		if err != nil {
			logging.FromContext(ctx).Warn("probe video duration", "path", localPath, "error", err)
			duration, err = 0, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(localPath))
	key := fmt.Sprintf("%s/%s%s", kind.prefix(), c.newKey(), ext)
	contentType := contentTypeFor(ext)

	url, err := c.objects.Save(ctx, key, file, info.Size(), contentType)
	if err != nil {
		return Uploaded{}, fmt.Errorf("store %s: %w", kind, err)
	}

	return Uploaded{URL: url, PublicID: key, Duration: duration}, nil
}

// Delete removes a previously uploaded object. An empty publicID is a no-op.
func (c *Client) Delete(ctx context.Context, publicID string, kind Kind) (err error) {
	if publicID == "" {
		return nil
	}
	defer func() { c.metrics.AssetOperation("delete", string(kind), err) }()

	if err := c.objects.Delete(ctx, publicID); err != nil {
		return fmt.Errorf("delete %s %q: %w", kind, publicID, err)
	}
	return nil
}

var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
}

func contentTypeFor(ext string) string {
	if ct, ok := mediaTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
