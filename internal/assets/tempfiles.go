package assets

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/vidhub/backend/internal/logging"
)

// RemoveTemp deletes local upload files. Failures are logged and otherwise ignored.
func RemoveTemp(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove temp file", "path", p, "error", err)
		}
	}
}

// TempFiles tracks local uploads a request still owns. Cleanup removes every
// file that was not handed off with Release.
type TempFiles struct {
	paths []string
}

// NewTempFiles starts tracking the given paths. Empty paths are ignored.
func NewTempFiles(paths ...string) *TempFiles {
	t := &TempFiles{}
	for _, p := range paths {
		if p != "" {
			t.paths = append(t.paths, p)
		}
	}
	return t
}

// Release stops tracking path, typically because Upload now owns it.
func (t *TempFiles) Release(path string) string {
	for i, p := range t.paths {
		if p == path {
			t.paths = append(t.paths[:i], t.paths[i+1:]...)
			break
		}
	}
	return path
}

// Cleanup removes every tracked file.
func (t *TempFiles) Cleanup(ctx context.Context) {
	RemoveTemp(ctx, t.paths...)
	t.paths = nil
}
