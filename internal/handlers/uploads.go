package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidhub/backend/internal/apperr"
	"github.com/vidhub/backend/internal/assets"
)

const (
	// multipartMemory is how much of a multipart body is kept in memory before
	// the standard library spills to disk.
	multipartMemory = 8 << 20
	maxJSONBody     = 1 << 20
)

// UploadOptions controls where multipart files are staged.
type UploadOptions struct {
	Dir      string
	MaxBytes int64
}

// receiveFiles parses a multipart request and writes the requested file
// fields to the staging directory. Absent fields map to "". The caller owns
// the returned files.
func receiveFiles(w http.ResponseWriter, r *http.Request, opts UploadOptions, fields ...string) (map[string]string, error) {
	if opts.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.InvalidInput("upload exceeds the size limit")
		}
		return nil, apperr.InvalidInput("invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	saved := make(map[string]string, len(fields))
	for _, field := range fields {
		path, err := saveFormFile(r, field, opts.Dir)
		if err != nil {
			for _, p := range saved {
				assets.RemoveTemp(r.Context(), p)
			}
			return nil, err
		}
		saved[field] = path
	}
	return saved, nil
}

func saveFormFile(r *http.Request, field, dir string) (string, error) {
	src, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", apperr.InvalidInput(fmt.Sprintf("invalid %s file", field))
	}
	defer src.Close()

	if dir == "" {
		dir = os.TempDir()
	}
	dst, err := os.CreateTemp(dir, "upload-*"+safeExt(header.Filename))
	if err != nil {
		return "", apperr.Internal("", "unable to stage upload", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", apperr.Internal("", "unable to stage upload", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", apperr.Internal("", "unable to stage upload", err)
	}
	return dst.Name(), nil
}

// safeExt keeps a short alphanumeric extension from a client file name.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

// decodeJSON reads a JSON body. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.InvalidInput("invalid request body")
	}
	return nil
}
