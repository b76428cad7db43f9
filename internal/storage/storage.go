// Package storage puts reading photos somewhere the app can load them from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/config"
)

var ErrInvalidPath = errors.New("invalid object path")

// ObjectStore stores opaque blobs under slash-separated paths.
type ObjectStore interface {
	// Put stores data at path and returns the public URL.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// Delete removes path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

// New picks the implementation named by STORAGE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			BaseEndpoint:  cfg.S3BaseEndpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	case "local", "":
		return NewLocalStore(cfg.UploadsDir, cfg.PublicBaseURL)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// cleanPath rejects absolute paths and anything escaping the store root.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	if !filepath.IsLocal(filepath.FromSlash(p)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return filepath.ToSlash(filepath.Clean(filepath.FromSlash(p))), nil
}

func joinURL(base, p string) string {
	return strings.TrimRight(base, "/") + "/" + p
}
