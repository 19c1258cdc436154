// Package storage persists exported annotation snapshots. It defines the
// Store interface (port) with implementations for local disk and S3, so a
// deployment can keep export files on the host or push them to a bucket for
// sharing.
package storage

import (
	"context"
	"io"
)

// Store defines the interface for export snapshot storage.
// Implementations must handle local snapshot files and optionally support
// S3 uploads for sharing exports between deployments.
type Store interface {
	// SaveExport writes an export document to a snapshot file and returns
	// the file path. The name parameter is used as a hint for the filename.
	SaveExport(ctx context.Context, name string, data io.Reader) (path string, err error)

	// LoadExport reads a snapshot file and returns a reader.
	// The caller is responsible for closing the returned ReadCloser.
	LoadExport(ctx context.Context, path string) (io.ReadCloser, error)

	// RemoveExports deletes the specified snapshot files.
	// It continues even if some files fail to delete.
	RemoveExports(ctx context.Context, paths []string) error

	// UploadToS3 uploads an export document to S3 and returns the public
	// URL. Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
