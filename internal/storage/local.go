package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// LocalStore implements the Store interface using local disk.
// It keeps export snapshots in a configurable directory and does not
// support S3 operations unless wrapped with S3Store.
type LocalStore struct {
	exportDir string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore creates a new LocalStore instance.
// The exportDir parameter specifies where snapshot files are kept.
// If exportDir is empty, a directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStore(exportDir string) (*LocalStore, error) {
	if exportDir == "" {
		exportDir = filepath.Join(os.TempDir(), "noisedesk-exports")
	}

	if err := os.MkdirAll(exportDir, 0750); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	return &LocalStore{exportDir: exportDir}, nil
}

// ExportDir returns the export directory path.
func (s *LocalStore) ExportDir() string {
	return s.exportDir
}

// SaveExport writes an export document to a snapshot file and returns the
// file path. The name is used as a base for the filename with a unique
// suffix.
func (s *LocalStore) SaveExport(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.exportDir, name+"_*.json")
	if err != nil {
		return "", fmt.Errorf("create snapshot file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write snapshot file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close snapshot file: %w", err)
	}

	return fileName, nil
}

// LoadExport reads a snapshot file and returns a reader.
// The caller is responsible for closing the returned ReadCloser.
func (s *LocalStore) LoadExport(ctx context.Context, path string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open snapshot file: %w", err)
	}

	return f, nil
}

// RemoveExports deletes the specified snapshot files.
// It continues even if some files fail to delete,
// returning the first error encountered.
func (s *LocalStore) RemoveExports(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove snapshot file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// UploadToS3 is not supported by LocalStore and returns ErrS3NotConfigured.
func (s *LocalStore) UploadToS3(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}
