// Package storage provides the object storage adapters used to fetch vector
// store files before validation opens them locally.
package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobrunner/geolint/internal/domain"
)

// isStoreFile reports whether an object key names a vector store file.
// Everything else in a bucket or directory is ignored.
func isStoreFile(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), ".gpkg")
}

// relKey strips the configured prefix from an object key.
func relKey(key, prefix string) string {
	key = strings.TrimPrefix(key, prefix)
	return strings.TrimPrefix(key, "/")
}

// joinKey prepends the configured prefix to an object key.
func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}

// writeToFile streams an object body into a local file, creating the parent
// directory as needed.
func writeToFile(dest string, body io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return err
	}

	f, err := os.Create(dest) //#nosec G304 -- dest is a controlled local path
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = io.Copy(f, body)
	return err
}

// downloadErr wraps a failure fetching one object.
func downloadErr(key string, err error) error {
	return &domain.StorageError{Operation: "download", Key: key, Err: err}
}

// listErr wraps a failure listing the storage.
func listErr(err error) error {
	return &domain.StorageError{Operation: "list", Err: err}
}
