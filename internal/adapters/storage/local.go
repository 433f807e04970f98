package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/jobrunner/geolint/internal/ports/output"
)

// LocalStorage implements ObjectStorage for a local directory of vector
// store files.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage adapter.
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// List returns all vector store files under the base directory.
func (s *LocalStorage) List(_ context.Context) ([]output.StorageObject, error) {
	var objects []output.StorageObject

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isStoreFile(info.Name()) {
			return nil
		}

		rel, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		objects = append(objects, output.StorageObject{
			Key:          rel,
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, listErr(err)
	}

	return objects, nil
}

// Download copies a file to the destination. When source and destination are
// the same path there is nothing to do.
func (s *LocalStorage) Download(_ context.Context, key string, dest string) error {
	srcPath := filepath.Join(s.basePath, key)
	if srcPath == dest {
		return nil
	}

	src, err := os.Open(srcPath) //#nosec G304 -- key comes from our own List
	if err != nil {
		return downloadErr(key, err)
	}
	defer func() { _ = src.Close() }()

	if err := writeToFile(dest, src); err != nil {
		return downloadErr(key, err)
	}
	return nil
}

// GetReader returns a reader for the given file.
func (s *LocalStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(s.basePath, key)) //#nosec G304 -- key comes from our own List
}

// Exists checks if a file exists.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.basePath, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// FullPath returns the full path for a key.
func (s *LocalStorage) FullPath(key string) string {
	return filepath.Join(s.basePath, key)
}
