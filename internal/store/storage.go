package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Storage is the minimal synchronous key-value surface the history store
// persists through. Keys are opaque names, values whole serialized blobs.
type Storage interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileStorage keeps each key as one JSON file under a directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates the directory if needed and returns a store rooted there.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get reads the blob under key; a missing key is not an error.
func (s *FileStorage) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set overwrites the blob under key in a single write.
func (s *FileStorage) Set(key string, value []byte) error {
	return os.WriteFile(s.path(key), value, 0o600)
}

// Delete removes the blob under key; deleting a missing key is a no-op.
func (s *FileStorage) Delete(key string) error {
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
