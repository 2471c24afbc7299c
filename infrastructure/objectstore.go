package infrastructure

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalObjectStore keeps uploaded files on disk. The surrounding retention
// policy owns deletion; this core only writes.
type LocalObjectStore struct {
	dir string
}

func NewLocalObjectStore(dir string) (*LocalObjectStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalObjectStore{dir: dir}, nil
}

func (s *LocalObjectStore) Save(_ context.Context, key string, data []byte) (string, error) {
	path := filepath.Join(s.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func (s *LocalObjectStore) Load(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}
