package counter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FileStore keeps the count as a plain-text integer file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns 0 when the file does not exist.
func (f *FileStore) Load(ctx context.Context) (int64, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", f.path, err)
	}
	return ParseCount(string(data)), nil
}

// Save overwrites the file with n.
func (f *FileStore) Save(ctx context.Context, n int64) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create counter dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, []byte(strconv.FormatInt(n, 10)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}
