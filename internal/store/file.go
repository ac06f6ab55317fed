package store

import (
	"context"
	"os"
	"path/filepath"
)

// File persists one JSON document per key under a data directory. It is the
// default backend and mirrors the single-writer local storage the data layout
// was designed for.
type File struct {
	dir string
}

// NewFile creates the data directory if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Get reads a key; a missing file is an absent key, not an error.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes via a temp file and rename so a crash mid-write cannot leave a
// half-written document behind.
func (f *File) Set(_ context.Context, key, value string) error {
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path(key))
}

// Delete removes a key; deleting an absent key is a no-op.
func (f *File) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Healthy verifies the data directory is still writable.
func (f *File) Healthy(_ context.Context) bool {
	info, err := os.Stat(f.dir)
	return err == nil && info.IsDir()
}

// Close is a no-op for the file backend.
func (f *File) Close() error { return nil }
