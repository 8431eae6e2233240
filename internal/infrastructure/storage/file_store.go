// Package storage keeps backup archives in a local directory or an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	backupapp "github.com/dinarbooks/backend/internal/application/backup"
	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/spf13/afero"
)

// Ensure FileStore implements ObjectStore
var _ backupapp.ObjectStore = (*FileStore)(nil)

// FileStore keeps objects as files in one flat directory
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore creates the directory if needed
func NewFileStore(fsys afero.Fs, dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := fsys.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{fs: fsys, dir: dir}, nil
}

// NewOSFileStore creates a FileStore on the real filesystem
func NewOSFileStore(dir string) (*FileStore, error) {
	return NewFileStore(afero.NewOsFs(), dir)
}

func (s *FileStore) pathOf(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return path.Join(s.dir, key), nil
}

// Put writes to a temporary file and renames it into place
func (s *FileStore) Put(ctx context.Context, key string, body io.Reader, _ int64) error {
	p, err := s.pathOf(key)
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write object: %w", err)
	}
	return s.fs.Rename(tmp, p)
}

// Get opens an object for reading
func (s *FileStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.pathOf(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, shared.NewNotFoundError("backup", strings.TrimSuffix(key, ".zip"))
	}
	return f, err
}

// Exists reports whether the object is present
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.pathOf(key)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

// List returns the regular files of the directory, skipping partial writes
func (s *FileStore) List(ctx context.Context) ([]backupapp.StoredObject, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]backupapp.StoredObject, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() || strings.HasSuffix(fi.Name(), ".tmp") {
			continue
		}
		out = append(out, backupapp.StoredObject{Key: fi.Name(), Size: fi.Size(), ModifiedAt: fi.ModTime()})
	}
	return out, nil
}

// Delete removes an object
func (s *FileStore) Delete(ctx context.Context, key string) error {
	p, err := s.pathOf(key)
	if err != nil {
		return err
	}
	err = s.fs.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return shared.NewNotFoundError("backup", strings.TrimSuffix(key, ".zip"))
	}
	return err
}
