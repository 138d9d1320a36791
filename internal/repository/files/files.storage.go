// FilePath: internal/repository/files/files.storage.go
package files

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardiwira/greenhouse-hub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

const defaultPermissions = 0755

// Store keeps export artifacts on local disk under a single base path. All
// paths handed to it are storage-relative; anything escaping the root is
// rejected.
type Store struct {
	basePath string
}

// NewStore creates the storage root if needed and returns the store.
func NewStore(basePath string) (*Store, error) {
	if err := createDirectoryIfNotExists(basePath); err != nil {
		return nil, err
	}
	return &Store{basePath: basePath}, nil
}

// Save writes r to relPath, creating parent directories, and returns the
// number of bytes written. An existing file at the same path is replaced.
func (s *Store) Save(ctx context.Context, relPath string, r io.Reader) (int64, error) {
	absPath, err := s.resolve(relPath)
	if err != nil {
		return 0, err
	}
	if err := createDirectoryIfNotExists(filepath.Dir(absPath)); err != nil {
		return 0, err
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return 0, errors.NewStorageError("failed to create storage file", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, r)
	if err != nil {
		return 0, errors.NewStorageError("failed to write storage file", err)
	}

	nuts.L.Infof("[FileStore] Stored %s (%d bytes)", relPath, written)
	return written, nil
}

// Open returns a reader over the stored object and its size.
func (s *Store) Open(ctx context.Context, relPath string) (io.ReadCloser, int64, error) {
	absPath, err := s.resolve(relPath)
	if err != nil {
		return nil, 0, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.NewFileMissingError("stored file is missing", err)
		}
		return nil, 0, errors.NewStorageError("failed to stat storage file", err)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, 0, errors.NewStorageError("failed to open storage file", err)
	}
	return f, info.Size(), nil
}

// Remove deletes the stored object. A missing file is not an error; delete
// must succeed even when only the registry row is left.
func (s *Store) Remove(ctx context.Context, relPath string) error {
	absPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("failed to remove storage file", err)
	}
	return nil
}

// Exists reports whether the stored object is present.
func (s *Store) Exists(relPath string) bool {
	absPath, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(absPath)
	return statErr == nil
}

func (s *Store) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", errors.NewValidationError("invalid storage path", nil)
	}
	return filepath.Join(s.basePath, cleaned), nil
}

func createDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(path, defaultPermissions); err != nil {
			return errors.NewStorageError("failed to create directory", err)
		}
	}
	return nil
}
