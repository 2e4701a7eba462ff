package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
)

// LocalUploadStore keeps uploaded artifacts in a directory on disk
type LocalUploadStore struct {
	dir string
}

// Ensure LocalUploadStore implements domain.UploadStore
var _ domain.UploadStore = (*LocalUploadStore)(nil)

// NewLocalUploadStore creates the upload directory if needed
func NewLocalUploadStore(dir string) (*LocalUploadStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalUploadStore{dir: dir}, nil
}

// Save writes data to name, replacing any previous file
func (s *LocalUploadStore) Save(ctx context.Context, name string, data io.Reader) error {
	if err := validateName(name); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write upload file: %w", err)
	}
	return f.Sync()
}

// Open returns a stream over the stored artifact
func (s *LocalUploadStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open upload %q: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("open upload %q: %w", name, err)
	}
	return f, nil
}

// Remove deletes the artifact. Removing a missing artifact is not an error.
func (s *LocalUploadStore) Remove(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove upload %q: %w", name, err)
	}
	return nil
}
