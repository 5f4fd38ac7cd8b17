// Package jsonfile stores the suffix catalog as a human-readable JSON document.
package jsonfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/haukened/domainparser/internal/domainparser/domain"
	"github.com/haukened/domainparser/internal/domainparser/repos/catalog"
)

// fileStore implements catalog.Store on a single JSON file.
// Saves go through a temporary file in the same directory and a rename, so readers
// never observe a partially written cache.
type fileStore struct {
	path string
}

// New returns a Store backed by the JSON file at path. The file need not exist yet.
func New(path string) catalog.Store {
	return &fileStore{path: path}
}

func (s *fileStore) Load() (*domain.Catalog, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	cat, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache file %s: %w", s.path, err)
	}
	return cat, nil
}

func (s *fileStore) Save(cat *domain.Catalog) error {
	b, err := encode(cat)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *fileStore) Close() error { return nil }

var _ catalog.Store = (*fileStore)(nil)
