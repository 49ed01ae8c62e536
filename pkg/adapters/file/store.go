// Package file provides a snapshot store on the local filesystem. It is
// the default store for unsaved-work recovery: snapshots survive the
// editor process without any external service.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
)

// DefaultBasePath is where snapshots land when no base path is configured.
var DefaultBasePath = filepath.Join(".quire", "snapshots")

// Store implements ports.SnapshotStore using the local filesystem.
// It stores snapshots as .ipynb files in a configured directory.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path. If basePath is empty,
// it defaults to DefaultBasePath.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.BasePath, id+nbformat.Extension)
}

// Save persists the snapshot to an .ipynb file atomically. It writes to a
// temporary file first, syncs via fsync, and then renames it to the
// destination.
func (s *Store) Save(ctx context.Context, id string, nb *nbformat.Notebook) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := nb.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	// Same directory as the destination so the rename stays on one
	// filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+id+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path(id)); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Load retrieves the snapshot for a given document id.
func (s *Store) Load(ctx context.Context, id string) (*nbformat.Notebook, error) {
	if id == "" {
		return nil, fmt.Errorf("document id cannot be empty")
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	return nbformat.Decode(data)
}

// Delete removes the snapshot file. Deleting a missing snapshot is a
// no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns the ids of all stored snapshots, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, nbformat.Extension) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, nbformat.Extension))
	}
	sort.Strings(ids)
	return ids, nil
}
