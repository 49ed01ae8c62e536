package ports

import (
	"context"

	"github.com/aretw0/quire/pkg/nbformat"
)

// SnapshotStore persists serialized notebook snapshots keyed by document id.
// It backs crash recovery of unsaved work; the notebook file on disk remains
// the source of truth once the user saves.
type SnapshotStore interface {
	// Save persists the snapshot for a given document id.
	Save(ctx context.Context, id string, nb *nbformat.Notebook) error

	// Load retrieves the snapshot for a given document id.
	// Returns domain.ErrDocumentNotFound if no snapshot exists.
	Load(ctx context.Context, id string) (*nbformat.Notebook, error)

	// Delete removes the snapshot for a given document id.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored snapshots.
	List(ctx context.Context) ([]string, error)
}
