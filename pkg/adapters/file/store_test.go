package file_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/adapters/file"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
)

func snapshotFixture(source string) *nbformat.Notebook {
	count := 1
	return &nbformat.Notebook{
		Metadata:      map[string]any{"origin": "test"},
		NBFormat:      nbformat.FormatMajor,
		NBFormatMinor: nbformat.FormatMinor,
		Cells: []nbformat.Record{
			{
				CellType: "code",
				Source:   nbformat.SourceText(source),
				Count:    &count,
				Outputs:  []domain.Output{domain.TextOutput("2")},
			},
		},
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "doc-1", snapshotFixture("1+1")))

	loaded, err := store.Load(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, loaded.Cells, 1)
	assert.Equal(t, nbformat.SourceText("1+1"), loaded.Cells[0].Source)
	assert.Equal(t, 1, *loaded.Cells[0].Count)
}

func TestStore_LoadMissing(t *testing.T) {
	store := file.New(t.TempDir())

	_, err := store.Load(context.Background(), "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "snapshots")
	store := file.New(base)

	require.NoError(t, store.Save(context.Background(), "doc-1", snapshotFixture("x")))
	assert.FileExists(t, filepath.Join(base, "doc-1.ipynb"))
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	base := t.TempDir()
	store := file.New(base)

	require.NoError(t, store.Save(context.Background(), "doc-1", snapshotFixture("x")))
	require.NoError(t, store.Save(context.Background(), "doc-1", snapshotFixture("y")))

	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), "tmp-"), "stray temp file: %s", entry.Name())
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "beta", snapshotFixture("b")))
	require.NoError(t, store.Save(ctx, "alpha", snapshotFixture("a")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)

	require.NoError(t, store.Delete(ctx, "alpha"))
	require.NoError(t, store.Delete(ctx, "alpha")) // idempotent

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, ids)
}

func TestStore_ListMissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "never-created"))

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}
