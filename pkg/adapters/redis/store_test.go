package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/adapters/redis"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	store := redis.New(server.Addr(), "", 0, opts...)
	return store, server
}

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
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "doc-1", snapshotFixture("1+1")))

	loaded, err := store.Load(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, loaded.Cells, 1)
	assert.Equal(t, nbformat.SourceText("1+1"), loaded.Cells[0].Source)
	assert.Equal(t, 1, *loaded.Cells[0].Count)
	assert.Equal(t, "test", loaded.Metadata["origin"])
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Load(context.Background(), "no-such-doc")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestStore_SaveRejectsEmptyID(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Save(context.Background(), "", snapshotFixture("x"))
	assert.Error(t, err)
}

func TestStore_DeleteAndList(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "beta", snapshotFixture("b")))
	require.NoError(t, store.Save(ctx, "alpha", snapshotFixture("a")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, ids)

	require.NoError(t, store.Delete(ctx, "alpha"))

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, ids)

	_, err = store.Load(ctx, "alpha")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestStore_TTLExpiryPrunedFromList(t *testing.T) {
	store, server := newTestStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "doc-1", snapshotFixture("1+1")))

	server.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_CustomPrefixIsolatesKeys(t *testing.T) {
	server := miniredis.RunT(t)
	first := redis.New(server.Addr(), "", 0, redis.WithPrefix("first:"))
	second := redis.New(server.Addr(), "", 0, redis.WithPrefix("second:"))
	ctx := context.Background()

	require.NoError(t, first.Save(ctx, "doc-1", snapshotFixture("1+1")))

	_, err := second.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	ids, err := second.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
