package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
	"github.com/aretw0/quire/pkg/persistence/middleware"
)

func notebookWithOutput(text string) *nbformat.Notebook {
	count := 1
	return &nbformat.Notebook{
		Metadata: map[string]any{
			"api_token": "s3cret",
			"title":     "analysis",
		},
		NBFormat:      nbformat.FormatMajor,
		NBFormatMinor: nbformat.FormatMinor,
		Cells: []nbformat.Record{
			{
				CellType: "code",
				Source:   "print(token)",
				Count:    &count,
				Outputs:  []domain.Output{domain.TextOutput(text)},
			},
		},
	}
}

func TestScrub_MasksMatchingOutputText(t *testing.T) {
	store := memory.NewStore()
	wrapped := middleware.Chain(store, middleware.NewScrubMiddleware([]string{`(?i)secret`, `token`}))
	ctx := context.Background()

	require.NoError(t, wrapped.Save(ctx, "doc-1", notebookWithOutput("the Secret value")))

	loaded, err := wrapped.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Cells[0].Outputs[0].Text())
}

func TestScrub_MasksMetadataByKey(t *testing.T) {
	store := memory.NewStore()
	wrapped := middleware.Chain(store, middleware.NewScrubMiddleware([]string{`token`}))
	ctx := context.Background()

	require.NoError(t, wrapped.Save(ctx, "doc-1", notebookWithOutput("harmless")))

	loaded, err := wrapped.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "***", loaded.Metadata["api_token"])
	assert.Equal(t, "analysis", loaded.Metadata["title"])
	assert.Equal(t, "harmless", loaded.Cells[0].Outputs[0].Text())
}

func TestScrub_DoesNotMutateCaller(t *testing.T) {
	store := memory.NewStore()
	wrapped := middleware.Chain(store, middleware.NewScrubMiddleware([]string{`secret`}))

	nb := notebookWithOutput("secret sauce")
	require.NoError(t, wrapped.Save(context.Background(), "doc-1", nb))

	assert.Equal(t, "secret sauce", nb.Cells[0].Outputs[0].Text())
	assert.Equal(t, "s3cret", nb.Metadata["api_token"])
}

func TestChain_OrderIsOutermostFirst(t *testing.T) {
	store := memory.NewStore()
	wrapped := middleware.Chain(store,
		middleware.NewScrubMiddleware([]string{`alpha`}),
		middleware.NewScrubMiddleware([]string{`beta`}),
	)
	ctx := context.Background()

	require.NoError(t, wrapped.Save(ctx, "a", notebookWithOutput("alpha")))
	require.NoError(t, wrapped.Save(ctx, "b", notebookWithOutput("beta")))

	loadedA, err := wrapped.Load(ctx, "a")
	require.NoError(t, err)
	loadedB, err := wrapped.Load(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, "***", loadedA.Cells[0].Outputs[0].Text())
	assert.Equal(t, "***", loadedB.Cells[0].Outputs[0].Text())
}
