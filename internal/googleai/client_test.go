package googleai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmbedder_validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewEmbedder(ctx, "")
	require.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewEmbedder(ctx, "key", WithDimensions(-1))
	require.ErrorIs(t, err, ErrInvalidDims)
}

func TestNewEmbedder_options(t *testing.T) {
	e, err := NewEmbedder(context.Background(), "key",
		WithModel("text-embedding-004"),
		WithDimensions(256),
		WithBatching(50, 0, 2),
	)
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-004", e.model)
	assert.Equal(t, 256, e.dimensions)
	assert.Equal(t, 50, e.batching.Size)
	assert.Equal(t, ProviderName, e.batching.Provider)

	keep, err := NewEmbedder(context.Background(), "key", WithModel(""))
	require.NoError(t, err)
	assert.Equal(t, defaultModel, keep.model)
}

func TestEmbedder_Embed_empty(t *testing.T) {
	e, err := NewEmbedder(context.Background(), "key")
	require.NoError(t, err)

	got, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
