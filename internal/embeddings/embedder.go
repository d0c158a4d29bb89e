// Package embeddings defines the sentence embedding capability and its decorators.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	vectors "github.com/formbricks/insights/pkg/embeddings"
)

// ErrCountMismatch is returned when a backend does not return exactly one vector per sentence.
var ErrCountMismatch = errors.New("embeddings: vector count does not match sentence count")

// Embedder maps sentences to vectors. The result has one vector per sentence, in input order.
type Embedder interface {
	Embed(ctx context.Context, sentences []string) ([][]float32, error)
}

// EmbedderFunc adapts a function to Embedder.
type EmbedderFunc func(ctx context.Context, sentences []string) ([][]float32, error)

// Embed implements Embedder.
func (f EmbedderFunc) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	return f(ctx, sentences)
}

// Normalized L2-normalizes every vector returned by Inner. Empty input short-circuits with a
// warning and an empty, non-nil result.
type Normalized struct {
	Inner Embedder
}

// Embed implements Embedder.
func (n Normalized) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		slog.WarnContext(ctx, "embedding: no sentences to embed")

		return [][]float32{}, nil
	}

	vecs, err := n.Inner.Embed(ctx, sentences)
	if err != nil {
		return nil, err
	}

	if len(vecs) != len(sentences) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(vecs), len(sentences))
	}

	return vectors.NormalizeRows(vecs), nil
}
