package openai

import (
	"context"
	"fmt"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/formbricks/insights/internal/embeddings"
)

// Embedder calls the embeddings endpoint in batches.
type Embedder struct {
	sdk        openaisdk.Client
	model      string
	dimensions int
	batcher    *embeddings.Batcher
}

// NewEmbedder creates a batched embeddings client.
func NewEmbedder(apiKey string, opts ...ClientOption) (*Embedder, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := newConfig(opts)
	if cfg.model == "" {
		return nil, ErrMissingModel
	}

	return &Embedder{
		sdk:        newSDK(apiKey, cfg),
		model:      cfg.model,
		dimensions: cfg.dimensions,
		batcher: embeddings.NewBatcher(embeddings.BatcherConfig{
			Provider:    ProviderName,
			Size:        cfg.batchSize,
			Delay:       cfg.batchDelay,
			Concurrency: cfg.concurrency,
			Metrics:     cfg.metrics,
		}),
	}, nil
}

// Embed implements embeddings.Embedder. Vectors are returned raw (not normalized).
func (e *Embedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	return e.batcher.Run(ctx, sentences, e.embedBatch)
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	params := openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: batch,
		},
		Model: openaisdk.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		params.Dimensions = param.NewOpt(int64(e.dimensions))
	}

	resp, err := e.sdk.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}

	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("%w: got %d, want %d", embeddings.ErrCountMismatch, len(resp.Data), len(batch))
	}

	out := make([][]float32, len(batch))

	for _, d := range resp.Data {
		idx := int(d.Index)
		if idx < 0 || idx >= len(batch) || out[idx] != nil {
			return nil, fmt.Errorf("%w: %d", ErrBadIndex, d.Index)
		}

		if e.dimensions > 0 && len(d.Embedding) != e.dimensions {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(d.Embedding), e.dimensions)
		}

		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}

		out[idx] = vec
	}

	return out, nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
