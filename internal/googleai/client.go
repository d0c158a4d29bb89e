// Package googleai wraps the Google Gen AI SDK for batched Gemini embeddings.
package googleai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/genai"

	"github.com/formbricks/insights/internal/embeddings"
	"github.com/formbricks/insights/internal/observability"
)

var (
	// ErrMissingAPIKey is returned when the client is created without an API key.
	ErrMissingAPIKey = errors.New("googleai: api key is required")
	// ErrInvalidDims is returned when dimensions is negative or too large.
	ErrInvalidDims = errors.New("googleai: embedding dimensions out of range")
	// ErrDimensionMismatch is returned when the response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("googleai: embedding dimension mismatch")
)

const (
	// ProviderName labels this backend in errors, logs and metrics.
	ProviderName = "google"
	defaultModel = "gemini-embedding-001"
)

// Embedder calls the Gemini embeddings API in batches.
type Embedder struct {
	models     *genai.Models
	model      string
	dimensions int
	timeout    time.Duration
	batcher    *embeddings.Batcher
	batching   embeddings.BatcherConfig
}

// ClientOption configures the Embedder.
type ClientOption func(*Embedder)

// WithDimensions sets the requested output dimensionality. Zero keeps the model default.
func WithDimensions(dim int) ClientOption {
	return func(e *Embedder) {
		e.dimensions = dim
	}
}

// WithModel sets the embedding model name (e.g. gemini-embedding-001). Empty uses default.
func WithModel(model string) ClientOption {
	return func(e *Embedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(e *Embedder) {
		e.timeout = d
	}
}

// WithBatching sets batch size, dispatch delay and in-flight batches.
func WithBatching(size int, delay time.Duration, concurrency int) ClientOption {
	return func(e *Embedder) {
		e.batching.Size = size
		e.batching.Delay = delay
		e.batching.Concurrency = concurrency
	}
}

// WithEmbeddingMetrics records per-batch metrics. nil disables them.
func WithEmbeddingMetrics(m observability.EmbeddingMetrics) ClientOption {
	return func(e *Embedder) {
		e.batching.Metrics = m
	}
}

// NewEmbedder creates a Gemini embeddings client.
func NewEmbedder(ctx context.Context, apiKey string, opts ...ClientOption) (*Embedder, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	e := &Embedder{model: defaultModel}
	for _, opt := range opts {
		opt(e)
	}

	if e.dimensions < 0 || e.dimensions > math.MaxInt32 {
		return nil, ErrInvalidDims
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("googleai client: %w", err)
	}

	e.models = client.Models
	e.batching.Provider = ProviderName
	e.batcher = embeddings.NewBatcher(e.batching)

	return e, nil
}

// Embed implements embeddings.Embedder.
func (e *Embedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	return e.batcher.Run(ctx, sentences, e.embedBatch)
}

func (e *Embedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	contents := make([]*genai.Content, len(batch))
	for i, s := range batch {
		contents[i] = genai.NewContentFromText(s, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{TaskType: "CLUSTERING"}

	if e.dimensions > 0 {
		//nolint:gosec // G115: e.dimensions is bounded above by math.MaxInt32
		dim := int32(e.dimensions)
		cfg.OutputDimensionality = &dim
	}

	resp, err := e.models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding: %w", err)
	}

	if len(resp.Embeddings) != len(batch) {
		return nil, fmt.Errorf("%w: got %d, want %d", embeddings.ErrCountMismatch, len(resp.Embeddings), len(batch))
	}

	out := make([][]float32, len(batch))

	for i, emb := range resp.Embeddings {
		if e.dimensions > 0 && len(emb.Values) != e.dimensions {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(emb.Values), e.dimensions)
		}

		out[i] = append([]float32(nil), emb.Values...)
	}

	return out, nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
