package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/observability"
)

// DefaultBatchSize is the number of sentences sent per remote request.
const DefaultBatchSize = 100

// BatchFunc embeds one batch. It must return one vector per input, in order.
type BatchFunc func(ctx context.Context, batch []string) ([][]float32, error)

// Batcher splits a sentence list into fixed-size batches, paces their dispatch and reassembles
// the results by batch offset. Up to Concurrency batches are in flight at once.
type Batcher struct {
	provider    string
	size        int
	concurrency int
	limiter     *rate.Limiter
	metrics     observability.EmbeddingMetrics
}

// BatcherConfig configures a Batcher.
type BatcherConfig struct {
	// Provider names the backend in errors, logs and metrics.
	Provider string
	// Size is the batch size (default 100).
	Size int
	// Delay is the minimum interval between two dispatches. Zero disables pacing.
	Delay time.Duration
	// Concurrency bounds in-flight batches (default 1, strictly sequential).
	Concurrency int
	// Metrics may be nil when metrics are disabled.
	Metrics observability.EmbeddingMetrics
}

// NewBatcher creates a Batcher.
func NewBatcher(cfg BatcherConfig) *Batcher {
	b := &Batcher{
		provider:    cfg.Provider,
		size:        cfg.Size,
		concurrency: cfg.Concurrency,
		metrics:     cfg.Metrics,
	}

	if b.size <= 0 {
		b.size = DefaultBatchSize
	}

	if b.concurrency <= 0 {
		b.concurrency = 1
	}

	if cfg.Delay > 0 {
		b.limiter = rate.NewLimiter(rate.Every(cfg.Delay), 1)
	}

	return b
}

// Run embeds sentences through fn. Any batch failure fails the whole call; no partial result is returned.
func (b *Batcher) Run(ctx context.Context, sentences []string, fn BatchFunc) ([][]float32, error) {
	out := make([][]float32, len(sentences))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	var dispatchErr error

	for start := 0; start < len(sentences); start += b.size {
		end := min(start+b.size, len(sentences))

		if b.limiter != nil {
			if err := b.limiter.Wait(gctx); err != nil {
				dispatchErr = fmt.Errorf("embedding: wait for dispatch slot: %w", err)

				break
			}
		}

		g.Go(func() error {
			return b.runBatch(gctx, start, sentences[start:end], out[start:end], fn)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if dispatchErr != nil {
		return nil, dispatchErr
	}

	return out, nil
}

func (b *Batcher) runBatch(ctx context.Context, offset int, batch []string, dst [][]float32, fn BatchFunc) error {
	start := time.Now()

	vecs, err := fn(ctx, batch)
	if err == nil && len(vecs) != len(batch) {
		err = fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(vecs), len(batch))
	}

	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordBatch(ctx, b.provider, observability.StatusError, len(batch), time.Since(start))
		}

		slog.ErrorContext(ctx, "embedding: batch failed",
			"provider", b.provider,
			"offset", offset,
			"size", len(batch),
			"error", err,
		)

		return insighterrors.NewServiceError(b.provider, fmt.Errorf("batch at offset %d: %w", offset, err))
	}

	copy(dst, vecs)

	if b.metrics != nil {
		b.metrics.RecordBatch(ctx, b.provider, observability.StatusSuccess, len(batch), time.Since(start))
	}

	slog.DebugContext(ctx, "embedding: batch complete",
		"provider", b.provider,
		"offset", offset,
		"size", len(batch),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}
