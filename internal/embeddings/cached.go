package embeddings

import (
	"context"
	"fmt"
	"slices"

	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/pkg/cache"
)

const cacheName = "embedding"

// BatchDependent is implemented by backends whose vector for a sentence depends on the other
// sentences of the same call. Their output is only comparable within one call.
type BatchDependent interface {
	BatchDependent() bool
}

// Cached serves repeated sentences from a process-local LRU and forwards only the distinct
// misses to Inner in one call. Returned vectors are copies, so callers may mutate them.
type Cached struct {
	inner   Embedder
	cache   *cache.LoaderCache[string, []float32]
	metrics observability.CacheMetrics
}

// NewCached wraps inner with an LRU of maxEntries sentences. metrics may be nil.
// A batch-dependent inner is rejected with a validation error.
func NewCached(inner Embedder, maxEntries int, metrics observability.CacheMetrics) (*Cached, error) {
	if bd, ok := inner.(BatchDependent); ok && bd.BatchDependent() {
		return nil, insighterrors.NewValidationError("embedding_cache",
			"backend output depends on the batch and cannot be cached")
	}

	c, err := cache.NewLoaderCache[string, []float32](maxEntries, func(s string) string { return s })
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}

	return &Cached{inner: inner, cache: c, metrics: metrics}, nil
}

// Embed implements Embedder.
func (c *Cached) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		return [][]float32{}, nil
	}

	vecs, hits, err := c.cache.GetMany(ctx, sentences, c.inner.Embed)
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordHits(ctx, cacheName, hits)
		c.metrics.RecordMisses(ctx, cacheName, len(sentences)-hits)
	}

	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		out[i] = slices.Clone(v)
	}

	return out, nil
}

// Len returns the number of cached sentences.
func (c *Cached) Len() int {
	return c.cache.Len()
}
