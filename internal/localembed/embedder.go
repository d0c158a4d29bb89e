package localembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/formbricks/insights/internal/embeddings"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/pkg/cache"
)

// ProviderName labels this backend in logs and metrics.
const ProviderName = "local"

// Embedder is a synchronous, in-process embedder. With a nil model it fits a fresh model on
// the sentences of every call.
type Embedder struct {
	model       *Model
	maxFeatures int
	metrics     observability.EmbeddingMetrics
}

// New returns an embedder over a pre-loaded model, or a fit-per-call embedder when model is nil.
// metrics may be nil.
func New(model *Model, maxFeatures int, metrics observability.EmbeddingMetrics) *Embedder {
	return &Embedder{model: model, maxFeatures: maxFeatures, metrics: metrics}
}

// Embed implements embeddings.Embedder.
func (e *Embedder) Embed(ctx context.Context, sentences []string) ([][]float32, error) {
	if len(sentences) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()

	model := e.model
	if model == nil {
		fitted, err := Fit(sentences, e.maxFeatures)
		if err != nil {
			e.record(ctx, observability.StatusError, len(sentences), start)

			return nil, fmt.Errorf("fit local embedding model: %w", err)
		}

		model = fitted
		slog.DebugContext(ctx, "embedding: fitted local model", "dimensions", model.Dimensions())
	}

	out := make([][]float32, len(sentences))
	for i, s := range sentences {
		out[i] = model.Vector(s)
	}

	e.record(ctx, observability.StatusSuccess, len(sentences), start)

	return out, nil
}

// BatchDependent reports whether the embedder fits per call. Such vectors are only
// comparable within the call that produced them.
func (e *Embedder) BatchDependent() bool {
	return e.model == nil
}

func (e *Embedder) record(ctx context.Context, status string, size int, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordBatch(ctx, ProviderName, status, size, time.Since(start))
	}
}

// Loader loads model files once per path and shares them between callers.
type Loader struct {
	cache   *cache.LoaderCache[string, *Model]
	metrics observability.CacheMetrics
}

// NewLoader creates a Loader holding up to maxModels models. metrics may be nil.
func NewLoader(maxModels int, metrics observability.CacheMetrics) (*Loader, error) {
	c, err := cache.NewLoaderCache[string, *Model](maxModels, func(p string) string { return p })
	if err != nil {
		return nil, fmt.Errorf("create model cache: %w", err)
	}

	return &Loader{cache: c, metrics: metrics}, nil
}

// Load returns the model stored at path.
func (l *Loader) Load(ctx context.Context, path string) (*Model, error) {
	m, hit, err := l.cache.GetWithStats(ctx, path, func(_ context.Context, p string) (*Model, error) {
		slog.InfoContext(ctx, "embedding: loading local model", "path", p)

		return Load(p)
	})
	if err != nil {
		return nil, err
	}

	if l.metrics != nil {
		if hit {
			l.metrics.RecordHits(ctx, "local_model", 1)
		} else {
			l.metrics.RecordMisses(ctx, "local_model", 1)
		}
	}

	return m, nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
var _ embeddings.BatchDependent = (*Embedder)(nil)
