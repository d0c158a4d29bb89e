// Package clustering groups sentence embeddings into themes.
package clustering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/models"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/pkg/embeddings"
)

// NoiseLabel marks points a density-based partitioner left unassigned.
const NoiseLabel = -1

// Defaults applied by New for zero config values.
const (
	DefaultMaxIterations      = 300
	DefaultNInit              = 10
	DefaultMiniBatchThreshold = 1024
	DefaultMiniBatchSize      = 1024
	DefaultMaxK               = 100
	DefaultCandidates         = 16
	DefaultWorkers            = 4
	DefaultSeed               = 42
)

// ErrLengthMismatch is returned when sentences and embeddings differ in count.
var ErrLengthMismatch = errors.New("clustering: sentence and embedding counts differ")

// Config controls the partitioner.
type Config struct {
	Algorithm          string
	Optimize           bool
	Seed               int64
	Workers            int
	MaxIterations      int
	NInit              int
	MiniBatchThreshold int
	MiniBatchSize      int
	MaxK               int
	Candidates         int
	Eps                float64
	MinPoints          int
	Metrics            observability.PipelineMetrics
}

// ConfigFrom maps application config onto an engine Config.
func ConfigFrom(cfg *config.Config, metrics observability.PipelineMetrics) Config {
	return Config{
		Algorithm:          cfg.ClusterAlgorithm,
		Optimize:           cfg.ClusterOptimize,
		Seed:               cfg.ClusterSeed,
		Workers:            cfg.ClusterWorkers,
		MaxIterations:      cfg.ClusterMaxIterations,
		MiniBatchThreshold: cfg.ClusterMiniBatchThreshold,
		MaxK:               cfg.ClusterMaxK,
		Candidates:         cfg.ClusterCandidates,
		Eps:                cfg.DBSCANEps,
		MinPoints:          cfg.DBSCANMinPoints,
		Metrics:            metrics,
	}
}

// Outcome is the full result of one clustering run.
type Outcome struct {
	Clusters models.Clusters
	Labels   []int
	// K is the requested cluster count for k-means, or the number of clusters found by DBSCAN.
	K int
	// Scores holds the silhouette per candidate k when optimize mode ran.
	Scores    map[int]float64
	Noise     int
	MiniBatch bool
}

// Engine partitions embeddings into clusters. It is safe for concurrent use.
type Engine struct {
	cfg Config
}

// New creates an Engine, filling zero fields with defaults.
func New(cfg Config) *Engine {
	if cfg.Algorithm == "" {
		cfg.Algorithm = config.AlgorithmKMeans
	}

	if cfg.Seed == 0 {
		cfg.Seed = DefaultSeed
	}

	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	if cfg.NInit <= 0 {
		cfg.NInit = DefaultNInit
	}

	if cfg.MiniBatchThreshold <= 0 {
		cfg.MiniBatchThreshold = DefaultMiniBatchThreshold
	}

	if cfg.MiniBatchSize <= 0 {
		cfg.MiniBatchSize = DefaultMiniBatchSize
	}

	if cfg.MaxK <= 0 {
		cfg.MaxK = DefaultMaxK
	}

	if cfg.Candidates <= 0 {
		cfg.Candidates = DefaultCandidates
	}

	if cfg.Eps <= 0 {
		cfg.Eps = 0.5
	}

	if cfg.MinPoints <= 0 {
		cfg.MinPoints = 5
	}

	return &Engine{cfg: cfg}
}

// Cluster groups sentences by their embeddings using the engine's configured optimize mode.
func (e *Engine) Cluster(ctx context.Context, sentences []string, vectors [][]float32) (models.Clusters, error) {
	out, err := e.Run(ctx, sentences, vectors, e.cfg.Optimize)
	if err != nil {
		return nil, err
	}

	return out.Clusters, nil
}

// Run clusters sentences and reports how the partition was chosen.
func (e *Engine) Run(ctx context.Context, sentences []string, vectors [][]float32, optimize bool) (*Outcome, error) {
	if len(sentences) != len(vectors) {
		return nil, fmt.Errorf("%w (%d sentences, %d embeddings): %w",
			ErrLengthMismatch, len(sentences), len(vectors), insighterrors.ErrValidation)
	}

	n := len(sentences)

	switch n {
	case 0:
		return &Outcome{Clusters: models.Clusters{}, Labels: []int{}}, nil
	case 1:
		return &Outcome{Clusters: models.Clusters{0: {sentences[0]}}, Labels: []int{0}, K: 1}, nil
	}

	points, err := toPoints(vectors)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := &Outcome{}

	if e.cfg.Algorithm == config.AlgorithmDBSCAN {
		out.Labels, err = dbscan(ctx, points, e.cfg.Eps, e.cfg.MinPoints)
		if err != nil {
			return nil, err
		}
	} else {
		out.K = DefaultK(n)

		if optimize {
			best, scores, err := e.search(ctx, points)
			if err != nil {
				return nil, err
			}

			out.Scores = scores

			if e.cfg.Metrics != nil {
				e.cfg.Metrics.RecordCandidatesEvaluated(ctx, len(scores))
			}

			if best > 0 {
				out.K = best
			} else {
				slog.Warn("clustering: no valid candidate, using default cluster count", "sentences", n, "k", out.K)
			}
		}

		out.MiniBatch = n >= e.cfg.MiniBatchThreshold

		out.Labels, err = e.partition(ctx, points, out.K)
		if err != nil {
			return nil, err
		}
	}

	out.Clusters = make(models.Clusters)

	for i, label := range out.Labels {
		if label == NoiseLabel {
			out.Noise++

			continue
		}

		out.Clusters[label] = append(out.Clusters[label], sentences[i])
	}

	if e.cfg.Algorithm == config.AlgorithmDBSCAN {
		out.K = len(out.Clusters)
	}

	if e.cfg.Metrics != nil {
		e.cfg.Metrics.RecordClusters(ctx, len(out.Clusters))
	}

	slog.Debug("clustering: partition complete",
		"algorithm", e.cfg.Algorithm,
		"sentences", n,
		"k", out.K,
		"clusters", len(out.Clusters),
		"noise", out.Noise,
		"mini_batch", out.MiniBatch,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return out, nil
}

// DefaultK is the cluster count used without optimization: round(sqrt(n)), at least 1.
func DefaultK(n int) int {
	return max(1, min(n, int(math.Round(math.Sqrt(float64(n))))))
}

// partition runs a freshly seeded k-means so every candidate is reproducible on its own.
func (e *Engine) partition(ctx context.Context, points [][]float64, k int) ([]int, error) {
	rng := rand.New(rand.NewSource(e.cfg.Seed)) //nolint:gosec // reproducible clustering, not security

	if len(points) >= e.cfg.MiniBatchThreshold {
		return fitMiniBatch(ctx, points, k, e.cfg.MiniBatchSize, rng)
	}

	return fitKMeans(ctx, points, k, e.cfg.MaxIterations, e.cfg.NInit, rng)
}

// toPoints copies vectors into L2-normalized float64 rows, leaving the input untouched.
func toPoints(vectors [][]float32) ([][]float64, error) {
	dim := len(vectors[0])
	if dim == 0 {
		return nil, insighterrors.NewValidationError("embeddings", "clustering: embeddings are empty vectors")
	}

	points := make([][]float64, len(vectors))

	for i, v := range vectors {
		if len(v) != dim {
			return nil, insighterrors.NewValidationError("embeddings",
				fmt.Sprintf("clustering: embedding %d has %d dimensions, want %d", i, len(v), dim))
		}

		scale := 1.0
		if norm := embeddings.Norm(v); norm > 0 {
			scale = 1 / norm
		}

		row := make([]float64, dim)
		for d, x := range v {
			row[d] = float64(x) * scale
		}

		points[i] = row
	}

	return points, nil
}
