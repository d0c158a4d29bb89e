// Package pipeline runs theme discovery over interview transcripts:
// extract, embed, cluster, then summarize and filter.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/formbricks/insights/internal/clustering"
	"github.com/formbricks/insights/internal/embeddings"
	"github.com/formbricks/insights/internal/models"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/internal/sentences"
	"github.com/formbricks/insights/internal/themes"
)

// Input is one analysis request.
type Input struct {
	Transcripts          []models.Transcript
	ProductDescription   string
	UserGroupDescription string
	// Optimize overrides the analyzer's default cluster-count search when non-nil.
	Optimize *bool
}

// Stats describes how a run went.
//
//nolint:tagliatelle // API contract camelCase
type Stats struct {
	Sentences     int              `json:"sentences"`
	Clusters      int              `json:"clusters"`
	ClusterCount  int              `json:"clusterCount"`
	Optimized     bool             `json:"optimized"`
	Scores        map[int]float64  `json:"silhouetteScores,omitempty"`
	Noise         int              `json:"noise"`
	Kept          int              `json:"kept"`
	Rejected      int              `json:"rejected"`
	ParseFailures int              `json:"parseFailures"`
	DurationsMS   map[string]int64 `json:"durationsMs"`
}

// Result is the outcome of a successful run.
type Result struct {
	RunID    string
	Themes   map[int]models.ThemeSummary
	Failures []themes.Failure
	Stats    Stats
}

// Deps are the collaborators of an Analyzer.
type Deps struct {
	Extractor sentences.Extractor
	Embedder  embeddings.Embedder
	Engine    *clustering.Engine
	Themes    *themes.Pipeline
	// Optimize is the default for Input.Optimize.
	Optimize bool
	Metrics  observability.PipelineMetrics
}

// Analyzer runs the theme discovery pipeline. It is safe for concurrent use.
type Analyzer struct {
	deps Deps
}

// New creates an Analyzer.
func New(deps Deps) *Analyzer {
	return &Analyzer{deps: deps}
}

// Analyze runs every stage in order. A failure aborts the run with a *StageError naming the
// stage; earlier stages are not undone.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*Result, error) {
	runID := observability.RunIDFromContext(ctx)
	if runID == "" {
		runID = uuid.Must(uuid.NewV7()).String()
		ctx = observability.WithRunID(ctx, runID)
	}

	optimize := a.deps.Optimize
	if in.Optimize != nil {
		optimize = *in.Optimize
	}

	ctx, span := observability.Tracer().Start(ctx, "pipeline.Analyze", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("transcripts", len(in.Transcripts)),
		attribute.Bool("cluster.optimize", optimize),
	))
	defer span.End()

	start := time.Now()
	res := &Result{RunID: runID, Stats: Stats{DurationsMS: make(map[string]int64, 4)}}
	rc := themes.Context{ProductDescription: in.ProductDescription, UserGroupDescription: in.UserGroupDescription}

	var (
		extracted []string
		vectors   [][]float32
		outcome   *clustering.Outcome
		report    *themes.Report
	)

	err := a.stage(ctx, res, StageExtract, func(ctx context.Context) error {
		extracted = sentences.FromTranscripts(a.deps.Extractor, in.Transcripts...)
		res.Stats.Sentences = len(extracted)

		if a.deps.Metrics != nil {
			a.deps.Metrics.RecordSentences(ctx, len(extracted))
		}

		return nil
	})
	if err == nil {
		err = a.stage(ctx, res, StageEmbed, func(ctx context.Context) error {
			var err error
			vectors, err = a.deps.Embedder.Embed(ctx, extracted)

			return err
		})
	}

	if err == nil {
		err = a.stage(ctx, res, StageCluster, func(ctx context.Context) error {
			var err error
			outcome, err = a.deps.Engine.Run(ctx, extracted, vectors, optimize)

			return err
		})
	}

	if err == nil {
		res.Stats.Clusters = len(outcome.Clusters)
		res.Stats.ClusterCount = outcome.K
		res.Stats.Optimized = outcome.Scores != nil
		res.Stats.Scores = outcome.Scores
		res.Stats.Noise = outcome.Noise

		err = a.stage(ctx, res, StageSummarize, func(ctx context.Context) error {
			var err error
			report, err = a.deps.Themes.Run(ctx, outcome.Clusters, rc)

			return err
		})
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	res.Themes = report.Themes
	res.Failures = report.Failures
	res.Stats.Kept = len(report.Themes)
	res.Stats.Rejected = len(report.Rejected)
	res.Stats.ParseFailures = len(report.Failures)

	slog.InfoContext(ctx, "pipeline: analysis complete",
		"sentences", res.Stats.Sentences,
		"clusters", res.Stats.Clusters,
		"themes", res.Stats.Kept,
		"rejected", res.Stats.Rejected,
		"parse_failures", res.Stats.ParseFailures,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return res, nil
}

// stage runs fn inside a child span, records its duration and wraps a failure in *StageError.
func (a *Analyzer) stage(ctx context.Context, res *Result, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer().Start(ctx, "pipeline."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	res.Stats.DurationsMS[name] = elapsed.Milliseconds()

	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "pipeline: stage failed", "stage", name, "error", err)
	} else {
		slog.DebugContext(ctx, "pipeline: stage complete", "stage", name, "duration_ms", elapsed.Milliseconds())
	}

	if a.deps.Metrics != nil {
		a.deps.Metrics.RecordStage(ctx, name, status, elapsed)
	}

	if err != nil {
		return &StageError{Stage: name, Err: err}
	}

	return nil
}
