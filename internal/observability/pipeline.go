package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics records per-run analysis metrics.
type PipelineMetrics interface {
	RecordStage(ctx context.Context, stage, status string, duration time.Duration)
	RecordSentences(ctx context.Context, count int)
	RecordClusters(ctx context.Context, count int)
	RecordCandidatesEvaluated(ctx context.Context, count int)
	RecordThemeOutcome(ctx context.Context, outcome string)
}

type pipelineMetrics struct {
	stageDuration metric.Float64Histogram
	sentences     metric.Int64Counter
	clusters      metric.Int64Counter
	candidates    metric.Int64Counter
	themeOutcomes metric.Int64Counter
}

// NewPipelineMetrics creates PipelineMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewPipelineMetrics(meter metric.Meter) (PipelineMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	stageDuration, err := meter.Float64Histogram(
		MetricNameStageDuration,
		metric.WithDescription("Duration of one pipeline stage (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create stage duration histogram: %w", err)
	}

	sentences, err := meter.Int64Counter(
		MetricNameSentencesExtracted,
		metric.WithDescription("Respondent sentences extracted from transcripts"),
	)
	if err != nil {
		return nil, fmt.Errorf("create sentences counter: %w", err)
	}

	clusters, err := meter.Int64Counter(
		MetricNameClustersFormed,
		metric.WithDescription("Clusters produced by the cluster engine"),
	)
	if err != nil {
		return nil, fmt.Errorf("create clusters counter: %w", err)
	}

	candidates, err := meter.Int64Counter(
		MetricNameCandidatesEvaluated,
		metric.WithDescription("Cluster counts scored during optimized search"),
	)
	if err != nil {
		return nil, fmt.Errorf("create candidates counter: %w", err)
	}

	themeOutcomes, err := meter.Int64Counter(
		MetricNameThemeOutcomes,
		metric.WithDescription("Summarized clusters by outcome (kept, rejected, parse_failed)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create theme outcomes counter: %w", err)
	}

	return &pipelineMetrics{
		stageDuration: stageDuration,
		sentences:     sentences,
		clusters:      clusters,
		candidates:    candidates,
		themeOutcomes: themeOutcomes,
	}, nil
}

func (p *pipelineMetrics) RecordStage(ctx context.Context, stage, status string, duration time.Duration) {
	p.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrStage, Normalize(stage, AllowedStages)),
		attribute.String(AttrStatus, Normalize(status, AllowedStatuses)),
	))
}

func (p *pipelineMetrics) RecordSentences(ctx context.Context, count int) {
	p.sentences.Add(ctx, int64(count))
}

func (p *pipelineMetrics) RecordClusters(ctx context.Context, count int) {
	p.clusters.Add(ctx, int64(count))
}

func (p *pipelineMetrics) RecordCandidatesEvaluated(ctx context.Context, count int) {
	p.candidates.Add(ctx, int64(count))
}

func (p *pipelineMetrics) RecordThemeOutcome(ctx context.Context, outcome string) {
	p.themeOutcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOutcome, Normalize(outcome, AllowedThemeOutcomes)),
	))
}
