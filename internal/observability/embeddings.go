package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EmbeddingMetrics records embedding backend metrics (per provider).
type EmbeddingMetrics interface {
	RecordBatch(ctx context.Context, provider, status string, size int, duration time.Duration)
}

type embeddingMetrics struct {
	batches   metric.Int64Counter
	sentences metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewEmbeddingMetrics creates EmbeddingMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewEmbeddingMetrics(meter metric.Meter) (EmbeddingMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	batches, err := meter.Int64Counter(
		MetricNameEmbeddingBatches,
		metric.WithDescription("Embedding requests sent to a backend, by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding batches counter: %w", err)
	}

	sentences, err := meter.Int64Counter(
		MetricNameEmbeddedSentences,
		metric.WithDescription("Sentences embedded by a backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedded sentences counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameEmbeddingDuration,
		metric.WithDescription("Embedding request duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding duration histogram: %w", err)
	}

	return &embeddingMetrics{
		batches:   batches,
		sentences: sentences,
		duration:  duration,
	}, nil
}

func (e *embeddingMetrics) RecordBatch(ctx context.Context, provider, status string, size int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String(AttrProvider, Normalize(provider, AllowedProviders)),
		attribute.String(AttrStatus, Normalize(status, AllowedStatuses)),
	)
	e.batches.Add(ctx, 1, attrs)
	e.duration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusSuccess {
		e.sentences.Add(ctx, int64(size), metric.WithAttributes(
			attribute.String(AttrProvider, Normalize(provider, AllowedProviders)),
		))
	}
}
