package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		allowed  map[string]bool
		expected string
	}{
		{"known stage", "embed", AllowedStages, "embed"},
		{"unknown stage", "report", AllowedStages, "other"},
		{"known outcome", ThemeParseFailed, AllowedThemeOutcomes, ThemeParseFailed},
		{"empty provider", "", AllowedProviders, "other"},
		{"known cache", "local_model", AllowedCacheNames, "local_model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.value, tt.allowed); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.value, got, tt.expected)
			}
		})
	}
}

func TestNewMetrics_nilMeter(t *testing.T) {
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	p, err := NewPipelineMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func collectNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}

	return names
}

func TestNewMetrics_records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider.Meter(MeterScope))
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()
	m.Pipeline.RecordStage(ctx, "cluster", StatusSuccess, 20*time.Millisecond)
	m.Pipeline.RecordSentences(ctx, 12)
	m.Pipeline.RecordClusters(ctx, 3)
	m.Pipeline.RecordCandidatesEvaluated(ctx, 10)
	m.Pipeline.RecordThemeOutcome(ctx, ThemeKept)
	m.Embeddings.RecordBatch(ctx, "openai", StatusSuccess, 100, time.Second)
	m.Cache.RecordHits(ctx, "embedding", 2)
	m.Cache.RecordMisses(ctx, "embedding", 1)
	m.HTTP.RecordRequest(ctx, "POST", "/v1/analyses", "2xx", time.Second)
	m.HTTP.RecordRequestBodyTooLarge(ctx)

	names := collectNames(t, reader)
	for _, want := range []string{
		MetricNameStageDuration,
		MetricNameSentencesExtracted,
		MetricNameClustersFormed,
		MetricNameCandidatesEvaluated,
		MetricNameThemeOutcomes,
		MetricNameEmbeddingBatches,
		MetricNameEmbeddedSentences,
		MetricNameEmbeddingDuration,
		MetricNameCacheHits,
		MetricNameCacheMisses,
		MetricNameRequestCount,
		MetricNameRequestDuration,
		MetricNameRequestBodyTooLarge,
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}

func TestNewMeterProvider_servesPrometheus(t *testing.T) {
	mp, handler, err := NewMeterProvider(context.Background(), MeterProviderConfig{})
	require.NoError(t, err)
	require.NotNil(t, handler)

	defer func() { _ = ShutdownMeterProvider(context.Background(), mp) }()

	assert.NoError(t, ShutdownMeterProvider(context.Background(), nil))
}

func TestTraceContextHandler_addsIDs(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(NewTraceContextHandler(slog.NewTextHandler(&buf, nil)))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = WithRunID(ctx, "run-1")
	logger.InfoContext(ctx, "pipeline: run started")

	out := buf.String()
	assert.True(t, strings.Contains(out, "request_id=req-1"), out)
	assert.True(t, strings.Contains(out, "run_id=run-1"), out)
	assert.Equal(t, "run-1", RunIDFromContext(ctx))
	assert.Empty(t, RunIDFromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
