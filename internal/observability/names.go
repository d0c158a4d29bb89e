// Package observability provides OpenTelemetry metrics and tracing for the insights pipeline.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameStageDuration       = "insights_pipeline_stage_duration_seconds"
	MetricNameSentencesExtracted  = "insights_sentences_extracted_total"
	MetricNameClustersFormed      = "insights_clusters_formed_total"
	MetricNameCandidatesEvaluated = "insights_cluster_candidates_evaluated_total"
	MetricNameThemeOutcomes       = "insights_theme_outcomes_total"
	MetricNameEmbeddingBatches    = "insights_embedding_batches_total"
	MetricNameEmbeddingDuration   = "insights_embedding_batch_duration_seconds"
	MetricNameEmbeddedSentences   = "insights_embedded_sentences_total"
	MetricNameCacheHits           = "insights_cache_hits_total"
	MetricNameCacheMisses         = "insights_cache_misses_total"
	MetricNameRequestBodyTooLarge = "insights_http_request_body_too_large_total"
	MetricNameRequestCount        = "http.server.request_count"
	MetricNameRequestDuration     = "http.server.duration"
)

// Attribute keys.
const (
	AttrStage    = "stage"
	AttrStatus   = "status"
	AttrOutcome  = "outcome"
	AttrProvider = "provider"
	AttrCache    = "cache"
)

// Stage statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Theme outcomes.
const (
	ThemeKept        = "kept"
	ThemeRejected    = "rejected"
	ThemeParseFailed = "parse_failed"
)

// AllowedStages for insights_pipeline_stage_duration_seconds.
var AllowedStages = map[string]bool{
	"extract":   true,
	"embed":     true,
	"cluster":   true,
	"summarize": true,
}

// AllowedStatuses for stage and batch outcomes.
var AllowedStatuses = map[string]bool{
	StatusSuccess: true,
	StatusError:   true,
}

// AllowedThemeOutcomes for insights_theme_outcomes_total.
var AllowedThemeOutcomes = map[string]bool{
	ThemeKept:        true,
	ThemeRejected:    true,
	ThemeParseFailed: true,
}

// AllowedProviders for embedding metrics.
var AllowedProviders = map[string]bool{
	"openai": true,
	"google": true,
	"local":  true,
}

// AllowedCacheNames for cache hit/miss counters.
var AllowedCacheNames = map[string]bool{
	"embedding":   true,
	"local_model": true,
}

// Normalize returns value if allowed, otherwise "other". It keeps attribute cardinality bounded.
func Normalize(value string, allowed map[string]bool) string {
	if allowed[value] {
		return value
	}

	return "other"
}
