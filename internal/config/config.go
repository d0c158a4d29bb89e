// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Embedding providers for the remote backend.
const (
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderGoogle = "google"
)

// Sentence segmenters.
const (
	SegmenterPunkt = "punkt"
	SegmenterRegex = "regex"
)

// Cluster algorithms.
const (
	AlgorithmKMeans = "kmeans"
	AlgorithmDBSCAN = "dbscan"
)

// Theme parse failure policies.
const (
	ParseFailureSkip  = "skip"
	ParseFailureAbort = "abort"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string
	LogFormat string

	// HTTP server (cmd/api only)
	Port                string
	APIKey              string
	MaxRequestBodyBytes int64

	// Language model (summaries, relevance filter, interview simulation)
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Embeddings. EmbeddingUseLocal selects the local TF-IDF backend instead of EmbeddingProvider.
	EmbeddingUseLocal       bool
	EmbeddingProvider       string
	EmbeddingAPIKey         string
	EmbeddingBaseURL        string
	EmbeddingModel          string // empty selects the provider's default model
	EmbeddingDimensions     int
	EmbeddingBatchSize      int
	EmbeddingBatchDelay     time.Duration
	EmbeddingConcurrency    int
	EmbeddingTimeout        time.Duration
	EmbeddingCacheSize      int
	LocalEmbeddingModelPath string

	// Sentence extraction
	SentenceSegmenter  string
	SentenceChunkChars int

	// Clustering
	ClusterAlgorithm          string
	ClusterOptimize           bool
	ClusterSeed               int64
	ClusterWorkers            int
	ClusterMaxIterations      int
	ClusterMiniBatchThreshold int
	ClusterMaxK               int
	ClusterCandidates         int
	DBSCANEps                 float64
	DBSCANMinPoints           int

	// Theme summarization and filtering
	ThemeConcurrency  int
	ThemeParseFailure string

	// Interview simulation
	InterviewTurns int

	// Observability
	OtelMetricsExporter string
	OtelTracesExporter  string
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool retrieves an environment variable as a bool or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsDuration retrieves an environment variable as a time.Duration (e.g. "100ms") or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// Returns default values for any missing environment variables.
// LLM_API_KEY is required; the embedding key falls back to it.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	llmAPIKey := os.Getenv("LLM_API_KEY")
	if llmAPIKey == "" {
		return nil, errors.New("LLM_API_KEY environment variable is required but not set")
	}

	cfg := &Config{
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Port:                getEnv("PORT", "8080"),
		APIKey:              os.Getenv("API_KEY"),
		MaxRequestBodyBytes: int64(getEnvAsInt("MAX_REQUEST_BODY_BYTES", 10<<20)),

		LLMAPIKey:      llmAPIKey,
		LLMBaseURL:     getEnv("LLM_BASE_URL", "https://api.together.xyz/v1/"),
		LLMModel:       getEnv("LLM_MODEL", "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"),
		LLMTemperature: getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 2*time.Minute),

		EmbeddingUseLocal:       getEnvAsBool("EMBEDDING_USE_LOCAL", false),
		EmbeddingProvider:       strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderOpenAI)),
		EmbeddingAPIKey:         getEnv("EMBEDDING_API_KEY", llmAPIKey),
		EmbeddingBaseURL:        getEnv("EMBEDDING_BASE_URL", "https://api.together.xyz/v1/"),
		EmbeddingModel:          os.Getenv("EMBEDDING_MODEL"),
		EmbeddingDimensions:     getEnvAsInt("EMBEDDING_DIMENSIONS", 0),
		EmbeddingBatchSize:      getEnvAsInt("EMBEDDING_BATCH_SIZE", 100),
		EmbeddingBatchDelay:     getEnvAsDuration("EMBEDDING_BATCH_DELAY", 100*time.Millisecond),
		EmbeddingConcurrency:    getEnvAsInt("EMBEDDING_CONCURRENCY", 1),
		EmbeddingTimeout:        getEnvAsDuration("EMBEDDING_TIMEOUT", time.Minute),
		EmbeddingCacheSize:      getEnvAsInt("EMBEDDING_CACHE_SIZE", 0),
		LocalEmbeddingModelPath: os.Getenv("LOCAL_EMBEDDING_MODEL_PATH"),

		SentenceSegmenter:  strings.ToLower(getEnv("SENTENCE_SEGMENTER", SegmenterPunkt)),
		SentenceChunkChars: getEnvAsInt("SENTENCE_CHUNK_CHARS", 10000),

		ClusterAlgorithm:          strings.ToLower(getEnv("CLUSTER_ALGORITHM", AlgorithmKMeans)),
		ClusterOptimize:           getEnvAsBool("CLUSTER_OPTIMIZE", false),
		ClusterSeed:               int64(getEnvAsInt("CLUSTER_SEED", 42)),
		ClusterWorkers:            getEnvAsInt("CLUSTER_WORKERS", 4),
		ClusterMaxIterations:      getEnvAsInt("CLUSTER_MAX_ITERATIONS", 300),
		ClusterMiniBatchThreshold: getEnvAsInt("CLUSTER_MINIBATCH_THRESHOLD", 1024),
		ClusterMaxK:               getEnvAsInt("CLUSTER_MAX_K", 100),
		ClusterCandidates:         getEnvAsInt("CLUSTER_CANDIDATES", 16),
		DBSCANEps:                 getEnvAsFloat("DBSCAN_EPS", 0.5),
		DBSCANMinPoints:           getEnvAsInt("DBSCAN_MIN_POINTS", 5),

		ThemeConcurrency:  getEnvAsInt("THEME_CONCURRENCY", 4),
		ThemeParseFailure: strings.ToLower(getEnv("THEME_PARSE_FAILURE", ParseFailureSkip)),

		InterviewTurns: getEnvAsInt("INTERVIEW_TURNS", 5),

		OtelMetricsExporter: strings.ToLower(os.Getenv("OTEL_METRICS_EXPORTER")),
		OtelTracesExporter:  strings.ToLower(os.Getenv("OTEL_TRACES_EXPORTER")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"EMBEDDING_BATCH_SIZE", c.EmbeddingBatchSize},
		{"EMBEDDING_CONCURRENCY", c.EmbeddingConcurrency},
		{"SENTENCE_CHUNK_CHARS", c.SentenceChunkChars},
		{"CLUSTER_WORKERS", c.ClusterWorkers},
		{"CLUSTER_MAX_ITERATIONS", c.ClusterMaxIterations},
		{"CLUSTER_MINIBATCH_THRESHOLD", c.ClusterMiniBatchThreshold},
		{"CLUSTER_MAX_K", c.ClusterMaxK},
		{"CLUSTER_CANDIDATES", c.ClusterCandidates},
		{"DBSCAN_MIN_POINTS", c.DBSCANMinPoints},
		{"THEME_CONCURRENCY", c.ThemeConcurrency},
		{"INTERVIEW_TURNS", c.InterviewTurns},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be a positive integer", p.name)
		}
	}

	if c.EmbeddingDimensions < 0 {
		return errors.New("EMBEDDING_DIMENSIONS must not be negative")
	}

	if c.EmbeddingCacheSize < 0 {
		return errors.New("EMBEDDING_CACHE_SIZE must not be negative")
	}

	// Without a model file the local backend refits per call, so vectors from different calls
	// live in different term spaces and cannot share a cache.
	if c.EmbeddingUseLocal && c.LocalEmbeddingModelPath == "" && c.EmbeddingCacheSize > 0 {
		return errors.New("EMBEDDING_CACHE_SIZE requires LOCAL_EMBEDDING_MODEL_PATH when EMBEDDING_USE_LOCAL is set")
	}

	if c.DBSCANEps <= 0 {
		return errors.New("DBSCAN_EPS must be positive")
	}

	if !c.EmbeddingUseLocal && c.EmbeddingProvider != EmbeddingProviderOpenAI && c.EmbeddingProvider != EmbeddingProviderGoogle {
		return fmt.Errorf("unsupported EMBEDDING_PROVIDER %q (want %s or %s)",
			c.EmbeddingProvider, EmbeddingProviderOpenAI, EmbeddingProviderGoogle)
	}

	if c.SentenceSegmenter != SegmenterPunkt && c.SentenceSegmenter != SegmenterRegex {
		return fmt.Errorf("unsupported SENTENCE_SEGMENTER %q", c.SentenceSegmenter)
	}

	if c.ClusterAlgorithm != AlgorithmKMeans && c.ClusterAlgorithm != AlgorithmDBSCAN {
		return fmt.Errorf("unsupported CLUSTER_ALGORITHM %q", c.ClusterAlgorithm)
	}

	if c.ThemeParseFailure != ParseFailureSkip && c.ThemeParseFailure != ParseFailureAbort {
		return fmt.Errorf("unsupported THEME_PARSE_FAILURE %q", c.ThemeParseFailure)
	}

	return nil
}

// ValidateServer checks settings that only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.APIKey == "" {
		return errors.New("API_KEY environment variable is required but not set")
	}

	return nil
}
