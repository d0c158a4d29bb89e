// Package openai wraps the official OpenAI Go SDK for embeddings and chat completions.
// Any OpenAI-compatible endpoint (Together, a local gateway) works through WithBaseURL.
package openai

import (
	"errors"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/formbricks/insights/internal/observability"
)

var (
	// ErrMissingAPIKey is returned when a client is created without an API key.
	ErrMissingAPIKey = errors.New("openai: api key is required")
	// ErrMissingModel is returned when a client is created without a model name.
	ErrMissingModel = errors.New("openai: model is required")
	// ErrNoChoiceInResponse is returned when a chat completion has no choices.
	ErrNoChoiceInResponse = errors.New("openai: no choice in response")
	// ErrDimensionMismatch is returned when a response embedding length does not match configured dimensions.
	ErrDimensionMismatch = errors.New("openai: embedding dimension mismatch")
	// ErrBadIndex is returned when the response references an input index that was not sent.
	ErrBadIndex = errors.New("openai: embedding index out of range")
)

// ProviderName labels this backend in errors, logs and metrics.
const ProviderName = "openai"

type clientConfig struct {
	baseURL     string
	model       string
	dimensions  int
	temperature *float64
	timeout     time.Duration
	batchSize   int
	batchDelay  time.Duration
	concurrency int
	metrics     observability.EmbeddingMetrics
}

// ClientOption configures an Embedder or ChatClient.
type ClientOption func(*clientConfig)

// WithBaseURL points the client at an OpenAI-compatible endpoint. Empty keeps the SDK default.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithModel sets the model name.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithDimensions requests (and enforces) an embedding dimension. Zero keeps the model's native size.
func WithDimensions(dim int) ClientOption {
	return func(c *clientConfig) {
		c.dimensions = dim
	}
}

// WithTemperature sets the sampling temperature for chat completions.
func WithTemperature(t float64) ClientOption {
	return func(c *clientConfig) {
		c.temperature = &t
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithBatching sets the embedding batch size, the minimum delay between batch dispatches and the
// number of batches allowed in flight.
func WithBatching(size int, delay time.Duration, concurrency int) ClientOption {
	return func(c *clientConfig) {
		c.batchSize = size
		c.batchDelay = delay
		c.concurrency = concurrency
	}
}

// WithEmbeddingMetrics records per-batch metrics. nil disables them.
func WithEmbeddingMetrics(m observability.EmbeddingMetrics) ClientOption {
	return func(c *clientConfig) {
		c.metrics = m
	}
}

func newConfig(opts []ClientOption) clientConfig {
	cfg := clientConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// newSDK builds the SDK client. SDK retries are disabled: failures surface to the caller.
func newSDK(apiKey string, cfg clientConfig) openaisdk.Client {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}

	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.timeout))
	}

	return openaisdk.NewClient(reqOpts...)
}
