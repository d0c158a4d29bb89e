package pipeline

import (
	"context"
	"fmt"

	"github.com/formbricks/insights/internal/clustering"
	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/embeddings"
	"github.com/formbricks/insights/internal/googleai"
	"github.com/formbricks/insights/internal/localembed"
	"github.com/formbricks/insights/internal/observability"
	"github.com/formbricks/insights/internal/openai"
	"github.com/formbricks/insights/internal/sentences"
	"github.com/formbricks/insights/internal/themes"
)

// DefaultOpenAIEmbeddingModel is used with the openai provider when EMBEDDING_MODEL is empty.
const DefaultOpenAIEmbeddingModel = "togethercomputer/m2-bert-80M-32k-retrieval"

type collectors struct {
	pipeline   observability.PipelineMetrics
	embeddings observability.EmbeddingMetrics
	cache      observability.CacheMetrics
}

func split(m *observability.Metrics) collectors {
	if m == nil {
		return collectors{}
	}

	return collectors{pipeline: m.Pipeline, embeddings: m.Embeddings, cache: m.Cache}
}

// NewEmbedder builds the configured backend, wrapped in the cache (when EMBEDDING_CACHE_SIZE > 0)
// and the normalizer. metrics may be nil.
func NewEmbedder(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (embeddings.Embedder, error) {
	c := split(metrics)

	var (
		backend embeddings.Embedder
		err     error
	)

	switch {
	case cfg.EmbeddingUseLocal:
		backend, err = newLocalEmbedder(ctx, cfg, c)
	case cfg.EmbeddingProvider == config.EmbeddingProviderGoogle:
		backend, err = googleai.NewEmbedder(ctx, cfg.EmbeddingAPIKey,
			googleai.WithModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
			googleai.WithTimeout(cfg.EmbeddingTimeout),
			googleai.WithBatching(cfg.EmbeddingBatchSize, cfg.EmbeddingBatchDelay, cfg.EmbeddingConcurrency),
			googleai.WithEmbeddingMetrics(c.embeddings),
		)
	default:
		model := cfg.EmbeddingModel
		if model == "" {
			model = DefaultOpenAIEmbeddingModel
		}

		backend, err = openai.NewEmbedder(cfg.EmbeddingAPIKey,
			openai.WithBaseURL(cfg.EmbeddingBaseURL),
			openai.WithModel(model),
			openai.WithDimensions(cfg.EmbeddingDimensions),
			openai.WithTimeout(cfg.EmbeddingTimeout),
			openai.WithBatching(cfg.EmbeddingBatchSize, cfg.EmbeddingBatchDelay, cfg.EmbeddingConcurrency),
			openai.WithEmbeddingMetrics(c.embeddings),
		)
	}

	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	if cfg.EmbeddingCacheSize > 0 {
		backend, err = embeddings.NewCached(backend, cfg.EmbeddingCacheSize, c.cache)
		if err != nil {
			return nil, fmt.Errorf("create embedding cache: %w", err)
		}
	}

	return embeddings.Normalized{Inner: backend}, nil
}

func newLocalEmbedder(ctx context.Context, cfg *config.Config, c collectors) (embeddings.Embedder, error) {
	if cfg.LocalEmbeddingModelPath == "" {
		return localembed.New(nil, localembed.DefaultMaxFeatures, c.embeddings), nil
	}

	loader, err := localembed.NewLoader(1, c.cache)
	if err != nil {
		return nil, err
	}

	model, err := loader.Load(ctx, cfg.LocalEmbeddingModelPath)
	if err != nil {
		return nil, fmt.Errorf("load local embedding model: %w", err)
	}

	return localembed.New(model, localembed.DefaultMaxFeatures, c.embeddings), nil
}

// NewChatClient builds the language-model client used for summaries, filtering and interviews.
func NewChatClient(cfg *config.Config) (*openai.ChatClient, error) {
	return openai.NewChatClient(cfg.LLMAPIKey,
		openai.WithBaseURL(cfg.LLMBaseURL),
		openai.WithModel(cfg.LLMModel),
		openai.WithTemperature(cfg.LLMTemperature),
		openai.WithTimeout(cfg.LLMTimeout),
	)
}

// NewFromConfig wires an Analyzer from configuration. metrics may be nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Analyzer, error) {
	c := split(metrics)

	extractor, err := sentences.New(cfg.SentenceSegmenter, cfg.SentenceChunkChars)
	if err != nil {
		return nil, fmt.Errorf("create sentence extractor: %w", err)
	}

	embedder, err := NewEmbedder(ctx, cfg, metrics)
	if err != nil {
		return nil, err
	}

	chat, err := NewChatClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	return New(Deps{
		Extractor: extractor,
		Embedder:  embedder,
		Engine:    clustering.New(clustering.ConfigFrom(cfg, c.pipeline)),
		Themes: themes.NewPipeline(chat, themes.PipelineConfig{
			Concurrency:  cfg.ThemeConcurrency,
			ParseFailure: cfg.ThemeParseFailure,
			Metrics:      c.pipeline,
		}),
		Optimize: cfg.ClusterOptimize,
		Metrics:  c.pipeline,
	}), nil
}
