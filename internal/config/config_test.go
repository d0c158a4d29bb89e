package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		shouldSet    bool
		want         int
	}{
		{
			name:         "returns environment variable as int when set with valid integer",
			key:          "TEST_INT_VAR",
			defaultValue: 100,
			envValue:     "200",
			shouldSet:    true,
			want:         200,
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_INT_VAR_MISSING",
			defaultValue: 100,
			envValue:     "",
			shouldSet:    false,
			want:         100,
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_INT_VAR_EMPTY",
			defaultValue: 100,
			envValue:     "",
			shouldSet:    true,
			want:         100,
		},
		{
			name:         "returns default when environment variable is not a valid integer",
			key:          "TEST_INT_VAR_INVALID",
			defaultValue: 100,
			envValue:     "not_a_number",
			shouldSet:    true,
			want:         100,
		},
		{
			name:         "handles negative integers",
			key:          "TEST_INT_VAR_NEGATIVE",
			defaultValue: 100,
			envValue:     "-50",
			shouldSet:    true,
			want:         -50,
		},
		{
			name:         "handles zero",
			key:          "TEST_INT_VAR_ZERO",
			defaultValue: 100,
			envValue:     "0",
			shouldSet:    true,
			want:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsBoolFloatDuration(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BOOL_BAD", "maybe")
	t.Setenv("TEST_FLOAT", "0.25")
	t.Setenv("TEST_DURATION", "250ms")
	t.Setenv("TEST_DURATION_BAD", "soon")

	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	assert.True(t, getEnvAsBool("TEST_BOOL_BAD", true))
	assert.False(t, getEnvAsBool("TEST_BOOL_MISSING", false))
	assert.InDelta(t, 0.25, getEnvAsFloat("TEST_FLOAT", 1), 1e-9)
	assert.InDelta(t, 1.5, getEnvAsFloat("TEST_FLOAT_MISSING", 1.5), 1e-9)
	assert.Equal(t, 250*time.Millisecond, getEnvAsDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("TEST_DURATION_BAD", time.Second))
}

func TestLoad(t *testing.T) {
	t.Run("requires LLM_API_KEY", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "sk-test")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Port)
		assert.Equal(t, "sk-test", cfg.EmbeddingAPIKey, "embedding key falls back to the LLM key")
		assert.False(t, cfg.EmbeddingUseLocal)
		assert.Equal(t, EmbeddingProviderOpenAI, cfg.EmbeddingProvider)
		assert.Equal(t, 100, cfg.EmbeddingBatchSize)
		assert.Equal(t, 100*time.Millisecond, cfg.EmbeddingBatchDelay)
		assert.Equal(t, 10000, cfg.SentenceChunkChars)
		assert.Equal(t, SegmenterPunkt, cfg.SentenceSegmenter)
		assert.Equal(t, AlgorithmKMeans, cfg.ClusterAlgorithm)
		assert.False(t, cfg.ClusterOptimize)
		assert.Equal(t, int64(42), cfg.ClusterSeed)
		assert.Equal(t, 4, cfg.ClusterWorkers)
		assert.Equal(t, 1024, cfg.ClusterMiniBatchThreshold)
		assert.Equal(t, 100, cfg.ClusterMaxK)
		assert.Equal(t, 16, cfg.ClusterCandidates)
		assert.Equal(t, ParseFailureSkip, cfg.ThemeParseFailure)
		assert.Equal(t, 5, cfg.InterviewTurns)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "sk-test")
		t.Setenv("EMBEDDING_API_KEY", "sk-embed")
		t.Setenv("EMBEDDING_USE_LOCAL", "true")
		t.Setenv("CLUSTER_OPTIMIZE", "1")
		t.Setenv("EMBEDDING_PROVIDER", "Google")
		t.Setenv("THEME_PARSE_FAILURE", "abort")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "sk-embed", cfg.EmbeddingAPIKey)
		assert.True(t, cfg.EmbeddingUseLocal)
		assert.True(t, cfg.ClusterOptimize)
		assert.Equal(t, EmbeddingProviderGoogle, cfg.EmbeddingProvider)
		assert.Equal(t, ParseFailureAbort, cfg.ThemeParseFailure)
	})

	invalid := map[string]string{
		"EMBEDDING_BATCH_SIZE": "0",
		"CLUSTER_WORKERS":      "-1",
		"EMBEDDING_PROVIDER":   "cohere",
		"SENTENCE_SEGMENTER":   "spacy",
		"CLUSTER_ALGORITHM":    "hdbscan",
		"THEME_PARSE_FAILURE":  "ignore",
		"DBSCAN_EPS":           "-0.1",
	}
	t.Run("rejects embedding cache over a fit-per-call local model", func(t *testing.T) {
		t.Setenv("LLM_API_KEY", "sk-test")
		t.Setenv("EMBEDDING_USE_LOCAL", "true")
		t.Setenv("EMBEDDING_CACHE_SIZE", "16")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LOCAL_EMBEDDING_MODEL_PATH")

		t.Setenv("LOCAL_EMBEDDING_MODEL_PATH", "model.db")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 16, cfg.EmbeddingCacheSize)
	})

	for key, value := range invalid {
		t.Run("rejects "+key+"="+value, func(t *testing.T) {
			t.Setenv("LLM_API_KEY", "sk-test")
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.ValidateServer())

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.ValidateServer())
}
