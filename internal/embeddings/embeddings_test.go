package embeddings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/insights/internal/insighterrors"
	vectors "github.com/formbricks/insights/pkg/embeddings"
)

func sentencesN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("sentence %d", i)
	}

	return out
}

func TestNormalized_Embed(t *testing.T) {
	t.Run("empty input returns empty result without calling backend", func(t *testing.T) {
		mock := NewMockEmbedder(8)

		got, err := Normalized{Inner: mock}.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, 0, mock.Calls())
	})

	t.Run("one unit vector per sentence", func(t *testing.T) {
		in := sentencesN(5)

		got, err := Normalized{Inner: NewMockEmbedder(16)}.Embed(context.Background(), in)
		require.NoError(t, err)
		require.Len(t, got, len(in))

		for _, v := range got {
			assert.InDelta(t, 1.0, vectors.Norm(v), 1e-5)
		}
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		short := EmbedderFunc(func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil
		})

		_, err := Normalized{Inner: short}.Embed(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, ErrCountMismatch)
	})

	t.Run("backend error propagates", func(t *testing.T) {
		boom := errors.New("quota exceeded")
		failing := EmbedderFunc(func(context.Context, []string) ([][]float32, error) {
			return nil, boom
		})

		_, err := Normalized{Inner: failing}.Embed(context.Background(), []string{"a"})
		assert.ErrorIs(t, err, boom)
	})
}

func TestBatcher_Run(t *testing.T) {
	t.Run("reassembles by offset under concurrency", func(t *testing.T) {
		in := sentencesN(250)
		b := NewBatcher(BatcherConfig{Provider: "openai", Size: 100, Concurrency: 3})

		var (
			mu    sync.Mutex
			sizes []int
		)

		fn := func(_ context.Context, batch []string) ([][]float32, error) {
			mu.Lock()
			sizes = append(sizes, len(batch))
			mu.Unlock()

			// Later batches finish first.
			if batch[0] == "sentence 0" {
				time.Sleep(20 * time.Millisecond)
			}

			out := make([][]float32, len(batch))
			for i, s := range batch {
				var n int
				_, _ = fmt.Sscanf(s, "sentence %d", &n)
				out[i] = []float32{float32(n)}
			}

			return out, nil
		}

		got, err := b.Run(context.Background(), in, fn)
		require.NoError(t, err)
		require.Len(t, got, len(in))

		for i, v := range got {
			assert.Equal(t, float32(i), v[0])
		}

		assert.ElementsMatch(t, []int{100, 100, 50}, sizes)
	})

	t.Run("one failed batch fails the run", func(t *testing.T) {
		b := NewBatcher(BatcherConfig{Provider: "openai", Size: 2})
		boom := errors.New("401 unauthorized")

		got, err := b.Run(context.Background(), sentencesN(5), func(_ context.Context, batch []string) ([][]float32, error) {
			if batch[0] == "sentence 2" {
				return nil, boom
			}

			return make([][]float32, len(batch)), nil
		})

		require.Error(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, insighterrors.ErrService)

		var svcErr *insighterrors.ServiceError
		require.ErrorAs(t, err, &svcErr)
		assert.Equal(t, "openai", svcErr.Service)
	})

	t.Run("short batch response is a service error", func(t *testing.T) {
		b := NewBatcher(BatcherConfig{Provider: "google", Size: 10})

		_, err := b.Run(context.Background(), sentencesN(3), func(context.Context, []string) ([][]float32, error) {
			return [][]float32{{1}}, nil
		})

		assert.ErrorIs(t, err, ErrCountMismatch)
		assert.ErrorIs(t, err, insighterrors.ErrService)
	})

	t.Run("paces dispatches", func(t *testing.T) {
		b := NewBatcher(BatcherConfig{Provider: "openai", Size: 1, Delay: 25 * time.Millisecond})

		start := time.Now()
		_, err := b.Run(context.Background(), sentencesN(3), func(_ context.Context, batch []string) ([][]float32, error) {
			return make([][]float32, len(batch)), nil
		})
		require.NoError(t, err)

		assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
	})

	t.Run("cancelled context stops dispatch", func(t *testing.T) {
		b := NewBatcher(BatcherConfig{Provider: "openai", Size: 1, Delay: time.Hour})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := b.Run(ctx, sentencesN(3), func(_ context.Context, batch []string) ([][]float32, error) {
			return make([][]float32, len(batch)), nil
		})
		assert.Error(t, err)
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := NewBatcher(BatcherConfig{}).Run(context.Background(), nil, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestCached_Embed(t *testing.T) {
	mock := NewMockEmbedder(4)
	c, err := NewCached(mock, 100, nil)
	require.NoError(t, err)

	ctx := context.Background()

	first, err := c.Embed(ctx, []string{"a", "b", "a"})
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, first[0], first[2])
	assert.Equal(t, 2, c.Len())

	first[0][0] = 42

	second, err := c.Embed(ctx, []string{"a"})
	require.NoError(t, err)
	assert.NotEqual(t, float32(42), second[0][0], "cached vectors must not be shared with callers")
	assert.Equal(t, 1, mock.Calls(), "second call should be served from cache")

	_, err = NewCached(mock, 0, nil)
	assert.Error(t, err)
}

// batchScoped encodes each sentence by its position in the call, so a vector means nothing
// outside the call that produced it.
type batchScoped struct{}

func (batchScoped) Embed(_ context.Context, sentences []string) ([][]float32, error) {
	out := make([][]float32, len(sentences))
	for i := range sentences {
		out[i] = []float32{float32(i), float32(len(sentences))}
	}

	return out, nil
}

func (batchScoped) BatchDependent() bool { return true }

func TestNewCached_rejectsBatchDependentBackend(t *testing.T) {
	ctx := context.Background()
	inner := batchScoped{}

	// Uncached, the same sentence gets a different vector depending on its neighbours.
	first, err := inner.Embed(ctx, []string{"pricing", "onboarding"})
	require.NoError(t, err)
	second, err := inner.Embed(ctx, []string{"onboarding", "pricing"})
	require.NoError(t, err)
	require.NotEqual(t, first[0], second[1])

	_, err = NewCached(inner, 16, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, insighterrors.ErrValidation)

	// A stable backend is still accepted.
	_, err = NewCached(NewMockEmbedder(4), 16, nil)
	assert.NoError(t, err)
}

func TestMockEmbedder_deterministic(t *testing.T) {
	m := NewMockEmbedder(0)

	a, err := m.Embed(context.Background(), []string{"x", "y"})
	require.NoError(t, err)
	b, err := m.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)

	assert.Len(t, a[0], 64)
	assert.Equal(t, a[0], b[0])
	assert.NotEqual(t, a[0], a[1])

	m.Fixed = map[string][]float32{"z": {1, 2}}
	c, err := m.Embed(context.Background(), []string{"z"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, c[0])
	assert.False(t, math.IsNaN(float64(a[0][0])))
}
