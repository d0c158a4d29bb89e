package clustering

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/insights/internal/config"
	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/models"
)

// groupedVectors returns groups*perGroup vectors in dim dimensions. Group g sits on basis
// vector g with a little deterministic noise, so groups are mutually far apart.
func groupedVectors(groups, perGroup, dim int) ([]string, [][]float32, []int) {
	rng := rand.New(rand.NewSource(7))

	var (
		sentences []string
		vectors   [][]float32
		truth     []int
	)

	for g := range groups {
		for i := range perGroup {
			v := make([]float32, dim)
			for d := range v {
				v[d] = float32(rng.Float64() * 0.02)
			}

			v[g] += 1

			sentences = append(sentences, string(rune('a'+g))+"-"+string(rune('a'+i%26))+string(rune('0'+i/26)))
			vectors = append(vectors, v)
			truth = append(truth, g)
		}
	}

	return sentences, vectors, truth
}

func sortedUnion(c models.Clusters) []string {
	var all []string
	for _, members := range c {
		all = append(all, members...)
	}

	sort.Strings(all)

	return all
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		wantFirst int
		wantLast  int
		wantLen   int
	}{
		{name: "fifty points use stride one up to eleven", n: 50, wantFirst: 2, wantLast: 11, wantLen: 10},
		{name: "candidates at or above n are skipped", n: 3, wantFirst: 2, wantLast: 2, wantLen: 1},
		{name: "two points have no candidates", n: 2, wantLen: 0},
		{name: "large n is capped at max k", n: 10000, wantFirst: 2, wantLast: 98, wantLen: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks := Candidates(tt.n, DefaultMaxK, DefaultCandidates)
			require.Len(t, ks, tt.wantLen)

			if tt.wantLen == 0 {
				return
			}

			assert.Equal(t, tt.wantFirst, ks[0])
			assert.Equal(t, tt.wantLast, ks[len(ks)-1])
			assert.True(t, slices.IsSorted(ks))
		})
	}
}

func TestDefaultK(t *testing.T) {
	assert.Equal(t, 1, DefaultK(1))
	assert.Equal(t, 1, DefaultK(2))
	assert.Equal(t, 2, DefaultK(3))
	assert.Equal(t, 7, DefaultK(50))
	assert.Equal(t, 32, DefaultK(1000))
}

func TestEngine_Run_degenerate(t *testing.T) {
	e := New(Config{})
	ctx := context.Background()

	t.Run("zero sentences", func(t *testing.T) {
		out, err := e.Run(ctx, nil, nil, true)
		require.NoError(t, err)
		assert.Empty(t, out.Clusters)
		assert.NotNil(t, out.Clusters)
	})

	t.Run("one sentence", func(t *testing.T) {
		got, err := e.Cluster(ctx, []string{"only"}, [][]float32{{1, 0}})
		require.NoError(t, err)
		assert.Equal(t, models.Clusters{0: {"only"}}, got)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := e.Cluster(ctx, []string{"a", "b"}, [][]float32{{1}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLengthMismatch))
		assert.True(t, errors.Is(err, insighterrors.ErrValidation))
	})

	t.Run("ragged dimensions", func(t *testing.T) {
		_, err := e.Cluster(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {1}})
		assert.True(t, errors.Is(err, insighterrors.ErrValidation))
	})

	t.Run("identical points", func(t *testing.T) {
		sentences := []string{"a", "b", "c", "d"}
		vectors := [][]float32{{1, 1}, {1, 1}, {1, 1}, {1, 1}}

		out, err := e.Run(ctx, sentences, vectors, true)
		require.NoError(t, err)
		assert.Equal(t, sentences, sortedUnion(out.Clusters))
	})
}

func TestEngine_Run_defaultHeuristic(t *testing.T) {
	sentences, vectors, truth := groupedVectors(4, 4, 6)

	out, err := New(Config{}).Run(context.Background(), sentences, vectors, false)
	require.NoError(t, err)

	assert.Equal(t, 4, out.K)
	assert.Len(t, out.Clusters, 4)
	assert.Nil(t, out.Scores)

	byLabel := map[int]int{}
	for i, label := range out.Labels {
		if g, ok := byLabel[label]; ok {
			assert.Equal(t, g, truth[i], "cluster %d mixes groups", label)
		}

		byLabel[label] = truth[i]
	}

	want := slices.Clone(sentences)
	sort.Strings(want)
	assert.Equal(t, want, sortedUnion(out.Clusters))

	for id, members := range out.Clusters {
		assert.NotEmpty(t, members, "cluster %d", id)
	}
}

func TestEngine_Run_optimizePicksBestSilhouette(t *testing.T) {
	sentences, vectors, _ := groupedVectors(5, 10, 8)

	out, err := New(Config{Workers: 3}).Run(context.Background(), sentences, vectors, true)
	require.NoError(t, err)

	keys := make([]int, 0, len(out.Scores))
	for k := range out.Scores {
		keys = append(keys, k)
	}

	sort.Ints(keys)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, keys)

	best := keys[0]
	for _, k := range keys {
		if out.Scores[k] > out.Scores[best] {
			best = k
		}
	}

	assert.Equal(t, best, out.K)
	assert.Equal(t, 5, out.K)
	assert.Len(t, out.Clusters, 5)
}

func TestEngine_Run_deterministic(t *testing.T) {
	sentences, vectors, _ := groupedVectors(3, 12, 5)
	e := New(Config{Seed: 99})

	first, err := e.Run(context.Background(), sentences, vectors, true)
	require.NoError(t, err)

	second, err := e.Run(context.Background(), sentences, vectors, true)
	require.NoError(t, err)

	assert.Equal(t, first.Labels, second.Labels)
	assert.Equal(t, first.Scores, second.Scores)
}

func TestEngine_Run_doesNotMutateInput(t *testing.T) {
	vectors := [][]float32{{3, 4}, {0, 2}, {5, 0}}
	_, err := New(Config{}).Cluster(context.Background(), []string{"a", "b", "c"}, vectors)
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{3, 4}, {0, 2}, {5, 0}}, vectors)
}

func TestEngine_Run_miniBatch(t *testing.T) {
	sentences, vectors, truth := groupedVectors(3, 30, 4)

	out, err := New(Config{MiniBatchThreshold: 64, MiniBatchSize: 32}).Run(context.Background(), sentences, vectors, false)
	require.NoError(t, err)
	assert.True(t, out.MiniBatch)

	groupOf := map[int]int{}
	for i, label := range out.Labels {
		if g, ok := groupOf[label]; ok {
			assert.Equal(t, g, truth[i], "cluster %d mixes groups", label)
		}

		groupOf[label] = truth[i]
	}

	want := slices.Clone(sentences)
	sort.Strings(want)
	assert.Equal(t, want, sortedUnion(out.Clusters))
}

func TestEngine_Run_dbscan(t *testing.T) {
	sentences, vectors, _ := groupedVectors(2, 6, 3)
	sentences = append(sentences, "outlier")
	vectors = append(vectors, []float32{0, 0, 1})

	out, err := New(Config{Algorithm: config.AlgorithmDBSCAN, Eps: 0.2, MinPoints: 3}).
		Run(context.Background(), sentences, vectors, false)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Noise)
	assert.Equal(t, 2, out.K)
	assert.Len(t, out.Clusters, 2)
	assert.Equal(t, NoiseLabel, out.Labels[len(out.Labels)-1])
	assert.NotContains(t, sortedUnion(out.Clusters), "outlier")
	assert.Len(t, sortedUnion(out.Clusters), 12)
}

func TestEngine_Run_canceled(t *testing.T) {
	sentences, vectors, _ := groupedVectors(3, 10, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Run(ctx, sentences, vectors, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSilhouette(t *testing.T) {
	ctx := context.Background()
	points := [][]float64{{0}, {1}, {10}, {11}}

	score, ok, err := silhouette(ctx, points, []int{0, 0, 1, 1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, (9.5/10.5+8.5/9.5)/2, score, 1e-9)

	_, ok, err = silhouette(ctx, points, []int{0, 0, 0, 0})
	require.NoError(t, err)
	assert.False(t, ok, "one label is undefined")

	_, ok, err = silhouette(ctx, points, []int{0, 1, 2, 3})
	require.NoError(t, err)
	assert.False(t, ok, "n labels is undefined")

	score, ok, err = silhouette(ctx, [][]float64{{0}, {1}, {10}}, []int{0, 0, 1})
	require.NoError(t, err)
	require.True(t, ok)
	// The singleton scores 0; both members of cluster 0 have a=1.
	assert.InDelta(t, (9.0/10.0+8.0/9.0)/3, score, 1e-9)
}

func TestKMeansPlusPlus_distinctSeeds(t *testing.T) {
	points := [][]float64{{0, 0}, {0, 0.1}, {5, 5}, {5, 5.1}, {9, 0}}
	rng := rand.New(rand.NewSource(1))

	centroids := kMeansPlusPlus(points, 3, rng)
	require.Len(t, centroids, 3)

	for i := range centroids {
		for j := i + 1; j < len(centroids); j++ {
			assert.NotEqual(t, centroids[i], centroids[j])
		}
	}
}
