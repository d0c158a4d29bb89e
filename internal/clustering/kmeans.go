package clustering

import (
	"context"
	"math"
	"math/rand"
	"slices"
)

func sqDist(a, b []float64) float64 {
	var sum float64

	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return sum
}

// nearest returns the index of the closest centroid and the squared distance to it.
// Ties go to the lower index.
func nearest(p []float64, centroids [][]float64) (int, float64) {
	best, bestDist := 0, math.Inf(1)

	for i, c := range centroids {
		if d := sqDist(p, c); d < bestDist {
			best, bestDist = i, d
		}
	}

	return best, bestDist
}

// kMeansPlusPlus picks k initial centroids: the first uniformly, the rest with probability
// proportional to the squared distance to the closest centroid chosen so far.
func kMeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, slices.Clone(points[rng.Intn(n)]))

	d2 := make([]float64, n)
	for i, p := range points {
		d2[i] = sqDist(p, centroids[0])
	}

	for len(centroids) < k {
		var total float64
		for _, d := range d2 {
			total += d
		}

		idx := rng.Intn(n)

		if total > 0 {
			target := rng.Float64() * total

			var cum float64

			for i, d := range d2 {
				if d == 0 {
					continue
				}

				idx = i
				cum += d

				if cum >= target {
					break
				}
			}
		}

		c := slices.Clone(points[idx])
		centroids = append(centroids, c)

		for i, p := range points {
			if d := sqDist(p, c); d < d2[i] {
				d2[i] = d
			}
		}
	}

	return centroids
}

// lloyd refines centroids in place until no label changes or maxIter is reached.
// It returns the labels and the inertia (sum of squared distances to assigned centroids).
func lloyd(ctx context.Context, points, centroids [][]float64, maxIter int) ([]int, float64, error) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		changed := false

		for i, p := range points {
			if c, _ := nearest(p, centroids); labels[i] != c {
				labels[i] = c
				changed = true
			}
		}

		if !changed {
			break
		}

		updateCentroids(points, labels, centroids)
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}

	return labels, inertia, nil
}

// updateCentroids moves every centroid to the mean of its points. An empty cluster is
// re-seeded with the point farthest from its current centroid.
func updateCentroids(points [][]float64, labels []int, centroids [][]float64) {
	dim := len(points[0])
	counts := make([]int, len(centroids))
	sums := make([][]float64, len(centroids))

	for c := range sums {
		sums[c] = make([]float64, dim)
	}

	for i, p := range points {
		c := labels[i]
		counts[c]++

		for d, v := range p {
			sums[c][d] += v
		}
	}

	used := make(map[int]bool)

	for c := range centroids {
		if counts[c] > 0 {
			for d := range sums[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}

			continue
		}

		far, farDist := -1, -1.0

		for i, p := range points {
			if used[i] {
				continue
			}

			if d := sqDist(p, centroids[labels[i]]); d > farDist {
				far, farDist = i, d
			}
		}

		if far >= 0 {
			used[far] = true
			copy(centroids[c], points[far])
		}
	}
}

// fitKMeans runs nInit seeded k-means++ initialisations followed by Lloyd iterations and keeps
// the labelling with the lowest inertia (first one on ties).
func fitKMeans(ctx context.Context, points [][]float64, k, maxIter, nInit int, rng *rand.Rand) ([]int, error) {
	var (
		best        []int
		bestInertia = math.Inf(1)
	)

	for range max(1, nInit) {
		centroids := kMeansPlusPlus(points, k, rng)

		labels, inertia, err := lloyd(ctx, points, centroids, maxIter)
		if err != nil {
			return nil, err
		}

		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	return best, nil
}

// fitMiniBatch seeds centroids with k-means++ on a random sample of up to three batches,
// streams points through partialFit in chunks of batchSize, then labels every point against
// the final centroids.
func fitMiniBatch(ctx context.Context, points [][]float64, k, batchSize int, rng *rand.Rand) ([]int, error) {
	n := len(points)

	sample := points
	if initSize := max(3*batchSize, k); initSize < n {
		sample = make([][]float64, initSize)
		for i, idx := range rng.Perm(n)[:initSize] {
			sample[i] = points[idx]
		}
	}

	centroids := kMeansPlusPlus(sample, k, rng)
	counts := make([]float64, k)

	for start := 0; start < n; start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		partialFit(points[start:min(start+batchSize, n)], centroids, counts)
	}

	labels := make([]int, n)

	for start := 0; start < n; start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := start; i < min(start+batchSize, n); i++ {
			labels[i], _ = nearest(points[i], centroids)
		}
	}

	return labels, nil
}

// partialFit moves each point's nearest centroid towards it with a per-centroid learning
// rate of 1/count, where count is the number of points that centroid has absorbed so far.
func partialFit(chunk, centroids [][]float64, counts []float64) {
	assigned := make([]int, len(chunk))
	for i, p := range chunk {
		assigned[i], _ = nearest(p, centroids)
	}

	for i, p := range chunk {
		c := assigned[i]
		counts[c]++
		eta := 1 / counts[c]

		for d := range centroids[c] {
			centroids[c][d] += eta * (p[d] - centroids[c][d])
		}
	}
}
