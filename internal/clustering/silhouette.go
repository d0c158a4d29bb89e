package clustering

import (
	"context"
	"math"
)

// silhouette returns the mean silhouette coefficient of labels over points using Euclidean
// distance. Points in singleton clusters score 0. ok is false when the score is undefined
// (fewer than 2 or more than n-1 distinct labels).
func silhouette(ctx context.Context, points [][]float64, labels []int) (score float64, ok bool, err error) {
	n := len(points)

	dense := make(map[int]int)
	lab := make([]int, n)

	for i, l := range labels {
		id, seen := dense[l]
		if !seen {
			id = len(dense)
			dense[l] = id
		}

		lab[i] = id
	}

	m := len(dense)
	if m < 2 || m > n-1 {
		return 0, false, nil
	}

	sizes := make([]int, m)
	for _, l := range lab {
		sizes[l]++
	}

	// sums[i][c] is the total distance from point i to the points of cluster c.
	sums := make([][]float64, n)
	for i := range sums {
		sums[i] = make([]float64, m)
	}

	for i := range n {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}

		for j := i + 1; j < n; j++ {
			d := math.Sqrt(sqDist(points[i], points[j]))
			sums[i][lab[j]] += d
			sums[j][lab[i]] += d
		}
	}

	var total float64

	for i := range n {
		own := lab[i]
		if sizes[own] == 1 {
			continue
		}

		a := sums[i][own] / float64(sizes[own]-1)
		b := math.Inf(1)

		for c := range m {
			if c == own {
				continue
			}

			if v := sums[i][c] / float64(sizes[c]); v < b {
				b = v
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}

	return total / float64(n), true, nil
}
