package clustering

import "context"

const unvisited = -2

// dbscan labels points with density-based clusters. A point with at least minPoints neighbours
// within eps (itself included) is a core point; points reachable from no core point get NoiseLabel.
func dbscan(ctx context.Context, points [][]float64, eps float64, minPoints int) ([]int, error) {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}

	eps2 := eps * eps
	cluster := 0

	for i := range points {
		if labels[i] != unvisited {
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		neighbours := regionQuery(points, i, eps2)
		if len(neighbours) < minPoints {
			labels[i] = NoiseLabel

			continue
		}

		labels[i] = cluster

		for q := 0; q < len(neighbours); q++ {
			j := neighbours[q]

			if labels[j] == NoiseLabel {
				labels[j] = cluster
			}

			if labels[j] != unvisited {
				continue
			}

			labels[j] = cluster

			if more := regionQuery(points, j, eps2); len(more) >= minPoints {
				neighbours = append(neighbours, more...)
			}
		}

		cluster++
	}

	return labels, nil
}

func regionQuery(points [][]float64, i int, eps2 float64) []int {
	var out []int

	for j, p := range points {
		if sqDist(points[i], p) <= eps2 {
			out = append(out, j)
		}
	}

	return out
}
