package clustering

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Candidates returns the cluster counts scored in optimize mode for n points: 2 up to
// min(maxK, round(1.5*sqrt(n))) with a stride of max(1, round((upper-2)/numCandidates)).
// Counts at or above n are skipped since the silhouette is undefined there.
func Candidates(n, maxK, numCandidates int) []int {
	upper := min(maxK, int(math.Round(1.5*math.Sqrt(float64(n)))))
	stride := max(1, int(math.Round(float64(upper-2)/float64(max(1, numCandidates)))))

	var ks []int

	for k := 2; k <= upper && k < n; k += stride {
		ks = append(ks, k)
	}

	return ks
}

// search scores every candidate on a bounded pool and returns the k with the best silhouette
// (smallest k on ties), or 0 when no candidate produced a defined score.
func (e *Engine) search(ctx context.Context, points [][]float64) (int, map[int]float64, error) {
	ks := Candidates(len(points), e.cfg.MaxK, e.cfg.Candidates)
	scores := make(map[int]float64, len(ks))

	if len(ks) == 0 {
		return 0, scores, nil
	}

	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for _, k := range ks {
		g.Go(func() error {
			labels, err := e.partition(gctx, points, k)
			if err != nil {
				return err
			}

			score, ok, err := silhouette(gctx, points, labels)
			if err != nil {
				return err
			}

			if !ok {
				return nil
			}

			mu.Lock()
			scores[k] = score
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	best := 0

	for _, k := range ks {
		s, ok := scores[k]
		if !ok {
			continue
		}

		if best == 0 || s > scores[best] {
			best = k
		}
	}

	return best, scores, nil
}
