// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package quality

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type kmeansResult struct {
	centroids [][]float64
	labels    []int
	inertia   float64
}

// kmeans runs Lloyd's algorithm from restarts k-means++ seedings drawn
// from one rng and keeps the lowest-inertia result.
func kmeans(ctx context.Context, X [][]float64, k int, cfg Config) (kmeansResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible clustering
	tol := cfg.Tolerance * meanVariance(X)

	best := kmeansResult{inertia: math.Inf(1)}
	for r := 0; r < cfg.Restarts; r++ {
		if err := ctx.Err(); err != nil {
			return kmeansResult{}, err
		}
		res := lloyd(X, seedPlusPlus(X, k, rng), cfg.MaxIterations, tol)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best, nil
}

// seedPlusPlus picks k initial centroids, each new one drawn with
// probability proportional to its squared distance from the nearest
// centroid already chosen.
func seedPlusPlus(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), X[rng.Intn(len(X))]...))

	d2 := make([]float64, len(X))
	for i := range X {
		d2[i] = sqDist(X[i], centroids[0])
	}
	for len(centroids) < k {
		total := floats.Sum(d2)
		next := rng.Intn(len(X))
		if total > 0 {
			u := rng.Float64() * total
			for i, d := range d2 {
				u -= d
				if u <= 0 {
					next = i
					break
				}
			}
		}
		c := append([]float64(nil), X[next]...)
		centroids = append(centroids, c)
		for i := range X {
			if d := sqDist(X[i], c); d < d2[i] {
				d2[i] = d
			}
		}
	}
	return centroids
}

func lloyd(X [][]float64, centroids [][]float64, maxIter int, tol float64) kmeansResult {
	k, p := len(centroids), len(X[0])
	labels := make([]int, len(X))

	for iter := 0; iter < maxIter; iter++ {
		assign(X, centroids, labels)

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, p)
		}
		for i, x := range X {
			floats.Add(next[labels[i]], x)
			counts[labels[i]]++
		}
		for c := range next {
			if counts[c] == 0 {
				// Reseed an empty cluster at the point farthest from its centroid.
				far, farD := 0, -1.0
				for i, x := range X {
					if d := sqDist(x, centroids[labels[i]]); d > farD {
						far, farD = i, d
					}
				}
				copy(next[c], X[far])
				continue
			}
			floats.Scale(1/float64(counts[c]), next[c])
		}

		shift := 0.0
		for c := range next {
			shift += sqDist(next[c], centroids[c])
		}
		centroids = next
		if shift <= tol {
			break
		}
	}

	inertia := assign(X, centroids, labels)
	return kmeansResult{centroids: centroids, labels: labels, inertia: inertia}
}

// assign sets each label to the nearest centroid, lowest index on ties,
// and returns the total squared distance.
func assign(X [][]float64, centroids [][]float64, labels []int) float64 {
	var inertia float64
	for i, x := range X {
		best, bestD := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(x, centroid); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
		inertia += bestD
	}
	return inertia
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func meanVariance(X [][]float64) float64 {
	if len(X) == 0 {
		return 0
	}
	p := len(X[0])
	col := make([]float64, len(X))
	var sum float64
	for j := 0; j < p; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		_, v := stat.PopMeanVariance(col, nil)
		sum += v
	}
	return sum / float64(p)
}
