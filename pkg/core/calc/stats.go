// Package calc holds the shared statistical helpers behind the simulation
// and risk layers. Every aggregate rejects an empty sample set with
// ErrNoSamples instead of inventing a zero or a NaN.
package calc

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoSamples is returned by every aggregate asked to summarize nothing.
var ErrNoSamples = errors.New("no samples to aggregate")

// Mean returns the arithmetic mean.
func Mean(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	return stat.Mean(samples, nil), nil
}

// StdDev returns the sample standard deviation (n-1 denominator). A single
// sample has no spread and reports zero rather than NaN.
func StdDev(samples []float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	if len(samples) == 1 {
		return 0, nil
	}
	return stat.StdDev(samples, nil), nil
}

// Percentile returns the p-th percentile (p in [0,100]) using linear
// interpolation between the two nearest order statistics, at the
// inclusive rank p/100*(n-1). The input is copied before sorting; the
// caller's slice is never reordered.
func Percentile(samples []float64, p float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	if p < 0 || p > 100 {
		return 0, fmt.Errorf("percentile %v outside [0, 100]", p)
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return interpolate(sorted, p), nil
}

// Percentiles evaluates several percentile levels over one sorted pass.
func Percentiles(samples []float64, levels []float64) (map[float64]float64, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	out := make(map[float64]float64, len(levels))
	for _, p := range levels {
		if p < 0 || p > 100 {
			return nil, fmt.Errorf("percentile %v outside [0, 100]", p)
		}
		out[p] = interpolate(sorted, p)
	}
	return out, nil
}

// interpolate reads the p-th percentile off an ascending sample. The
// continuous rank p/100*(n-1) straddles two order statistics; the
// result is the linear blend of the pair.
func interpolate(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// ProbabilityBelow returns the fraction of samples strictly below the
// threshold.
func ProbabilityBelow(samples []float64, threshold float64) (float64, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	count := 0
	for _, s := range samples {
		if s < threshold {
			count++
		}
	}
	return float64(count) / float64(len(samples)), nil
}

// MinMax returns the smallest and largest sample.
func MinMax(samples []float64) (min, max float64, err error) {
	if len(samples) == 0 {
		return 0, 0, ErrNoSamples
	}
	return floats.Min(samples), floats.Max(samples), nil
}
