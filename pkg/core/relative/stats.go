package relative

import (
	"math"
	"sort"
)

func mean(data []float64) float64 {
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func median(data []float64) float64 {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantile interpolates the p-quantile with the exclusive (n+1) plotting
// position, matching how the benchmark tables were produced.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	h := float64(n+1) * p
	if h <= 1 {
		return sorted[0]
	}
	if h >= float64(n) {
		return sorted[n-1]
	}
	lower := int(math.Floor(h))
	frac := h - float64(lower)
	return sorted[lower-1] + frac*(sorted[lower]-sorted[lower-1])
}

// removeOutliers drops values outside [Q1 - 1.5 IQR, Q3 + 1.5 IQR].
// Samples of fewer than 4 pass through untouched; the quartiles are not
// meaningful there.
func removeOutliers(data []float64) []float64 {
	if len(data) < 4 {
		return data
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	kept := make([]float64, 0, len(data))
	for _, v := range data {
		if v >= lower && v <= upper {
			kept = append(kept, v)
		}
	}
	return kept
}

// selectMultiple picks the working multiple from a peer sample: the median
// of the outlier-cleaned sample when at least 3 peers report the multiple,
// the plain mean below that, and fallback when no peer reports it.
func selectMultiple(sample []float64, fallback float64) float64 {
	if len(sample) == 0 {
		return fallback
	}
	if len(sample) >= 3 {
		return median(removeOutliers(sample))
	}
	return mean(sample)
}
