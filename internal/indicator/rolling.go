package indicator

import "math"

// rollingStd computes the trailing-window sample standard deviation for
// each index. An index gets NaN until the window behind it is full, or if
// the window contains an undefined value.
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))

	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}

		out[i] = windowStd(values[i-window+1 : i+1])
	}

	return out
}

// windowStd is the sample standard deviation of one full window. A flat
// window yields exactly 0.
func windowStd(window []float64) float64 {
	n := float64(len(window))
	if n < 2 {
		return math.NaN()
	}

	sum := 0.0

	for _, v := range window {
		if math.IsNaN(v) {
			return math.NaN()
		}

		sum += v
	}

	mean := sum / n

	squaredDiffSum := 0.0
	for _, v := range window {
		diff := v - mean
		squaredDiffSum += diff * diff
	}

	return math.Sqrt(squaredDiffSum / (n - 1))
}

// expandingRank returns the fractional rank of each value among all defined
// values observed up to and including it. Ties resolve to the average rank,
// so a flat volatility series never divides by zero and ranks stay in (0, 1].
func expandingRank(values []float64) []float64 {
	out := make([]float64, len(values))
	seen := make([]float64, 0, len(values))

	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}

		seen = append(seen, v)

		less := 0
		equal := 0

		for _, s := range seen {
			switch {
			case s < v:
				less++
			case s == v:
				equal++
			}
		}

		out[i] = (float64(less) + (float64(equal)+1)/2) / float64(len(seen))
	}

	return out
}
