package indicator

import "math"

// rsi computes the relative strength index over mean gains and mean losses
// in a trailing window of day-over-day close changes. When the window holds
// no losses the value is exactly 100 rather than a division error; a fully
// flat window (no gains either) is treated the same way.
func rsi(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))

	for i := range closes {
		if i < period {
			out[i] = math.NaN()
			continue
		}

		gainSum := 0.0
		lossSum := 0.0

		for j := i - period + 1; j <= i; j++ {
			change := closes[j] - closes[j-1]
			if change > 0 {
				gainSum += change
			} else {
				lossSum -= change
			}
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}

		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}

	return out
}
