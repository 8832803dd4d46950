package indicators

import "math"

// RSI calculates the Relative Strength Index of x with Wilder smoothing.
// The first value is seeded with a simple average of n changes, so RSI needs
// n+1 observations. A NaN observation restarts the seed.
//
// Flat windows (no gains and no losses) read 50; windows with no losses read 100.
func RSI(x []float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, ErrInvalidPeriod
	}
	if len(x) < n+1 {
		return nil, ErrInsufficientData
	}

	out := NaN(len(x))
	var avgGain, avgLoss float64
	seeded := false
	valid := 0
	gains := make([]float64, 0, n)
	losses := make([]float64, 0, n)

	for i := 1; i < len(x); i++ {
		change := x[i] - x[i-1]
		if math.IsNaN(change) {
			seeded = false
			valid = 0
			gains = gains[:0]
			losses = losses[:0]
			continue
		}
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		if !seeded {
			gains = append(gains, gain)
			losses = append(losses, loss)
			valid++
			if valid < n {
				continue
			}
			avgGain = mean(gains)
			avgLoss = mean(losses)
			seeded = true
		} else {
			avgGain = (avgGain*float64(n-1) + gain) / float64(n)
			avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		}
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case avgGain == 0 && avgLoss == 0:
		return 50
	case avgLoss == 0:
		return 100
	default:
		rs := avgGain / avgLoss
		return 100 - (100 / (1 + rs))
	}
}

// ROC calculates the rate of change x[t]/x[t-n] - 1.
func ROC(x []float64, n int) ([]float64, error) {
	if n < 1 {
		return nil, ErrInvalidPeriod
	}
	if len(x) < n+1 {
		return nil, ErrInsufficientData
	}

	out := NaN(len(x))
	for i := n; i < len(x); i++ {
		base := x[i-n]
		if math.IsNaN(base) || math.IsNaN(x[i]) {
			continue
		}
		if math.Abs(base) < Epsilon {
			base = math.Copysign(Epsilon, base)
		}
		out[i] = x[i]/base - 1
	}
	return out, nil
}
