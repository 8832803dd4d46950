package indicators

import "math"

// StdDev returns the population standard deviation of x over n bars.
func StdDev(x []float64, n int) ([]float64, error) {
	if err := checkWindow(x, n); err != nil {
		return nil, err
	}
	return rolling(x, n, stdDev), nil
}

// Bands holds mean ± k·stdev envelopes.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
	StdDev []float64
}

// BollingerBands returns SMA(x, n) ± k·StdDev(x, n).
func BollingerBands(x []float64, n int, k float64) (*Bands, error) {
	middle, err := SMA(x, n)
	if err != nil {
		return nil, err
	}
	sd, err := StdDev(x, n)
	if err != nil {
		return nil, err
	}
	upper := NaN(len(x))
	lower := NaN(len(x))
	for i := range x {
		if math.IsNaN(middle[i]) || math.IsNaN(sd[i]) {
			continue
		}
		upper[i] = middle[i] + k*sd[i]
		lower[i] = middle[i] - k*sd[i]
	}
	return &Bands{Upper: upper, Middle: middle, Lower: lower, StdDev: sd}, nil
}

// ZScore returns (x - mean) / stdev where stdev is floored at eps.
func ZScore(x, mean, stdev []float64, eps float64) []float64 {
	out := NaN(len(x))
	for i := range x {
		if i >= len(mean) || i >= len(stdev) {
			break
		}
		sd := stdev[i]
		if math.IsNaN(x[i]) || math.IsNaN(mean[i]) || math.IsNaN(sd) {
			continue
		}
		if sd < eps {
			sd = eps
		}
		out[i] = (x[i] - mean[i]) / sd
	}
	return out
}
