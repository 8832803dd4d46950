package indicators

import "math"

// SMA returns the simple moving average of x over n bars.
func SMA(x []float64, n int) ([]float64, error) {
	if err := checkWindow(x, n); err != nil {
		return nil, err
	}
	return rolling(x, n, mean), nil
}

// LinReg returns the least-squares line fitted over each n-bar window,
// evaluated at the window's last bar.
func LinReg(x []float64, n int) ([]float64, error) {
	if err := checkWindow(x, n); err != nil {
		return nil, err
	}
	if n == 1 {
		out := make([]float64, len(x))
		copy(out, x)
		return out, nil
	}

	// x-coordinates are 0..n-1; their sums are fixed.
	fn := float64(n)
	sumX := fn * (fn - 1) / 2
	sumX2 := (fn - 1) * fn * (2*fn - 1) / 6
	den := fn*sumX2 - sumX*sumX

	return rolling(x, n, func(w []float64) float64 {
		var sumY, sumXY float64
		for i, y := range w {
			sumY += y
			sumXY += float64(i) * y
		}
		slope := (fn*sumXY - sumX*sumY) / den
		intercept := (sumY - slope*sumX) / fn
		return intercept + slope*(fn-1)
	}), nil
}

// RollingMin returns the minimum of x over n bars.
func RollingMin(x []float64, n int) ([]float64, error) {
	if err := checkWindow(x, n); err != nil {
		return nil, err
	}
	return rolling(x, n, lowest), nil
}

// RollingMax returns the maximum of x over n bars.
func RollingMax(x []float64, n int) ([]float64, error) {
	if err := checkWindow(x, n); err != nil {
		return nil, err
	}
	return rolling(x, n, highest), nil
}

// RollingQuantile returns the q-quantile of x over n bars using linear
// interpolation between order statistics.
func RollingQuantile(x []float64, n int, q float64) ([]float64, error) {
	if err := checkWindow(x, n); err != nil {
		return nil, err
	}
	if q < 0 || q > 1 || math.IsNaN(q) {
		return nil, ErrInvalidPeriod
	}
	buf := make([]float64, n)
	return rolling(x, n, func(w []float64) float64 {
		copy(buf, w)
		insertionSort(buf)
		pos := q * float64(n-1)
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		frac := pos - float64(lo)
		return buf[lo] + (buf[hi]-buf[lo])*frac
	}), nil
}

func insertionSort(a []float64) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}
