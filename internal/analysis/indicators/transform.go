package indicators

import "math"

// Shift returns x lagged by k bars: out[i] = x[i-k]. Leading values are NaN.
// A negative k leads the series instead.
func Shift(x []float64, k int) []float64 {
	out := NaN(len(x))
	for i := range x {
		j := i - k
		if j >= 0 && j < len(x) {
			out[i] = x[j]
		}
	}
	return out
}

// Diff returns x[i] - x[i-k].
func Diff(x []float64, k int) []float64 {
	out := NaN(len(x))
	if k < 0 {
		return out
	}
	for i := k; i < len(x); i++ {
		out[i] = x[i] - x[i-k]
	}
	return out
}

// Clip bounds every defined value of x to [lo, hi]. NaN stays NaN.
func Clip(x []float64, lo, hi float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			out[i] = v
		case v < lo:
			out[i] = lo
		case v > hi:
			out[i] = hi
		default:
			out[i] = v
		}
	}
	return out
}

// Fill replaces NaN with v.
func Fill(x []float64, v float64) []float64 {
	out := make([]float64, len(x))
	for i, xv := range x {
		if math.IsNaN(xv) {
			out[i] = v
		} else {
			out[i] = xv
		}
	}
	return out
}

// FillFrom replaces NaN at index i with fallback[i].
func FillFrom(x, fallback []float64) []float64 {
	out := make([]float64, len(x))
	for i, xv := range x {
		if math.IsNaN(xv) && i < len(fallback) {
			out[i] = fallback[i]
		} else {
			out[i] = xv
		}
	}
	return out
}

// Replace substitutes target with v. Pass NaN-free targets only.
func Replace(x []float64, target, v float64) []float64 {
	out := make([]float64, len(x))
	for i, xv := range x {
		if xv == target {
			out[i] = v
		} else {
			out[i] = xv
		}
	}
	return out
}

// Finite replaces ±Inf and NaN with v.
func Finite(x []float64, v float64) []float64 {
	out := make([]float64, len(x))
	for i, xv := range x {
		if IsFinite(xv) {
			out[i] = xv
		} else {
			out[i] = v
		}
	}
	return out
}

// Floor raises every defined value below lo to lo.
func Floor(x []float64, lo float64) []float64 {
	return Clip(x, lo, math.Inf(1))
}

// ForwardFill carries the last defined value forward over NaN gaps.
func ForwardFill(x []float64) []float64 {
	out := make([]float64, len(x))
	last := math.NaN()
	for i, v := range x {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

// BackFill carries the next defined value backward over NaN gaps.
func BackFill(x []float64) []float64 {
	out := make([]float64, len(x))
	next := math.NaN()
	for i := len(x) - 1; i >= 0; i-- {
		if !math.IsNaN(x[i]) {
			next = x[i]
		}
		out[i] = next
	}
	return out
}

// CumSum returns the running sum of x. NaN contributes nothing.
func CumSum(x []float64) []float64 {
	out := make([]float64, len(x))
	var total float64
	for i, v := range x {
		if !math.IsNaN(v) {
			total += v
		}
		out[i] = total
	}
	return out
}

// Abs returns |x|.
func Abs(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

// Zip combines two aligned series element-wise.
func Zip(a, b []float64, fn func(a, b float64) float64) []float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = fn(a[i], b[i])
	}
	return out
}

// Map applies fn to every element of x.
func Map(x []float64, fn func(v float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = fn(v)
	}
	return out
}

// Rescale maps x into [lo, hi] relative to its rolling min/max over n bars:
// lo + (hi-lo)·(x - min)/(max - min + eps).
func Rescale(x []float64, n int, lo, hi, eps float64) ([]float64, error) {
	minV, err := RollingMin(x, n)
	if err != nil {
		return nil, err
	}
	maxV, err := RollingMax(x, n)
	if err != nil {
		return nil, err
	}
	out := NaN(len(x))
	for i, v := range x {
		if math.IsNaN(v) || math.IsNaN(minV[i]) || math.IsNaN(maxV[i]) {
			continue
		}
		out[i] = lo + (hi-lo)*(v-minV[i])/(maxV[i]-minV[i]+eps)
	}
	return out, nil
}
