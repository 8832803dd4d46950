// Package indicators provides rolling-window statistics over numeric series.
//
// A series is a []float64 aligned to bar indices. NaN marks a value that is
// not yet available; any window containing NaN produces NaN. Functions never
// mutate their inputs.
package indicators

import (
	"errors"
	"math"
)

var (
	// ErrInsufficientData is returned when there's not enough data for calculation.
	ErrInsufficientData = errors.New("insufficient data for calculation")
	// ErrInvalidPeriod is returned when the period is invalid.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrLengthMismatch is returned when input series are not aligned.
	ErrLengthMismatch = errors.New("series length mismatch")
)

// Epsilon is the floor applied to degenerate denominators.
const Epsilon = 1e-10

// NaN returns a series of n NaN values.
func NaN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Const returns a series of n copies of v.
func Const(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkWindow(x []float64, n int) error {
	if n < 1 {
		return ErrInvalidPeriod
	}
	if len(x) < n {
		return ErrInsufficientData
	}
	return nil
}

// rolling applies fn to every complete window of length n ending at each index.
// Indices before n-1 and windows containing NaN yield NaN.
func rolling(x []float64, n int, fn func(w []float64) float64) []float64 {
	out := NaN(len(x))
	nanCount := 0
	for i, v := range x {
		if math.IsNaN(v) {
			nanCount++
		}
		if i >= n && math.IsNaN(x[i-n]) {
			nanCount--
		}
		if i < n-1 || nanCount > 0 {
			continue
		}
		out[i] = fn(x[i-n+1 : i+1])
	}
	return out
}

// sum calculates the sum of a slice of float64.
func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// mean calculates the arithmetic mean of a slice of float64.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

// stdDev calculates the population standard deviation of a slice of float64.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

// highest returns the highest value in a slice.
func highest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	h := values[0]
	for _, v := range values[1:] {
		if v > h {
			h = v
		}
	}
	return h
}

// lowest returns the lowest value in a slice.
func lowest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	l := values[0]
	for _, v := range values[1:] {
		if v < l {
			l = v
		}
	}
	return l
}

// Mean returns the mean of the defined values of x, or NaN if none are defined.
func Mean(x []float64) float64 {
	var total float64
	var count int
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return total / float64(count)
}

// Std returns the population standard deviation of the defined values of x,
// or NaN if none are defined.
func Std(x []float64) float64 {
	m := Mean(x)
	if math.IsNaN(m) {
		return math.NaN()
	}
	var variance float64
	var count int
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		d := v - m
		variance += d * d
		count++
	}
	return math.Sqrt(variance / float64(count))
}

// AllNaN reports whether x has no defined value.
func AllNaN(x []float64) bool {
	for _, v := range x {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
