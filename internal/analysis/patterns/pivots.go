// Package patterns provides windowed scans over price series: centered pivot
// detection, last-pivot tracking, body conviction and divergence.
package patterns

import (
	"errors"
	"math"
)

// ErrInvalidLookback is returned when a scan window is not positive.
var ErrInvalidLookback = errors.New("invalid lookback")

// Pivot is the state of one bar in a pivot scan.
type Pivot int8

const (
	// PivotUndefined marks bars whose centered window is incomplete or has missing values.
	PivotUndefined Pivot = iota
	// PivotNone marks bars that are not the extremum of their window.
	PivotNone
	// PivotFound marks bars equal to the extremum of their window. Ties count.
	PivotFound
)

func (p Pivot) String() string {
	switch p {
	case PivotNone:
		return "none"
	case PivotFound:
		return "pivot"
	default:
		return "undefined"
	}
}

// PivotLows flags bars whose value equals the minimum of the centered window
// [i-lookback, i+lookback].
func PivotLows(x []float64, lookback int) ([]Pivot, error) {
	return scanPivots(x, lookback, func(center, extreme float64) bool { return center <= extreme })
}

// PivotHighs flags bars whose value equals the maximum of the centered window
// [i-lookback, i+lookback].
func PivotHighs(x []float64, lookback int) ([]Pivot, error) {
	return scanPivots(x, lookback, func(center, extreme float64) bool { return center >= extreme })
}

// scanPivots walks every centered window of width 2·lookback+1. better reports
// whether the center is at least as extreme as a neighbour.
func scanPivots(x []float64, lookback int, better func(center, other float64) bool) ([]Pivot, error) {
	if lookback < 1 {
		return nil, ErrInvalidLookback
	}
	out := make([]Pivot, len(x))
	for i := range x {
		if i < lookback || i+lookback >= len(x) {
			continue
		}
		state := PivotFound
		for j := i - lookback; j <= i+lookback; j++ {
			if math.IsNaN(x[j]) {
				state = PivotUndefined
				break
			}
			if j != i && !better(x[i], x[j]) {
				state = PivotNone
			}
		}
		out[i] = state
	}
	return out, nil
}

// LastPivot forward-fills values[j] from the most recent found pivot j <= i.
// Before the first pivot the current bar's fallback value is used.
func LastPivot(pivots []Pivot, values, fallback []float64) []float64 {
	out := make([]float64, len(pivots))
	last := math.NaN()
	for i, p := range pivots {
		if p == PivotFound && i < len(values) {
			last = values[i]
		}
		if math.IsNaN(last) && i < len(fallback) {
			out[i] = fallback[i]
			continue
		}
		out[i] = last
	}
	return out
}
