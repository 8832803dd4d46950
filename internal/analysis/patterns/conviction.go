package patterns

import "math"

// BodyConviction returns, for each bar, the percentage of the preceding
// window-1 bars whose body is smaller than the current one.
// Partial windows are used once at least two bars are available; the first
// bar and bars with a missing body are NaN.
func BodyConviction(body []float64, window int) ([]float64, error) {
	if window < 2 {
		return nil, ErrInvalidLookback
	}
	out := make([]float64, len(body))
	for i := range body {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		prior := body[start:i]
		if len(prior) == 0 || math.IsNaN(body[i]) {
			out[i] = math.NaN()
			continue
		}
		smaller := 0
		for _, b := range prior {
			if b < body[i] {
				smaller++
			}
		}
		out[i] = float64(smaller) / float64(len(prior)) * 100
	}
	return out, nil
}

// Signed returns v where up[i] is true and -v elsewhere.
func Signed(v []float64, up []bool) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		if i < len(up) && up[i] {
			out[i] = v[i]
		} else {
			out[i] = -v[i]
		}
	}
	return out
}
