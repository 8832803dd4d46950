package indicators

import "math"

// AccumDist returns the accumulation/distribution line:
// the running sum of ((close-low) - (high-close)) / (high-low) · volume.
// Bars with a zero range or any missing field contribute nothing.
func AccumDist(high, low, close, volume []float64) ([]float64, error) {
	n := len(close)
	if len(high) != n || len(low) != n || len(volume) != n {
		return nil, ErrLengthMismatch
	}
	out := make([]float64, n)
	var ad float64
	for i := 0; i < n; i++ {
		hl := high[i] - low[i]
		if IsFinite(hl) && hl > Epsilon && IsFinite(close[i]) && IsFinite(volume[i]) {
			ad += ((close[i] - low[i]) - (high[i] - close[i])) / hl * volume[i]
		}
		out[i] = ad
	}
	return out, nil
}

// MoneyFlowSplit splits typical-price money flow by the sign of the close change
// and smooths each side over n bars. Unavailable averages read 0.
func MoneyFlowSplit(high, low, close, volume []float64, n int) (pos, neg []float64, err error) {
	size := len(close)
	if len(high) != size || len(low) != size || len(volume) != size {
		return nil, nil, ErrLengthMismatch
	}
	up := make([]float64, size)
	down := make([]float64, size)
	for i := 0; i < size; i++ {
		mf := (high[i] + low[i] + close[i]) / 3 * volume[i]
		if !IsFinite(mf) {
			mf = 0
		}
		if i == 0 || math.IsNaN(close[i-1]) {
			continue
		}
		switch {
		case close[i] > close[i-1]:
			up[i] = mf
		case close[i] < close[i-1]:
			down[i] = mf
		}
	}
	if pos, err = SMA(up, n); err != nil {
		return nil, nil, err
	}
	if neg, err = SMA(down, n); err != nil {
		return nil, nil, err
	}
	return Fill(pos, 0), Fill(neg, 0), nil
}

// SignedVolume returns +volume on up closes, -volume on down closes and 0 otherwise.
func SignedVolume(close, volume []float64) []float64 {
	out := make([]float64, len(close))
	for i := 1; i < len(close) && i < len(volume); i++ {
		switch {
		case close[i] > close[i-1]:
			out[i] = volume[i]
		case close[i] < close[i-1]:
			out[i] = -volume[i]
		}
	}
	return out
}
