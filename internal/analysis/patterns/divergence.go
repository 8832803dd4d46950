package patterns

// DivergenceType represents the type of divergence.
type DivergenceType string

const (
	DivergenceRegularBullish DivergenceType = "REGULAR_BULLISH"
	DivergenceRegularBearish DivergenceType = "REGULAR_BEARISH"
)

// DivergenceDetector compares each bar against the last confirmed pivot.
type DivergenceDetector struct {
	priceTolerance float64 // relative move past the pivot price
	oscTolerance   float64 // relative move of the oscillator against the pivot
}

// NewDivergenceDetector creates a new divergence detector.
func NewDivergenceDetector(priceTolerance, oscTolerance float64) *DivergenceDetector {
	return &DivergenceDetector{
		priceTolerance: priceTolerance,
		oscTolerance:   oscTolerance,
	}
}

func (d *DivergenceDetector) Name() string {
	return "DivergenceDetector"
}

// Bullish flags bars where price undercuts the last pivot low while the
// oscillator holds above its value at that pivot.
func (d *DivergenceDetector) Bullish(low, pivotLow, osc, pivotOsc []float64) []bool {
	out := make([]bool, len(low))
	for i := range low {
		if i >= len(pivotLow) || i >= len(osc) || i >= len(pivotOsc) {
			break
		}
		lowerLow := low[i] < pivotLow[i]*(1-d.priceTolerance)
		higherLow := osc[i] > pivotOsc[i]*(1+d.oscTolerance)
		out[i] = lowerLow && higherLow
	}
	return out
}

// Bearish flags bars where price exceeds the last pivot high while the
// oscillator stays below its value at that pivot.
func (d *DivergenceDetector) Bearish(high, pivotHigh, osc, pivotOsc []float64) []bool {
	out := make([]bool, len(high))
	for i := range high {
		if i >= len(pivotHigh) || i >= len(osc) || i >= len(pivotOsc) {
			break
		}
		higherHigh := high[i] > pivotHigh[i]*(1+d.priceTolerance)
		lowerHigh := osc[i] < pivotOsc[i]*(1-d.oscTolerance)
		out[i] = higherHigh && lowerHigh
	}
	return out
}
