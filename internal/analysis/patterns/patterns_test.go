package patterns

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPivotLowsBoundaries(t *testing.T) {
	x := []float64{5, 4, 3, 2, 1, 2, 3, 4, 5}
	got, err := PivotLows(x, 2)
	if err != nil {
		t.Fatalf("PivotLows: %v", err)
	}
	want := []Pivot{
		PivotUndefined, PivotUndefined,
		PivotNone, PivotNone, PivotFound, PivotNone, PivotNone,
		PivotUndefined, PivotUndefined,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PivotLows = %v, want %v", got, want)
	}
}

func TestPivotTiesCount(t *testing.T) {
	x := []float64{3, 3, 3, 3, 3}
	lows, _ := PivotLows(x, 1)
	highs, _ := PivotHighs(x, 1)
	for i := 1; i < 4; i++ {
		if lows[i] != PivotFound || highs[i] != PivotFound {
			t.Errorf("flat bar %d: low=%v high=%v", i, lows[i], highs[i])
		}
	}
}

func TestPivotNaNWindowUndefined(t *testing.T) {
	x := []float64{1, 2, math.NaN(), 2, 1, 0, 1}
	got, _ := PivotLows(x, 1)
	if got[1] != PivotUndefined || got[3] != PivotUndefined {
		t.Errorf("windows touching NaN must be undefined: %v", got)
	}
	if got[5] != PivotFound {
		t.Errorf("bar 5 should be a pivot low: %v", got)
	}
}

func TestPivotInvalidLookback(t *testing.T) {
	if _, err := PivotHighs([]float64{1, 2, 3}, 0); err != ErrInvalidLookback {
		t.Errorf("expected ErrInvalidLookback, got %v", err)
	}
}

func TestLastPivot(t *testing.T) {
	pivots := []Pivot{PivotUndefined, PivotNone, PivotFound, PivotNone, PivotFound, PivotUndefined}
	values := []float64{10, 11, 12, 13, 14, 15}
	fallback := []float64{-1, -2, -3, -4, -5, -6}
	got := LastPivot(pivots, values, fallback)
	want := []float64{-1, -2, 12, 12, 14, 14}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LastPivot = %v, want %v", got, want)
	}
}

func TestBodyConviction(t *testing.T) {
	body := []float64{1, 2, 3, 0.5, 4}
	got, err := BodyConviction(body, 3)
	if err != nil {
		t.Fatalf("BodyConviction: %v", err)
	}
	if !math.IsNaN(got[0]) {
		t.Errorf("first bar must be undefined, got %v", got[0])
	}
	want := []float64{100, 100, 0, 100}
	for i, w := range want {
		if got[i+1] != w {
			t.Errorf("conviction[%d] = %v, want %v", i+1, got[i+1], w)
		}
	}
}

func TestDivergenceDetector(t *testing.T) {
	d := NewDivergenceDetector(0.002, 0.05)

	bull := d.Bullish([]float64{99, 100}, []float64{100, 100}, []float64{2, 2}, []float64{1, 2})
	if !bull[0] || bull[1] {
		t.Errorf("Bullish = %v", bull)
	}
	bear := d.Bearish([]float64{101, 100}, []float64{100, 100}, []float64{1, 2}, []float64{2, 2})
	if !bear[0] || bear[1] {
		t.Errorf("Bearish = %v", bear)
	}
}

func TestProperty_PivotIsWindowExtremum(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("found pivot lows are the minimum of their window", prop.ForAll(
		func(x []float64) bool {
			lookback := 3
			pivots, err := PivotLows(x, lookback)
			if err != nil {
				return false
			}
			for i, p := range pivots {
				edge := i < lookback || i+lookback >= len(x)
				if edge && p != PivotUndefined {
					return false
				}
				if p != PivotFound {
					continue
				}
				for j := i - lookback; j <= i+lookback; j++ {
					if x[j] < x[i] {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.Float64Range(1, 100)),
	))

	properties.Property("body conviction stays within [0, 100]", prop.ForAll(
		func(x []float64) bool {
			values, err := BodyConviction(x, 10)
			if err != nil {
				return false
			}
			for _, v := range values {
				if math.IsNaN(v) {
					continue
				}
				if v < 0 || v > 100 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.Float64Range(0, 50)),
	))

	properties.TestingRun(t)
}
