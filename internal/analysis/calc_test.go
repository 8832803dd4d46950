package analysis

import (
	"math"
	"testing"

	"sanket-signals/internal/analysis/indicators"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

func TestCalcSeries(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	c := NewCalc(models.ModelROCSlope, len(x))

	sma := c.Series("sma")(indicators.SMA(x, 2))
	if len(sma) != len(x) || sma[4] != 4.5 {
		t.Errorf("sma = %v", sma)
	}
	if c.Err() != nil {
		t.Fatalf("unexpected failure: %v", c.Err())
	}

	bad := c.Series("rsi")(indicators.RSI(x, 0))
	if len(bad) != len(x) {
		t.Fatalf("failed stage returned %d values, want %d", len(bad), len(x))
	}
	for i, v := range bad {
		if !math.IsNaN(v) {
			t.Errorf("bad[%d] = %v, want NaN", i, v)
		}
	}
	c.Series("stdev")(indicators.StdDev(x, -1))

	var ce *errors.CalcError
	if !errors.As(c.Err(), &ce) || ce.Stage != "rsi" || ce.Model != string(models.ModelROCSlope) {
		t.Errorf("Err() = %v, want the first failure at stage rsi", c.Err())
	}
	if !errors.Is(c.Err(), errors.ErrCalc) {
		t.Error("calc failures should match ErrCalc")
	}
}

func TestCalcFail(t *testing.T) {
	c := NewCalc(models.ModelILFO, 3)
	c.Fail("pivot lows", errors.ErrInvalidData)
	c.Fail("pivot highs", errors.ErrNoData)

	var ce *errors.CalcError
	if !errors.As(c.Err(), &ce) || ce.Stage != "pivot lows" || !errors.Is(c.Err(), errors.ErrInvalidData) {
		t.Errorf("Err() = %v", c.Err())
	}
}
