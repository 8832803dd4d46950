package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// seriesGen generates positive price-like series of length between minLen and maxLen.
func seriesGen(minLen, maxLen int) gopter.Gen {
	return gen.IntRange(minLen, maxLen).FlatMap(func(v interface{}) gopter.Gen {
		return gen.SliceOfN(v.(int), gen.Float64Range(1.0, 1000.0))
	}, reflect.TypeOf([]float64{}))
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

func TestProperty_WindowPreconditions(t *testing.T) {
	properties := newProperties()

	properties.Property("window functions reject n < 1 and short series", prop.ForAll(
		func(x []float64, n int) bool {
			fns := []func([]float64, int) ([]float64, error){SMA, StdDev, LinReg, RollingMin, RollingMax}
			for _, fn := range fns {
				if _, err := fn(x, 0); err != ErrInvalidPeriod {
					return false
				}
				_, err := fn(x, n)
				if n > len(x) && err != ErrInsufficientData {
					return false
				}
				if n <= len(x) && err != nil {
					return false
				}
			}
			return true
		},
		seriesGen(1, 40),
		gen.IntRange(1, 60),
	))

	properties.TestingRun(t)
}

func TestProperty_UndefinedBeforeWindow(t *testing.T) {
	properties := newProperties()

	properties.Property("values before index n-1 are NaN and after are defined", prop.ForAll(
		func(x []float64, n int) bool {
			values, err := SMA(x, n)
			if err != nil {
				return n > len(x)
			}
			for i, v := range values {
				if i < n-1 && !math.IsNaN(v) {
					return false
				}
				if i >= n-1 && math.IsNaN(v) {
					return false
				}
			}
			return true
		},
		seriesGen(5, 60),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

func TestProperty_NoInputMutation(t *testing.T) {
	properties := newProperties()

	properties.Property("inputs are left unchanged", prop.ForAll(
		func(x []float64) bool {
			orig := make([]float64, len(x))
			copy(orig, x)

			_, _ = SMA(x, 5)
			_, _ = StdDev(x, 5)
			_, _ = RSI(x, 9)
			_, _ = ROC(x, 5)
			_, _ = LinReg(x, 5)
			_, _ = RollingQuantile(x, 5, 0.95)
			_ = Clip(x, 10, 20)
			_ = ForwardFill(x)

			for i := range x {
				if x[i] != orig[i] {
					return false
				}
			}
			return true
		},
		seriesGen(12, 60),
	))

	properties.TestingRun(t)
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	properties := newProperties()

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(x []float64) bool {
			values, err := RSI(x, 14)
			if err != nil {
				return len(x) < 15
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
		seriesGen(5, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_StdDevNonNegative(t *testing.T) {
	properties := newProperties()

	properties.Property("standard deviation is never negative", prop.ForAll(
		func(x []float64) bool {
			values, err := StdDev(x, 10)
			if err != nil {
				return true
			}
			for _, v := range values {
				if v < 0 {
					return false
				}
			}
			return true
		},
		seriesGen(10, 80),
	))

	properties.TestingRun(t)
}

func TestProperty_BollingerBandsOrdering(t *testing.T) {
	properties := newProperties()

	properties.Property("Bollinger Bands: Lower <= Middle <= Upper", prop.ForAll(
		func(x []float64) bool {
			bb, err := BollingerBands(x, 20, 2.0)
			if err != nil {
				return true
			}
			for i := 19; i < len(x); i++ {
				if bb.Lower[i] > bb.Middle[i] || bb.Middle[i] > bb.Upper[i] {
					return false
				}
			}
			return true
		},
		seriesGen(25, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_SMAIsAverage(t *testing.T) {
	properties := newProperties()

	properties.Property("SMA is the arithmetic mean over the period", prop.ForAll(
		func(x []float64) bool {
			period := 10
			values, err := SMA(x, period)
			if err != nil {
				return true
			}
			for i := period - 1; i < len(values); i++ {
				if math.Abs(values[i]-mean(x[i-period+1:i+1])) > 0.0001 {
					return false
				}
			}
			return true
		},
		seriesGen(15, 50),
	))

	properties.TestingRun(t)
}

func TestProperty_QuantileBetweenMinAndMax(t *testing.T) {
	properties := newProperties()

	properties.Property("rolling quantile lies within the rolling range", prop.ForAll(
		func(x []float64, q float64) bool {
			qs, err := RollingQuantile(x, 20, q)
			if err != nil {
				return true
			}
			lo, _ := RollingMin(x, 20)
			hi, _ := RollingMax(x, 20)
			for i := 19; i < len(x); i++ {
				if qs[i] < lo[i]-1e-9 || qs[i] > hi[i]+1e-9 {
					return false
				}
			}
			return true
		},
		seriesGen(20, 60),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

func TestProperty_RescaleWithinRange(t *testing.T) {
	properties := newProperties()

	properties.Property("rescaled values stay inside [-8, 8]", prop.ForAll(
		func(x []float64) bool {
			values, err := Rescale(x, 20, -8, 8, 1e-9)
			if err != nil {
				return true
			}
			for _, v := range values {
				if math.IsNaN(v) {
					continue
				}
				if v < -8-1e-9 || v > 8+1e-9 {
					return false
				}
			}
			return true
		},
		seriesGen(20, 80),
	))

	properties.TestingRun(t)
}
