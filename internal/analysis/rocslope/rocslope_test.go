package rocslope

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"sanket-signals/internal/analysis"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func makeSeries(returns, volumes []float64) models.BarSeries {
	bars := make([]models.Bar, len(returns))
	price := 250.0
	for i, r := range returns {
		open := price
		price *= 1 + r
		bars[i] = models.Bar{
			Date:   day0.AddDate(0, 0, i),
			Open:   open,
			High:   math.Max(open, price) * 1.005,
			Low:    math.Min(open, price) * 0.995,
			Close:  price,
			Volume: volumes[i],
		}
	}
	return models.NewBarSeries("GEN", bars)
}

func TestClassify(t *testing.T) {
	if Classify(1) != models.SignalBuy || Classify(-1) != models.SignalSell || Classify(0) != models.SignalNeutral {
		t.Error("direction mapping broken")
	}
}

func TestVote(t *testing.T) {
	tests := []struct {
		bull, bear bool
		want       int
	}{
		{false, false, 0},
		{true, false, 1},
		{false, true, -1},
		{true, true, 0},
	}
	for _, tt := range tests {
		if got := vote(tt.bull, tt.bear); got != tt.want {
			t.Errorf("vote(%v, %v) = %d, want %d", tt.bull, tt.bear, got, tt.want)
		}
	}
}

func TestBasisSlopeScoreComponents(t *testing.T) {
	nan := math.NaN()
	close := []float64{10, 9}
	slope := []float64{-1, 1}
	sma := []float64{0, 0}
	std := []float64{0.01, 0.99}

	got := basisSlopeScore(close, slope, sma, std)
	if !math.IsNaN(got[0]) {
		t.Errorf("first bar has no prior slope, got %v", got[0])
	}
	// trend +1, accel 2/1, magnitude 1/(0.99+0.01), divergence +1 (price down, slope up), reversal +1
	want := 0.3 + 2*0.2 + 1*0.2 + 0.2 + 0.3
	if math.Abs(got[1]-want) > 1e-12 {
		t.Errorf("score = %v, want %v", got[1], want)
	}

	got = basisSlopeScore([]float64{1, 2}, []float64{nan, 1}, sma, std)
	if !math.IsNaN(got[1]) {
		t.Errorf("undefined prior slope must yield NaN, got %v", got[1])
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		name                         string
		score, liq, close, low, high float64
		want                         int
	}{
		{"buy", 1, -7.6, 95, 96, 110, 1},
		{"buy on a stronger score", 3, -8, 90, 96, 110, 1},
		{"buy needs the score", 0, -7.6, 95, 96, 110, 0},
		{"buy needs liq osc past the gate", 1, -7.5, 95, 96, 110, 0},
		{"buy needs a close under the lower band", 1, -7.6, 96, 96, 110, 0},
		{"sell", -1, 7.6, 111, 96, 110, -1},
		{"sell needs the score", 0.5, 7.6, 111, 96, 110, 0},
		{"sell needs liq osc past the gate", -1, 7.5, 111, 96, 110, 0},
		{"sell needs a close over the upper band", -1, 7.6, 110, 96, 110, 0},
		{"bullish score with a sell setup", 2, 8, 120, 96, 110, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate(tt.score, tt.liq, tt.close, tt.low, tt.high, 7.5); got != tt.want {
				t.Errorf("gate = %d, want %d", got, tt.want)
			}
		})
	}
}

func randomSeries(seed int64, n int) models.BarSeries {
	rng := rand.New(rand.NewSource(seed))
	returns := make([]float64, n)
	volumes := make([]float64, n)
	for i := range returns {
		returns[i] = (rng.Float64() - 0.5) * 0.05
		volumes[i] = math.Round(1e5 + rng.Float64()*1e5)
	}
	return makeSeries(returns, volumes)
}

func TestEvaluateEmitsBuyAndSell(t *testing.T) {
	m := NewDefault()
	found := map[models.Signal]bool{}
	for seed := int64(1); seed <= 60 && !(found[models.SignalBuy] && found[models.SignalSell]); seed++ {
		series := randomSeries(seed, 200)
		for at := 2 * m.Lookback(); at < len(series.Bars); at++ {
			snap, err := m.Evaluate(series, series.Bars[at].Date)
			if err != nil {
				// Early bars may still lack a finite reading.
				continue
			}
			if snap.Signal != models.SignalBuy && snap.Signal != models.SignalSell {
				continue
			}
			found[snap.Signal] = true

			score, _ := snap.Params.Get(models.ParamSignalScore)
			liq, _ := snap.Params.Get(models.ParamLiqOsc)
			lower, _ := snap.Params.Get(models.ParamLowerBand)
			upper, _ := snap.Params.Get(models.ParamUpperBand)
			switch snap.Signal {
			case models.SignalBuy:
				if score < 1 || liq >= -7.5 || snap.Close >= lower {
					t.Errorf("seed %d bar %d: Buy with score=%v liq_osc=%v close=%v lower=%v", seed, at, score, liq, snap.Close, lower)
				}
			case models.SignalSell:
				if score > -1 || liq <= 7.5 || snap.Close <= upper {
					t.Errorf("seed %d bar %d: Sell with score=%v liq_osc=%v close=%v upper=%v", seed, at, score, liq, snap.Close, upper)
				}
			}
		}
	}
	if !found[models.SignalBuy] || !found[models.SignalSell] {
		t.Errorf("random walks produced buy=%v sell=%v", found[models.SignalBuy], found[models.SignalSell])
	}
}

func TestEvaluateDiagnostics(t *testing.T) {
	m := NewDefault()
	vols := make([]float64, 60)
	for i := range vols {
		vols[i] = 5000
	}

	short := makeSeries(make([]float64, 39), vols[:39])
	if _, err := m.Evaluate(short, day0.AddDate(0, 1, 0)); !errors.Is(err, errors.ErrInsufficientData) {
		t.Errorf("39 bars: expected ErrInsufficientData, got %v", err)
	}

	ok := makeSeries(make([]float64, 60), vols)
	if _, err := m.Evaluate(ok, day0.AddDate(0, 0, -3)); !errors.Is(err, errors.ErrNoData) {
		t.Errorf("early date: expected ErrNoData, got %v", err)
	}

	snap, err := m.Evaluate(ok, day0.AddDate(0, 0, 59))
	if err != nil {
		t.Fatalf("flat series: %v", err)
	}
	if snap.Signal != models.SignalNeutral {
		t.Errorf("flat series signal = %q", snap.Signal)
	}
	if v, ok := snap.Params.Get(models.ParamRSI); !ok || v != 50 {
		t.Errorf("flat series rsi = %v, %v", v, ok)
	}
}

func TestProperty_LiqOscBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)
	m := NewDefault()

	gen80 := gopter.CombineGens(
		gen.SliceOfN(80, gen.Float64Range(-0.06, 0.06)),
		gen.SliceOfN(80, gen.Float64Range(1, 5e6)),
	).Map(func(v []interface{}) models.BarSeries {
		return makeSeries(v[0].([]float64), v[1].([]float64))
	})

	properties.Property("liq_osc and the secondary oscillator stay inside [-8, 8]", prop.ForAll(
		func(series models.BarSeries) bool {
			f, err := analysis.Prepare(series, m.Lookback(), series.Last())
			if err != nil {
				return false
			}
			s, err := m.Compute(f)
			if err != nil {
				return false
			}
			for i := range s.LiqOsc {
				if s.LiqOsc[i] < -8 || s.LiqOsc[i] > 8 || s.SecondaryOsc[i] < -8 || s.SecondaryOsc[i] > 8 {
					return false
				}
				if s.SignalScore[i] < -5 || s.SignalScore[i] > 5 || s.SignalScore[i] != math.Trunc(s.SignalScore[i]) {
					return false
				}
			}
			return true
		},
		gen80,
	))

	properties.Property("buy and sell respect the gate", prop.ForAll(
		func(series models.BarSeries) bool {
			f, err := analysis.Prepare(series, m.Lookback(), series.Last())
			if err != nil {
				return false
			}
			s, err := m.Compute(f)
			if err != nil {
				return false
			}
			for i, d := range s.Direction {
				switch d {
				case 1:
					if s.SignalScore[i] < 1 || s.LiqOsc[i] >= -7.5 || f.Close[i] >= s.Lower[i] {
						return false
					}
				case -1:
					if s.SignalScore[i] > -1 || s.LiqOsc[i] <= 7.5 || f.Close[i] <= s.Upper[i] {
						return false
					}
				}
			}
			return true
		},
		gen80,
	))

	properties.Property("snapshot labels are buy, sell or neutral", prop.ForAll(
		func(series models.BarSeries) bool {
			snap, err := m.Evaluate(series, series.Last())
			if err != nil {
				return false
			}
			switch snap.Signal {
			case models.SignalBuy, models.SignalSell, models.SignalNeutral:
			default:
				return false
			}
			v, ok := snap.Params.Get(models.ParamLiqOsc)
			return ok && v >= -8 && v <= 8
		},
		gen80,
	))

	properties.TestingRun(t)
}
