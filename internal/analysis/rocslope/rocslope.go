// Package rocslope implements the rate-of-change and basis-slope oscillator model.
package rocslope

import (
	"math"
	"time"

	"sanket-signals/internal/analysis"
	"sanket-signals/internal/analysis/indicators"
	"sanket-signals/internal/models"
)

// scaleEps keeps min/max rescaling and z-scores finite on flat windows.
const scaleEps = 1e-9

// Params are the model's fixed window lengths and thresholds.
type Params struct {
	ROCLength    int
	Length       int
	Delta        float64
	Multiplier   float64
	ImpactWindow int
	RSILength    int
	SlopeLag     int
	FlowLength   int
	BuyGate      float64 // liq_osc must be below -BuyGate for Buy and above it for Sell
}

// DefaultParams returns the standard model configuration.
func DefaultParams() Params {
	return Params{
		ROCLength:    14,
		Length:       20,
		Delta:        0.95,
		Multiplier:   2.0,
		ImpactWindow: 5,
		RSILength:    14,
		SlopeLag:     5,
		FlowLength:   10,
		BuyGate:      7.5,
	}
}

// Model is the ROC & BasisSlope signal model.
type Model struct {
	p Params
}

// New creates a model with the given parameters.
func New(p Params) *Model {
	return &Model{p: p}
}

// NewDefault creates a model with DefaultParams.
func NewDefault() *Model {
	return New(DefaultParams())
}

func (m *Model) Name() models.ModelName {
	return models.ModelROCSlope
}

func (m *Model) Lookback() int {
	return m.p.Length
}

// Series holds every derived series of one computation, aligned to the frame.
type Series struct {
	RSI               []float64
	ScaledROC         []float64
	NormalizedLiq     []float64
	CombinedLiquidity []float64
	SecondaryOsc      []float64
	ADLine            []float64
	CNVDetrended      []float64
	Upper             []float64
	Lower             []float64
	Threshold         []float64
	BasisSlope        []float64
	BasisSlopeScore   []float64
	Accumulation      []float64
	SignalScore       []float64
	LiqOsc            []float64
	Direction         []int
}

// Compute derives all model series from a prepared frame.
func (m *Model) Compute(f *analysis.Frame) (*Series, error) {
	p := m.p
	n := f.Len()
	c := analysis.NewCalc(models.ModelROCSlope, n)
	sub := func(a, b float64) float64 { return a - b }
	mul := func(a, b float64) float64 { return a * b }
	div := func(a, b float64) float64 { return a / b }
	zscore := func(x, mu, sd []float64) []float64 {
		sd = indicators.Replace(sd, 0, scaleEps)
		return indicators.Zip(indicators.Zip(x, mu, sub), sd, func(d, s float64) float64 { return d / (s + scaleEps) })
	}

	rsi := c.Series("rsi")(indicators.RSI(f.Close, p.RSILength))
	roc := c.Series("roc")(indicators.ROC(f.Close, p.ROCLength))
	scaledROC := c.Series("scaled roc")(indicators.Rescale(roc, p.Length, -8, 8, scaleEps))

	// Liquidity, normalized as a z-score and as a regression-fit z-score.
	mid := indicators.Zip(f.High, f.Low, func(h, l float64) float64 { return (h + l) / 2 })
	spread := indicators.Zip(mid, f.Open, sub)
	volMa := c.Series("volume ma")(indicators.SMA(f.Volume, p.Length))
	volMa = indicators.Fill(indicators.Replace(volMa, 0, scaleEps), scaleEps)
	relVol := indicators.Zip(f.Volume, volMa, div)

	vwapSpread := c.Series("vwap spread")(indicators.SMA(indicators.Zip(spread, relVol, mul), p.Length))
	lagged := indicators.Zip(f.Close, indicators.Shift(f.Close, p.ImpactWindow), sub)
	impact := c.Series("price impact")(indicators.SMA(indicators.Zip(lagged, relVol, mul), p.Length))
	liq := indicators.Zip(indicators.Fill(vwapSpread, 0), indicators.Fill(impact, 0), sub)

	normalizedLiq := zscore(liq,
		c.Series("liquidity mean")(indicators.SMA(liq, p.Length)),
		c.Series("liquidity stdev")(indicators.StdDev(liq, p.Length)))

	reg := c.Series("liquidity regression")(indicators.LinReg(liq, p.Length))
	normalizedReg := zscore(reg,
		c.Series("regression mean")(indicators.SMA(reg, p.Length)),
		c.Series("regression stdev")(indicators.StdDev(reg, p.Length)))
	combined := indicators.Zip(indicators.Fill(normalizedLiq, 0), indicators.Fill(normalizedReg, 0), func(a, b float64) float64 { return a + b })

	secondary := c.Series("secondary osc")(indicators.Rescale(indicators.Zip(f.Close, liq, func(a, b float64) float64 { return a + b }), p.Length, -8, 8, scaleEps))
	secondary = indicators.Finite(secondary, 0)

	ad := indicators.Fill(c.Series("a/d line")(indicators.AccumDist(f.High, f.Low, f.Close, f.Volume)), 0)
	cnv := indicators.CumSum(indicators.SignedVolume(f.Close, f.Volume))
	cnvTB := indicators.Fill(indicators.Zip(cnv, c.Series("cnv mean")(indicators.SMA(cnv, p.Length)), sub), 0)

	// Bands and basis slope
	bands, err := indicators.BollingerBands(f.Close, p.Length, p.Multiplier)
	if err != nil {
		c.Fail("bands", err)
		bands = &indicators.Bands{Upper: indicators.NaN(n), Middle: indicators.NaN(n), Lower: indicators.NaN(n), StdDev: indicators.NaN(n)}
	}
	nonConformity := indicators.Abs(indicators.Zip(f.Close, bands.Middle, sub))
	threshold := c.Series("nonconformity quantile")(indicators.RollingQuantile(nonConformity, p.Length, p.Delta))

	lowerSlope := indicators.Zip(bands.Lower, indicators.Shift(bands.Lower, p.SlopeLag), sub)
	upperSlope := indicators.Zip(bands.Upper, indicators.Shift(bands.Upper, p.SlopeLag), sub)
	basis := indicators.Zip(lowerSlope, upperSlope, func(a, b float64) float64 { return (a + b) / 2 })
	slope := indicators.Zip(basis, indicators.Shift(basis, p.SlopeLag), sub)
	slopeSma := indicators.Fill(c.Series("basis slope sma")(indicators.SMA(slope, p.SlopeLag)), 0)
	slopeStd := c.Series("basis slope stdev")(indicators.StdDev(slope, p.Length))
	slopeStd = indicators.Fill(indicators.Replace(slopeStd, 0, 0.01), 0.01)

	score := basisSlopeScore(f.Close, slope, slopeSma, slopeStd)

	// Accumulation and the five-vote signal score.
	posFlow, negFlow, err := indicators.MoneyFlowSplit(f.High, f.Low, f.Close, f.Volume, p.FlowLength)
	if err != nil {
		c.Fail("money flow", err)
		posFlow, negFlow = indicators.Const(n, 0), indicators.Const(n, 0)
	}
	accumulation := indicators.Zip(posFlow, negFlow, func(pf, nf float64) float64 { return pf / (pf + nf + scaleEps) })

	signalScore := make([]float64, n)
	for i := 0; i < n; i++ {
		signalScore[i] = float64(
			vote(rsi[i] < 40, rsi[i] > 70) +
				vote(score[i] > 0.75, score[i] < -0.75) +
				vote(accumulation[i] > 0.65, accumulation[i] < 0.35) +
				vote(f.Close[i] < bands.Lower[i], f.Close[i] > bands.Upper[i]) +
				vote(normalizedLiq[i] > 0, normalizedLiq[i] < 0))
	}

	liquidity := make([]float64, n)
	for i := 0; i < n; i++ {
		liquidity[i] = score[i] - (combined[i] + signalScore[i])
	}
	liqOsc := c.Series("liquidity osc")(indicators.Rescale(liquidity, p.Length, -8, 8, scaleEps))
	liqOsc = indicators.Finite(liqOsc, 0)

	direction := make([]int, n)
	for i := 0; i < n; i++ {
		direction[i] = gate(signalScore[i], liqOsc[i], f.Close[i], bands.Lower[i], bands.Upper[i], p.BuyGate)
	}

	if err := c.Err(); err != nil {
		return nil, err
	}
	return &Series{
		RSI:               rsi,
		ScaledROC:         scaledROC,
		NormalizedLiq:     normalizedLiq,
		CombinedLiquidity: combined,
		SecondaryOsc:      secondary,
		ADLine:            ad,
		CNVDetrended:      cnvTB,
		Upper:             bands.Upper,
		Lower:             bands.Lower,
		Threshold:         threshold,
		BasisSlope:        slope,
		BasisSlopeScore:   score,
		Accumulation:      accumulation,
		SignalScore:       signalScore,
		LiqOsc:            liqOsc,
		Direction:         direction,
	}, nil
}

// basisSlopeScore combines trend, acceleration, magnitude, price/slope
// divergence and crossover reversal of the basis slope. Bars where the slope
// is undefined score NaN.
func basisSlopeScore(close, slope, slopeSma, slopeStd []float64) []float64 {
	n := len(slope)
	out := indicators.NaN(n)
	for i := 1; i < n; i++ {
		bs := slope[i]
		if math.IsNaN(bs) {
			continue
		}
		trend := vote(bs > slopeSma[i], bs < slopeSma[i])

		accel := bs - slope[i-1]
		den := math.Abs(bs)
		if den == 0 {
			den = scaleEps
		}
		magnitude := math.Abs(bs) / (slopeStd[i] + 0.01)

		priceMove := close[i] - close[i-1]
		divergence := vote(priceMove < 0 && accel > 0, priceMove > 0 && accel < 0)
		reversal := vote(
			bs > slopeSma[i] && slope[i-1] < slopeSma[i-1],
			bs < slopeSma[i] && slope[i-1] > slopeSma[i-1])

		out[i] = float64(trend)*0.3 +
			accel/den*0.2 +
			magnitude*0.2 +
			float64(divergence)*0.2 +
			float64(reversal)*0.3
	}
	return out
}

// gate returns +1 for a buy, -1 for a sell and 0 otherwise. A buy needs a
// bullish signal score, a liquidity oscillator below -limit and a close under
// the lower band; a sell mirrors it.
func gate(signalScore, liqOsc, close, lower, upper, limit float64) int {
	switch {
	case signalScore >= 1 && liqOsc < -limit && close < lower:
		return 1
	case signalScore <= -1 && liqOsc > limit && close > upper:
		return -1
	}
	return 0
}

// vote returns +1 for bull, -1 for bear and 0 when neither or both hold.
func vote(bull, bear bool) int {
	v := 0
	if bull {
		v++
	}
	if bear {
		v--
	}
	return v
}

// Evaluate computes the model on series and samples it at the as-of bar.
func (m *Model) Evaluate(series models.BarSeries, asOf time.Time) (*analysis.Snapshot, error) {
	f, err := analysis.Prepare(series, m.Lookback(), asOf)
	if err != nil {
		return nil, err
	}
	s, err := m.Compute(f)
	if err != nil {
		return nil, err
	}

	at := f.Last()
	critical := map[string]float64{
		models.ParamRSI:         s.RSI[at],
		models.ParamScaledROC:   s.ScaledROC[at],
		models.ParamADLine:      s.ADLine[at],
		models.ParamSignalScore: s.SignalScore[at],
		models.ParamLiqOsc:      s.LiqOsc[at],
		"open":                  f.Open[at],
		"high":                  f.High[at],
		"low":                   f.Low[at],
		"close":                 f.Close[at],
		"volume":                f.Volume[at],
		"prev_close":            f.Close[at-1],
	}
	if err := analysis.RequireFinite(f.Symbol, critical); err != nil {
		return nil, err
	}

	params := models.Params{}
	params.Set(models.ParamLiqOsc, s.LiqOsc[at])
	params.Set(models.ParamRSI, s.RSI[at])
	params.Set(models.ParamSignalScore, s.SignalScore[at])
	params.Set(models.ParamNormalizedLiq, s.NormalizedLiq[at])
	params.Set(models.ParamScaledROC, s.ScaledROC[at])
	params.Set(models.ParamSecondaryOsc, s.SecondaryOsc[at])
	params.Set(models.ParamADLine, s.ADLine[at])
	params.Set(models.ParamCNVDetrended, s.CNVDetrended[at])
	params.Set(models.ParamBasisSlope, s.BasisSlope[at])
	params.Set(models.ParamBasisSlopeScore, s.BasisSlopeScore[at])
	params.Set(models.ParamAccumulation, s.Accumulation[at])
	params.Set(models.ParamNonConformity, s.Threshold[at])
	params.Set(models.ParamUpperBand, s.Upper[at])
	params.Set(models.ParamLowerBand, s.Lower[at])

	return &analysis.Snapshot{
		Date:      f.Dates[at],
		Signal:    Classify(s.Direction[at]),
		Params:    params,
		Close:     f.Close[at],
		PctChange: f.PctChange(),
	}, nil
}

// Classify maps the direction gate to a label.
func Classify(direction int) models.Signal {
	switch {
	case direction > 0:
		return models.SignalBuy
	case direction < 0:
		return models.SignalSell
	default:
		return models.SignalNeutral
	}
}

var _ analysis.Model = (*Model)(nil)
