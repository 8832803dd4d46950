// Package ilfo implements the liquidity-flow oscillator model.
//
// The oscillator blends a microstructure liquidity z-score, a volume-flow
// score, candle-body conviction and a momentum RSI into one bounded value,
// then classifies extremes and pivot divergences inside statistical bands.
package ilfo

import (
	"time"

	"sanket-signals/internal/analysis"
	"sanket-signals/internal/analysis/indicators"
	"sanket-signals/internal/analysis/patterns"
	"sanket-signals/internal/models"
)

const (
	eps = indicators.Epsilon

	priceTolerance  = 0.002 // pivot undercut/overshoot for divergence
	oscTolerance    = 0.05  // oscillator hold against its pivot value
	volConfirmRatio = 0.8   // volume versus its moving average
)

// Params are the model's fixed window lengths and multipliers.
type Params struct {
	AdaptiveLength int
	MicroLength    int
	ImpactWindow   int
	DevMultiplier  float64
	SignalSmooth   int
	DivLookback    int
	VolThreshold   float64
}

// DefaultParams returns the standard model configuration.
func DefaultParams() Params {
	return Params{
		AdaptiveLength: 21,
		MicroLength:    9,
		ImpactWindow:   5,
		DevMultiplier:  2.0,
		SignalSmooth:   5,
		DivLookback:    10,
		VolThreshold:   1.2,
	}
}

// Model is the ILFO signal model.
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
	return models.ModelILFO
}

func (m *Model) Lookback() int {
	return m.p.AdaptiveLength
}

// Series holds every derived series of one computation, aligned to the frame.
type Series struct {
	NormalizedLiq       []float64
	VolSurge            []float64
	VolumeScore         []float64
	DirectionConviction []float64
	MomentumRSI         []float64
	Upper               []float64
	Lower               []float64
	Oscillator          []float64
	Signal              []float64
	OscMomentum         []float64
	OscAccel            []float64

	Oversold     []bool
	Overbought   []bool
	BullishDiv   []bool
	BearishDiv   []bool
	ExtremeLong  []bool
	ExtremeShort []bool
}

// Compute derives all model series from a prepared frame.
func (m *Model) Compute(f *analysis.Frame) (*Series, error) {
	p := m.p
	n := f.Len()
	c := analysis.NewCalc(models.ModelILFO, n)
	sub := func(a, b float64) float64 { return a - b }
	mul := func(a, b float64) float64 { return a * b }
	div := func(a, b float64) float64 { return a / b }

	// Microstructure
	body := indicators.Abs(indicators.Zip(f.Close, f.Open, sub))
	mid := indicators.Zip(f.High, f.Low, func(h, l float64) float64 { return (h + l) / 2 })
	spread := indicators.Zip(mid, f.Open, sub)

	volMa := c.Series("volume ma")(indicators.SMA(f.Volume, p.AdaptiveLength))
	volMa = indicators.Floor(indicators.Fill(volMa, indicators.Mean(f.Volume)), eps)
	relVol := indicators.Zip(f.Volume, volMa, div)

	vwapSpread := c.Series("vwap spread")(indicators.SMA(indicators.Zip(spread, relVol, mul), p.AdaptiveLength))
	vwapSpread = indicators.Fill(vwapSpread, 0)

	lagged := indicators.Zip(f.Close, indicators.Shift(f.Close, p.ImpactWindow), sub)
	impact := c.Series("price impact")(indicators.SMA(indicators.Zip(lagged, relVol, mul), p.AdaptiveLength))
	impact = indicators.Fill(impact, 0)

	liq := indicators.Finite(indicators.Zip(vwapSpread, impact, sub), 0)
	liqMean := indicators.Fill(c.Series("liquidity mean")(indicators.SMA(liq, p.AdaptiveLength)), 0)
	liqStd := c.Series("liquidity stdev")(indicators.StdDev(liq, p.AdaptiveLength))
	liqStd = indicators.Floor(indicators.Replace(indicators.Fill(liqStd, 1), 0, 1), eps)
	normalizedLiq := indicators.Clip(indicators.Finite(indicators.ZScore(liq, liqMean, liqStd, eps), 0), -10, 10)

	// Volume flow
	volStd := c.Series("volume stdev")(indicators.StdDev(f.Volume, p.MicroLength))
	volStd = indicators.Floor(indicators.Fill(volStd, indicators.Std(f.Volume)), eps)
	volZ := indicators.Clip(indicators.Finite(indicators.ZScore(f.Volume, volMa, volStd, eps), 0), -5, 5)
	volSurge := indicators.Clip(indicators.Map(volZ, func(z float64) float64 { return 50 + 20*z }), 0, 100)

	up := make([]bool, n)
	for i := range up {
		up[i] = f.Close[i] > f.Open[i]
	}
	volDirection := patterns.Signed(volSurge, up)

	posFlow, negFlow, err := indicators.MoneyFlowSplit(f.High, f.Low, f.Close, f.Volume, p.MicroLength)
	if err != nil {
		c.Fail("money flow", err)
		posFlow, negFlow = indicators.Const(n, 0), indicators.Const(n, 0)
	}
	accum := indicators.Zip(posFlow, negFlow, func(pf, nf float64) float64 { return (pf - nf) / (pf + nf + eps) })
	accum = indicators.Clip(indicators.Finite(accum, 0), -1, 1)
	volumeScore := indicators.Finite(indicators.Zip(volDirection, accum, func(d, a float64) float64 {
		return d/100*0.5 + a*0.5
	}), 0)

	// Momentum & conviction. A bar without enough history has no conviction.
	conviction := c.Series("body conviction")(patterns.BodyConviction(body, p.MicroLength+1))
	directionConviction := patterns.Signed(indicators.Fill(conviction, 0), up)

	prevClose := indicators.Floor(indicators.Shift(f.Close, 1), eps)
	velocity := indicators.Zip(indicators.Diff(f.Close, 1), prevClose, func(d, b float64) float64 { return d / b * 10000 })
	velocity = indicators.Clip(indicators.Finite(velocity, 0), -1000, 1000)
	momentumRSI := c.Series("momentum rsi")(indicators.RSI(velocity, p.MicroLength))
	momentumRSI = indicators.Clip(indicators.Fill(momentumRSI, 50), 0, 100)

	// Statistical bounds
	priceMean := indicators.FillFrom(c.Series("price mean")(indicators.SMA(f.Close, p.AdaptiveLength)), f.Close)
	priceStd := c.Series("price stdev")(indicators.StdDev(f.Close, p.AdaptiveLength))
	priceStd = indicators.Floor(indicators.Fill(priceStd, indicators.Std(f.Close)), eps)
	upper := indicators.Zip(priceMean, priceStd, func(mu, sd float64) float64 { return mu + p.DevMultiplier*sd })
	lower := indicators.Zip(priceMean, priceStd, func(mu, sd float64) float64 { return mu - p.DevMultiplier*sd })

	overbought := make([]bool, n)
	oversold := make([]bool, n)
	for i := 0; i < n; i++ {
		overbought[i] = f.Close[i] > upper[i]
		oversold[i] = f.Close[i] < lower[i]
	}

	// Composite oscillator
	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		raw[i] = normalizedLiq[i]*0.30 +
			volumeScore[i]*0.25 +
			directionConviction[i]/100*0.25 +
			(momentumRSI[i]-50)/50*0.20
	}
	raw = indicators.Clip(indicators.Finite(raw, 0), -5, 5)
	osc := indicators.Clip(indicators.Finite(indicators.Map(raw, func(v float64) float64 { return -v * 8 }), 0), -10, 10)
	signal := c.Series("signal line")(indicators.SMA(osc, p.SignalSmooth))
	signal = indicators.Clip(indicators.Fill(signal, 0), -10, 10)

	oscMom := indicators.Fill(indicators.Diff(osc, 2), 0)
	oscAccel := indicators.Fill(indicators.Diff(oscMom, 1), 0)
	oscMom = indicators.Clip(oscMom, -15, 15)
	oscAccel = indicators.Clip(oscAccel, -15, 15)

	// Divergence
	pivotLows, err := patterns.PivotLows(f.Low, p.DivLookback)
	if err != nil {
		c.Fail("pivot lows", err)
		pivotLows = make([]patterns.Pivot, n)
	}
	pivotHighs, err := patterns.PivotHighs(f.High, p.DivLookback)
	if err != nil {
		c.Fail("pivot highs", err)
		pivotHighs = make([]patterns.Pivot, n)
	}
	lastLow := patterns.LastPivot(pivotLows, f.Low, f.Low)
	lastLowOsc := patterns.LastPivot(pivotLows, osc, osc)
	lastHigh := patterns.LastPivot(pivotHighs, f.High, f.High)
	lastHighOsc := patterns.LastPivot(pivotHighs, osc, osc)

	detector := patterns.NewDivergenceDetector(priceTolerance, oscTolerance)
	bullish := detector.Bullish(f.Low, lastLow, osc, lastLowOsc)
	bearish := detector.Bearish(f.High, lastHigh, osc, lastHighOsc)

	extremeLong := make([]bool, n)
	extremeShort := make([]bool, n)
	surgeFloor := p.VolThreshold * 50
	for i := 0; i < n; i++ {
		fl := confirm(reading{
			bullishDiv: bullish[i],
			bearishDiv: bearish[i],
			oversold:   oversold[i],
			overbought: overbought[i],
			volConfirm: f.Volume[i] > volMa[i]*volConfirmRatio,
			oscMom:     oscMom[i],
			oscAccel:   oscAccel[i],
			volSurge:   volSurge[i],
		}, surgeFloor)
		bullish[i], bearish[i] = fl.BullishDiv, fl.BearishDiv
		extremeLong[i], extremeShort[i] = fl.ExtremeLong, fl.ExtremeShort
	}

	if err := c.Err(); err != nil {
		return nil, err
	}
	return &Series{
		NormalizedLiq:       normalizedLiq,
		VolSurge:            volSurge,
		VolumeScore:         volumeScore,
		DirectionConviction: directionConviction,
		MomentumRSI:         momentumRSI,
		Upper:               upper,
		Lower:               lower,
		Oscillator:          osc,
		Signal:              signal,
		OscMomentum:         oscMom,
		OscAccel:            oscAccel,
		Oversold:            oversold,
		Overbought:          overbought,
		BullishDiv:          bullish,
		BearishDiv:          bearish,
		ExtremeLong:         extremeLong,
		ExtremeShort:        extremeShort,
	}, nil
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
	values := map[string]float64{
		models.ParamILFOValue:     s.Oscillator[at],
		models.ParamVolSurge:      s.VolSurge[at],
		models.ParamNormalizedLiq: s.NormalizedLiq[at],
		models.ParamMomentumRSI:   s.MomentumRSI[at],
		models.ParamOscMomentum:   s.OscMomentum[at],
		models.ParamOscAccel:      s.OscAccel[at],
		models.ParamVolumeScore:   s.VolumeScore[at],
	}
	if err := analysis.RequireFinite(f.Symbol, values); err != nil {
		return nil, err
	}

	params := models.Params{}
	for k, v := range values {
		params.Set(k, v)
	}
	params.Set(models.ParamSignalLine, s.Signal[at])

	return &analysis.Snapshot{
		Date: f.Dates[at],
		Signal: Classify(Flags{
			ExtremeLong:  s.ExtremeLong[at],
			BullishDiv:   s.BullishDiv[at],
			ExtremeShort: s.ExtremeShort[at],
			BearishDiv:   s.BearishDiv[at],
		}),
		Params:    params,
		Close:     f.Close[at],
		PctChange: f.PctChange(),
	}, nil
}

// Flags are the four boolean conditions sampled at the evaluation bar.
type Flags struct {
	ExtremeLong  bool
	BullishDiv   bool
	ExtremeShort bool
	BearishDiv   bool
}

// reading is one bar's raw divergence and zone state before confirmation.
type reading struct {
	bullishDiv, bearishDiv bool
	oversold, overbought   bool
	volConfirm             bool
	oscMom, oscAccel       float64
	volSurge               float64
}

// confirm keeps a divergence only inside its own band zone with volume
// confirmation. Extremes need the zone, oscillator momentum and acceleration
// pointing out of it, and a volume surge above surgeFloor.
func confirm(r reading, surgeFloor float64) Flags {
	return Flags{
		BullishDiv:   r.bullishDiv && r.oversold && r.volConfirm,
		BearishDiv:   r.bearishDiv && r.overbought && r.volConfirm,
		ExtremeLong:  r.oversold && r.oscMom > 0 && r.oscAccel > 0 && r.volSurge > surgeFloor,
		ExtremeShort: r.overbought && r.oscMom < 0 && r.oscAccel < 0 && r.volSurge > surgeFloor,
	}
}

// Classify resolves the flags into exactly one label. First match wins.
func Classify(f Flags) models.Signal {
	switch {
	case f.ExtremeLong && f.BullishDiv:
		return models.SignalExtremeLong
	case f.ExtremeShort && f.BearishDiv:
		return models.SignalExtremeShort
	case f.ExtremeLong:
		return models.SignalLong
	case f.BullishDiv:
		return models.SignalDivergenceLong
	case f.ExtremeShort:
		return models.SignalShort
	case f.BearishDiv:
		return models.SignalDivergenceShort
	default:
		return models.SignalNeutral
	}
}

var _ analysis.Model = (*Model)(nil)
