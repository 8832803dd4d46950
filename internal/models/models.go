// Package models provides domain models for the signal engine.
package models

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ModelName identifies a signal model.
type ModelName string

const (
	ModelILFO     ModelName = "ilfo"
	ModelROCSlope ModelName = "rocslope"
)

// Title returns the display name of the model.
func (m ModelName) Title() string {
	switch m {
	case ModelILFO:
		return "ILFO"
	case ModelROCSlope:
		return "ROC & BasisSlope"
	default:
		return string(m)
	}
}

// ParseModelName validates a model name.
func ParseModelName(s string) (ModelName, error) {
	switch ModelName(s) {
	case ModelILFO, ModelROCSlope:
		return ModelName(s), nil
	default:
		return "", fmt.Errorf("unknown model %q (must be %q or %q)", s, ModelILFO, ModelROCSlope)
	}
}

// Bar represents one daily OHLCV session.
// Missing fields are NaN; Volume is coerced to >= 1 before any indicator runs.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSeries is a date-ordered sequence of bars for one ticker.
type BarSeries struct {
	Symbol string
	Bars   []Bar
}

// NewBarSeries sorts bars by date and drops duplicate dates, keeping the last occurrence.
// The input slice is not modified.
func NewBarSeries(symbol string, bars []Bar) BarSeries {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := sorted[:0]
	for _, b := range sorted {
		if n := len(out); n > 0 && sameDay(out[n-1].Date, b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return BarSeries{Symbol: symbol, Bars: out}
}

// Len returns the number of bars.
func (s BarSeries) Len() int {
	return len(s.Bars)
}

// First returns the date of the first bar.
func (s BarSeries) First() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Date
}

// Last returns the date of the last bar.
func (s BarSeries) Last() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// EndOfDay returns the last instant of the calendar day of t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// Params holds the named numeric parameters a model emits at the snapshot date.
// Non-finite values are never stored; an absent key means the value is undefined.
type Params map[string]float64

// Set stores v under name when v is finite.
func (p Params) Set(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	p[name] = v
}

// Get returns the value for name and whether it is defined.
func (p Params) Get(name string) (float64, bool) {
	v, ok := p[name]
	return v, ok
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Parameter names emitted by the ILFO model.
const (
	ParamILFOValue     = "ilfo_value"
	ParamNormalizedLiq = "normalized_liq"
	ParamVolSurge      = "vol_surge"
	ParamMomentumRSI   = "momentum_rsi"
	ParamOscMomentum   = "osc_momentum"
	ParamOscAccel      = "osc_accel"
	ParamVolumeScore   = "volume_score"
	ParamSignalLine    = "signal_line"
)

// Parameter names emitted by the ROC & BasisSlope model.
const (
	ParamLiqOsc          = "liq_osc"
	ParamRSI             = "rsi"
	ParamSignalScore     = "signal_score"
	ParamScaledROC       = "scaled_roc"
	ParamSecondaryOsc    = "secondary_osc"
	ParamADLine          = "ad_line"
	ParamCNVDetrended    = "cnv_detrended"
	ParamBasisSlope      = "basis_slope"
	ParamBasisSlopeScore = "basis_slope_score"
	ParamAccumulation    = "accumulation"
	ParamNonConformity   = "nonconformity_threshold"
	ParamUpperBand       = "upper_band"
	ParamLowerBand       = "lower_band"
)
