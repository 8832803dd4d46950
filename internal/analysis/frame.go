package analysis

import (
	"fmt"
	"math"
	"time"

	"sanket-signals/internal/analysis/indicators"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

// Frame is the column view of a bar series, truncated at the as-of bar and
// gap-filled. The last row is the evaluation bar.
type Frame struct {
	Symbol string
	Dates  []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Close)
}

// Last returns the index of the evaluation bar.
func (f *Frame) Last() int {
	return len(f.Close) - 1
}

// At returns the value of column x at the evaluation bar.
func (f *Frame) At(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return x[len(x)-1]
}

// PctChange returns the percent change of the last close from the prior close,
// or nil when the prior close is unusable.
func (f *Frame) PctChange() *float64 {
	n := f.Len()
	if n < 2 {
		return nil
	}
	prev, cur := f.Close[n-2], f.Close[n-1]
	if !indicators.IsFinite(prev) || prev <= 0 || !indicators.IsFinite(cur) {
		return nil
	}
	pct := (cur/prev - 1) * 100
	return &pct
}

// ResolveAsOf returns the index of the last bar dated at or before the end of
// the asOf calendar day, or -1 when there is none.
func ResolveAsOf(bars []models.Bar, asOf time.Time) int {
	cutoff := models.EndOfDay(asOf)
	idx := -1
	for i, b := range bars {
		if b.Date.After(cutoff) {
			break
		}
		idx = i
	}
	return idx
}

// Prepare validates a bar series for a model with the given lookback and
// returns the frame ending at the as-of bar. No bar after the as-of bar is
// ever read.
//
// Failures are DataErrors wrapping ErrInsufficientData, ErrNoData or ErrInvalidData.
func Prepare(series models.BarSeries, lookback int, asOf time.Time) (*Frame, error) {
	minBars := 2 * lookback
	if series.Len() < minBars {
		return nil, errors.NewDataError("bars", series.Symbol, "N/A", errors.ErrInsufficientData)
	}

	idx := ResolveAsOf(series.Bars, asOf)
	if idx < 0 {
		return nil, errors.NewDataError("bars", series.Symbol,
			fmt.Sprintf("No data at %s", asOf.Format("2006-01-02")), errors.ErrNoData)
	}
	bars := series.Bars[:idx+1]
	if len(bars) < minBars {
		return nil, errors.NewDataError("bars", series.Symbol,
			fmt.Sprintf("%d bars at %s, need %d", len(bars), asOf.Format("2006-01-02"), minBars),
			errors.ErrInsufficientData)
	}

	f := &Frame{
		Symbol: series.Symbol,
		Dates:  make([]time.Time, len(bars)),
		Open:   make([]float64, len(bars)),
		High:   make([]float64, len(bars)),
		Low:    make([]float64, len(bars)),
		Close:  make([]float64, len(bars)),
		Volume: make([]float64, len(bars)),
	}
	for i, b := range bars {
		f.Dates[i] = b.Date
		f.Open[i] = b.Open
		f.High[i] = b.High
		f.Low[i] = b.Low
		f.Close[i] = b.Close
		f.Volume[i] = b.Volume
	}

	fill := func(x []float64) []float64 { return indicators.BackFill(indicators.ForwardFill(x)) }
	f.Open, f.High, f.Low, f.Close, f.Volume = fill(f.Open), fill(f.High), fill(f.Low), fill(f.Close), fill(f.Volume)

	if indicators.AllNaN(f.Close) || indicators.AllNaN(f.Volume) {
		return nil, errors.NewDataError("bars", series.Symbol, "Missing main series", errors.ErrInsufficientData)
	}

	f.Volume = indicators.Map(f.Volume, func(v float64) float64 {
		if math.IsNaN(v) || v < 1 {
			return 1
		}
		return v
	})

	for _, c := range f.Close {
		if c <= 0 {
			return nil, errors.NewDataError("bars", series.Symbol, "Non-positive prices detected", errors.ErrInvalidData)
		}
	}
	return f, nil
}

// RequireFinite returns ErrNoData when any value is NaN or infinite.
func RequireFinite(symbol string, values map[string]float64) error {
	for name, v := range values {
		if !indicators.IsFinite(v) {
			return errors.NewDataError("snapshot", symbol,
				fmt.Sprintf("Invalid calculation result (%s)", name), errors.ErrNoData)
		}
	}
	return nil
}
