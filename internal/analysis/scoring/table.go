package scoring

import (
	"fmt"
	"math"
	"sort"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

// Range is the optimal band of one parameter for one signal type.
type Range struct {
	Parameter  string
	Min        float64
	Max        float64
	Weight     float64
	Importance models.Importance
}

// Validate checks that the range is well formed.
func (r Range) Validate() error {
	if r.Parameter == "" {
		return errors.NewValidationError("parameter", r.Parameter, "must not be empty")
	}
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min > r.Max {
		return errors.NewValidationError(r.Parameter, fmt.Sprintf("[%v, %v]", r.Min, r.Max), "min must not exceed max")
	}
	if math.IsNaN(r.Weight) || r.Weight < 0 {
		return errors.NewValidationError(r.Parameter, r.Weight, "weight must be non-negative")
	}
	if _, ok := models.ParseImportance(string(r.Importance)); !ok {
		return errors.NewValidationError(r.Parameter, r.Importance, "importance must be critical, high, medium or low")
	}
	return nil
}

// Table maps signal types to their optimal parameter ranges.
// A Table is immutable once built; Override returns a new one.
type Table struct {
	ranges map[models.SignalType][]Range
}

// NewTable validates and copies the given ranges.
func NewTable(ranges map[models.SignalType][]Range) (*Table, error) {
	t := &Table{ranges: make(map[models.SignalType][]Range, len(ranges))}
	for st, rs := range ranges {
		if _, ok := models.ParseSignalType(string(st)); !ok {
			return nil, errors.Wrapf(errors.ErrUnknownSignal, "range table entry %q", st)
		}
		seen := make(map[string]bool, len(rs))
		for _, r := range rs {
			if err := r.Validate(); err != nil {
				return nil, errors.Wrapf(err, "%s", st)
			}
			if seen[r.Parameter] {
				return nil, errors.NewValidationError(string(st), r.Parameter, "duplicate parameter")
			}
			seen[r.Parameter] = true
		}
		t.ranges[st] = append([]Range(nil), rs...)
	}
	return t, nil
}

// Ranges returns a copy of the ranges configured for st.
func (t *Table) Ranges(st models.SignalType) []Range {
	return append([]Range(nil), t.ranges[st]...)
}

// Types returns the signal types present in the table, in display order.
func (t *Table) Types() []models.SignalType {
	var out []models.SignalType
	for _, st := range models.SignalTypes {
		if _, ok := t.ranges[st]; ok {
			out = append(out, st)
		}
	}
	return out
}

// Override describes one replaced or added range entry.
type Override struct {
	Signal models.SignalType
	Range  Range
}

// Override returns a copy of t with each entry replaced by parameter name,
// or appended when the parameter is not yet configured.
func (t *Table) Override(overrides ...Override) (*Table, error) {
	next := make(map[models.SignalType][]Range, len(t.ranges))
	for st, rs := range t.ranges {
		next[st] = append([]Range(nil), rs...)
	}
	for _, o := range overrides {
		rs := next[o.Signal]
		replaced := false
		for i := range rs {
			if rs[i].Parameter == o.Range.Parameter {
				rs[i] = o.Range
				replaced = true
				break
			}
		}
		if !replaced {
			rs = append(rs, o.Range)
		}
		next[o.Signal] = rs
	}
	return NewTable(next)
}

// Parameters returns every parameter name in the table, sorted.
func (t *Table) Parameters() []string {
	seen := map[string]bool{}
	for _, rs := range t.ranges {
		for _, r := range rs {
			seen[r.Parameter] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// DefaultTable returns the backtested optimal ranges. The bounds are the
// screener's highlight criteria; the weights and importances are placeholders
// until a [[ranges]] override tunes them.
func DefaultTable() *Table {
	t, err := NewTable(map[models.SignalType][]Range{
		models.SignalTypeLong: {
			{models.ParamILFOValue, 3.062, 3.692, 0.25, models.ImportanceCritical},
			{models.ParamOscMomentum, 1.363, 3.701, 0.15, models.ImportanceCritical},
			{models.ParamVolSurge, 72.350, 90.373, 0.15, models.ImportanceHigh},
			{models.ParamMomentumRSI, 39.047, 42.789, 0.15, models.ImportanceHigh},
			{models.ParamOscAccel, 0.833, 3.788, 0.10, models.ImportanceMedium},
			{models.ParamVolumeScore, -0.589, -0.452, 0.10, models.ImportanceMedium},
			{models.ParamNormalizedLiq, 0, 10, 0.10, models.ImportanceLow},
		},
		models.SignalTypeShort: {
			{models.ParamILFOValue, -3.936, -3.220, 0.25, models.ImportanceCritical},
			{models.ParamOscMomentum, -6.542, -4.154, 0.15, models.ImportanceCritical},
			{models.ParamVolSurge, 77.883, 96.083, 0.15, models.ImportanceHigh},
			{models.ParamMomentumRSI, 56.678, 60.686, 0.15, models.ImportanceHigh},
			{models.ParamOscAccel, -7.139, -4.184, 0.10, models.ImportanceMedium},
			{models.ParamVolumeScore, 0.526, 0.655, 0.10, models.ImportanceMedium},
			{models.ParamNormalizedLiq, -10, 0, 0.10, models.ImportanceLow},
		},
		models.SignalTypeBuy: {
			{models.ParamLiqOsc, 3.10, 3.60, 0.40, models.ImportanceCritical},
			{models.ParamRSI, 0, 38.50, 0.35, models.ImportanceCritical},
			{models.ParamSignalScore, -0.46, 0.45, 0.25, models.ImportanceHigh},
		},
		models.SignalTypeSell: {
			{models.ParamLiqOsc, -10.35, -3.75, 0.40, models.ImportanceCritical},
			{models.ParamRSI, 53.30, 57.08, 0.35, models.ImportanceCritical},
			{models.ParamSignalScore, 0.77, 1.00, 0.25, models.ImportanceHigh},
		},
	})
	if err != nil {
		panic(err)
	}
	return t
}
