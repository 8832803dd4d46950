package models

import "time"

// ParameterScore is one line of a confidence breakdown.
type ParameterScore struct {
	Name         string      `json:"name"`
	Value        *float64    `json:"value"`
	Min          float64     `json:"min"`
	Max          float64     `json:"max"`
	Weight       float64     `json:"weight"`
	Importance   Importance  `json:"importance"`
	Status       MatchStatus `json:"status"`
	Contribution float64     `json:"contribution"`
}

// ResultRecord is the output of one ticker's evaluation.
// Diagnostic records carry no parameters, a nil PctChange and confidence 0.
type ResultRecord struct {
	Ticker     string           `json:"ticker"`
	Model      ModelName        `json:"model"`
	Signal     Signal           `json:"signal"`
	Detail     string           `json:"detail,omitempty"`
	AsOf       time.Time        `json:"as_of"`
	PctChange  *float64         `json:"pct_change"`
	Params     Params           `json:"params,omitempty"`
	Confidence float64          `json:"confidence"`
	Grade      Grade            `json:"grade"`
	Breakdown  []ParameterScore `json:"breakdown,omitempty"`
	MatchCount int              `json:"match_count"`
	FullMatch  bool             `json:"full_match"`
	Sector     string           `json:"sector"`
}

// IsError reports whether the record is a diagnostic.
func (r ResultRecord) IsError() bool {
	return r.Signal.IsDiagnostic()
}

// NLPositive reports the polarity of normalized liquidity, if known.
func (r ResultRecord) NLPositive() (positive, ok bool) {
	v, ok := r.Params.Get(ParamNormalizedLiq)
	if !ok {
		return false, false
	}
	return v >= 0, true
}

// DiagnosticRecord builds a fully formed error record.
func DiagnosticRecord(ticker string, model ModelName, signal Signal, detail string) ResultRecord {
	return ResultRecord{
		Ticker:     ticker,
		Model:      model,
		Signal:     signal,
		Detail:     detail,
		Confidence: 0,
		Grade:      GradeNA,
		Sector:     "Other",
	}
}
