package models

// Signal is the label assigned to one ticker for one run.
type Signal string

const (
	SignalExtremeLong     Signal = "Extreme Long"
	SignalLong            Signal = "Long"
	SignalDivergenceLong  Signal = "Divergence Long"
	SignalExtremeShort    Signal = "Extreme Short"
	SignalShort           Signal = "Short"
	SignalDivergenceShort Signal = "Divergence Short"
	SignalBuy             Signal = "Buy"
	SignalSell            Signal = "Sell"
	SignalNeutral         Signal = "Neutral"

	// Diagnostic labels.
	SignalInsufficientData Signal = "Insufficient Data"
	SignalInvalidData      Signal = "Invalid Data"
	SignalNoData           Signal = "No Data"
	SignalCalcError        Signal = "Error (Calc)"
	SignalDownloadError    Signal = "Download Error"
)

// SignalType is the scoring category a signal is graded against.
type SignalType string

const (
	SignalTypeLong  SignalType = "Long"
	SignalTypeShort SignalType = "Short"
	SignalTypeBuy   SignalType = "Buy"
	SignalTypeSell  SignalType = "Sell"
)

// SignalTypes lists the scoring categories in display order.
var SignalTypes = []SignalType{SignalTypeLong, SignalTypeShort, SignalTypeBuy, SignalTypeSell}

// ParseSignalType validates a scoring category name.
func ParseSignalType(s string) (SignalType, bool) {
	for _, t := range SignalTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Direction is the market direction a signal points to.
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionFlat    Direction = "flat"
)

type signalInfo struct {
	scoring    SignalType
	actionable bool
	direction  Direction
	diagnostic bool
}

// signalTable is the closed mapping from every label to its category.
var signalTable = map[Signal]signalInfo{
	SignalExtremeLong:      {scoring: SignalTypeLong, actionable: true, direction: DirectionBullish},
	SignalLong:             {scoring: SignalTypeLong, actionable: true, direction: DirectionBullish},
	SignalDivergenceLong:   {scoring: SignalTypeLong, actionable: true, direction: DirectionBullish},
	SignalExtremeShort:     {scoring: SignalTypeShort, actionable: true, direction: DirectionBearish},
	SignalShort:            {scoring: SignalTypeShort, actionable: true, direction: DirectionBearish},
	SignalDivergenceShort:  {scoring: SignalTypeShort, actionable: true, direction: DirectionBearish},
	SignalBuy:              {scoring: SignalTypeBuy, actionable: true, direction: DirectionBullish},
	SignalSell:             {scoring: SignalTypeSell, actionable: true, direction: DirectionBearish},
	SignalNeutral:          {direction: DirectionFlat},
	SignalInsufficientData: {direction: DirectionFlat, diagnostic: true},
	SignalInvalidData:      {direction: DirectionFlat, diagnostic: true},
	SignalNoData:           {direction: DirectionFlat, diagnostic: true},
	SignalCalcError:        {direction: DirectionFlat, diagnostic: true},
	SignalDownloadError:    {direction: DirectionFlat, diagnostic: true},
}

// AllSignals returns every known label.
func AllSignals() []Signal {
	return []Signal{
		SignalExtremeLong, SignalLong, SignalDivergenceLong,
		SignalExtremeShort, SignalShort, SignalDivergenceShort,
		SignalBuy, SignalSell, SignalNeutral,
		SignalInsufficientData, SignalInvalidData, SignalNoData, SignalCalcError, SignalDownloadError,
	}
}

// Known reports whether s is one of the enumerated labels.
func (s Signal) Known() bool {
	_, ok := signalTable[s]
	return ok
}

// ScoringType returns the category the signal is scored against.
// Only actionable signals have one.
func (s Signal) ScoringType() (SignalType, bool) {
	info, ok := signalTable[s]
	if !ok || !info.actionable {
		return "", false
	}
	return info.scoring, true
}

// IsActionable reports whether the signal is a long/short/buy/sell label.
func (s Signal) IsActionable() bool {
	return signalTable[s].actionable
}

// IsDiagnostic reports whether the signal is an error label.
func (s Signal) IsDiagnostic() bool {
	return signalTable[s].diagnostic
}

// Direction returns the market direction of the signal.
func (s Signal) Direction() Direction {
	info, ok := signalTable[s]
	if !ok {
		return DirectionFlat
	}
	return info.direction
}

// Grade is the letter grade derived from a confidence score.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeCPlus Grade = "C+"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeNA    Grade = "N/A"
)

// Importance ranks a parameter inside an optimal range table.
type Importance string

const (
	ImportanceCritical Importance = "critical"
	ImportanceHigh     Importance = "high"
	ImportanceMedium   Importance = "medium"
	ImportanceLow      Importance = "low"
)

// ParseImportance validates an importance name.
func ParseImportance(s string) (Importance, bool) {
	switch Importance(s) {
	case ImportanceCritical, ImportanceHigh, ImportanceMedium, ImportanceLow:
		return Importance(s), true
	default:
		return "", false
	}
}

// MatchStatus classifies a parameter value against its optimal range.
type MatchStatus string

const (
	StatusOptimal  MatchStatus = "optimal"
	StatusNearMiss MatchStatus = "near_miss"
	StatusFarMiss  MatchStatus = "far_miss"
	StatusVeryFar  MatchStatus = "very_far"
	StatusMissing  MatchStatus = "missing"
)
