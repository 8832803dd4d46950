// Package scoring grades signals by how closely their parameters sit inside
// backtested optimal ranges.
package scoring

import (
	"math"

	"sanket-signals/internal/models"
)

const (
	nearCenterBonus  = 1.15
	nearCenterCutoff = 0.25
	nearMissFactor   = 0.4
	farMissFactor    = 0.15
	veryFarFactor    = 0.05

	criticalSynergy = 5.0
	highSynergy     = 3.0
)

// Confidence is the result of scoring one signal.
type Confidence struct {
	Score        float64
	Grade        models.Grade
	Breakdown    []models.ParameterScore
	MatchCount   int
	FullMatch    bool
	CriticalHits int
	HighHits     int
}

// NotScored is the confidence of non-actionable signals.
func NotScored() Confidence {
	return Confidence{Score: 0, Grade: models.GradeNA}
}

// Scorer computes confidence against a fixed range table. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	table *Table
}

// NewScorer creates a scorer for table. A nil table selects DefaultTable.
func NewScorer(table *Table) *Scorer {
	if table == nil {
		table = DefaultTable()
	}
	return &Scorer{table: table}
}

// Table returns the scorer's range table.
func (s *Scorer) Table() *Table {
	return s.table
}

// Score grades params for signal. Neutral and diagnostic labels are not scored.
func (s *Scorer) Score(signal models.Signal, params models.Params) Confidence {
	st, ok := signal.ScoringType()
	if !ok {
		return NotScored()
	}
	return s.ScoreType(st, params)
}

// ScoreType grades params against the ranges of st.
func (s *Scorer) ScoreType(st models.SignalType, params models.Params) Confidence {
	ranges := s.table.ranges[st]
	conf := Confidence{Breakdown: make([]models.ParameterScore, 0, len(ranges))}

	var total, maxPossible float64
	for _, r := range ranges {
		v, ok := params.Get(r.Parameter)
		ps := ScoreParameter(r, v, ok)
		conf.Breakdown = append(conf.Breakdown, ps)

		total += ps.Contribution
		maxPossible += r.Weight * 100

		if ps.Status != models.StatusOptimal {
			continue
		}
		conf.MatchCount++
		switch r.Importance {
		case models.ImportanceCritical:
			conf.CriticalHits++
		case models.ImportanceHigh:
			conf.HighHits++
		}
	}
	conf.FullMatch = len(ranges) > 0 && conf.MatchCount == len(ranges)

	switch {
	case conf.CriticalHits >= 2:
		total += criticalSynergy
	case conf.CriticalHits >= 1 && conf.HighHits >= 2:
		total += highSynergy
	}
	if total > maxPossible {
		total = maxPossible
	}

	if maxPossible > 0 {
		conf.Score = clamp(100*total/maxPossible, 0, 100)
	}
	conf.Grade = GradeFor(conf.Score)
	return conf
}

// ScoreParameter scores one value against its range. ok reports whether the
// value is defined; undefined values contribute nothing.
func ScoreParameter(r Range, value float64, ok bool) models.ParameterScore {
	ps := models.ParameterScore{
		Name:       r.Parameter,
		Min:        r.Min,
		Max:        r.Max,
		Weight:     r.Weight,
		Importance: r.Importance,
	}
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		ps.Status = models.StatusMissing
		return ps
	}
	v := value
	ps.Value = &v

	if value >= r.Min && value <= r.Max {
		mid := (r.Min + r.Max) / 2
		half := (r.Max - r.Min) / 2
		dist := 0.0
		if half > 0 {
			dist = math.Abs(value-mid) / half
		}
		contribution := r.Weight * (1 - 0.5*dist) * 100
		if dist < nearCenterCutoff {
			contribution *= nearCenterBonus
		}
		ps.Status = models.StatusOptimal
		ps.Contribution = contribution
		return ps
	}

	var past float64
	if value < r.Min {
		past = r.Min - value
	} else {
		past = value - r.Max
	}
	overshoot := math.Inf(1)
	if width := r.Max - r.Min; width > 0 {
		overshoot = past / width
	}

	switch {
	case overshoot < 0.5:
		ps.Status = models.StatusNearMiss
		ps.Contribution = r.Weight * math.Exp(-2*overshoot) * 100 * nearMissFactor
	case overshoot < 1.0:
		ps.Status = models.StatusFarMiss
		ps.Contribution = r.Weight * 100 * farMissFactor
	default:
		ps.Status = models.StatusVeryFar
		ps.Contribution = r.Weight * 100 * veryFarFactor
	}
	return ps
}

// GradeFor maps a confidence score to its letter grade.
func GradeFor(score float64) models.Grade {
	switch {
	case score >= 90:
		return models.GradeAPlus
	case score >= 80:
		return models.GradeA
	case score >= 70:
		return models.GradeBPlus
	case score >= 60:
		return models.GradeB
	case score >= 50:
		return models.GradeCPlus
	case score >= 40:
		return models.GradeC
	default:
		return models.GradeD
	}
}

// clamp restricts a value to a range.
func clamp(value, minVal, maxVal float64) float64 {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
