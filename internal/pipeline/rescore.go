package pipeline

import (
	"math"

	"sanket-signals/internal/analysis/scoring"
	"sanket-signals/internal/models"
)

// Mismatch is a stored record whose confidence no longer reproduces.
type Mismatch struct {
	Ticker          string
	Signal          models.Signal
	StoredScore     float64
	RecomputedScore float64
	StoredGrade     models.Grade
	RecomputedGrade models.Grade
}

// Rescore re-runs scorer on each record's stored parameters and reports every
// record whose score or grade differs.
func Rescore(scorer *scoring.Scorer, records []models.ResultRecord) []Mismatch {
	var out []Mismatch
	for _, rec := range records {
		conf := scorer.Score(rec.Signal, rec.Params)
		if math.Abs(conf.Score-rec.Confidence) <= 1e-9 && conf.Grade == rec.Grade {
			continue
		}
		out = append(out, Mismatch{
			Ticker:          rec.Ticker,
			Signal:          rec.Signal,
			StoredScore:     rec.Confidence,
			RecomputedScore: conf.Score,
			StoredGrade:     rec.Grade,
			RecomputedGrade: conf.Grade,
		})
	}
	return out
}
