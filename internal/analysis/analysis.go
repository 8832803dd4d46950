// Package analysis provides the shared plumbing of the signal models:
// the Model interface, bar-series preparation with as-of truncation, and the
// snapshot every model hands to the scorer.
package analysis

import (
	"time"

	"sanket-signals/internal/models"
)

// Model turns one ticker's bar series into a signal snapshot at an evaluation date.
type Model interface {
	Name() models.ModelName
	// Lookback is the primary window; series shorter than twice it are rejected.
	Lookback() int
	Evaluate(series models.BarSeries, asOf time.Time) (*Snapshot, error)
}

// Snapshot is the set of values sampled at the as-of bar.
type Snapshot struct {
	Date      time.Time
	Signal    models.Signal
	Params    models.Params
	Close     float64
	PctChange *float64
}
