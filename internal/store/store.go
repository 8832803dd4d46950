// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"sanket-signals/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Bars
	SaveBars(ctx context.Context, symbol string, bars []models.Bar) error
	GetBars(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error)
	GetBarsFreshness(ctx context.Context, symbol string) (time.Time, error)
	ListSymbols(ctx context.Context) ([]string, error)

	// Sectors
	SaveSectors(ctx context.Context, sectors map[string]string) error
	GetSectors(ctx context.Context) (map[string]string, error)

	// Runs & results
	SaveRun(ctx context.Context, run *Run, records []models.ResultRecord) (int64, error)
	GetRun(ctx context.Context, id int64) (*Run, error)
	GetRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	GetResults(ctx context.Context, runID int64, filter ResultFilter) ([]models.ResultRecord, error)

	// Sync
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// Run is the stored header of one scan.
type Run struct {
	ID         int64
	Model      models.ModelName
	AsOf       time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Universe   int
	Total      int
	Bullish    int
	Bearish    int
	Neutral    int
	Errors     int
	Partial    bool
}

// RunFilter represents filters for querying runs.
type RunFilter struct {
	Model models.ModelName
	From  time.Time
	To    time.Time
	Limit int
}

// ResultFilter represents filters for querying stored records.
type ResultFilter struct {
	Signals       []models.Signal
	MinConfidence float64
	Sector        string
	Limit         int
}
