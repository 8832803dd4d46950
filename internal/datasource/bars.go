package datasource

import (
	"context"
	"math"
	"time"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
	"sanket-signals/internal/store"
)

// Kind names a bar source backend.
type Kind string

const (
	KindCSV     Kind = "csv"
	KindParquet Kind = "parquet"
	KindSQLite  Kind = "sqlite"
)

// ParseKind validates a source name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCSV, KindParquet, KindSQLite:
		return k, nil
	default:
		return "", errors.NewValidationError("data.source", s, "must be csv, parquet or sqlite")
	}
}

// Source reads bar series. Missing tickers return an error matching
// errors.ErrDataNotFound.
type Source interface {
	Bars(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error)
	Symbols(ctx context.Context) ([]string, error)
}

// Sink stores bar series.
type Sink interface {
	WriteBars(ctx context.Context, symbol string, bars []models.Bar) error
}

// Open returns the source for kind. dir is used by file backends and db by SQLite.
func Open(kind Kind, dir string, db store.DataStore) (Source, error) {
	switch kind {
	case KindCSV:
		return NewCSVSource(dir), nil
	case KindParquet:
		return NewParquetSource(dir), nil
	case KindSQLite:
		if db == nil {
			return nil, errors.NewValidationError("data.db_path", "", "sqlite source needs a database")
		}
		return NewStoreSource(db), nil
	default:
		return nil, errors.NewValidationError("data.source", kind, "unknown source")
	}
}

// window keeps the bars dated within [from, to] and builds the series.
// A zero from or to leaves that side open.
func window(symbol string, bars []models.Bar, from, to time.Time) (models.BarSeries, error) {
	kept := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if !from.IsZero() && b.Date.Before(from) {
			continue
		}
		if !to.IsZero() && b.Date.After(to) {
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		return models.BarSeries{}, errors.NewDataError("bars", symbol, "no bars in range", errors.ErrDataNotFound)
	}
	return models.NewBarSeries(symbol, kept), nil
}

// day truncates t to midnight UTC of its calendar date.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StoreSource reads bars from the SQLite cache.
type StoreSource struct {
	db store.DataStore
}

// NewStoreSource creates a SQLite-backed source.
func NewStoreSource(db store.DataStore) *StoreSource {
	return &StoreSource{db: db}
}

// Bars implements Source.
func (s *StoreSource) Bars(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error) {
	if to.IsZero() {
		to = time.Now()
	}
	bars, err := s.db.GetBars(ctx, symbol, from, to)
	if err != nil {
		return models.BarSeries{}, err
	}
	return models.NewBarSeries(symbol, bars), nil
}

// Symbols implements Source.
func (s *StoreSource) Symbols(ctx context.Context) ([]string, error) {
	return s.db.ListSymbols(ctx)
}

// WriteBars implements Sink. Non-finite fields are dropped to keep the
// NOT NULL schema; such bars are skipped.
func (s *StoreSource) WriteBars(ctx context.Context, symbol string, bars []models.Bar) error {
	clean := make([]models.Bar, 0, len(bars))
	for _, b := range bars {
		if finite(b.Open, b.High, b.Low, b.Close) {
			if !finite(b.Volume) {
				b.Volume = 0
			}
			b.Date = day(b.Date)
			clean = append(clean, b)
		}
	}
	return s.db.SaveBars(ctx, symbol, clean)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
