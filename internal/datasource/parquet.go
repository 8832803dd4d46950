package datasource

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

// parquetBar is the on-disk row of a Parquet bar file. Timestamp is unix
// milliseconds of the session date.
type parquetBar struct {
	Timestamp int64   `parquet:"t"`
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    int64   `parquet:"v"`
}

// ParquetSource reads one "<TICKER>.parquet" file per ticker from a directory.
type ParquetSource struct {
	dir string
}

// NewParquetSource creates a Parquet directory source.
func NewParquetSource(dir string) *ParquetSource {
	return &ParquetSource{dir: dir}
}

// Path returns the file holding symbol's bars.
func (s *ParquetSource) Path(symbol string) string {
	return filepath.Join(s.dir, symbol+".parquet")
}

// Bars implements Source.
func (s *ParquetSource) Bars(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.BarSeries{}, err
	}
	path := s.Path(symbol)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return models.BarSeries{}, errors.NewDataError("bars", symbol, "no parquet file", errors.ErrDataNotFound)
	}

	rows, err := parquet.ReadFile[parquetBar](path)
	if err != nil {
		return models.BarSeries{}, errors.Wrapf(err, "failed to read %s", path)
	}

	bars := make([]models.Bar, len(rows))
	for i, r := range rows {
		bars[i] = models.Bar{
			Date:   day(time.UnixMilli(r.Timestamp).UTC()),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: float64(r.Volume),
		}
	}
	return window(symbol, bars, from, to)
}

// Symbols implements Source.
func (s *ParquetSource) Symbols(ctx context.Context) ([]string, error) {
	return listSymbols(s.dir, ".parquet")
}

// WriteBars implements Sink, replacing the ticker's file. NaN volumes are
// written as 0.
func (s *ParquetSource) WriteBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create bars directory")
	}
	rows := make([]parquetBar, len(bars))
	for i, b := range bars {
		vol := int64(0)
		if !math.IsNaN(b.Volume) && !math.IsInf(b.Volume, 0) {
			vol = int64(math.Round(b.Volume))
		}
		rows[i] = parquetBar{
			Timestamp: day(b.Date).UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    vol,
		}
	}
	return parquet.WriteFile(s.Path(symbol), rows)
}
