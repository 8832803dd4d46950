package datasource

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

// csvDate parses the date column of daily bar exports.
type csvDate struct {
	time.Time
}

var csvDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	time.RFC3339,
	"02-Jan-2006",
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (d *csvDate) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = day(t)
			return nil
		}
	}
	return fmt.Errorf("unrecognized date %q", s)
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (d csvDate) MarshalCSV() (string, error) {
	return d.Format("2006-01-02"), nil
}

// csvFloat reads blank and "nan" cells as NaN so gaps reach the fill step
// instead of failing the whole file.
type csvFloat struct {
	v float64
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (f *csvFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none":
		f.v = math.NaN()
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return err
	}
	f.v = v
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (f csvFloat) MarshalCSV() (string, error) {
	if math.IsNaN(f.v) {
		return "", nil
	}
	return strconv.FormatFloat(f.v, 'f', -1, 64), nil
}

// csvBar is one row of a per-ticker bar file.
type csvBar struct {
	Date   csvDate  `csv:"Date"`
	Open   csvFloat `csv:"Open"`
	High   csvFloat `csv:"High"`
	Low    csvFloat `csv:"Low"`
	Close  csvFloat `csv:"Close"`
	Volume csvFloat `csv:"Volume"`
}

// CSVSource reads one "<TICKER>.csv" file per ticker from a directory.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a CSV directory source.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Path returns the file holding symbol's bars.
func (s *CSVSource) Path(symbol string) string {
	return filepath.Join(s.dir, symbol+".csv")
}

// Bars implements Source.
func (s *CSVSource) Bars(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.BarSeries{}, err
	}
	f, err := os.Open(s.Path(symbol))
	if os.IsNotExist(err) {
		return models.BarSeries{}, errors.NewDataError("bars", symbol, "no csv file", errors.ErrDataNotFound)
	}
	if err != nil {
		return models.BarSeries{}, errors.Wrapf(err, "failed to open bars for %s", symbol)
	}
	defer f.Close()

	var rows []*csvBar
	if err := gocsv.Unmarshal(f, &rows); err != nil {
		return models.BarSeries{}, errors.Wrapf(err, "failed to parse %s", s.Path(symbol))
	}

	bars := make([]models.Bar, len(rows))
	for i, r := range rows {
		bars[i] = models.Bar{
			Date:   r.Date.Time,
			Open:   r.Open.v,
			High:   r.High.v,
			Low:    r.Low.v,
			Close:  r.Close.v,
			Volume: r.Volume.v,
		}
	}
	return window(symbol, bars, from, to)
}

// Symbols implements Source.
func (s *CSVSource) Symbols(ctx context.Context) ([]string, error) {
	return listSymbols(s.dir, ".csv")
}

// WriteBars implements Sink, replacing the ticker's file.
func (s *CSVSource) WriteBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create bars directory")
	}
	rows := make([]*csvBar, len(bars))
	for i, b := range bars {
		rows[i] = &csvBar{
			Date:   csvDate{day(b.Date)},
			Open:   csvFloat{b.Open},
			High:   csvFloat{b.High},
			Low:    csvFloat{b.Low},
			Close:  csvFloat{b.Close},
			Volume: csvFloat{b.Volume},
		}
	}

	f, err := os.Create(s.Path(symbol))
	if err != nil {
		return errors.Wrapf(err, "failed to create bars for %s", symbol)
	}
	defer f.Close()
	return gocsv.Marshal(rows, f)
}

// listSymbols returns the file stems with extension ext in dir, sorted.
func listSymbols(dir, ext string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(matches))
	for _, m := range matches {
		symbols = append(symbols, strings.TrimSuffix(filepath.Base(m), ext))
	}
	sort.Strings(symbols)
	return symbols, nil
}
