// Package datasource supplies the inputs of a scan: the ticker universe,
// per-ticker bar series from CSV, Parquet or SQLite, and the sector map.
package datasource

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	"sanket-signals/internal/errors"
)

// DefaultSuffix is appended to bare NSE symbols.
const DefaultSuffix = ".NS"

// constituent is one row of an index constituent file. Other columns
// (Company Name, Series, ISIN Code) are ignored.
type constituent struct {
	Symbol   string `csv:"Symbol"`
	Industry string `csv:"Industry"`
}

// Universe is the ordered ticker list of a scan plus any sector data that
// came with it.
type Universe struct {
	Name    string
	Tickers []string
	// Sectors seeds the sector map; tickers without an industry are absent.
	Sectors map[string]string
}

// Len returns the number of tickers.
func (u Universe) Len() int {
	return len(u.Tickers)
}

// LoadUniverse parses an index constituent CSV. suffix is appended to each
// symbol that does not already carry it. Blank and duplicate symbols are skipped.
func LoadUniverse(name string, r io.Reader, suffix string) (Universe, error) {
	var rows []*constituent
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return Universe{}, errors.Wrapf(err, "failed to parse universe %s", name)
	}

	u := Universe{Name: name, Sectors: make(map[string]string)}
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		ticker := Ticker(row.Symbol, suffix)
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		u.Tickers = append(u.Tickers, ticker)
		if industry := strings.TrimSpace(row.Industry); industry != "" {
			u.Sectors[ticker] = industry
		}
	}
	if len(u.Tickers) == 0 {
		return Universe{}, errors.Wrapf(errors.ErrEmptyUniverse, "%s", name)
	}
	return u, nil
}

// LoadUniverseFile reads a constituent CSV from disk.
func LoadUniverseFile(path, suffix string) (Universe, error) {
	f, err := os.Open(path)
	if err != nil {
		return Universe{}, errors.Wrap(err, "failed to open universe file")
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadUniverse(name, f, suffix)
}

// StaticUniverse builds a universe from a symbol list, sorted and deduplicated.
func StaticUniverse(name string, symbols []string, suffix string) (Universe, error) {
	seen := make(map[string]bool, len(symbols))
	u := Universe{Name: name, Sectors: map[string]string{}}
	for _, s := range symbols {
		ticker := Ticker(s, suffix)
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		u.Tickers = append(u.Tickers, ticker)
	}
	if len(u.Tickers) == 0 {
		return Universe{}, errors.Wrapf(errors.ErrEmptyUniverse, "%s", name)
	}
	sort.Strings(u.Tickers)
	return u, nil
}

// Ticker normalizes a raw symbol and appends suffix when missing.
func Ticker(symbol, suffix string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return ""
	}
	if suffix != "" && !strings.HasSuffix(symbol, strings.ToUpper(suffix)) {
		symbol += strings.ToUpper(suffix)
	}
	return symbol
}
