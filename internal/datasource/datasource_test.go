package datasource

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
	"sanket-signals/internal/store"
)

const niftyCSV = `Company Name,Industry,Symbol,Series,ISIN Code
HDFC Bank Ltd.,Financial Services,HDFCBANK,EQ,INE040A01034
Infosys Ltd.,Information Technology,INFY,EQ,INE009A01021
Infosys Ltd.,Information Technology,INFY,EQ,INE009A01021
Reliance Industries Ltd.,,reliance,EQ,INE002A01018
`

func testBars(n int) []models.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = models.Bar{Date: start.AddDate(0, 0, i), Open: c - 1, High: c + 2, Low: c - 2, Close: c, Volume: float64(1000 * (i + 1))}
	}
	return bars
}

func TestLoadUniverse(t *testing.T) {
	u, err := LoadUniverse("nifty50", strings.NewReader(niftyCSV), DefaultSuffix)
	if err != nil {
		t.Fatalf("LoadUniverse: %v", err)
	}
	want := []string{"HDFCBANK.NS", "INFY.NS", "RELIANCE.NS"}
	if len(u.Tickers) != len(want) {
		t.Fatalf("tickers = %v", u.Tickers)
	}
	for i := range want {
		if u.Tickers[i] != want[i] {
			t.Errorf("ticker %d = %s, want %s", i, u.Tickers[i], want[i])
		}
	}
	if u.Sectors["INFY.NS"] != "Information Technology" {
		t.Errorf("sectors = %v", u.Sectors)
	}
	if _, ok := u.Sectors["RELIANCE.NS"]; ok {
		t.Error("blank industry should not seed a sector")
	}

	_, err = LoadUniverse("empty", strings.NewReader("Company Name,Industry,Symbol\n"), DefaultSuffix)
	if !errors.Is(err, errors.ErrEmptyUniverse) {
		t.Errorf("empty universe: %v", err)
	}
}

func TestStaticUniverseAndTicker(t *testing.T) {
	u, err := StaticUniverse("custom", []string{"tcs", " INFY.NS ", "TCS", ""}, ".NS")
	if err != nil {
		t.Fatalf("StaticUniverse: %v", err)
	}
	if len(u.Tickers) != 2 || u.Tickers[0] != "INFY.NS" || u.Tickers[1] != "TCS.NS" {
		t.Errorf("tickers = %v", u.Tickers)
	}
	if Ticker("sbin", "") != "SBIN" {
		t.Error("empty suffix should leave the symbol bare")
	}
	if _, err := StaticUniverse("none", nil, ".NS"); !errors.Is(err, errors.ErrEmptyUniverse) {
		t.Errorf("empty static universe: %v", err)
	}
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	content := "Date,Open,High,Low,Close,Adj Close,Volume\n" +
		"2024-01-03,101,103,99,102,102,2000\n" +
		"2024-01-02,100,102,98,nan,101,\n" +
		"2024-01-04,102,104,100,103,103,3000\n"
	if err := os.WriteFile(filepath.Join(dir, "ABC.NS.csv"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	src := NewCSVSource(dir)
	ctx := context.Background()

	series, err := src.Bars(ctx, "ABC.NS", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if series.Len() != 3 || !series.Bars[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("series = %+v", series)
	}
	if !math.IsNaN(series.Bars[0].Close) || !math.IsNaN(series.Bars[0].Volume) {
		t.Errorf("blank and nan cells should read as NaN: %+v", series.Bars[0])
	}

	windowed, err := src.Bars(ctx, "ABC.NS", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), models.EndOfDay(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)))
	if err != nil || windowed.Len() != 1 || windowed.Bars[0].Close != 102 {
		t.Errorf("windowed = %+v, %v", windowed, err)
	}

	if _, err := src.Bars(ctx, "MISSING.NS", time.Time{}, time.Time{}); !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("missing file: %v", err)
	}

	if err := src.WriteBars(ctx, "XYZ.NS", testBars(5)); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}
	back, err := src.Bars(ctx, "XYZ.NS", time.Time{}, time.Time{})
	if err != nil || back.Len() != 5 || back.Bars[4].Volume != 5000 {
		t.Errorf("round trip = %+v, %v", back, err)
	}

	symbols, err := src.Symbols(ctx)
	if err != nil || len(symbols) != 2 || symbols[0] != "ABC.NS" || symbols[1] != "XYZ.NS" {
		t.Errorf("symbols = %v, %v", symbols, err)
	}
}

func TestParquetSource(t *testing.T) {
	src := NewParquetSource(t.TempDir())
	ctx := context.Background()

	bars := testBars(30)
	bars[3].Volume = math.NaN()
	if err := src.WriteBars(ctx, "PQ.NS", bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	series, err := src.Bars(ctx, "PQ.NS", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Bars: %v", err)
	}
	if series.Len() != 30 {
		t.Fatalf("len = %d", series.Len())
	}
	for i, b := range series.Bars {
		if !b.Date.Equal(bars[i].Date) || b.Close != bars[i].Close {
			t.Errorf("bar %d = %+v, want %+v", i, b, bars[i])
		}
	}
	if series.Bars[3].Volume != 0 {
		t.Errorf("NaN volume should be written as 0, got %v", series.Bars[3].Volume)
	}

	if _, err := src.Bars(ctx, "NOPE.NS", time.Time{}, time.Time{}); !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("missing file: %v", err)
	}
}

func TestSectorMapFill(t *testing.T) {
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "sectors.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	m := NewSectorMap(db, map[string]string{"A.NS": "Banks"})
	n, err := m.Fill(ctx, []string{"A.NS", "B.NS", "C.NS"}, MapLookup{"A.NS": "Ignored", "B.NS": "IT"})
	if err != nil || n != 2 {
		t.Fatalf("Fill = %d, %v", n, err)
	}
	if m.Sector(ctx, "A.NS") != "Banks" || m.Sector(ctx, "B.NS") != "IT" || m.Sector(ctx, "C.NS") != OtherSector {
		t.Errorf("sectors after fill: A=%s B=%s C=%s", m.Sector(ctx, "A.NS"), m.Sector(ctx, "B.NS"), m.Sector(ctx, "C.NS"))
	}
	if m.Sector(ctx, "UNSEEN.NS") != OtherSector {
		t.Error("unknown tickers default to Other")
	}

	if n, _ := m.Fill(ctx, []string{"B.NS", "C.NS"}, MapLookup{}); n != 0 {
		t.Errorf("cached tickers should not be looked up again, added %d", n)
	}

	reloaded, err := LoadSectorMap(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Sector(ctx, "B.NS") != "IT" || reloaded.Sector(ctx, "C.NS") != OtherSector {
		t.Error("filled entries should be persisted")
	}
}

func TestImportIntoSQLite(t *testing.T) {
	ctx := context.Background()
	csvSrc := NewCSVSource(t.TempDir())
	for _, s := range []string{"A.NS", "B.NS"} {
		if err := csvSrc.WriteBars(ctx, s, testBars(10)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(csvSrc.Path("BAD.NS"), []byte("Date,Close\nnot-a-date,1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "bars.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	dst := NewStoreSource(db)

	var logs bytes.Buffer
	stats, err := Import(ctx, csvSrc, dst, nil, 2, zerolog.New(&logs))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Symbols != 2 || stats.Bars != 20 || len(stats.Failed) != 1 || stats.Failed[0] != "BAD.NS" {
		t.Errorf("stats = %+v", stats)
	}
	if line := strings.TrimSpace(logs.String()); !strings.Contains(line, `"symbol":"BAD.NS"`) || !strings.Contains(line, `"level":"warn"`) {
		t.Errorf("failed symbol not logged: %s", line)
	}

	series, err := dst.Bars(ctx, "A.NS", time.Time{}, time.Time{})
	if err != nil || series.Len() != 10 {
		t.Errorf("imported series = %+v, %v", series, err)
	}
	symbols, err := dst.Symbols(ctx)
	if err != nil || len(symbols) != 2 {
		t.Errorf("symbols = %v, %v", symbols, err)
	}
}

func TestOpen(t *testing.T) {
	if _, err := ParseKind("excel"); !errors.Is(err, errors.ErrConfigInvalid) {
		t.Errorf("ParseKind: %v", err)
	}
	if _, err := Open(KindSQLite, "", nil); err == nil {
		t.Error("sqlite without a store should fail")
	}
	src, err := Open(KindParquet, t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*ParquetSource); !ok {
		t.Errorf("Open(parquet) = %T", src)
	}
}
