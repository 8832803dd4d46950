package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sanket.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Property: saving bars and reading them back over their full range yields
// the same bars in date order.
func TestProperty_BarRoundTripConsistency(t *testing.T) {
	store := newTestStore(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS", "SBIN.NS", "ITC.NS"}
	seq := 0

	properties.Property("Bar round-trip: save then retrieve produces equivalent data", prop.ForAll(
		func(symbolIdx int, count int, basePrice float64, baseVolume float64) bool {
			ctx := context.Background()
			seq++
			symbol := fmt.Sprintf("%s_%d", symbols[symbolIdx], seq)

			bars := generateTestBars(count, basePrice, baseVolume)
			if err := store.SaveBars(ctx, symbol, bars); err != nil {
				t.Logf("Failed to save bars: %v", err)
				return false
			}

			retrieved, err := store.GetBars(ctx, symbol, bars[0].Date, models.EndOfDay(bars[len(bars)-1].Date))
			if err != nil {
				t.Logf("Failed to get bars: %v", err)
				return false
			}
			if len(retrieved) != len(bars) {
				t.Logf("Count mismatch: expected %d, got %d", len(bars), len(retrieved))
				return false
			}
			for i := range bars {
				if !barsEqual(bars[i], retrieved[i]) {
					t.Logf("Bar mismatch at index %d: original=%+v, retrieved=%+v", i, bars[i], retrieved[i])
					return false
				}
			}

			last, err := store.GetBarsFreshness(ctx, symbol)
			return err == nil && last.Equal(bars[len(bars)-1].Date)
		},
		gen.IntRange(0, len(symbols)-1),
		gen.IntRange(1, 40),
		gen.Float64Range(10, 5000),
		gen.Float64Range(1, 1e7),
	))

	properties.Property("Saving bars twice keeps one row per date", prop.ForAll(
		func(count int) bool {
			ctx := context.Background()
			seq++
			symbol := fmt.Sprintf("DUP_%d", seq)
			bars := generateTestBars(count, 100, 1000)
			if store.SaveBars(ctx, symbol, bars) != nil || store.SaveBars(ctx, symbol, bars) != nil {
				return false
			}
			got, err := store.GetBars(ctx, symbol, bars[0].Date, bars[len(bars)-1].Date)
			return err == nil && len(got) == count
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

func TestGetBarsMissingSymbol(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveBars(ctx, "EMPTY", nil); err != nil {
		t.Errorf("saving no bars should succeed: %v", err)
	}
	_, err := store.GetBars(ctx, "NOPE.NS", time.Time{}, time.Now())
	if !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("expected ErrDataNotFound, got %v", err)
	}
	if _, err := store.GetBarsFreshness(ctx, "NOPE.NS"); !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("expected ErrDataNotFound, got %v", err)
	}
}

func TestSectorsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveSectors(ctx, map[string]string{"A.NS": "Banks", "B.NS": "IT"}); err != nil {
		t.Fatalf("SaveSectors: %v", err)
	}
	if err := store.SaveSectors(ctx, map[string]string{"B.NS": "Software"}); err != nil {
		t.Fatalf("SaveSectors: %v", err)
	}
	got, err := store.GetSectors(ctx)
	if err != nil {
		t.Fatalf("GetSectors: %v", err)
	}
	if len(got) != 2 || got["A.NS"] != "Banks" || got["B.NS"] != "Software" {
		t.Errorf("sectors = %v", got)
	}
}

func TestRunRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	pct := -1.5
	score := 3.3
	records := []models.ResultRecord{
		{
			Ticker:     "B.NS",
			Model:      models.ModelILFO,
			Signal:     models.SignalLong,
			AsOf:       asOf,
			PctChange:  &pct,
			Params:     models.Params{models.ParamILFOValue: 3.3, models.ParamNormalizedLiq: -0.25},
			Confidence: 88.24,
			Grade:      models.GradeA,
			Breakdown: []models.ParameterScore{{
				Name: models.ParamILFOValue, Value: &score, Min: 3.062, Max: 3.692, Weight: 0.25,
				Importance: models.ImportanceCritical, Status: models.StatusOptimal, Contribution: 25.2,
			}},
			MatchCount: 6,
			Sector:     "Banks",
		},
		models.DiagnosticRecord("A.NS", models.ModelILFO, models.SignalNoData, "No data at 2024-06-28"),
	}
	records[1].AsOf = asOf

	run := &Run{
		Model:      models.ModelILFO,
		AsOf:       asOf,
		StartedAt:  asOf.Add(18 * time.Hour),
		FinishedAt: asOf.Add(18*time.Hour + 3*time.Second),
		Universe:   2,
		Total:      2,
		Bullish:    1,
		Errors:     1,
	}
	id, err := store.SaveRun(ctx, run, records)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == 0 || run.ID != id {
		t.Errorf("run id = %d, %d", id, run.ID)
	}

	got, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Model != models.ModelILFO || !got.AsOf.Equal(asOf) || got.Bullish != 1 || got.Errors != 1 || got.Partial {
		t.Errorf("run = %+v", got)
	}
	if _, err := store.GetRun(ctx, id+100); !errors.Is(err, errors.ErrDataNotFound) {
		t.Errorf("missing run: %v", err)
	}

	stored, err := store.GetResults(ctx, id, ResultFilter{})
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(stored) != 2 || stored[0].Ticker != "A.NS" || stored[1].Ticker != "B.NS" {
		t.Fatalf("results = %+v", stored)
	}

	diag := stored[0]
	if diag.Signal != models.SignalNoData || diag.Params != nil || diag.PctChange != nil || diag.Grade != models.GradeNA {
		t.Errorf("diagnostic record = %+v", diag)
	}

	long := stored[1]
	if long.PctChange == nil || *long.PctChange != pct || long.Params[models.ParamNormalizedLiq] != -0.25 {
		t.Errorf("long record = %+v", long)
	}
	if len(long.Breakdown) != 1 || *long.Breakdown[0].Value != 3.3 || long.Breakdown[0].Status != models.StatusOptimal {
		t.Errorf("breakdown = %+v", long.Breakdown)
	}

	filtered, err := store.GetResults(ctx, id, ResultFilter{Signals: []models.Signal{models.SignalLong}, MinConfidence: 50})
	if err != nil || len(filtered) != 1 || filtered[0].Ticker != "B.NS" {
		t.Errorf("filtered = %+v, %v", filtered, err)
	}

	runs, err := store.GetRuns(ctx, RunFilter{Model: models.ModelILFO, Limit: 5})
	if err != nil || len(runs) != 1 {
		t.Errorf("runs = %+v, %v", runs, err)
	}
	if runs, _ := store.GetRuns(ctx, RunFilter{Model: models.ModelROCSlope}); len(runs) != 0 {
		t.Errorf("model filter ignored: %+v", runs)
	}
}

func TestCheckFreshness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	bars := generateTestBars(19, 100, 1000) // 2024-01-01 .. 2024-01-19
	if err := store.SaveBars(ctx, "FRESH", bars); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveBars(ctx, "OLD", bars[:5]); err != nil {
		t.Fatal(err)
	}

	entries, err := CheckFreshness(ctx, store, []string{"FRESH", "OLD", "NONE"}, asOf, 0)
	if err != nil {
		t.Fatalf("CheckFreshness: %v", err)
	}
	if !entries[0].IsFresh || entries[1].IsFresh || entries[2].IsFresh {
		t.Errorf("freshness = %+v", entries)
	}
	if stale := Stale(entries); len(stale) != 2 {
		t.Errorf("stale = %+v", stale)
	}
	if got := FormatFreshness(entries[2]); got != "Never synced" {
		t.Errorf("FormatFreshness = %q", got)
	}

	if err := MarkSynced(store, SyncTypeBars); err != nil {
		t.Fatal(err)
	}
	if got := FormatLastSync(store, SyncTypeBars, time.Now()); got != "Updated just now" {
		t.Errorf("FormatLastSync = %q", got)
	}
}

// generateTestBars creates daily bars starting 2024-01-01.
func generateTestBars(count int, basePrice, baseVolume float64) []models.Bar {
	bars := make([]models.Bar, count)
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		variation := float64(i%10) * 0.01 * basePrice
		open := basePrice + variation
		close := basePrice + variation*0.5

		bars[i] = models.Bar{
			Date:   baseTime.AddDate(0, 0, i),
			Open:   roundToDecimal(open, 2),
			High:   roundToDecimal(math.Max(open, close)*1.01, 2),
			Low:    roundToDecimal(math.Min(open, close)*0.99, 2),
			Close:  roundToDecimal(close, 2),
			Volume: math.Round(baseVolume) + float64(i*1000),
		}
	}
	return bars
}

// roundToDecimal rounds a float to specified decimal places
func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// barsEqual compares two bars for equality with floating point tolerance.
func barsEqual(a, b models.Bar) bool {
	const tolerance = 0.01
	return a.Date.Equal(b.Date) &&
		floatEqual(a.Open, b.Open, tolerance) &&
		floatEqual(a.High, b.High, tolerance) &&
		floatEqual(a.Low, b.Low, tolerance) &&
		floatEqual(a.Close, b.Close, tolerance) &&
		a.Volume == b.Volume
}

// floatEqual compares two floats with a tolerance.
func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
