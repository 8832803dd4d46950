package store

import (
	"context"
	"fmt"
	"time"

	"sanket-signals/internal/errors"
)

// SyncDataType represents the type of data being synced.
type SyncDataType string

const (
	SyncTypeBars    SyncDataType = "bars"
	SyncTypeSectors SyncDataType = "sectors"
)

// DataFreshness reports how current one symbol's stored bars are relative
// to an evaluation date.
type DataFreshness struct {
	Symbol  string
	LastBar time.Time
	IsFresh bool
	// Lag is the gap between the evaluation date and the newest bar.
	Lag time.Duration
}

// DefaultMaxLag tolerates a long weekend plus a market holiday.
const DefaultMaxLag = 4 * 24 * time.Hour

// CheckFreshness reports, for each symbol, whether the newest stored bar is
// within maxLag of asOf. Symbols with no bars are returned as never synced.
func CheckFreshness(ctx context.Context, store DataStore, symbols []string, asOf time.Time, maxLag time.Duration) ([]DataFreshness, error) {
	if maxLag <= 0 {
		maxLag = DefaultMaxLag
	}

	out := make([]DataFreshness, 0, len(symbols))
	for _, symbol := range symbols {
		last, err := store.GetBarsFreshness(ctx, symbol)
		if err != nil && !errors.Is(err, errors.ErrDataNotFound) {
			return nil, err
		}

		f := DataFreshness{Symbol: symbol, LastBar: last}
		if !last.IsZero() {
			f.Lag = asOf.Sub(last)
			if f.Lag < 0 {
				f.Lag = 0
			}
			f.IsFresh = f.Lag <= maxLag
		}
		out = append(out, f)
	}
	return out, nil
}

// Stale filters the entries that are not fresh.
func Stale(entries []DataFreshness) []DataFreshness {
	var out []DataFreshness
	for _, f := range entries {
		if !f.IsFresh {
			out = append(out, f)
		}
	}
	return out
}

// MarkSynced records that a data type was refreshed now.
func MarkSynced(store DataStore, dataType SyncDataType) error {
	return store.SetLastSync(string(dataType), time.Now())
}

// FormatFreshness returns a human-readable freshness string.
func FormatFreshness(freshness DataFreshness) string {
	if freshness.LastBar.IsZero() {
		return "Never synced"
	}

	lag := freshness.Lag
	var lagStr string
	switch {
	case lag < 24*time.Hour:
		lagStr = "same day"
	default:
		lagStr = fmt.Sprintf("%d days behind", int(lag.Hours()/24))
	}

	if freshness.IsFresh {
		return fmt.Sprintf("Last bar %s (%s)", freshness.LastBar.Format("2006-01-02"), lagStr)
	}
	return fmt.Sprintf("Stale - last bar %s (%s)", freshness.LastBar.Format("2006-01-02"), lagStr)
}

// FormatLastSync describes when a data type was last refreshed.
func FormatLastSync(store DataStore, dataType SyncDataType, now time.Time) string {
	last := store.GetLastSync(string(dataType))
	if last.IsZero() {
		return "Never synced"
	}

	age := now.Sub(last)
	switch {
	case age < time.Minute:
		return "Updated just now"
	case age < time.Hour:
		return fmt.Sprintf("Updated %d minutes ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("Updated %d hours ago", int(age.Hours()))
	default:
		return fmt.Sprintf("Updated %d days ago", int(age.Hours()/24))
	}
}
