package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/logging"
	"sanket-signals/internal/store"
	"sanket-signals/pkg/utils"
)

// writeRetry retries sink writes that lost the SQLite write lock to
// another import worker.
var writeRetry = utils.RetryConfig{
	MaxAttempts:   4,
	InitialDelay:  50 * time.Millisecond,
	MaxDelay:      time.Second,
	BackoffFactor: 2.0,
	Retryable:     store.IsBusy,
}

// ImportStats summarizes a copy between two backends.
type ImportStats struct {
	Symbols int
	Bars    int
	Failed  []string
}

// Import copies every bar of symbols from src into dst using up to workers
// goroutines. A nil or empty symbols list copies everything src holds.
// Per-symbol failures are logged and collected; the import only fails as a
// whole when src cannot be listed or ctx is cancelled.
func Import(ctx context.Context, src Source, dst Sink, symbols []string, workers int, logger zerolog.Logger) (ImportStats, error) {
	if len(symbols) == 0 {
		var err error
		symbols, err = src.Symbols(ctx)
		if err != nil {
			return ImportStats{}, errors.Wrap(err, "failed to list source symbols")
		}
	}
	if len(symbols) == 0 {
		return ImportStats{}, errors.ErrEmptyUniverse
	}
	if workers <= 0 {
		workers = 4
	}

	var (
		mu    sync.Mutex
		stats ImportStats
	)
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers)
	for _, symbol := range symbols {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			series, err := src.Bars(ctx, symbol, time.Time{}, time.Time{})
			if err == nil {
				err = utils.Retry(ctx, writeRetry, func() error {
					return dst.WriteBars(ctx, symbol, series.Bars)
				})
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				l := logging.WithSymbol(logger, symbol)
				l.Warn().Err(err).Msg("Import failed")
				stats.Failed = append(stats.Failed, symbol)
				return nil
			}
			stats.Symbols++
			stats.Bars += series.Len()
			return nil
		})
	}

	err := p.Wait()
	sort.Strings(stats.Failed)
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}
