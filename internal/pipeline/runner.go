package pipeline

import (
	"context"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/logging"
	"sanket-signals/internal/models"
)

// BarSource supplies one ticker's bars between two dates, inclusive.
// A ticker with no stored series returns an error matching errors.ErrDataNotFound.
type BarSource interface {
	Bars(ctx context.Context, symbol string, from, to time.Time) (models.BarSeries, error)
}

// SectorResolver maps a ticker to its sector, falling back to "Other".
type SectorResolver interface {
	Sector(ctx context.Context, symbol string) string
}

// Options tunes a Runner.
type Options struct {
	Workers       int
	Timeout       time.Duration
	ProgressEvery int
	LookbackDays  int
}

// DefaultOptions returns runner defaults.
func DefaultOptions() Options {
	return Options{
		Workers:       runtime.NumCPU(),
		ProgressEvery: 50,
		LookbackDays:  250,
	}
}

// Result is the outcome of one scan.
type Result struct {
	Model      models.ModelName
	AsOf       time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Universe   int
	Records    []models.ResultRecord
	// Partial is set when the run was cancelled or timed out before every ticker finished.
	Partial bool
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Runner fans a universe out over a bounded pool of evaluations.
type Runner struct {
	evaluator *Evaluator
	bars      BarSource
	sectors   SectorResolver
	opts      Options
	logger    zerolog.Logger
}

// NewRunner creates a runner. sectors may be nil.
func NewRunner(evaluator *Evaluator, bars BarSource, sectors SectorResolver, opts Options, logger zerolog.Logger) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = DefaultOptions().LookbackDays
	}
	return &Runner{
		evaluator: evaluator,
		bars:      bars,
		sectors:   sectors,
		opts:      opts,
		logger:    logger,
	}
}

// Run evaluates every ticker as of asOf. Records are sorted by ticker.
//
// Per-ticker failures never abort the run. An empty universe returns
// errors.ErrEmptyUniverse and a universe with no bars at all returns
// errors.ErrNoMarketData alongside the download-error records. On cancellation
// the records finished so far are returned with Partial set and ctx's error.
func (r *Runner) Run(ctx context.Context, tickers []string, asOf time.Time) (*Result, error) {
	if len(tickers) == 0 {
		return nil, errors.ErrEmptyUniverse
	}

	res := &Result{
		Model:     r.evaluator.Model().Name(),
		AsOf:      asOf,
		StartedAt: time.Now(),
		Universe:  len(tickers),
	}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	from := asOf.AddDate(0, 0, -r.opts.LookbackDays)
	to := models.EndOfDay(asOf)

	var done atomic.Int64
	p := pool.NewWithResults[models.ResultRecord]().
		WithContext(ctx).
		WithMaxGoroutines(r.opts.Workers)

	for _, ticker := range tickers {
		p.Go(func(ctx context.Context) (models.ResultRecord, error) {
			if err := ctx.Err(); err != nil {
				return models.ResultRecord{}, err
			}
			rec := r.evaluate(ctx, ticker, from, to, asOf)
			if n := int(done.Add(1)); r.opts.ProgressEvery > 0 && n%r.opts.ProgressEvery == 0 {
				logging.LogProgress(r.logger, n, len(tickers))
			}
			return rec, nil
		})
	}

	records, err := p.Wait()
	res.FinishedAt = time.Now()
	sort.Slice(records, func(i, j int) bool { return records[i].Ticker < records[j].Ticker })
	res.Records = records

	if err != nil || len(records) < len(tickers) {
		res.Partial = true
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		r.summarize(res, err)
		return res, err
	}

	missing := 0
	for _, rec := range records {
		if rec.Signal == models.SignalDownloadError {
			missing++
		}
	}
	if missing == len(records) {
		r.summarize(res, errors.ErrNoMarketData)
		return res, errors.ErrNoMarketData
	}

	r.summarize(res, nil)
	return res, nil
}

func (r *Runner) evaluate(ctx context.Context, ticker string, from, to, asOf time.Time) models.ResultRecord {
	var rec models.ResultRecord
	series, err := r.bars.Bars(ctx, ticker, from, to)
	if err != nil || series.Len() == 0 {
		rec = r.evaluator.Missing(ticker, asOf, err)
	} else {
		rec = r.evaluator.Evaluate(ticker, series, asOf)
	}
	if r.sectors != nil {
		rec.Sector = r.sectors.Sector(ctx, ticker)
	}
	return rec
}

func (r *Runner) summarize(res *Result, err error) {
	actionable, failed := 0, 0
	for _, rec := range res.Records {
		switch {
		case rec.Signal.IsActionable():
			actionable++
		case rec.IsError():
			failed++
		}
	}
	logging.LogRunSummary(r.logger, len(res.Records), actionable, failed, res.Duration(), err)
}
