// Package pipeline evaluates a universe of tickers against one signal model:
// per-ticker evaluation with diagnostic records, and a bounded concurrent runner.
package pipeline

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"sanket-signals/internal/analysis"
	"sanket-signals/internal/analysis/ilfo"
	"sanket-signals/internal/analysis/rocslope"
	"sanket-signals/internal/analysis/scoring"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/logging"
	"sanket-signals/internal/models"
)

// NewModel returns the model registered under name.
func NewModel(name models.ModelName) (analysis.Model, error) {
	switch name {
	case models.ModelILFO:
		return ilfo.NewDefault(), nil
	case models.ModelROCSlope:
		return rocslope.NewDefault(), nil
	default:
		return nil, errors.NewValidationError("model", name, "unknown model")
	}
}

// Evaluator runs one model and the scorer for a single ticker.
// It holds no per-ticker state and is safe for concurrent use.
type Evaluator struct {
	model  analysis.Model
	scorer *scoring.Scorer
	logger zerolog.Logger
}

// NewEvaluator creates an evaluator. A nil scorer uses the default range table.
func NewEvaluator(model analysis.Model, scorer *scoring.Scorer, logger zerolog.Logger) *Evaluator {
	if scorer == nil {
		scorer = scoring.NewScorer(nil)
	}
	return &Evaluator{model: model, scorer: scorer, logger: logger}
}

// Model returns the evaluator's model.
func (e *Evaluator) Model() analysis.Model {
	return e.model
}

// Evaluate produces exactly one record for ticker. Model failures, including
// panics inside indicator code, become diagnostic records.
func (e *Evaluator) Evaluate(ticker string, series models.BarSeries, asOf time.Time) (rec models.ResultRecord) {
	name := e.model.Name()
	defer func() {
		if r := recover(); r != nil {
			rec = e.diagnostic(ticker, asOf, errors.NewCalcError(string(name), "evaluate", fmt.Errorf("panic: %v", r)))
		}
	}()

	snap, err := e.model.Evaluate(series, asOf)
	if err != nil {
		return e.diagnostic(ticker, asOf, err)
	}

	conf := e.scorer.Score(snap.Signal, snap.Params)
	rec = models.ResultRecord{
		Ticker:     ticker,
		Model:      name,
		Signal:     snap.Signal,
		AsOf:       snap.Date,
		PctChange:  snap.PctChange,
		Params:     snap.Params,
		Confidence: conf.Score,
		Grade:      conf.Grade,
		Breakdown:  conf.Breakdown,
		MatchCount: conf.MatchCount,
		FullMatch:  conf.FullMatch,
		Sector:     "Other",
	}
	logging.LogSignal(e.logger, ticker, string(name), string(rec.Signal), rec.Confidence, string(rec.Grade))
	return rec
}

// Missing builds the record of a ticker whose bars could not be obtained.
func (e *Evaluator) Missing(ticker string, asOf time.Time, err error) models.ResultRecord {
	switch {
	case err == nil:
		err = errors.ErrDataNotFound
	case !errors.Is(err, errors.ErrDataNotFound):
		err = errors.Join(errors.ErrDataNotFound, err)
	}
	return e.diagnostic(ticker, asOf, errors.NewDataError("bars", ticker, "No bar series", err))
}

func (e *Evaluator) diagnostic(ticker string, asOf time.Time, err error) models.ResultRecord {
	signal, detail := Diagnose(err)
	logging.LogDiagnostic(e.logger, ticker, string(signal), detail)
	rec := models.DiagnosticRecord(ticker, e.model.Name(), signal, detail)
	rec.AsOf = models.EndOfDay(asOf)
	return rec
}

// Diagnose maps an evaluation error to its diagnostic label and a short detail.
func Diagnose(err error) (models.Signal, string) {
	detail := err.Error()
	var de *errors.DataError
	if errors.As(err, &de) && de.Message != "" {
		detail = de.Message
	}

	switch {
	case errors.Is(err, errors.ErrDataNotFound):
		return models.SignalDownloadError, detail
	case errors.Is(err, errors.ErrInsufficientData):
		return models.SignalInsufficientData, detail
	case errors.Is(err, errors.ErrInvalidData):
		return models.SignalInvalidData, detail
	case errors.Is(err, errors.ErrNoData):
		return models.SignalNoData, detail
	default:
		return models.SignalCalcError, detail
	}
}
