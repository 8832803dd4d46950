package cli

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sanket-signals/internal/aggregate"
	"sanket-signals/internal/analysis/scoring"
	"sanket-signals/internal/datasource"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/logging"
	"sanket-signals/internal/models"
	"sanket-signals/internal/pipeline"
	"sanket-signals/internal/store"
)

// addScanCommands adds the scan command.
func addScanCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newScanCmd(app))
}

// scanReport is the JSON form of a scan.
type scanReport struct {
	RunID      int64                 `json:"run_id,omitempty"`
	Model      models.ModelName      `json:"model"`
	AsOf       string                `json:"as_of"`
	Universe   string                `json:"universe"`
	Partial    bool                  `json:"partial"`
	DurationMS int64                 `json:"duration_ms"`
	Ratio      string                `json:"buy_sell_ratio"`
	Summary    aggregate.Summary     `json:"summary"`
	Records    []models.ResultRecord `json:"records"`
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [symbols...]",
		Short: "Scan a universe and grade every signal",
		Long: `Evaluate every ticker of a universe as of a date with the configured model,
score actionable signals against the optimal range table and print the
signal tallies, market health, sector breakdown and the graded signals.

The universe is taken from the symbols given as arguments, from --universe,
or from data.universe_file in the configuration.`,
		Example: `  sanket scan --universe ind_nifty500list.csv
  sanket scan --model rocslope --date 2024-06-28
  sanket scan RELIANCE TCS INFY --source sqlite
  sanket scan --export reports/long.csv --filter long`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config

			modelFlag, _ := cmd.Flags().GetString("model")
			if modelFlag == "" {
				modelFlag = cfg.Analysis.Model
			}
			modelName, err := models.ParseModelName(modelFlag)
			if err != nil {
				return errorf(output, "%v", err)
			}

			dateFlag, _ := cmd.Flags().GetString("date")
			asOf, err := parseDate(dateFlag)
			if err != nil {
				return errorf(output, "invalid --date: %v", err)
			}

			sourceFlag, _ := cmd.Flags().GetString("source")
			if sourceFlag == "" {
				sourceFlag = cfg.Data.Source
			}
			kind, err := datasource.ParseKind(sourceFlag)
			if err != nil {
				return errorf(output, "%v", err)
			}
			barsDir, _ := cmd.Flags().GetString("bars-dir")
			if barsDir == "" {
				barsDir = cfg.Data.BarsDir
			}

			exportPath, _ := cmd.Flags().GetString("export")
			filterFlag, _ := cmd.Flags().GetString("filter")
			filter, err := ParseExportFilter(filterFlag)
			if err != nil {
				return errorf(output, "%v", err)
			}
			noSave, _ := cmd.Flags().GetBool("no-save")
			top, _ := cmd.Flags().GetInt("top")

			universe, err := loadUniverse(cmd, cfg.Data.UniverseFile, cfg.Data.SymbolSuffix, args)
			if err != nil {
				return errorf(output, "%v", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var db store.DataStore
			if kind == datasource.KindSQLite || !noSave {
				db, err = app.Store()
				if err != nil {
					if kind == datasource.KindSQLite {
						return errorf(output, "failed to open store: %v", err)
					}
					app.Logger.Warn().Err(err).Msg("Failed to open store, run will not be saved")
					noSave = true
				}
			}

			sectors := datasource.NewSectorMap(nil, nil)
			if db != nil {
				if loaded, err := datasource.LoadSectorMap(ctx, db); err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to load sector map")
				} else {
					sectors = loaded
				}
			}
			if _, err := sectors.Fill(ctx, universe.Tickers, datasource.MapLookup(universe.Sectors)); err != nil {
				app.Logger.Warn().Err(err).Msg("Failed to persist sector map")
			}

			src, err := datasource.Open(kind, barsDir, db)
			if err != nil {
				return errorf(output, "%v", err)
			}
			if kind == datasource.KindSQLite && !output.IsJSON() {
				warnStale(ctx, output, db, universe.Tickers, asOf)
			}

			table, err := cfg.RangeTable()
			if err != nil {
				return errorf(output, "%v", err)
			}
			model, err := pipeline.NewModel(modelName)
			if err != nil {
				return errorf(output, "%v", err)
			}
			logger := logging.WithOperation(app.Logger, "scan")
			evaluator := pipeline.NewEvaluator(model, scoring.NewScorer(table), logger)
			runner := pipeline.NewRunner(evaluator, src, sectors, pipeline.Options{
				Workers:       cfg.Analysis.Workers,
				Timeout:       cfg.Analysis.Timeout,
				ProgressEvery: cfg.Analysis.ProgressEvery,
				LookbackDays:  cfg.Analysis.LookbackDays,
			}, logger)

			if !output.IsJSON() {
				output.Info("Scanning %d tickers from %s with %s as of %s...", universe.Len(), universe.Name, modelName.Title(), FormatDate(asOf))
			}

			res, runErr := runner.Run(ctx, universe.Tickers, asOf)
			if res == nil {
				return errorf(output, "scan failed: %v", runErr)
			}
			if errors.Is(runErr, errors.ErrNoMarketData) {
				return errorf(output, "no bars for any ticker in %s (source %s, %s): %w", universe.Name, kind, barsDir, runErr)
			}

			summary := aggregate.Summarize(modelName, res.Records)

			var runID int64
			if !noSave && db != nil {
				runID, err = db.SaveRun(ctx, runHeader(res, summary), res.Records)
				if err != nil {
					app.Logger.Warn().Err(err).Msg("Failed to save run")
				} else {
					runLogger := logging.WithRun(logger, runID, string(modelName))
					runLogger.Info().Int("records", len(res.Records)).Msg("Run saved")
				}
			}

			if exportPath != "" {
				n, err := ExportReport(exportPath, res.Records, filter)
				if err != nil {
					return errorf(output, "%v", err)
				}
				if !output.IsJSON() {
					output.Success("✓ Exported %d records to %s", n, exportPath)
				}
			}

			if output.IsJSON() {
				if err := output.JSON(scanReport{
					RunID:      runID,
					Model:      modelName,
					AsOf:       asOf.Format("2006-01-02"),
					Universe:   universe.Name,
					Partial:    res.Partial,
					DurationMS: res.Duration().Milliseconds(),
					Ratio:      FormatRatio(summary.BuySellRatio),
					Summary:    summary,
					Records:    filter.Apply(res.Records),
				}); err != nil {
					return err
				}
				return runErr
			}

			renderScan(output, res, summary, universe.Name, runID, filter, top)
			if res.Partial {
				output.Warning("⚠ Scan interrupted: %d of %d tickers evaluated (%v)", len(res.Records), res.Universe, runErr)
			}
			return runErr
		},
	}

	cmd.Flags().String("date", "", "as-of date YYYY-MM-DD (default: today)")
	cmd.Flags().StringP("model", "m", "", "signal model: ilfo or rocslope (default from config)")
	cmd.Flags().StringP("universe", "u", "", "index constituent CSV with Symbol and Industry columns")
	cmd.Flags().String("source", "", "bar source: csv, parquet or sqlite (default from config)")
	cmd.Flags().String("bars-dir", "", "directory of per-ticker bar files")
	cmd.Flags().StringP("export", "o", "", "write a CSV report to this path")
	cmd.Flags().String("filter", "all", "records to report: all, long, short or errors")
	cmd.Flags().Bool("no-save", false, "do not store the run")
	cmd.Flags().Int("top", 25, "signals listed per direction (0 for all)")

	return cmd
}

// parseDate parses YYYY-MM-DD; empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		y, m, d := time.Now().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", s)
}

// loadUniverse resolves the scan universe from arguments, --universe or the config.
func loadUniverse(cmd *cobra.Command, configured, suffix string, args []string) (datasource.Universe, error) {
	if len(args) > 0 {
		return datasource.StaticUniverse("custom", args, suffix)
	}
	path, _ := cmd.Flags().GetString("universe")
	if path == "" {
		path = configured
	}
	if path == "" {
		return datasource.Universe{}, errors.Wrap(errors.ErrEmptyUniverse, "no symbols given and no universe file configured")
	}
	return datasource.LoadUniverseFile(path, suffix)
}

func warnStale(ctx context.Context, output *Output, db store.DataStore, tickers []string, asOf time.Time) {
	entries, err := store.CheckFreshness(ctx, db, tickers, asOf, store.DefaultMaxLag)
	if err != nil {
		return
	}
	stale := store.Stale(entries)
	if len(stale) == 0 {
		return
	}
	output.Warning("⚠ %d of %d tickers have stale or missing bars (%s)", len(stale), len(entries), store.FormatLastSync(db, store.SyncTypeBars, time.Now()))
	for i, f := range stale {
		if i == 5 {
			output.Dim("  ... and %d more", len(stale)-5)
			break
		}
		output.Dim("  %-16s %s", f.Symbol, store.FormatFreshness(f))
	}
}

func runHeader(res *pipeline.Result, summary aggregate.Summary) *store.Run {
	return &store.Run{
		Model:      res.Model,
		AsOf:       res.AsOf,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Universe:   res.Universe,
		Total:      summary.Total,
		Bullish:    summary.Bullish,
		Bearish:    summary.Bearish,
		Neutral:    summary.Neutral,
		Errors:     summary.Errors,
		Partial:    res.Partial,
	}
}

func renderScan(output *Output, res *pipeline.Result, summary aggregate.Summary, universe string, runID int64, filter ExportFilter, top int) {
	output.Println()
	header := []string{
		"Model:     " + res.Model.Title(),
		"As of:     " + FormatDate(res.AsOf),
		"Universe:  " + universe,
		"Evaluated: " + strconv.Itoa(summary.Total) + " in " + FormatDuration(res.Duration()),
	}
	if runID > 0 {
		header = append(header, "Run:       #"+strconv.Itoa(int(runID)))
	}
	output.Box("Signal Scan", header)
	output.Println()

	renderSummary(output, summary)
	output.Println()
	renderSectors(output, summary)

	switch filter {
	case ExportErrors:
		renderErrors(output, res.Records)
	case ExportLong:
		renderSignals(output, "Bullish Signals", aggregate.Filter(res.Records, aggregate.Bullish), top)
	case ExportShort:
		renderSignals(output, "Bearish Signals", aggregate.Filter(res.Records, aggregate.Bearish), top)
	default:
		renderSignals(output, "Bullish Signals", aggregate.Filter(res.Records, aggregate.Bullish), top)
		renderSignals(output, "Bearish Signals", aggregate.Filter(res.Records, aggregate.Bearish), top)
	}
}

func renderSummary(output *Output, s aggregate.Summary) {
	output.Bold("Signal Summary")
	table := NewTable(output, "Signal", "Count")
	for _, label := range aggregate.Labels(s.Model) {
		table.AddRow(output.SignalText(label), strconv.Itoa(s.Counts[label]))
	}
	table.AddRow(string(models.SignalNeutral), strconv.Itoa(s.Counts[models.SignalNeutral]))
	for _, label := range models.AllSignals() {
		if label.IsDiagnostic() && s.Counts[label] > 0 {
			table.AddRow(output.SignalText(label), strconv.Itoa(s.Counts[label]))
		}
	}
	table.Render()
	output.Println()

	output.Printf("  Bullish: %s  Bearish: %s  Neutral: %d  Errors: %d\n",
		output.Green(strconv.Itoa(s.Bullish)), output.Red(strconv.Itoa(s.Bearish)), s.Neutral, s.Errors)
	output.Printf("  Buy/Sell Ratio: %s  Error Rate: %.1f%%  Full Matches: %d\n",
		FormatRatio(s.BuySellRatio), s.ErrorRate*100, s.FullMatches)
	output.Printf("  Market Health: %s (%d)\n", output.HealthText(s.Health.Label), s.Health.Score)
}

func renderSectors(output *Output, s aggregate.Summary) {
	if len(s.Sectors) == 0 {
		return
	}
	output.Bold("Sector Breakdown")
	table := NewTable(output, "Sector", "Bullish", "Bearish", "Neutral", "Errors", "Total")
	for _, row := range s.Sectors {
		table.AddRow(
			TruncateString(row.Sector, 32),
			output.Green(strconv.Itoa(row.Bullish)),
			output.Red(strconv.Itoa(row.Bearish)),
			strconv.Itoa(row.Neutral),
			strconv.Itoa(row.Errors),
			strconv.Itoa(row.Total),
		)
	}
	table.Render()
	output.Println()
}

func renderSignals(output *Output, title string, records []models.ResultRecord, top int) {
	if len(records) == 0 {
		return
	}
	sorted := append([]models.ResultRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})
	if top > 0 && len(sorted) > top {
		sorted = sorted[:top]
	}

	output.Bold("%s (%d)", title, len(records))
	table := NewTable(output, "Ticker", "Signal", "Conf", "Grade", "Match", "1D Chg", "NL", "Sector")
	for _, rec := range sorted {
		match := strconv.Itoa(rec.MatchCount)
		if rec.FullMatch {
			match = output.Green(match + " ★")
		}
		chg := FormatPctChange(rec.PctChange)
		if rec.PctChange != nil {
			chg = output.FormatPercent(*rec.PctChange)
		}
		table.AddRow(
			rec.Ticker,
			output.SignalText(rec.Signal),
			FormatConfidence(rec.Confidence),
			output.GradeText(rec.Grade),
			match,
			chg,
			nlText(output, rec),
			TruncateString(rec.Sector, 24),
		)
	}
	table.Render()
	output.Println()
}

func renderErrors(output *Output, records []models.ResultRecord) {
	failed := aggregate.Filter(records, aggregate.Failed)
	if len(failed) == 0 {
		output.Success("✓ No diagnostics")
		return
	}
	output.Bold("Diagnostics (%d)", len(failed))
	table := NewTable(output, "Ticker", "Kind", "Detail")
	for _, rec := range failed {
		table.AddRow(rec.Ticker, output.SignalText(rec.Signal), TruncateString(rec.Detail, 60))
	}
	table.Render()
	output.Println()
}

func nlText(output *Output, rec models.ResultRecord) string {
	positive, ok := rec.NLPositive()
	switch {
	case !ok:
		return "-"
	case positive:
		return output.Green("+")
	default:
		return output.Red("−")
	}
}
