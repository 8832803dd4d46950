package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sanket-signals/internal/datasource"
	"sanket-signals/internal/logging"
	"sanket-signals/internal/store"
)

// addDataCommands adds bar data commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newDataCmd(app))
	rootCmd.AddCommand(newFreshnessCmd(app))
}

// openBackend opens a source by kind; sqlite uses the app store.
func openBackend(app *App, kind datasource.Kind, dir string) (datasource.Source, error) {
	var db store.DataStore
	if kind == datasource.KindSQLite {
		var err error
		if db, err = app.Store(); err != nil {
			return nil, err
		}
	}
	return datasource.Open(kind, dir, db)
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [symbols...]",
		Short: "Copy bar series between CSV, Parquet and the SQLite cache",
		Long: `Copy every bar of the given symbols (or of every symbol the source holds)
from one backend into another. The default copies the configured bars
directory into the SQLite cache so scans can run with --source sqlite.`,
		Example: `  sanket import --from csv --dir ./bars
  sanket import --from parquet --dir ./pq RELIANCE.NS TCS.NS
  sanket import --from sqlite --to parquet --to-dir ./export`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config

			fromFlag, _ := cmd.Flags().GetString("from")
			toFlag, _ := cmd.Flags().GetString("to")
			dir, _ := cmd.Flags().GetString("dir")
			toDir, _ := cmd.Flags().GetString("to-dir")
			workers, _ := cmd.Flags().GetInt("workers")
			if dir == "" {
				dir = cfg.Data.BarsDir
			}
			if workers <= 0 {
				workers = cfg.Analysis.Workers
			}

			fromKind, err := datasource.ParseKind(fromFlag)
			if err != nil {
				return errorf(output, "%v", err)
			}
			toKind, err := datasource.ParseKind(toFlag)
			if err != nil {
				return errorf(output, "%v", err)
			}
			if fromKind == toKind && (toKind == datasource.KindSQLite || dir == toDir) {
				return errorf(output, "source and destination are the same")
			}

			src, err := openBackend(app, fromKind, dir)
			if err != nil {
				return errorf(output, "%v", err)
			}
			dst, err := openBackend(app, toKind, toDir)
			if err != nil {
				return errorf(output, "%v", err)
			}
			sink, ok := dst.(datasource.Sink)
			if !ok {
				return errorf(output, "%s cannot be written to", toKind)
			}

			symbols := make([]string, 0, len(args))
			for _, a := range args {
				symbols = append(symbols, datasource.Ticker(a, ""))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			start := time.Now()
			stats, err := datasource.Import(ctx, src, sink, symbols, workers, logging.WithOperation(app.Logger, "import"))
			if err != nil {
				return errorf(output, "import failed: %v", err)
			}
			if toKind == datasource.KindSQLite {
				if db, err := app.Store(); err == nil {
					if err := store.MarkSynced(db, store.SyncTypeBars); err != nil {
						app.Logger.Warn().Err(err).Msg("Failed to record sync time")
					}
				}
			}

			if output.IsJSON() {
				return output.JSON(stats)
			}
			output.Success("✓ Imported %d bars for %d symbols in %s", stats.Bars, stats.Symbols, FormatDuration(time.Since(start)))
			if len(stats.Failed) > 0 {
				output.Warning("⚠ %d symbols failed: %v", len(stats.Failed), stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().String("from", "csv", "source backend: csv, parquet or sqlite")
	cmd.Flags().String("to", "sqlite", "destination backend: csv, parquet or sqlite")
	cmd.Flags().String("dir", "", "source directory for file backends (default: data.bars_dir)")
	cmd.Flags().String("to-dir", "", "destination directory for file backends")
	cmd.Flags().Int("workers", 0, "concurrent symbols (default: analysis.workers)")

	return cmd
}

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data <symbol>",
		Short: "Show stored OHLCV bars for a symbol",
		Example: `  sanket data RELIANCE.NS
  sanket data INFY.NS --source sqlite --limit 30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			sourceFlag, _ := cmd.Flags().GetString("source")
			if sourceFlag == "" {
				sourceFlag = app.Config.Data.Source
			}
			kind, err := datasource.ParseKind(sourceFlag)
			if err != nil {
				return errorf(output, "%v", err)
			}
			dir, _ := cmd.Flags().GetString("bars-dir")
			if dir == "" {
				dir = app.Config.Data.BarsDir
			}
			limit, _ := cmd.Flags().GetInt("limit")

			src, err := openBackend(app, kind, dir)
			if err != nil {
				return errorf(output, "%v", err)
			}
			symbol := datasource.Ticker(args[0], "")
			series, err := src.Bars(ctx, symbol, time.Time{}, time.Time{})
			if err != nil {
				return errorf(output, "failed to load bars: %v", err)
			}

			bars := series.Bars
			if limit > 0 && len(bars) > limit {
				bars = bars[len(bars)-limit:]
			}
			if output.IsJSON() {
				return output.JSON(bars)
			}

			output.Bold("%s (%d bars, %s to %s)", symbol, series.Len(), FormatDate(series.First()), FormatDate(series.Last()))
			table := NewTable(output, "Date", "Open", "High", "Low", "Close", "Volume")
			for _, b := range bars {
				table.AddRow(
					FormatDate(b.Date),
					FormatParam(b.Open),
					FormatParam(b.High),
					FormatParam(b.Low),
					FormatParam(b.Close),
					strconv.FormatFloat(b.Volume, 'f', 0, 64),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().String("source", "", "bar source: csv, parquet or sqlite (default from config)")
	cmd.Flags().String("bars-dir", "", "directory of per-ticker bar files")
	cmd.Flags().IntP("limit", "n", 20, "most recent bars shown (0 for all)")

	return cmd
}

func newFreshnessCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freshness [symbols...]",
		Short: "Report how current the SQLite bar cache is",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			db, err := app.Store()
			if err != nil {
				return errorf(output, "failed to open store: %v", err)
			}
			symbols := args
			if len(symbols) == 0 {
				if symbols, err = db.ListSymbols(ctx); err != nil {
					return errorf(output, "failed to list symbols: %v", err)
				}
			}
			dateFlag, _ := cmd.Flags().GetString("date")
			asOf, err := parseDate(dateFlag)
			if err != nil {
				return errorf(output, "invalid --date: %v", err)
			}
			maxLag, _ := cmd.Flags().GetDuration("max-lag")

			entries, err := store.CheckFreshness(ctx, db, symbols, asOf, maxLag)
			if err != nil {
				return errorf(output, "%v", err)
			}
			if output.IsJSON() {
				return output.JSON(entries)
			}

			output.Dim("Bars: %s", store.FormatLastSync(db, store.SyncTypeBars, time.Now()))
			stale := 0
			table := NewTable(output, "Symbol", "Last Bar", "Status")
			for _, f := range entries {
				status := output.Green(store.FormatFreshness(f))
				if !f.IsFresh {
					stale++
					status = output.Yellow(store.FormatFreshness(f))
				}
				table.AddRow(f.Symbol, FormatDate(f.LastBar), status)
			}
			table.Render()
			output.Println()
			output.Printf("%d of %d symbols fresh\n", len(entries)-stale, len(entries))
			if stale > 0 {
				return fmt.Errorf("%d symbols stale", stale)
			}
			return nil
		},
	}

	cmd.Flags().String("date", "", "as-of date YYYY-MM-DD (default: today)")
	cmd.Flags().Duration("max-lag", store.DefaultMaxLag, "maximum age of the newest bar")

	return cmd
}
