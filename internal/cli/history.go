package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sanket-signals/internal/aggregate"
	"sanket-signals/internal/analysis/scoring"
	"sanket-signals/internal/models"
	"sanket-signals/internal/pipeline"
	"sanket-signals/internal/store"
)

// addHistoryCommands adds the stored-run commands.
func addHistoryCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newRunsCmd(app))
	rootCmd.AddCommand(newRescoreCmd(app))
}

func newRunsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored scans or show one scan's records",
		Example: `  sanket runs
  sanket runs --model rocslope --limit 5
  sanket runs 42 --signal "Extreme Long" --min-confidence 70
  sanket runs 42 --export run42.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			db, err := app.Store()
			if err != nil {
				return errorf(output, "failed to open store: %v", err)
			}

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return errorf(output, "invalid run id %q", args[0])
				}
				return showRun(ctx, cmd, output, db, id)
			}

			modelFlag, _ := cmd.Flags().GetString("model")
			limit, _ := cmd.Flags().GetInt("limit")
			filter := store.RunFilter{Limit: limit}
			if modelFlag != "" {
				name, err := models.ParseModelName(modelFlag)
				if err != nil {
					return errorf(output, "%v", err)
				}
				filter.Model = name
			}

			runs, err := db.GetRuns(ctx, filter)
			if err != nil {
				return errorf(output, "failed to list runs: %v", err)
			}
			if output.IsJSON() {
				return output.JSON(runs)
			}
			if len(runs) == 0 {
				output.Dim("No stored runs. Run 'sanket scan' first.")
				return nil
			}

			table := NewTable(output, "ID", "As Of", "Model", "Universe", "Bullish", "Bearish", "Neutral", "Errors", "Took", "")
			for _, r := range runs {
				flag := ""
				if r.Partial {
					flag = output.Yellow("partial")
				}
				table.AddRow(
					strconv.FormatInt(r.ID, 10),
					FormatDate(r.AsOf),
					r.Model.Title(),
					strconv.Itoa(r.Universe),
					output.Green(strconv.Itoa(r.Bullish)),
					output.Red(strconv.Itoa(r.Bearish)),
					strconv.Itoa(r.Neutral),
					strconv.Itoa(r.Errors),
					FormatDuration(r.FinishedAt.Sub(r.StartedAt)),
					flag,
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringP("model", "m", "", "only runs of this model")
	cmd.Flags().Int("limit", 20, "maximum runs listed")
	cmd.Flags().StringSlice("signal", nil, "only records with these signals")
	cmd.Flags().Float64("min-confidence", 0, "only records scored at least this")
	cmd.Flags().String("sector", "", "only records of this sector")
	cmd.Flags().StringP("export", "o", "", "write the records as CSV to this path")

	return cmd
}

func showRun(ctx context.Context, cmd *cobra.Command, output *Output, db store.DataStore, id int64) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return errorf(output, "run %d: %v", id, err)
	}

	signals, _ := cmd.Flags().GetStringSlice("signal")
	minConf, _ := cmd.Flags().GetFloat64("min-confidence")
	sector, _ := cmd.Flags().GetString("sector")
	filter := store.ResultFilter{MinConfidence: minConf, Sector: sector}
	for _, s := range signals {
		sig := models.Signal(s)
		if !sig.Known() {
			return errorf(output, "unknown signal %q", s)
		}
		filter.Signals = append(filter.Signals, sig)
	}

	records, err := db.GetResults(ctx, id, filter)
	if err != nil {
		return errorf(output, "failed to load records: %v", err)
	}

	if path, _ := cmd.Flags().GetString("export"); path != "" {
		n, err := ExportReport(path, records, ExportAll)
		if err != nil {
			return errorf(output, "%v", err)
		}
		if !output.IsJSON() {
			output.Success("✓ Exported %d records to %s", n, path)
		}
	}

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"run":     run,
			"records": records,
		})
	}

	output.Box(fmt.Sprintf("Run #%d", run.ID), []string{
		"Model:    " + run.Model.Title(),
		"As of:    " + FormatDate(run.AsOf),
		"Started:  " + FormatDateTime(run.StartedAt),
		"Universe: " + strconv.Itoa(run.Universe),
	})
	output.Println()

	summary := aggregate.Summarize(run.Model, records)
	if len(filter.Signals) == 0 && filter.MinConfidence == 0 && filter.Sector == "" {
		renderSummary(output, summary)
		output.Println()
	}
	renderSignals(output, "Signals", aggregate.Filter(records, func(r models.ResultRecord) bool { return r.Signal.IsActionable() }), 0)
	return nil
}

func newRescoreCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescore <run-id>",
		Short: "Re-score a stored run and report records that no longer reproduce",
		Long: `Recompute the confidence of every stored record from its stored parameters
with the current optimal range table. With an unchanged table every record
reproduces exactly; after editing [[ranges]] the mismatches show which
signals the change regrades.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errorf(output, "invalid run id %q", args[0])
			}
			db, err := app.Store()
			if err != nil {
				return errorf(output, "failed to open store: %v", err)
			}
			if _, err := db.GetRun(ctx, id); err != nil {
				return errorf(output, "run %d: %v", id, err)
			}
			records, err := db.GetResults(ctx, id, store.ResultFilter{})
			if err != nil {
				return errorf(output, "failed to load records: %v", err)
			}

			table, err := app.Config.RangeTable()
			if err != nil {
				return errorf(output, "%v", err)
			}
			mismatches := pipeline.Rescore(scoring.NewScorer(table), records)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"run_id":     id,
					"records":    len(records),
					"mismatches": mismatches,
				})
			}

			if len(mismatches) == 0 {
				output.Success("✓ All %d records of run #%d reproduce", len(records), id)
				return nil
			}

			output.Warning("⚠ %d of %d records scored differently", len(mismatches), len(records))
			t := NewTable(output, "Ticker", "Signal", "Stored", "Now", "Grade")
			for _, m := range mismatches {
				t.AddRow(
					m.Ticker,
					output.SignalText(m.Signal),
					FormatConfidence(m.StoredScore),
					FormatConfidence(m.RecomputedScore),
					string(m.StoredGrade)+" → "+output.GradeText(m.RecomputedGrade),
				)
			}
			t.Render()
			return nil
		},
	}
	return cmd
}

func newRangesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ranges [signal-type]",
		Short: "Show the optimal range table used for scoring",
		Example: `  sanket ranges
  sanket ranges Long`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			table, err := app.Config.RangeTable()
			if err != nil {
				return errorf(output, "%v", err)
			}

			types := table.Types()
			if len(args) == 1 {
				st, ok := models.ParseSignalType(args[0])
				if !ok {
					return errorf(output, "unknown signal type %q (Long, Short, Buy or Sell)", args[0])
				}
				types = []models.SignalType{st}
			}

			if output.IsJSON() {
				out := make(map[models.SignalType][]scoring.Range, len(types))
				for _, st := range types {
					out[st] = table.Ranges(st)
				}
				return output.JSON(out)
			}

			for _, st := range types {
				output.Bold("%s", st)
				t := NewTable(output, "Parameter", "Optimal Range", "Weight", "Importance")
				total := 0.0
				for _, r := range table.Ranges(st) {
					total += r.Weight
					t.AddRow(r.Parameter, FormatRange(r.Min, r.Max), fmt.Sprintf("%.2f", r.Weight), string(r.Importance))
				}
				t.Render()
				output.Dim("  total weight %.2f", total)
				output.Println()
			}
			return nil
		},
	}
}
