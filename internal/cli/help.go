package cli

import (
	"github.com/spf13/cobra"

	"sanket-signals/internal/config"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newExamplesCmd())
	rootCmd.AddCommand(newQuickstartCmd(app))
}

type example struct {
	title    string
	commands []string
}

var workflows = []example{
	{
		title: "Daily Nifty 500 scan from CSV bars",
		commands: []string{
			"sanket scan --universe ind_nifty500list.csv --bars-dir ./bars",
			"sanket scan -u ind_nifty500list.csv --filter long --export long.csv",
		},
	},
	{
		title: "Build the SQLite cache once, then scan from it",
		commands: []string{
			"sanket import --from csv --dir ./bars",
			"sanket freshness",
			"sanket scan -u ind_nifty500list.csv --source sqlite",
		},
	},
	{
		title: "Compare models on the same date",
		commands: []string{
			"sanket scan -u ind_nifty200list.csv --date 2024-06-28",
			"sanket scan -u ind_nifty200list.csv --date 2024-06-28 --model rocslope",
			"sanket runs --limit 2",
		},
	},
	{
		title: "Tune an optimal range and see what it regrades",
		commands: []string{
			"sanket ranges Buy",
			"$EDITOR $(sanket config path)   # add a [[ranges]] entry",
			"sanket rescore 42",
		},
	},
	{
		title: "Inspect a stored run",
		commands: []string{
			"sanket runs 42 --signal \"Extreme Long\" --min-confidence 70",
			"sanket runs 42 --json | jq '.records[].ticker'",
		},
	},
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				out := make(map[string][]string, len(workflows))
				for _, w := range workflows {
					out[w.title] = w.commands
				}
				return output.JSON(out)
			}
			for _, w := range workflows {
				output.Bold("%s", w.title)
				for _, c := range w.commands {
					output.Printf("  %s\n", output.DimText("$ ")+c)
				}
				output.Println()
			}
			return nil
		},
	}
}

func newQuickstartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "First steps after installing",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			output.Bold("Sanket Quickstart")
			output.Println()
			output.Printf("1. Edit %s\n", config.Path(app.Config.Dir))
			output.Printf("   Set data.universe_file to an index constituent CSV (Symbol, Industry columns)\n")
			output.Printf("   and data.bars_dir to a directory of <TICKER>.csv or <TICKER>.parquet files.\n")
			output.Println()
			output.Printf("2. Check the range table the scorer grades against:\n")
			output.Printf("   %s\n", output.DimText("sanket ranges"))
			output.Println()
			output.Printf("3. Run a scan:\n")
			output.Printf("   %s\n", output.DimText("sanket scan"))
			output.Println()
			output.Printf("Current settings: model %s, source %s, bars in %s\n",
				app.Config.ModelName().Title(), app.Config.Data.Source, app.Config.Data.BarsDir)
			return nil
		},
	}
}
