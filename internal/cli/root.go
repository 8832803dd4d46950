// Package cli provides the command-line interface for the signal scanner.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sanket-signals/internal/config"
	"sanket-signals/internal/logging"
	"sanket-signals/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-07-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	store store.DataStore
}

// Store opens the SQLite store on first use.
func (a *App) Store() (store.DataStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	db, err := store.NewSQLiteStore(a.Config.Data.DBPath)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", a.Config.Data.DBPath).Msg("SQLite store initialized")
	a.store = db
	return db, nil
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// NewRootCmd creates the root command for the CLI. The configuration is
// loaded before any subcommand runs; logger is used until then.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{Logger: logger}

	rootCmd := &cobra.Command{
		Use:   "sanket",
		Short: "Sanket - daily signal scanner with confidence scoring",
		Long: `Sanket scans a universe of equities on daily OHLCV bars, assigns each
ticker a signal from the ILFO or ROC & BasisSlope model, and grades every
actionable signal against backtested optimal parameter ranges.

Use 'sanket help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			app.Config = cfg

			logCfg := cfg.LogConfig()
			if level, _ := cmd.Flags().GetString("log-level"); level != "" {
				logCfg.Level = level
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logCfg.Level = "debug"
			}
			app.Logger = logging.NewLoggerWithConfig(logCfg)

			if !cfg.UI.ColorEnabled {
				color.NoColor = true
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/sanket)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	addCoreCommands(rootCmd, app)
	addScanCommands(rootCmd, app)
	addHistoryCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRangesCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Sanket v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.Path(app.Config.Dir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				return errorf(output, "configuration validation failed: %w", err)
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Analysis")
	output.Printf("  Model:          %s\n", cfg.ModelName().Title())
	output.Printf("  Workers:        %d\n", cfg.Analysis.Workers)
	output.Printf("  Timeout:        %s\n", cfg.Analysis.Timeout)
	output.Printf("  Progress Every: %d\n", cfg.Analysis.ProgressEvery)
	output.Printf("  Lookback Days:  %d\n", cfg.Analysis.LookbackDays)
	output.Println()

	output.Bold("Data")
	output.Printf("  Source:         %s\n", cfg.Data.Source)
	output.Printf("  Bars Dir:       %s\n", cfg.Data.BarsDir)
	output.Printf("  Universe File:  %s\n", valueOr(cfg.Data.UniverseFile, "(none)"))
	output.Printf("  Symbol Suffix:  %s\n", cfg.Data.SymbolSuffix)
	output.Printf("  Database:       %s\n", cfg.Data.DBPath)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:          %s\n", cfg.Logging.Level)
	output.Printf("  File:           %v", cfg.Logging.File)
	if cfg.Logging.File {
		output.Printf(" (%s)", cfg.Logging.FilePath)
	}
	output.Println()
	output.Println()

	output.Bold("Range Overrides")
	if len(cfg.Ranges) == 0 {
		output.Dim("  (none)")
		return
	}
	for _, r := range cfg.Ranges {
		output.Printf("  %-6s %-16s %s w=%.2f %s\n", r.Signal, r.Parameter, FormatRange(r.Min, r.Max), r.Weight, r.Importance)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// errorf builds the error a command returns. In JSON mode it is also
// written to output as {"error": ...}.
func errorf(output *Output, format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	if output.IsJSON() {
		_ = output.JSON(map[string]string{"error": err.Error()})
	}
	return err
}
