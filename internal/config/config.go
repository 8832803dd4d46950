// Package config provides configuration management for the signal scanner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"

	"sanket-signals/internal/analysis/scoring"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/logging"
	"sanket-signals/internal/models"
)

// FileName is the config file stem inside the config directory.
const FileName = "config"

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Data     DataConfig     `mapstructure:"data"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	UI       UIConfig       `mapstructure:"ui"`
	Ranges   []RangeConfig  `mapstructure:"ranges"`

	Dir string `mapstructure:"-"`
}

// AnalysisConfig selects the model and bounds the scan.
type AnalysisConfig struct {
	Model         string        `mapstructure:"model"` // ilfo, rocslope
	Workers       int           `mapstructure:"workers"`
	Timeout       time.Duration `mapstructure:"timeout"`
	ProgressEvery int           `mapstructure:"progress_every"`
	LookbackDays  int           `mapstructure:"lookback_days"`
}

// DataConfig locates the universe and the bar series.
type DataConfig struct {
	Source       string `mapstructure:"source"` // csv, parquet, sqlite
	BarsDir      string `mapstructure:"bars_dir"`
	UniverseFile string `mapstructure:"universe_file"`
	SymbolSuffix string `mapstructure:"symbol_suffix"`
	DBPath       string `mapstructure:"db_path"`
}

// LoggingConfig mirrors logging.LogConfig.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// RangeConfig overrides one optimal range entry.
type RangeConfig struct {
	Signal     string  `mapstructure:"signal"`
	Parameter  string  `mapstructure:"parameter"`
	Min        float64 `mapstructure:"min"`
	Max        float64 `mapstructure:"max"`
	Weight     float64 `mapstructure:"weight"`
	Importance string  `mapstructure:"importance"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/sanket"
	}
	return filepath.Join(home, ".config", "sanket")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, FileName+".toml")
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("analysis.model", string(models.ModelILFO))
	v.SetDefault("analysis.workers", runtime.NumCPU())
	v.SetDefault("analysis.timeout", "0s")
	v.SetDefault("analysis.progress_every", 50)
	v.SetDefault("analysis.lookback_days", 250)

	v.SetDefault("data.source", "csv")
	v.SetDefault("data.bars_dir", filepath.Join(configDir, "bars"))
	v.SetDefault("data.universe_file", "")
	v.SetDefault("data.symbol_suffix", ".NS")
	v.SetDefault("data.db_path", filepath.Join(configDir, "sanket.db"))

	def := logging.DefaultLogConfig()
	v.SetDefault("logging.level", def.Level)
	v.SetDefault("logging.console", def.Console)
	v.SetDefault("logging.file", def.File)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "sanket.log"))
	v.SetDefault("logging.max_size", def.MaxSize)
	v.SetDefault("logging.max_backups", def.MaxBackups)
	v.SetDefault("logging.max_age", def.MaxAge)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("analysis.model", "SANKET_MODEL")
	_ = v.BindEnv("analysis.workers", "SANKET_WORKERS")
	_ = v.BindEnv("data.source", "SANKET_DATA_SOURCE")
	_ = v.BindEnv("data.bars_dir", "SANKET_BARS_DIR")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config file is replaced by the commented template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if _, err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config.toml: %w", err)
	}
	cfg.Dir = configDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration for configDir without touching disk.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	v := viper.New()
	setDefaults(v, configDir)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	cfg.Dir = configDir
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := models.ParseModelName(c.Analysis.Model); err != nil {
		return errors.NewValidationError("analysis.model", c.Analysis.Model, "must be ilfo or rocslope")
	}
	if c.Analysis.Workers < 0 {
		return errors.NewValidationError("analysis.workers", c.Analysis.Workers, "must be non-negative")
	}
	if c.Analysis.Timeout < 0 {
		return errors.NewValidationError("analysis.timeout", c.Analysis.Timeout, "must be non-negative")
	}
	if c.Analysis.ProgressEvery < 0 {
		return errors.NewValidationError("analysis.progress_every", c.Analysis.ProgressEvery, "must be non-negative")
	}
	if c.Analysis.LookbackDays <= 0 {
		return errors.NewValidationError("analysis.lookback_days", c.Analysis.LookbackDays, "must be positive")
	}

	switch c.Data.Source {
	case "csv", "parquet", "sqlite":
	default:
		return errors.NewValidationError("data.source", c.Data.Source, "must be csv, parquet or sqlite")
	}

	if _, err := c.RangeTable(); err != nil {
		return err
	}
	return nil
}

// ModelName returns the configured model.
func (c *Config) ModelName() models.ModelName {
	return models.ModelName(c.Analysis.Model)
}

// LogConfig converts the logging section for logging.NewLoggerWithConfig.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// RangeTable returns the default optimal range table with the configured
// overrides applied.
func (c *Config) RangeTable() (*scoring.Table, error) {
	base := scoring.DefaultTable()
	if len(c.Ranges) == 0 {
		return base, nil
	}

	overrides := make([]scoring.Override, 0, len(c.Ranges))
	for i, r := range c.Ranges {
		st, ok := models.ParseSignalType(r.Signal)
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("ranges[%d].signal", i), r.Signal, "must be Long, Short, Buy or Sell")
		}
		overrides = append(overrides, scoring.Override{
			Signal: st,
			Range: scoring.Range{
				Parameter:  r.Parameter,
				Min:        r.Min,
				Max:        r.Max,
				Weight:     r.Weight,
				Importance: models.Importance(r.Importance),
			},
		})
	}
	return base.Override(overrides...)
}
