package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Sanket signal scanner configuration

[analysis]
# Signal model: "ilfo" or "rocslope"
model = "ilfo"
# Concurrent ticker evaluations (0 uses the number of CPUs)
workers = 0
# Whole-scan deadline, e.g. "5m" ("0s" disables it)
timeout = "0s"
# Log a progress line every N completed tickers
progress_every = 50
# Calendar days of history loaded before the as-of date
lookback_days = 250

[data]
# Bar source: "csv", "parquet" or "sqlite"
source = "csv"
# Directory of <TICKER>.csv / <TICKER>.parquet files
# bars_dir = "~/.config/sanket/bars"
# Index constituent CSV with Symbol and Industry columns
universe_file = ""
# Exchange suffix appended to universe symbols
symbol_suffix = ".NS"
# SQLite cache for bars, sectors and run history
# db_path = "~/.config/sanket/sanket.db"

[logging]
# Level: debug, info, warn, error
level = "info"
console = true
file = false
# file_path = "~/.config/sanket/logs/sanket.log"
max_size = 50
max_backups = 5
max_age = 30

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"

# Optimal range overrides. Each entry replaces the named parameter of one
# signal type, or adds it when absent.
#
# [[ranges]]
# signal = "Buy"
# parameter = "liq_osc"
# min = 0.5
# max = 3.6
# weight = 0.40
# importance = "critical"
`

// createTemplateConfig writes the commented template and returns its path.
func createTemplateConfig(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, FileName+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}
