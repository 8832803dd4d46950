// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Scans read bars from many goroutines at once.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Daily OHLCV bars
	CREATE TABLE IF NOT EXISTS bars (
		symbol TEXT NOT NULL,
		date DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, date)
	);

	-- Ticker to sector map
	CREATE TABLE IF NOT EXISTS sectors (
		symbol TEXT PRIMARY KEY,
		sector TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Scan headers
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		model TEXT NOT NULL,
		as_of DATETIME NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		universe INTEGER NOT NULL,
		total INTEGER NOT NULL,
		bullish INTEGER NOT NULL,
		bearish INTEGER NOT NULL,
		neutral INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		partial INTEGER DEFAULT 0
	);

	-- One row per ticker per scan
	CREATE TABLE IF NOT EXISTS results (
		run_id INTEGER NOT NULL,
		ticker TEXT NOT NULL,
		model TEXT NOT NULL,
		signal TEXT NOT NULL,
		detail TEXT,
		as_of DATETIME NOT NULL,
		pct_change REAL,
		params TEXT,
		confidence REAL NOT NULL,
		grade TEXT NOT NULL,
		breakdown TEXT,
		match_count INTEGER NOT NULL,
		full_match INTEGER DEFAULT 0,
		sector TEXT NOT NULL,
		PRIMARY KEY (run_id, ticker),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- Sync status
	CREATE TABLE IF NOT EXISTS sync_status (
		data_type TEXT PRIMARY KEY,
		last_sync DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_bars_symbol_date ON bars(symbol, date);
	CREATE INDEX IF NOT EXISTS idx_runs_as_of ON runs(as_of);
	CREATE INDEX IF NOT EXISTS idx_results_signal ON results(run_id, signal);
	`

	_, err := s.db.Exec(schema)
	return err
}

// IsBusy reports whether err is SQLite refusing a write because another
// connection holds the lock past the busy timeout.
func IsBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBars upserts bars for a symbol.
func (s *SQLiteStore) SaveBars(ctx context.Context, symbol string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, b.Date.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("failed to insert bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBars retrieves a symbol's bars between from and to, inclusive, oldest first.
// A symbol with no stored bars returns errors.ErrDataNotFound.
func (s *SQLiteStore) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, symbol, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bars: %w", err)
	}

	if len(bars) == 0 {
		return nil, errors.NewDataError("bars", symbol, "no stored bars in range", errors.ErrDataNotFound)
	}
	return bars, nil
}

// GetBarsFreshness returns the date of the newest stored bar for a symbol.
func (s *SQLiteStore) GetBarsFreshness(ctx context.Context, symbol string) (time.Time, error) {
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(date) FROM bars WHERE symbol = ?
	`, symbol).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query freshness: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, errors.NewDataError("bars", symbol, "no stored bars", errors.ErrDataNotFound)
	}
	return parseSQLiteTime(latest.String)
}

// ListSymbols returns every symbol with stored bars.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// SaveSectors upserts ticker to sector entries.
func (s *SQLiteStore) SaveSectors(ctx context.Context, sectors map[string]string) error {
	if len(sectors) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO sectors (symbol, sector, updated_at) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for symbol, sector := range sectors {
		if _, err := stmt.ExecContext(ctx, symbol, sector, now); err != nil {
			return fmt.Errorf("failed to insert sector: %w", err)
		}
	}
	return tx.Commit()
}

// GetSectors returns the whole sector map.
func (s *SQLiteStore) GetSectors(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol, sector FROM sectors`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	defer rows.Close()

	sectors := make(map[string]string)
	for rows.Next() {
		var symbol, sector string
		if err := rows.Scan(&symbol, &sector); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors[symbol] = sector
	}
	return sectors, rows.Err()
}

// SaveRun stores a run header and all its records in one transaction and
// returns the new run id.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, records []models.ResultRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (model, as_of, started_at, finished_at, universe, total, bullish, bearish, neutral, errors, partial)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.Model, run.AsOf.UTC(), run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Universe, run.Total,
		run.Bullish, run.Bearish, run.Neutral, run.Errors, run.Partial)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, ticker, model, signal, detail, as_of, pct_change, params,
			confidence, grade, breakdown, match_count, full_match, sector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		params, err := json.Marshal(rec.Params)
		if err != nil {
			return 0, fmt.Errorf("failed to encode params for %s: %w", rec.Ticker, err)
		}
		breakdown, err := json.Marshal(rec.Breakdown)
		if err != nil {
			return 0, fmt.Errorf("failed to encode breakdown for %s: %w", rec.Ticker, err)
		}
		var pct sql.NullFloat64
		if rec.PctChange != nil {
			pct = sql.NullFloat64{Float64: *rec.PctChange, Valid: true}
		}
		_, err = stmt.ExecContext(ctx, id, rec.Ticker, rec.Model, rec.Signal, rec.Detail, rec.AsOf.UTC(), pct,
			string(params), rec.Confidence, rec.Grade, string(breakdown), rec.MatchCount, rec.FullMatch, rec.Sector)
		if err != nil {
			return 0, fmt.Errorf("failed to insert result for %s: %w", rec.Ticker, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	run.ID = id
	return id, nil
}

const runColumns = `id, model, as_of, started_at, finished_at, universe, total, bullish, bearish, neutral, errors, partial`

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Model, &r.AsOf, &r.StartedAt, &r.FinishedAt, &r.Universe, &r.Total,
		&r.Bullish, &r.Bearish, &r.Neutral, &r.Errors, &r.Partial)
	return r, err
}

// GetRun retrieves one run header.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewDataError("run", fmt.Sprint(id), "run not found", errors.ErrDataNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// GetRuns retrieves run headers, newest first.
func (s *SQLiteStore) GetRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := []interface{}{}

	if filter.Model != "" {
		query += " AND model = ?"
		args = append(args, filter.Model)
	}
	if !filter.From.IsZero() {
		query += " AND as_of >= ?"
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query += " AND as_of <= ?"
		args = append(args, filter.To.UTC())
	}

	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetResults retrieves the stored records of a run, ordered by ticker.
func (s *SQLiteStore) GetResults(ctx context.Context, runID int64, filter ResultFilter) ([]models.ResultRecord, error) {
	query := `
		SELECT ticker, model, signal, detail, as_of, pct_change, params, confidence, grade,
			breakdown, match_count, full_match, sector
		FROM results WHERE run_id = ?`
	args := []interface{}{runID}

	if len(filter.Signals) > 0 {
		placeholders := make([]string, len(filter.Signals))
		for i, sig := range filter.Signals {
			placeholders[i] = "?"
			args = append(args, sig)
		}
		query += " AND signal IN (" + strings.Join(placeholders, ",") + ")"
	}
	if filter.MinConfidence > 0 {
		query += " AND confidence >= ?"
		args = append(args, filter.MinConfidence)
	}
	if filter.Sector != "" {
		query += " AND sector = ?"
		args = append(args, filter.Sector)
	}

	query += " ORDER BY ticker ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var records []models.ResultRecord
	for rows.Next() {
		var rec models.ResultRecord
		var detail, params, breakdown sql.NullString
		var pct sql.NullFloat64
		if err := rows.Scan(&rec.Ticker, &rec.Model, &rec.Signal, &detail, &rec.AsOf, &pct, &params,
			&rec.Confidence, &rec.Grade, &breakdown, &rec.MatchCount, &rec.FullMatch, &rec.Sector); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		rec.Detail = detail.String
		if pct.Valid {
			v := pct.Float64
			rec.PctChange = &v
		}
		if params.Valid && params.String != "null" {
			if err := json.Unmarshal([]byte(params.String), &rec.Params); err != nil {
				return nil, fmt.Errorf("failed to decode params for %s: %w", rec.Ticker, err)
			}
		}
		if breakdown.Valid && breakdown.String != "null" {
			if err := json.Unmarshal([]byte(breakdown.String), &rec.Breakdown); err != nil {
				return nil, fmt.Errorf("failed to decode breakdown for %s: %w", rec.Ticker, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetLastSync returns the last sync time for a data type.
func (s *SQLiteStore) GetLastSync(dataType string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[dataType]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastSync time.Time
	err := s.db.QueryRow(`
		SELECT last_sync FROM sync_status WHERE data_type = ?
	`, dataType).Scan(&lastSync)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[dataType] = lastSync
	s.mu.Unlock()

	return lastSync
}

// SetLastSync sets the last sync time for a data type.
func (s *SQLiteStore) SetLastSync(dataType string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_status (data_type, last_sync, updated_at)
		VALUES (?, ?, ?)
	`, dataType, t.UTC(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()

	return nil
}

// sqliteTimeFormats are the layouts go-sqlite3 writes for time.Time values.
var sqliteTimeFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseSQLiteTime parses aggregate results, which come back as plain text.
func parseSQLiteTime(s string) (time.Time, error) {
	s = strings.TrimSuffix(s, "Z")
	for _, layout := range sqliteTimeFormats {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

var _ DataStore = (*SQLiteStore)(nil)
