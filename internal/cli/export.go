package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"sanket-signals/internal/aggregate"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

// ExportFilter selects the records written to a report.
type ExportFilter string

const (
	ExportAll    ExportFilter = "all"
	ExportLong   ExportFilter = "long"
	ExportShort  ExportFilter = "short"
	ExportErrors ExportFilter = "errors"
)

// ParseExportFilter validates a --filter value.
func ParseExportFilter(s string) (ExportFilter, error) {
	switch f := ExportFilter(s); f {
	case ExportAll, ExportLong, ExportShort, ExportErrors:
		return f, nil
	case "buy":
		return ExportLong, nil
	case "sell":
		return ExportShort, nil
	default:
		return "", errors.NewValidationError("filter", s, "must be all, long, short or errors")
	}
}

// Apply returns the records the filter keeps.
func (f ExportFilter) Apply(records []models.ResultRecord) []models.ResultRecord {
	switch f {
	case ExportLong:
		return aggregate.Filter(records, aggregate.Bullish)
	case ExportShort:
		return aggregate.Filter(records, aggregate.Bearish)
	case ExportErrors:
		return aggregate.Filter(records, aggregate.Failed)
	default:
		return records
	}
}

// reportRow is one line of a CSV report.
type reportRow struct {
	Ticker     string `csv:"Ticker"`
	Signal     string `csv:"Signal"`
	Confidence string `csv:"Confidence"`
	Grade      string `csv:"Grade"`
	PctChange  string `csv:"Pct Change"`
	Matches    int    `csv:"Matches"`
	FullMatch  bool   `csv:"Full Match"`
	NLPositive string `csv:"NL Positive"`
	Sector     string `csv:"Sector"`
	Detail     string `csv:"Detail"`
	Params     string `csv:"Params"`
}

func newReportRow(rec models.ResultRecord) *reportRow {
	row := &reportRow{
		Ticker:     rec.Ticker,
		Signal:     string(rec.Signal),
		Confidence: strconv.FormatFloat(rec.Confidence, 'f', 2, 64),
		Grade:      string(rec.Grade),
		Matches:    rec.MatchCount,
		FullMatch:  rec.FullMatch,
		Sector:     rec.Sector,
		Detail:     rec.Detail,
	}
	if rec.PctChange != nil {
		row.PctChange = strconv.FormatFloat(*rec.PctChange, 'f', 2, 64)
	}
	if positive, ok := rec.NLPositive(); ok {
		row.NLPositive = strconv.FormatBool(positive)
	}
	if len(rec.Params) > 0 {
		if data, err := json.Marshal(rec.Params); err == nil {
			row.Params = string(data)
		}
	}
	return row
}

// WriteReport writes the filtered records as CSV.
func WriteReport(w io.Writer, records []models.ResultRecord, filter ExportFilter) (int, error) {
	kept := filter.Apply(records)
	rows := make([]*reportRow, len(kept))
	for i, rec := range kept {
		rows[i] = newReportRow(rec)
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return 0, errors.Wrap(err, "failed to write report")
	}
	return len(rows), nil
}

// ExportReport writes the filtered records to path.
func ExportReport(path string, records []models.ResultRecord, filter ExportFilter) (int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("creating export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()
	return WriteReport(f, records, filter)
}
