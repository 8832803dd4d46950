// Package aggregate folds per-ticker records into run-level tallies, sector
// breakdowns and a market-health reading.
package aggregate

import (
	"math"
	"sort"

	"sanket-signals/internal/models"
)

// OtherSector collects tickers with no known sector.
const OtherSector = "Other"

// Health is a coarse reading of market breadth.
type Health struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// SectorRow is the signal tally of one sector.
type SectorRow struct {
	Sector  string                `json:"sector"`
	Counts  map[models.Signal]int `json:"counts"`
	Bullish int                   `json:"bullish"`
	Bearish int                   `json:"bearish"`
	Neutral int                   `json:"neutral"`
	Errors  int                   `json:"errors"`
	Total   int                   `json:"total"`
}

// Summary is the reduction of one run.
type Summary struct {
	Model models.ModelName `json:"model"`
	Total int              `json:"total"`
	// Counts holds one entry per label the model can emit plus every
	// diagnostic label seen.
	Counts  map[models.Signal]int `json:"counts"`
	Bullish int                   `json:"bullish"`
	Bearish int                   `json:"bearish"`
	Neutral int                   `json:"neutral"`
	Errors  int                   `json:"errors"`
	// BuySellRatio is bullish/bearish, +Inf when there are bullish but no bearish signals.
	BuySellRatio float64     `json:"-"`
	ErrorRate    float64     `json:"error_rate"`
	Health       Health      `json:"health"`
	Sectors      []SectorRow `json:"sectors"`
	FullMatches  int         `json:"full_matches"`
}

// Labels returns the actionable labels tallied for a model, in display order.
func Labels(model models.ModelName) []models.Signal {
	switch model {
	case models.ModelROCSlope:
		return []models.Signal{models.SignalBuy, models.SignalSell}
	default:
		return []models.Signal{
			models.SignalExtremeLong, models.SignalLong, models.SignalDivergenceLong,
			models.SignalExtremeShort, models.SignalShort, models.SignalDivergenceShort,
		}
	}
}

// Summarize reduces records. Every record is counted exactly once as
// bullish, bearish, neutral or error.
func Summarize(model models.ModelName, records []models.ResultRecord) Summary {
	s := Summary{
		Model:  model,
		Total:  len(records),
		Counts: map[models.Signal]int{models.SignalNeutral: 0},
	}
	for _, l := range Labels(model) {
		s.Counts[l] = 0
	}

	sectors := map[string]*SectorRow{}
	for _, rec := range records {
		s.Counts[rec.Signal]++

		name := rec.Sector
		if name == "" {
			name = OtherSector
		}
		row, ok := sectors[name]
		if !ok {
			row = &SectorRow{Sector: name, Counts: map[models.Signal]int{}}
			sectors[name] = row
		}
		row.Counts[rec.Signal]++
		row.Total++

		if rec.FullMatch {
			s.FullMatches++
		}

		switch {
		case rec.IsError():
			s.Errors++
			row.Errors++
		case rec.Signal.Direction() == models.DirectionBullish:
			s.Bullish++
			row.Bullish++
		case rec.Signal.Direction() == models.DirectionBearish:
			s.Bearish++
			row.Bearish++
		default:
			s.Neutral++
			row.Neutral++
		}
	}

	s.BuySellRatio = Ratio(s.Bullish, s.Bearish)
	if s.Total > 0 {
		s.ErrorRate = float64(s.Errors) / float64(s.Total)
	}
	s.Health = MarketHealth(s.Bullish, s.Bearish, s.ErrorRate)

	s.Sectors = make([]SectorRow, 0, len(sectors))
	for _, row := range sectors {
		s.Sectors = append(s.Sectors, *row)
	}
	SortSectors(s.Sectors)
	return s
}

// Ratio is bullish/bearish. It is +Inf when bearish is zero and bullish is
// not, and 0 when both are zero.
func Ratio(bullish, bearish int) float64 {
	if bearish == 0 {
		if bullish == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return float64(bullish) / float64(bearish)
}

// MarketHealth grades breadth from signal counts and the error rate.
// The ratio used here is smoothed as bullish/(bearish+1).
func MarketHealth(bullish, bearish int, errorRate float64) Health {
	if bullish+bearish == 0 {
		return Health{Label: "Unknown", Score: 0}
	}
	ratio := float64(bullish) / float64(bearish+1)
	quality := 100 - errorRate*100

	switch {
	case ratio > 1.5 && quality > 80:
		return Health{Label: "Bullish", Score: 85}
	case ratio > 1.2 && quality > 70:
		return Health{Label: "Moderately Bullish", Score: 70}
	case ratio > 0.8 && quality > 60:
		return Health{Label: "Neutral", Score: 50}
	case ratio > 0.5 && quality > 60:
		return Health{Label: "Moderately Bearish", Score: 35}
	default:
		return Health{Label: "Bearish", Score: 20}
	}
}

// SortSectors orders rows by total descending. Among equal totals the
// catch-all sector goes last and the rest are ordered by name.
func SortSectors(rows []SectorRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if (a.Sector == OtherSector) != (b.Sector == OtherSector) {
			return b.Sector == OtherSector
		}
		return a.Sector < b.Sector
	})
}

// Filter returns the records matching keep, preserving order.
func Filter(records []models.ResultRecord, keep func(models.ResultRecord) bool) []models.ResultRecord {
	var out []models.ResultRecord
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Bullish keeps Long-family and Buy records.
func Bullish(rec models.ResultRecord) bool {
	return rec.Signal.Direction() == models.DirectionBullish
}

// Bearish keeps Short-family and Sell records.
func Bearish(rec models.ResultRecord) bool {
	return rec.Signal.Direction() == models.DirectionBearish
}

// Failed keeps diagnostic records.
func Failed(rec models.ResultRecord) bool {
	return rec.IsError()
}
