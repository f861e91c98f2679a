package analysis

import (
	"strconv"
	"strings"
	"time"

	"salesaudit-backend/internal/ingest"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
	time.RFC3339,
}

// Summarize computes aggregate statistics over the loaded table. Amounts are
// read from the first column whose name contains "amount"; dates from the
// first column whose name contains "date". Missing or unparseable cells are
// skipped rather than failing the audit.
func Summarize(t ingest.Table) SummaryStats {
	stats := SummaryStats{
		TotalRecords: len(t.Rows),
		DateRange:    "N/A",
	}

	amountCol := findColumn(t.Columns, "amount")
	dateCol := findColumn(t.Columns, "date")

	if amountCol != "" {
		for _, row := range t.Rows {
			v, ok := parseAmount(row[amountCol])
			if !ok {
				continue
			}
			stats.TotalAmount += v
		}
		if len(t.Rows) > 0 {
			stats.AverageTransaction = stats.TotalAmount / float64(len(t.Rows))
		}
	}

	if dateCol != "" {
		var min, max time.Time
		for _, row := range t.Rows {
			d, ok := parseDate(row[dateCol])
			if !ok {
				continue
			}
			if min.IsZero() || d.Before(min) {
				min = d
			}
			if max.IsZero() || d.After(max) {
				max = d
			}
		}
		if !min.IsZero() {
			stats.DateRange = min.Format("2006-01-02") + " to " + max.Format("2006-01-02")
		}
	}

	return stats
}

func findColumn(columns []string, needle string) string {
	for _, c := range columns {
		if strings.Contains(strings.ToLower(c), needle) {
			return c
		}
	}
	return ""
}

func parseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
