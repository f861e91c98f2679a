package analysis

import (
	"testing"

	"salesaudit-backend/internal/ingest"
)

func tableOf(columns []string, rows ...map[string]string) ingest.Table {
	t := ingest.Table{Columns: columns}
	for _, r := range rows {
		t.Rows = append(t.Rows, ingest.Row(r))
	}
	return t
}

func TestSummarize(t *testing.T) {
	table := tableOf(
		[]string{"date", "amount", "vendor"},
		map[string]string{"date": "2025-01-03", "amount": "$100.00", "vendor": "Acme"},
		map[string]string{"date": "2025-01-01", "amount": "200", "vendor": "Globex"},
		map[string]string{"date": "2025-01-02", "amount": "300", "vendor": "Initech"},
	)

	stats := Summarize(table)
	if stats.TotalRecords != 3 {
		t.Fatalf("total records: got %d", stats.TotalRecords)
	}
	if stats.TotalAmount != 600 {
		t.Fatalf("total amount: got %v", stats.TotalAmount)
	}
	if stats.AverageTransaction != 200 {
		t.Fatalf("average: got %v", stats.AverageTransaction)
	}
	if stats.DateRange != "2025-01-01 to 2025-01-03" {
		t.Fatalf("date range: got %q", stats.DateRange)
	}
}

func TestSummarizeEmptyTable(t *testing.T) {
	stats := Summarize(tableOf([]string{"date", "amount"}))
	if stats.TotalRecords != 0 {
		t.Fatalf("total records: got %d", stats.TotalRecords)
	}
	if stats.TotalAmount != 0 || stats.AverageTransaction != 0 {
		t.Fatalf("expected zero amounts, got %+v", stats)
	}
	if stats.DateRange != "N/A" {
		t.Fatalf("date range: got %q", stats.DateRange)
	}
}

func TestSummarizeNoMatchingColumns(t *testing.T) {
	table := tableOf(
		[]string{"id", "note"},
		map[string]string{"id": "1", "note": "x"},
	)
	stats := Summarize(table)
	if stats.TotalAmount != 0 || stats.DateRange != "N/A" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestSummarizeSkipsBadCells(t *testing.T) {
	table := tableOf(
		[]string{"date", "amount"},
		map[string]string{"date": "not a date", "amount": "1,250.50"},
		map[string]string{"date": "2025-06-15", "amount": "oops"},
	)
	stats := Summarize(table)
	if stats.TotalAmount != 1250.50 {
		t.Fatalf("total amount: got %v", stats.TotalAmount)
	}
	if stats.DateRange != "2025-06-15 to 2025-06-15" {
		t.Fatalf("date range: got %q", stats.DateRange)
	}
}
