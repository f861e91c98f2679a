package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	mimeCSV  = "text/csv"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Format is the canonical accepted tabular input format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a configuration value to a Format.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "csv", "":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown input format: %s", raw)
	}
}

// Matches reports whether a file's name/MIME identifies it as this format.
// The extension is authoritative; the MIME type alone is accepted when the
// name carries no extension.
func (f Format) Matches(fileName, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch f {
	case FormatCSV:
		if ext != "" {
			return ext == ".csv"
		}
		return clean == mimeCSV
	case FormatXLSX:
		if ext != "" {
			return ext == ".xlsx"
		}
		return clean == mimeXLSX
	default:
		return false
	}
}

// Row maps column names to raw cell values for one spreadsheet row.
type Row map[string]string

// Table is an ordered view of a decoded sheet: the header columns in source
// order and one Row per non-header source row.
type Table struct {
	Columns []string
	Rows    []Row
}

// Load decodes a tabular payload into a Table using the first row as column
// headers. A file that does not match the format by name or declared MIME
// type is rejected with ErrUnsupportedFormat before any decode work; a
// matching but malformed payload yields ErrParse. A header-only or empty
// sheet yields zero rows.
func Load(ctx context.Context, format Format, fileName, mimeType string, r io.Reader) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}

	if !format.Matches(fileName, mimeType) {
		return Table{}, fmt.Errorf("%w: %s is not a .%s file", ErrUnsupportedFormat, fileName, format)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", fileName, err)
	}

	switch format {
	case FormatCSV:
		return loadCSV(data)
	case FormatXLSX:
		return loadXLSX(data)
	default:
		return Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func loadCSV(data []byte) (Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("%w: csv: %v", ErrParse, err)
	}
	return buildTable(records), nil
}

func loadXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("%w: xlsx: %v", ErrParse, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}

	// First sheet only; the product ignores any others.
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("%w: xlsx sheet %s: %v", ErrParse, sheets[0], err)
	}
	return buildTable(records), nil
}

func buildTable(records [][]string) Table {
	if len(records) == 0 {
		return Table{}
	}

	columns := make([]string, 0, len(records[0]))
	for _, h := range records[0] {
		columns = append(columns, strings.TrimSpace(h))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			if col == "" {
				continue
			}
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return Table{Columns: columns, Rows: rows}
}
