package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoHeader is the one condition that aborts an upload before any
// per-row reporting: a file with no parseable header row.
var ErrNoHeader = errors.New("upload has no parseable header row")

// RawRow is one data row keyed by its raw (uncanonicalized) headers.
// Number is 1-based over data rows, matching what a seller sees in
// their spreadsheet below the header.
type RawRow struct {
	Number int
	Cells  map[string]any
}

// ReadTable parses an uploaded delimited or xlsx file into raw rows.
// CSV quoting follows RFC 4180 (doubled quotes escape).
func ReadTable(r io.Reader, filename string) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(r)
	default:
		return readCSV(r)
	}
}

func readCSV(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return tableToRows(records)
}

func readXLSX(r io.Reader) ([]RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoHeader
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return tableToRows(records)
}

func tableToRows(records [][]string) ([]RawRow, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}

	header := records[0]
	usable := 0
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			usable++
		}
	}
	if usable == 0 {
		return nil, ErrNoHeader
	}

	rows := make([]RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		cells := make(map[string]any, len(header))
		for j, h := range header {
			if strings.TrimSpace(h) == "" {
				continue
			}
			value := ""
			if j < len(record) {
				value = record[j]
			}
			cells[h] = value
		}
		rows = append(rows, RawRow{Number: i + 1, Cells: cells})
	}

	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
