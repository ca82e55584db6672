package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"flip-analyzer/models"
)

var ErrEmptyCSV = errors.New("csv: file has no header row")

// ReadCSV reads a whole CSV export into a RawTable. Rows may be shorter or
// longer than the header; a leading UTF-8 BOM is dropped.
func ReadCSV(r io.Reader) (models.RawTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return models.RawTable{}, ErrEmptyCSV
	}
	if err != nil {
		return models.RawTable{}, fmt.Errorf("csv: read header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	table := models.RawTable{Headers: headers}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.RawTable{}, fmt.Errorf("csv: read row %d: %w", len(table.Rows)+2, err)
		}
		if isBlankRow(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadCSVFile reads the CSV at path; the table is named after the file.
func ReadCSVFile(path string) (models.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("%s: %w", path, err)
	}
	t.Name = filepath.Base(path)
	return t, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// CSVSource reads listings and comps from two CSV files.
type CSVSource struct {
	ListingsPath string
	CompsPath    string
}

func (s *CSVSource) Tables(_ context.Context) (models.RawTable, models.RawTable, error) {
	listings, err := ReadCSVFile(s.ListingsPath)
	if err != nil {
		return models.RawTable{}, models.RawTable{}, err
	}
	comps, err := ReadCSVFile(s.CompsPath)
	if err != nil {
		return models.RawTable{}, models.RawTable{}, err
	}
	return listings, comps, nil
}

func (s *CSVSource) Close() error { return nil }
