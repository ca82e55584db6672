package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

var rankedHeader = []string{
	"Rank", "MLS #", "Address", "Bedrooms", "Total Finished SF", "List Price",
	"Avg Comp Price", "Price Diff ($)", "Price Diff (%)", "# of Comps", "Zillow",
}

// CSVWriter writes the ranked flip table to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(rankedHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends the ranked rows of a.
func (c *CSVWriter) Write(a *models.Analysis) error {
	return c.WriteRanked(a.Ranked)
}

// WriteRanked appends one row per ranked result. Currency is grouped and
// percentages carry one decimal; absent values are blank.
func (c *CSVWriter) WriteRanked(ranked []models.RankedResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range ranked {
		l := r.Listing
		row := []string{
			strconv.Itoa(r.Rank),
			l.ID,
			l.Address,
			models.FormatCount(l.Bedrooms),
			models.FormatNumber(l.FinishedSF),
			models.FormatMoney(l.ListPrice),
			models.FormatMoney(r.AvgCompPrice),
			models.FormatMoney(r.PriceDiff),
			models.FormatPct(r.PriceDiffPct),
			strconv.Itoa(r.Count),
			utils.LookupURL(l.Address),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
