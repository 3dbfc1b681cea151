package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"home-rush/models"
)

var csvHeader = []string{
	"id", "bot", "attempted_at", "success", "street", "number", "city", "monthly_rent", "error", "raw_text",
}

// CSVJournal appends reply attempts to a CSV file.
// It is safe for concurrent use by several bots.
type CSVJournal struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVJournal opens (or creates) the CSV file at path for appending and
// writes the header row if the file is new. Intermediate directories are
// created automatically.
func NewCSVJournal(path string) (*CSVJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("csv: open file %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: stat %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csv: write header: %w", err)
		}
		w.Flush()
	}

	return &CSVJournal{file: f, writer: w}, nil
}

// Record appends one row and flushes it.
func (c *CSVJournal) Record(r *models.ReplyRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := []string{
		r.ID,
		r.Bot,
		r.AttemptedAt.Format(time.RFC3339),
		strconv.FormatBool(r.Success),
		r.Street,
		r.Number,
		r.City,
		strconv.FormatFloat(r.MonthlyRent, 'f', 2, 64),
		r.Error,
		r.RawText,
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVJournal) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writer.Flush()
	return c.file.Close()
}
