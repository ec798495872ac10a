package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"fal-scraper/models"
)

// ReportHeaders is the column layout of the main report.
var ReportHeaders = []string{
	"Title", "Score", "Favorites", "Posts", "Watching", "Completed",
	"W+C", "Dropped", "Drop Rate", "PTW", "PTW Ratio", "Status", "ID",
}

// ReportFilename builds a timestamped output path so successive runs never
// overwrite each other.
func ReportFilename(dir, seasonCode, suffix string, now time.Time) string {
	name := fmt.Sprintf("FAL_data_%s_%s%s.csv", seasonCode, now.Format("2006-01-02-15-04"), suffix)
	return filepath.Join(dir, name)
}

// CSVWriter renders the ordered row set to a CSV file.
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
	if err := w.Write(ReportHeaders); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRows appends one record per row, error placeholders included, so
// every tracked ID shows up in the artifact.
func (c *CSVWriter) WriteRows(rows []*models.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		if err := c.writer.Write(rowRecord(r)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// WriteFooter appends the run context lines below the data rows.
func (c *CSVWriter) WriteFooter(season models.SeasonInfo, retrievedAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := [][]string{
		{},
		{fmt.Sprintf("Current season: %s %d, data retrieved on %s (FAL timezone).",
			season.Name, season.Year, retrievedAt.Format("2006-01-02 15:04"))},
		{fmt.Sprintf("Retrieval week: %d, post counting period: week %s.",
			season.Week, periodLabel(season.Period))},
	}
	for _, line := range lines {
		if err := c.writer.Write(line); err != nil {
			return fmt.Errorf("csv: write footer: %w", err)
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

func rowRecord(r *models.Row) []string {
	if r.Failed() {
		return []string{
			fmt.Sprintf("ERROR: fetch failed (%s)", r.Err),
			"", "", "", "", "", "", "", "", "", "",
			string(models.CodeERR),
			strconv.Itoa(r.ID),
		}
	}

	score := ""
	if r.Mean != nil {
		score = strconv.FormatFloat(*r.Mean, 'f', 2, 64)
	}

	d := r.Derived
	return []string{
		r.Title,
		score,
		strconv.Itoa(r.Favorites),
		strconv.Itoa(r.Posts),
		strconv.Itoa(d.Watching),
		strconv.Itoa(d.Completed),
		strconv.Itoa(d.WatchComp),
		strconv.Itoa(d.Dropped),
		strconv.FormatFloat(d.DropRate, 'f', 4, 64),
		strconv.Itoa(d.PlanToWatch),
		strconv.FormatFloat(d.PTWRatio, 'f', 4, 64),
		string(d.Code),
		strconv.Itoa(r.ID),
	}
}

func periodLabel(p models.CountingPeriod) string {
	if !p.Valid() {
		return "n/a"
	}
	return strconv.Itoa(p.Number)
}
