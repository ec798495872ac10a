package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fal-scraper/models"
)

func TestReportFilename(t *testing.T) {
	now := time.Date(2024, time.October, 15, 9, 30, 0, 0, time.UTC)

	got := ReportFilename("./output", "24fall", "", now)
	want := filepath.Join("./output", "FAL_data_24fall_2024-10-15-09-30.csv")
	if got != want {
		t.Errorf("filename: got %q, want %q", got, want)
	}

	got = ReportFilename("./output", "24fall", "_alt", now)
	if !strings.HasSuffix(got, "_alt.csv") {
		t.Errorf("suffix filename: got %q, want _alt.csv suffix", got)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	return records
}

func TestCSVWriterReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	mean := 7.53
	rows := []*models.Row{
		{
			ID:        50306,
			Title:     "Sample Title",
			Mean:      &mean,
			Favorites: 1234,
			Posts:     88,
			Derived: models.DerivedStats{
				Code:        models.CodeAIR,
				Watching:    41231,
				Completed:   12,
				Dropped:     410,
				PlanToWatch: 25000,
				WatchComp:   41243,
				WatchDrop:   41653,
				DropRate:    410.0 / 41653.0,
				PTWRatio:    25000.0 / 41231.0,
			},
		},
		{
			ID:      99999,
			Err:     models.ReasonNotFound,
			Derived: models.DerivedStats{Code: models.CodeERR},
		},
	}
	if err := w.WriteRows(rows); err != nil {
		t.Fatalf("WriteRows: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("records: got %d, want header plus 2 rows", len(records))
	}

	header := records[0]
	if header[0] != "Title" || header[len(header)-1] != "ID" {
		t.Errorf("header: got %v", header)
	}

	data := records[1]
	if data[0] != "Sample Title" || data[1] != "7.53" || data[3] != "88" || data[12] != "50306" {
		t.Errorf("data row: got %v", data)
	}
	if data[11] != "AIR" {
		t.Errorf("status column: got %q, want AIR", data[11])
	}

	errRow := records[2]
	if errRow[0] != "ERROR: fetch failed (not_found)" {
		t.Errorf("error row title: got %q", errRow[0])
	}
	if errRow[1] != "" || errRow[4] != "" {
		t.Errorf("error row numeric columns must be blank, got %v", errRow)
	}
	if errRow[11] != "ERR" || errRow[12] != "99999" {
		t.Errorf("error row status/ID: got %q/%q", errRow[11], errRow[12])
	}
}

func TestCSVWriterFooter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	start := time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC)
	season := models.SeasonInfo{
		Name:  "fall",
		Year:  2024,
		Start: start,
		Week:  3,
		Period: models.CountingPeriod{
			Number: 4,
			Start:  start.AddDate(0, 0, 14),
			End:    start.AddDate(0, 0, 28),
		},
	}
	retrievedAt := time.Date(2024, time.October, 15, 9, 30, 0, 0, time.UTC)

	if err := w.WriteFooter(season, retrievedAt); err != nil {
		t.Fatalf("WriteFooter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	content := string(raw)

	if !strings.Contains(content, "Current season: fall 2024") {
		t.Errorf("footer missing season line:\n%s", content)
	}
	if !strings.Contains(content, "Retrieval week: 3, post counting period: week 4.") {
		t.Errorf("footer missing week line:\n%s", content)
	}
}

func TestCSVWriterFooterInvalidPeriod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}

	season := models.SeasonInfo{Name: "fall", Year: 2024, Week: 14}
	if err := w.WriteFooter(season, time.Now()); err != nil {
		t.Fatalf("WriteFooter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(raw), "post counting period: week n/a.") {
		t.Errorf("invalid period should render as n/a:\n%s", raw)
	}
}
