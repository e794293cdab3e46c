package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/studyplan/internal/state"
	"github.com/xuri/excelize/v2"
)

func sampleSessions() []state.Session {
	return []state.Session{
		{ID: "a1", Date: "2026-02-09", Subject: "physics", Chapter: "Force", Minutes: 25},
		{ID: "a2", Date: "2026-02-09", Subject: "mathematics", Chapter: "Matrices", Minutes: 50},
		{ID: "a3", Date: "2026-02-10", Subject: "hindi", Minutes: 90},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := ToCSV(sampleSessions(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	for i, h := range sessionHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "a1" || row[1] != "2026-02-09" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[2] != "Physics" {
		t.Fatalf("Subject = %q, want display name", row[2])
	}
	if row[4] != "25" || row[5] != "00:25" {
		t.Fatalf("minutes = %q duration = %q", row[4], row[5])
	}
	if records[3][5] != "01:30" {
		t.Fatalf("Duration = %q, want 01:30", records[3][5])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVUnknownSubject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unknown.csv")
	ToCSV([]state.Session{{ID: "x", Date: "2026-02-09", Subject: "astronomy", Minutes: 5}}, path)
	if got := readCSV(t, path)[1][2]; got != "astronomy" {
		t.Fatalf("unknown subject should keep its key, got %q", got)
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "special.csv")
	chapter := `Ch. "Light", part 2`
	ToCSV([]state.Session{{ID: "x", Date: "2026-02-09", Subject: "physics", Chapter: chapter, Minutes: 5}}, path)
	if got := readCSV(t, path)[1][3]; got != chapter {
		t.Fatalf("chapter mangled: %q", got)
	}
}

// ============================================================
// JSON
// ============================================================

func readJSON(t *testing.T, path string) jsonExport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return result
}

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := ToJSON(sampleSessions(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	result := readJSON(t, path)
	if result.Count != 3 || len(result.Sessions) != 3 {
		t.Fatalf("count = %d sessions = %d, want 3", result.Count, len(result.Sessions))
	}
	if result.TotalMinutes != 165 {
		t.Fatalf("total = %d, want 165", result.TotalMinutes)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}

	s := result.Sessions[1]
	if s.Subject != "mathematics" || s.SubjectName != "Mathematics" {
		t.Fatalf("subject = %q/%q", s.Subject, s.SubjectName)
	}
	if s.Duration != "00:50" {
		t.Fatalf("Duration = %q", s.Duration)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"sessions": []`) {
		t.Fatalf("empty export should carry an empty list: %s", data)
	}
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be pretty-printed")
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// XLSX
// ============================================================

func TestToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.xlsx")
	days := map[string]state.DayLog{
		"2026-02-10": {Hours: 1.5, Sessions: 1},
		"2026-02-09": {Hours: 1.25, Sessions: 2},
	}
	if err := ToXLSX(sampleSessions(), days, path); err != nil {
		t.Fatalf("ToXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(SessionsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 session rows, got %d", len(rows))
	}
	if rows[2][2] != "Mathematics" || rows[2][4] != "50" {
		t.Fatalf("unexpected row: %v", rows[2])
	}

	daily, err := f.GetRows(DailySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(daily) != 3 || daily[1][0] != "2026-02-09" {
		t.Fatalf("daily sheet should be sorted by date: %v", daily)
	}
}

func TestToXLSXBadPath(t *testing.T) {
	if err := ToXLSX(nil, nil, "/nonexistent/dir/file.xlsx"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// formatMinutes
// ============================================================

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		mins int
		want string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{60, "01:00"},
		{125, "02:05"},
		{1500, "25:00"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.mins); got != tt.want {
			t.Errorf("formatMinutes(%d) = %q, want %q", tt.mins, got, tt.want)
		}
	}
}
