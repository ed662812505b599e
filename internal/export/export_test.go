package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/tasks"
)

func sampleDays() []stats.DailyStats {
	return []stats.DailyStats{
		{Date: "2026-10-12", TasksCompleted: 3, PomodorosCompleted: 4},
		{Date: "2026-10-13", TasksCompleted: 0, PomodorosCompleted: 0},
		{Date: "2026-10-14", TasksCompleted: 5, PomodorosCompleted: 2},
	}
}

func sampleTasks() []tasks.Task {
	done := "2026-10-14"
	return []tasks.Task{
		{ID: "task-1", Text: "write report", Completed: true, AddedDate: "2026-10-14", CompletedDate: &done, Category: "Work"},
		{ID: "task-2", Text: `call "mom", later`, AddedDate: "2026-10-14", Category: "Personal"},
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
		t.Fatalf("invalid CSV: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestStatsToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.csv")
	if err := StatsToCSV(sampleDays(), 25, path); err != nil {
		t.Fatalf("StatsToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	for i, h := range statsHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "2026-10-12" || row[1] != "3" || row[2] != "4" {
		t.Fatalf("row = %v", row)
	}
	if row[3] != "01:40:00" {
		t.Fatalf("Focus Time = %q, want 01:40:00", row[3])
	}
	if records[2][3] != "00:00:00" {
		t.Fatalf("empty day focus time = %q", records[2][3])
	}
}

func TestStatsToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := StatsToCSV(nil, 25, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected header only, got %d rows", len(records))
	}
}

func TestTasksToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	if err := TasksToCSV(sampleTasks(), path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	if records[1][3] != "true" || records[1][5] != "2026-10-14" {
		t.Fatalf("completed row = %v", records[1])
	}
	if records[2][1] != `call "mom", later` {
		t.Fatalf("text mangled: %q", records[2][1])
	}
	if records[2][5] != "" {
		t.Fatalf("open task should have no completion date, got %q", records[2][5])
	}
}

func TestCSVBadPath(t *testing.T) {
	if err := StatsToCSV(nil, 25, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
	if err := TasksToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	if err := ToJSON(sampleDays(), sampleTasks(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(result.Days) != 3 || len(result.Tasks) != 2 {
		t.Fatalf("days = %d, tasks = %d", len(result.Days), len(result.Tasks))
	}
	if result.Summary.TotalTasks != 8 || result.Summary.TotalPomodoros != 6 {
		t.Fatalf("summary = %+v", result.Summary)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not RFC3339: %q", result.ExportedAt)
	}
	if !strings.Contains(string(data), `"pomodoros_completed": 4`) {
		t.Fatal("JSON should be indented and use snake_case keys")
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"days": []`) || !strings.Contains(buf.String(), `"tasks": []`) {
		t.Fatalf("empty export should use empty arrays: %s", buf.String())
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{90061, "25:01:01"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}
