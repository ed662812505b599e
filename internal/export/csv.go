// Package export writes the daily history and the task list to CSV or JSON.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/tasks"
)

var (
	statsHeader = []string{"Date", "Tasks Completed", "Pomodoros Completed", "Focus Time"}
	tasksHeader = []string{"ID", "Text", "Category", "Completed", "Added", "Completed On"}
)

// StatsToCSV writes one row per day. Focus time is estimated as completed
// pomodoros times focusMinutes.
func StatsToCSV(days []stats.DailyStats, focusMinutes int, path string) error {
	return toFile(path, func(w io.Writer) error {
		return WriteStatsCSV(w, days, focusMinutes)
	})
}

func WriteStatsCSV(out io.Writer, days []stats.DailyStats, focusMinutes int) error {
	w := csv.NewWriter(out)
	if err := w.Write(statsHeader); err != nil {
		return err
	}
	for _, d := range days {
		row := []string{
			d.Date,
			strconv.Itoa(d.TasksCompleted),
			strconv.Itoa(d.PomodorosCompleted),
			formatDuration(int64(d.PomodorosCompleted * focusMinutes * 60)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func TasksToCSV(list []tasks.Task, path string) error {
	return toFile(path, func(w io.Writer) error {
		return WriteTasksCSV(w, list)
	})
}

func WriteTasksCSV(out io.Writer, list []tasks.Task) error {
	w := csv.NewWriter(out)
	if err := w.Write(tasksHeader); err != nil {
		return err
	}
	for _, t := range list {
		completedOn := ""
		if t.CompletedDate != nil {
			completedOn = *t.CompletedDate
		}
		row := []string{
			t.ID,
			t.Text,
			t.Category,
			strconv.FormatBool(t.Completed),
			t.AddedDate,
			completedOn,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func toFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
