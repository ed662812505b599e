package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/tasks"
)

type jsonExport struct {
	ExportedAt string             `json:"exported_at"`
	Summary    stats.Summary      `json:"summary"`
	Days       []stats.DailyStats `json:"days"`
	Tasks      []tasks.Task       `json:"tasks"`
}

// ToJSON writes history, its summary and the task list as one indented
// document.
func ToJSON(days []stats.DailyStats, list []tasks.Task, path string) error {
	return toFile(path, func(w io.Writer) error {
		return WriteJSON(w, days, list)
	})
}

func WriteJSON(w io.Writer, days []stats.DailyStats, list []tasks.Task) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Summary:    stats.Summarize(days),
		Days:       days,
		Tasks:      list,
	}
	if export.Days == nil {
		export.Days = []stats.DailyStats{}
	}
	if export.Tasks == nil {
		export.Tasks = []tasks.Task{}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
