package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
)

type jsonExport struct {
	ExportedAt   string        `json:"exported_at"`
	Count        int           `json:"count"`
	TotalMinutes int           `json:"total_minutes"`
	Sessions     []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Subject     string `json:"subject"`
	SubjectName string `json:"subject_name"`
	Chapter     string `json:"chapter,omitempty"`
	Minutes     int    `json:"minutes"`
	Duration    string `json:"duration"`
}

func ToJSON(sessions []state.Session, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
		Sessions:   []jsonSession{},
	}

	for _, s := range sessions {
		export.TotalMinutes += s.Minutes
		export.Sessions = append(export.Sessions, jsonSession{
			ID:          s.ID,
			Date:        s.Date,
			Subject:     s.Subject,
			SubjectName: planner.SubjectName(s.Subject),
			Chapter:     s.Chapter,
			Minutes:     s.Minutes,
			Duration:    formatMinutes(s.Minutes),
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
