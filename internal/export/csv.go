package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
)

var sessionHeader = []string{"ID", "Date", "Subject", "Chapter", "Minutes", "Duration"}

func ToCSV(sessions []state.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(sessionHeader); err != nil {
		return err
	}
	for _, s := range sessions {
		if err := w.Write(sessionRow(s)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func sessionRow(s state.Session) []string {
	return []string{
		s.ID,
		s.Date,
		planner.SubjectName(s.Subject),
		s.Chapter,
		strconv.Itoa(s.Minutes),
		formatMinutes(s.Minutes),
	}
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
