package export

import (
	"fmt"
	"sort"

	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/xuri/excelize/v2"
)

const (
	SessionsSheet = "Sessions"
	DailySheet    = "Daily"
)

// ToXLSX writes a workbook with one row per session and a per-day summary
// sheet built from the study log.
func ToXLSX(sessions []state.Session, days map[string]state.DayLog, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SessionsSheet)
	if err := writeRow(f, SessionsSheet, 1, toCells(sessionHeader)); err != nil {
		return err
	}
	for i, s := range sessions {
		row := []any{s.ID, s.Date, planner.SubjectName(s.Subject), s.Chapter, s.Minutes, formatMinutes(s.Minutes)}
		if err := writeRow(f, SessionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(DailySheet); err != nil {
		return fmt.Errorf("add daily sheet: %w", err)
	}
	if err := writeRow(f, DailySheet, 1, []any{"Date", "Hours", "Sessions"}); err != nil {
		return err
	}
	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		d := days[k]
		if err := writeRow(f, DailySheet, i+2, []any{k, d.Hours, d.Sessions}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx file: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
