package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/sadopc/studyplan/internal/state"
)

func (s *Store) ListSessions(ctx context.Context, f SessionFilter) ([]state.Session, error) {
	query := `SELECT id, date, subject, chapter, minutes FROM timer_sessions`
	var conds []string
	var args []any

	if f.Subject != "" {
		conds = append(conds, "subject = ?")
		args = append(args, f.Subject)
	}
	if f.From != "" {
		conds = append(conds, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "date <= ?")
		args = append(args, f.To)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, rowid"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	var rows []sessionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []state.Session
	for _, r := range rows {
		out = append(out, state.Session(r))
	}
	return out, nil
}

// DailyHours returns study_log rows between from and to (inclusive day keys,
// empty for open-ended), oldest first.
func (s *Store) DailyHours(ctx context.Context, from, to string) ([]DayHours, error) {
	query := `SELECT day, hours, sessions FROM study_log`
	var conds []string
	var args []any
	if from != "" {
		conds = append(conds, "day >= ?")
		args = append(args, from)
	}
	if to != "" {
		conds = append(conds, "day <= ?")
		args = append(args, to)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY day"

	var out []DayHours
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("daily hours: %w", err)
	}
	return out, nil
}

// SubjectTotals sums session minutes per subject over a day range.
func (s *Store) SubjectTotals(ctx context.Context, from, to string) ([]SubjectMinutes, error) {
	var out []SubjectMinutes
	err := s.db.SelectContext(ctx, &out, `
		SELECT subject, SUM(minutes) AS minutes, COUNT(*) AS sessions
		FROM timer_sessions
		WHERE date >= ? AND date <= ?
		GROUP BY subject
		ORDER BY minutes DESC, subject`, from, to)
	if err != nil {
		return nil, fmt.Errorf("subject totals: %w", err)
	}
	return out, nil
}
