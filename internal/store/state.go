package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
)

// LoadState reads the whole document. A fresh database yields the default
// document with an empty syllabus per selected subject.
func (s *Store) LoadState(ctx context.Context) (*state.State, error) {
	st := state.Default()

	var p profileRow
	err := s.db.GetContext(ctx, &p, `SELECT second_language, elective, wake, breakfast, lunch, snack, dinner, sleep,
		target_hours, streak_count, last_study_date, recovery_available, before_reset, updated_at
		FROM profile WHERE id = 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	default:
		st.SecondLanguage, st.Elective = p.SecondLanguage, p.Elective
		st.Routine = planner.Routine{
			Wake:      clock.Minutes(p.Wake),
			Breakfast: clock.Minutes(p.Breakfast),
			Lunch:     clock.Minutes(p.Lunch),
			Snack:     clock.Minutes(p.Snack),
			Dinner:    clock.Minutes(p.Dinner),
			Sleep:     clock.Minutes(p.Sleep),
		}
		st.TargetHours = p.TargetHours
		st.Streak = state.Streak{
			Count:             p.StreakCount,
			LastStudyDate:     p.LastStudyDate,
			RecoveryAvailable: p.RecoveryAvailable,
			BeforeReset:       p.BeforeReset,
		}
		st.UpdatedAt, _ = time.Parse(time.RFC3339Nano, p.UpdatedAt)
	}

	var subjects []subjectRow
	if err := s.db.SelectContext(ctx, &subjects, `SELECT key, name, difficulty FROM subjects ORDER BY key`); err != nil {
		return nil, fmt.Errorf("load subjects: %w", err)
	}
	var chapters []chapterRow
	if err := s.db.SelectContext(ctx, &chapters, `SELECT subject_key, position, name, status, revision_date,
		revision_intervals, revisions_completed FROM chapters ORDER BY subject_key, position`); err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}
	stored := make(planner.Registry, len(subjects))
	for _, r := range subjects {
		stored[r.Key] = planner.Subject{Key: r.Key, Name: r.Name, Difficulty: r.Difficulty}
	}
	for _, r := range chapters {
		subj, ok := stored[r.SubjectKey]
		if !ok {
			continue
		}
		subj.Chapters = append(subj.Chapters, planner.Chapter{
			Name:               r.Name,
			Status:             planner.ChapterStatus(r.Status),
			RevisionDate:       r.RevisionDate,
			RevisionIntervals:  parseInts(r.RevisionIntervals),
			RevisionsCompleted: r.RevisionsCompleted,
		})
		stored[r.SubjectKey] = subj
	}
	st.Subjects = planner.NewRegistry(st.SecondLanguage, st.Elective, stored)

	var exams []examRow
	if err := s.db.SelectContext(ctx, &exams, `SELECT subject, date FROM exams ORDER BY date, subject`); err != nil {
		return nil, fmt.Errorf("load exams: %w", err)
	}
	for _, e := range exams {
		st.Exams = append(st.Exams, planner.Exam{Subject: e.Subject, Date: e.Date})
	}

	days, err := s.DailyHours(ctx, "", "")
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		st.StudyLog[d.Day] = state.DayLog{Hours: d.Hours, Sessions: d.Sessions}
	}

	st.Sessions, err = s.ListSessions(ctx, SessionFilter{})
	if err != nil {
		return nil, err
	}

	var grammar []grammarRow
	if err := s.db.SelectContext(ctx, &grammar, `SELECT category, attempts, correct FROM grammar`); err != nil {
		return nil, fmt.Errorf("load grammar: %w", err)
	}
	for _, g := range grammar {
		st.Grammar[g.Category] = state.GrammarStat{Attempts: g.Attempts, Correct: g.Correct}
	}

	st.Credits.Balance, st.Credits.RefillDay, err = s.ReadBalance(ctx)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// SaveState writes the document in one transaction. Timer sessions are
// append-only and are never deleted. Credits are owned by WriteBalance.
func (s *Store) SaveState(ctx context.Context, st *state.State) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := saveProfile(ctx, tx, st); err != nil {
		return err
	}
	if err := saveSubjects(ctx, tx, st.Subjects); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM exams`); err != nil {
		return fmt.Errorf("clear exams: %w", err)
	}
	for _, e := range st.Exams {
		if _, err := tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO exams (subject, date) VALUES (:subject, :date)`,
			examRow{Subject: e.Subject, Date: e.Date}); err != nil {
			return fmt.Errorf("save exam %s: %w", e.Subject, err)
		}
	}

	for day, d := range st.StudyLog {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO study_log (day, hours, sessions) VALUES (:day, :hours, :sessions)
			ON CONFLICT(day) DO UPDATE SET hours = excluded.hours, sessions = excluded.sessions`,
			DayHours{Day: day, Hours: d.Hours, Sessions: d.Sessions}); err != nil {
			return fmt.Errorf("save study log %s: %w", day, err)
		}
	}

	for _, sess := range st.Sessions {
		if _, err := tx.NamedExecContext(ctx, `INSERT OR IGNORE INTO timer_sessions (id, date, subject, chapter, minutes)
			VALUES (:id, :date, :subject, :chapter, :minutes)`, sessionRow(sess)); err != nil {
			return fmt.Errorf("save session %s: %w", sess.ID, err)
		}
	}

	for cat, g := range st.Grammar {
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO grammar (category, attempts, correct) VALUES (:category, :attempts, :correct)
			ON CONFLICT(category) DO UPDATE SET attempts = excluded.attempts, correct = excluded.correct`,
			grammarRow{Category: cat, Attempts: g.Attempts, Correct: g.Correct}); err != nil {
			return fmt.Errorf("save grammar %s: %w", cat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func saveProfile(ctx context.Context, tx *sqlx.Tx, st *state.State) error {
	r := st.Routine
	p := profileRow{
		SecondLanguage:    st.SecondLanguage,
		Elective:          st.Elective,
		Wake:              int(r.Wake),
		Breakfast:         int(r.Breakfast),
		Lunch:             int(r.Lunch),
		Snack:             int(r.Snack),
		Dinner:            int(r.Dinner),
		Sleep:             int(r.Sleep),
		TargetHours:       st.TargetHours,
		StreakCount:       st.Streak.Count,
		LastStudyDate:     st.Streak.LastStudyDate,
		RecoveryAvailable: st.Streak.RecoveryAvailable,
		BeforeReset:       st.Streak.BeforeReset,
		UpdatedAt:         st.UpdatedAt.Format(time.RFC3339Nano),
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO profile (id, second_language, elective, wake, breakfast, lunch, snack,
		dinner, sleep, target_hours, streak_count, last_study_date, recovery_available, before_reset, updated_at)
		VALUES (1, :second_language, :elective, :wake, :breakfast, :lunch, :snack, :dinner, :sleep, :target_hours,
		:streak_count, :last_study_date, :recovery_available, :before_reset, :updated_at)
		ON CONFLICT(id) DO UPDATE SET second_language = excluded.second_language, elective = excluded.elective,
		wake = excluded.wake, breakfast = excluded.breakfast, lunch = excluded.lunch, snack = excluded.snack,
		dinner = excluded.dinner, sleep = excluded.sleep, target_hours = excluded.target_hours,
		streak_count = excluded.streak_count, last_study_date = excluded.last_study_date,
		recovery_available = excluded.recovery_available, before_reset = excluded.before_reset,
		updated_at = excluded.updated_at`, p)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func saveSubjects(ctx context.Context, tx *sqlx.Tx, reg planner.Registry) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters`); err != nil {
		return fmt.Errorf("clear chapters: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subjects`); err != nil {
		return fmt.Errorf("clear subjects: %w", err)
	}
	for _, key := range reg.Keys() {
		subj := reg[key]
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO subjects (key, name, difficulty) VALUES (:key, :name, :difficulty)`,
			subjectRow{Key: key, Name: subj.Name, Difficulty: subj.Difficulty}); err != nil {
			return fmt.Errorf("save subject %s: %w", key, err)
		}
		for i, c := range subj.Chapters {
			if _, err := tx.NamedExecContext(ctx, `INSERT INTO chapters (subject_key, position, name, status, revision_date,
				revision_intervals, revisions_completed) VALUES (:subject_key, :position, :name, :status, :revision_date,
				:revision_intervals, :revisions_completed)`, chapterRow{
				SubjectKey:         key,
				Position:           i,
				Name:               c.Name,
				Status:             string(c.Status),
				RevisionDate:       c.RevisionDate,
				RevisionIntervals:  formatInts(c.RevisionIntervals),
				RevisionsCompleted: c.RevisionsCompleted,
			}); err != nil {
				return fmt.Errorf("save chapter %s/%s: %w", key, c.Name, err)
			}
		}
	}
	return nil
}

func formatInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func parseInts(s string) []int {
	if s == "" {
		return nil
	}
	var out []int
	for _, p := range strings.Split(s, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Push and Pull let the local database act as a sync target; there is a
// single local user so userID is ignored.
func (s *Store) Push(ctx context.Context, _ string, st *state.State) error {
	return s.SaveState(ctx, st)
}

func (s *Store) Pull(ctx context.Context, _ string) (*state.State, error) {
	return s.LoadState(ctx)
}
