// Package tracker applies study actions to the state document: logged
// sessions, the streak, chapter progress and grammar practice.
package tracker

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
)

var (
	ErrInvalidMinutes  = errors.New("minutes must be positive")
	ErrUnknownSubject  = errors.New("unknown subject")
	ErrUnknownChapter  = errors.New("unknown chapter")
	ErrBadTransition   = errors.New("chapter status cannot go backwards")
	ErrUnknownCategory = errors.New("empty grammar category")
	ErrBadDifficulty   = errors.New("difficulty must be between 1 and 5")
	ErrBadRoutine      = errors.New("routine anchors must increase from wake to sleep")
	ErrBadTarget       = errors.New("target hours must be between 0 and 16")
	ErrBadSelection    = errors.New("unknown second language or elective")
)

// DefaultRevisionIntervals are the spaced-revision gaps in days used when a
// chapter has none of its own.
var DefaultRevisionIntervals = []int{3, 7, 21}

// LogStudyTime records one completed work interval on st. The session log,
// today's totals, the streak and the grace recovery all change together.
func LogStudyTime(st *state.State, now time.Time, id, subject, chapter string, minutes int) state.Session {
	today := clock.DayKey(now)
	sess := state.Session{ID: id, Date: today, Subject: subject, Chapter: chapter, Minutes: minutes}
	st.Sessions = append(st.Sessions, sess)

	if st.StudyLog == nil {
		st.StudyLog = make(map[string]state.DayLog)
	}
	day := st.StudyLog[today]
	day.Hours += float64(minutes) / 60
	day.Sessions++
	st.StudyLog[today] = day

	sk := &st.Streak
	if sk.LastStudyDate != today {
		switch sk.LastStudyDate {
		case clock.AddDays(today, -1):
			sk.Count++
			sk.RecoveryAvailable, sk.BeforeReset = false, 0
		case clock.AddDays(today, -2):
			if sk.Count > 1 {
				sk.RecoveryAvailable = true
				sk.BeforeReset = sk.Count
				sk.Count = 1
				break
			}
			fallthrough
		default:
			sk.Count = 1
			sk.RecoveryAvailable, sk.BeforeReset = false, 0
		}
	}

	if sk.RecoveryAvailable && st.TargetHours > 0 && day.Hours >= 2*st.TargetHours {
		sk.Count = sk.BeforeReset + 1
		sk.RecoveryAvailable, sk.BeforeReset = false, 0
	}
	sk.LastStudyDate = today
	return sess
}

// SetChapterStatus moves a chapter forward. Completing a chapter schedules its
// next revision from its intervals.
func SetChapterStatus(st *state.State, now time.Time, subject, chapter string, to planner.ChapterStatus) error {
	subj, ok := st.Subjects[subject]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
	}
	idx := -1
	for i, c := range subj.Chapters {
		if c.Name == chapter {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s/%s", ErrUnknownChapter, subject, chapter)
	}

	ch := subj.Chapters[idx]
	if !planner.CanTransition(ch.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrBadTransition, ch.Status, to)
	}
	if ch.Status == planner.NeedsRevision && to == planner.Completed {
		ch.RevisionsCompleted++
	}
	ch.Status = to
	if to == planner.Completed {
		ch.RevisionDate = nextRevision(ch, clock.DayKey(now))
	}

	chapters := make([]planner.Chapter, len(subj.Chapters))
	copy(chapters, subj.Chapters)
	chapters[idx] = ch
	subj.Chapters = chapters
	st.Subjects[subject] = subj
	return nil
}

func nextRevision(ch planner.Chapter, today string) string {
	intervals := ch.RevisionIntervals
	if len(intervals) == 0 {
		intervals = DefaultRevisionIntervals
	}
	if ch.RevisionsCompleted >= len(intervals) {
		return ""
	}
	return clock.AddDays(today, intervals[ch.RevisionsCompleted])
}

// MarkDueRevisions flips completed chapters whose revision date has arrived
// to needs_revision and returns how many changed.
func MarkDueRevisions(st *state.State, today string) int {
	n := 0
	for key, subj := range st.Subjects {
		changed := false
		chapters := make([]planner.Chapter, len(subj.Chapters))
		copy(chapters, subj.Chapters)
		for i, c := range chapters {
			if c.Status == planner.Completed && c.RevisionDate != "" && c.RevisionDate <= today {
				chapters[i].Status = planner.NeedsRevision
				changed = true
				n++
			}
		}
		if changed {
			subj.Chapters = chapters
			st.Subjects[key] = subj
		}
	}
	return n
}

// DueRevisions counts chapters currently waiting for revision.
func DueRevisions(st *state.State) int {
	n := 0
	for _, subj := range st.Subjects {
		for _, c := range subj.Chapters {
			if c.Status == planner.NeedsRevision {
				n++
			}
		}
	}
	return n
}

func RecordGrammarAttempt(st *state.State, category string, correct bool) error {
	if category == "" {
		return ErrUnknownCategory
	}
	if st.Grammar == nil {
		st.Grammar = make(map[string]state.GrammarStat)
	}
	g := st.Grammar[category]
	g.Attempts++
	if correct {
		g.Correct++
	}
	st.Grammar[category] = g
	return nil
}

// Tracker runs the transitions above through a state container.
type Tracker struct {
	c     *state.Container
	newID func() string
}

func New(c *state.Container) *Tracker {
	return &Tracker{c: c, newID: func() string { return uuid.NewString() }}
}

// LogStudy records a completed work interval of minutes.
func (t *Tracker) LogStudy(subject, chapter string, minutes int) (state.Session, error) {
	if minutes <= 0 {
		return state.Session{}, fmt.Errorf("log study: %w", ErrInvalidMinutes)
	}
	var sess state.Session
	err := t.c.Update(func(st *state.State) error {
		sess = LogStudyTime(st, t.c.Clock().Now(), t.newID(), subject, chapter, minutes)
		return nil
	})
	return sess, err
}

func (t *Tracker) SetChapterStatus(subject, chapter string, to planner.ChapterStatus) error {
	return t.c.Update(func(st *state.State) error {
		return SetChapterStatus(st, t.c.Clock().Now(), subject, chapter, to)
	})
}

// MarkDueRevisions returns the number of chapters that became due.
func (t *Tracker) MarkDueRevisions() (int, error) {
	var n int
	err := t.c.Update(func(st *state.State) error {
		n = MarkDueRevisions(st, clock.DayKey(t.c.Clock().Now()))
		return nil
	})
	return n, err
}

func (t *Tracker) RecordGrammarAttempt(category string, correct bool) error {
	return t.c.Update(func(st *state.State) error {
		return RecordGrammarAttempt(st, category, correct)
	})
}

func (t *Tracker) SetExam(subject, date string) error {
	if _, err := clock.ParseDayKey(date, nil); err != nil {
		return fmt.Errorf("set exam: %w", err)
	}
	return t.c.Update(func(st *state.State) error {
		if _, ok := st.Subjects[subject]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
		}
		for i, e := range st.Exams {
			if e.Subject == subject {
				st.Exams[i].Date = date
				return nil
			}
		}
		st.Exams = append(st.Exams, planner.Exam{Subject: subject, Date: date})
		return nil
	})
}

// AddChapter appends a chapter to a subject's syllabus.
func (t *Tracker) AddChapter(subject, name string) error {
	return t.c.Update(func(st *state.State) error {
		subj, ok := st.Subjects[subject]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
		}
		for _, c := range subj.Chapters {
			if c.Name == name {
				return fmt.Errorf("add chapter: %q already exists", name)
			}
		}
		subj.Chapters = append(append([]planner.Chapter(nil), subj.Chapters...),
			planner.Chapter{Name: name, Status: planner.NotStarted})
		st.Subjects[subject] = subj
		return nil
	})
}

func (t *Tracker) SetDifficulty(subject string, level int) error {
	if level < 1 || level > 5 {
		return fmt.Errorf("set difficulty: %w", ErrBadDifficulty)
	}
	return t.c.Update(func(st *state.State) error {
		subj, ok := st.Subjects[subject]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSubject, subject)
		}
		subj.Difficulty = level
		st.Subjects[subject] = subj
		return nil
	})
}

// Profile is the user-editable part of the document.
type Profile struct {
	SecondLanguage string
	Elective       string
	Routine        planner.Routine
	TargetHours    float64
}

// SetProfile validates and applies p. Changing the language or elective
// rebuilds the subject registry, keeping progress in subjects that remain.
func (t *Tracker) SetProfile(p Profile) error {
	if !p.Routine.WellFormed() {
		return fmt.Errorf("set profile: %w", ErrBadRoutine)
	}
	if math.IsNaN(p.TargetHours) || p.TargetHours <= 0 || p.TargetHours > 16 {
		return fmt.Errorf("set profile: %w", ErrBadTarget)
	}
	_, langOK := planner.SecondLanguages[p.SecondLanguage]
	_, electiveOK := planner.Electives[p.Elective]
	if !langOK || !electiveOK {
		return fmt.Errorf("set profile: %w", ErrBadSelection)
	}
	return t.c.Update(func(st *state.State) error {
		st.Routine = p.Routine
		st.TargetHours = p.TargetHours
		if st.SecondLanguage != p.SecondLanguage || st.Elective != p.Elective {
			st.SecondLanguage, st.Elective = p.SecondLanguage, p.Elective
			st.Subjects = planner.NewRegistry(p.SecondLanguage, p.Elective, st.Subjects)
		}
		return nil
	})
}
