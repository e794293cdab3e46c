// Package state holds the single study document and the container through
// which every mutation goes.
package state

import (
	"sort"
	"time"

	"github.com/sadopc/studyplan/internal/planner"
)

// DayLog is the accumulated study for one day key.
type DayLog struct {
	Hours    float64 `json:"hours"`
	Sessions int     `json:"sessions"`
}

// Session is one completed work interval. Sessions are only ever appended.
type Session struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
	Minutes int    `json:"minutes"`
}

type Streak struct {
	Count             int    `json:"count"`
	LastStudyDate     string `json:"last_study_date"`
	RecoveryAvailable bool   `json:"recovery_available"`
	BeforeReset       int    `json:"before_reset"`
}

type GrammarStat struct {
	Attempts int `json:"attempts"`
	Correct  int `json:"correct"`
}

// Accuracy is the share of correct answers, 0 with no attempts.
func (g GrammarStat) Accuracy() float64 {
	if g.Attempts == 0 {
		return 0
	}
	return float64(g.Correct) / float64(g.Attempts)
}

type Credits struct {
	Balance   int    `json:"balance"`
	RefillDay string `json:"refill_day"`
}

type State struct {
	SecondLanguage string           `json:"second_language"`
	Elective       string           `json:"elective"`
	Routine        planner.Routine  `json:"routine"`
	Subjects       planner.Registry `json:"subjects"`
	TargetHours    float64          `json:"target_hours"`
	Exams          []planner.Exam   `json:"exams"`

	StudyLog map[string]DayLog      `json:"study_log"`
	Sessions []Session              `json:"sessions"`
	Streak   Streak                 `json:"streak"`
	Grammar  map[string]GrammarStat `json:"grammar"`
	Credits  Credits                `json:"credits"`

	UpdatedAt time.Time `json:"updated_at"`
}

const (
	DefaultSecondLanguage = "hindi"
	DefaultElective       = "computer_applications"
	DefaultTargetHours    = 6
)

// Default is the document a fresh install starts from.
func Default() *State {
	return &State{
		SecondLanguage: DefaultSecondLanguage,
		Elective:       DefaultElective,
		Routine:        planner.DefaultRoutine(),
		Subjects:       planner.NewRegistry(DefaultSecondLanguage, DefaultElective, nil),
		TargetHours:    DefaultTargetHours,
		StudyLog:       make(map[string]DayLog),
		Grammar:        make(map[string]GrammarStat),
	}
}

// ensureMaps makes a decoded document safe to write to.
func (s *State) ensureMaps() {
	if s.StudyLog == nil {
		s.StudyLog = make(map[string]DayLog)
	}
	if s.Grammar == nil {
		s.Grammar = make(map[string]GrammarStat)
	}
	if s.Subjects == nil {
		s.Subjects = make(planner.Registry)
	}
}

// PlanInput is the part of the document the day planner reads.
func (s *State) PlanInput() planner.Input {
	return planner.Input{
		Routine:     s.Routine,
		Subjects:    s.Subjects,
		TargetHours: s.TargetHours,
		Exams:       s.Exams,
	}
}

// HoursOn returns logged hours for day.
func (s *State) HoursOn(day string) float64 {
	return s.StudyLog[day].Hours
}

// SessionsBetween returns sessions with from <= date <= to, oldest first.
func (s *State) SessionsBetween(from, to string) []Session {
	var out []Session
	for _, sess := range s.Sessions {
		if sess.Date >= from && sess.Date <= to {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
