package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/studyplan/internal/notify"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/store"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewTimer
	viewSubjects
	viewReports
	viewSettings
)

var viewNames = []string{"Today", "Timer", "Subjects", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

func errStatus(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

// stateMsg carries a fresh snapshot of the document to every view.
type stateMsg struct {
	st *state.State
}

// clockMsg refreshes the time-of-day dependent parts of the Today view.
type clockMsg time.Time

// timerTickMsg is only honoured when gen matches the running timer's
// generation, so ticks armed before a pause or reset are dropped.
type timerTickMsg struct {
	gen int
}

// startTopicMsg asks the timer to study subject/chapter.
type startTopicMsg struct {
	subject string
	chapter string
}

type sessionLoggedMsg struct {
	text string
	st   *state.State
}

type notesMsg []notify.Note

type settingsSavedMsg struct {
	settings store.Settings
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
