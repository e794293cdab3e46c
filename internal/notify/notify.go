// Package notify delivers user-visible alerts. Everything that wants to
// interrupt the student goes through a Gate, which checks preferences and the
// throttle before handing copy to a Notifier.
package notify

import (
	"log"
	"strconv"
	"sync"

	"github.com/sadopc/studyplan/internal/messages"
	"github.com/sadopc/studyplan/internal/throttle"
)

// Notifier shows a notification. Delivery is best effort.
type Notifier interface {
	Notify(title, body, tag string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(title, body, tag string)

func (f NotifierFunc) Notify(title, body, tag string) { f(title, body, tag) }

// Prefs are the per-group switches. A missing setting means enabled.
type Prefs struct {
	StudyReminders bool
	ExamAlerts     bool
	RevisionDue    bool
	Milestones     bool
}

// Setting keys for Prefs.
const (
	KeyStudyReminders = "notify_study_reminders"
	KeyExamAlerts     = "notify_exam_alerts"
	KeyRevisionDue    = "notify_revision_due"
	KeyMilestones     = "notify_milestones"
)

func AllEnabled() Prefs {
	return Prefs{StudyReminders: true, ExamAlerts: true, RevisionDue: true, Milestones: true}
}

// LoadPrefs reads prefs through get. Keys that are missing or unreadable
// stay enabled.
func LoadPrefs(get func(key string) (string, error)) Prefs {
	flag := func(key string) bool {
		v, err := get(key)
		if err != nil {
			return true
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return true
		}
		return b
	}
	return Prefs{
		StudyReminders: flag(KeyStudyReminders),
		ExamAlerts:     flag(KeyExamAlerts),
		RevisionDue:    flag(KeyRevisionDue),
		Milestones:     flag(KeyMilestones),
	}
}

// Allows maps a throttle category onto its preference group.
func (p Prefs) Allows(c throttle.Category) bool {
	switch c {
	case throttle.ExamCountdown:
		return p.ExamAlerts
	case throttle.RevisionDue:
		return p.RevisionDue
	case throttle.Streak, throttle.DailyGoal, throttle.ChapterComplete, throttle.GrammarMastery:
		return p.Milestones
	default:
		return p.StudyReminders
	}
}

// Gate is the single path to the user: prefs, then throttle, then copy.
type Gate struct {
	prefs func() Prefs
	thr   *throttle.Throttle
	bank  *messages.Bank
	out   Notifier
}

// NewGate wires a gate. A nil prefs func means everything is enabled.
func NewGate(thr *throttle.Throttle, bank *messages.Bank, out Notifier, prefs func() Prefs) *Gate {
	if prefs == nil {
		prefs = AllEnabled
	}
	return &Gate{prefs: prefs, thr: thr, bank: bank, out: out}
}

// Send delivers a message for category and reports whether it went out.
// A disabled category never consumes throttle budget.
func (g *Gate) Send(c throttle.Category, params map[string]string) bool {
	if !g.prefs().Allows(c) {
		return false
	}
	if !g.thr.Throttle(c) {
		return false
	}
	m := g.bank.Pick(string(c), params)
	g.out.Notify(m.Title, m.Body, string(c))
	return true
}

// Log writes notifications to the standard logger.
type Log struct{}

func (Log) Notify(title, body, tag string) {
	log.Printf("notify [%s] %s: %s", tag, title, body)
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

func (m Multi) Notify(title, body, tag string) {
	for _, n := range m {
		n.Notify(title, body, tag)
	}
}

// Note is one queued notification.
type Note struct {
	Title string
	Body  string
	Tag   string
}

// Queue buffers notifications for the TUI to display. When full, the oldest
// undelivered note is dropped.
type Queue struct {
	mu    sync.Mutex
	notes []Note
	limit int
	ch    chan struct{}
}

func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 16
	}
	return &Queue{limit: limit, ch: make(chan struct{}, 1)}
}

func (q *Queue) Notify(title, body, tag string) {
	q.mu.Lock()
	q.notes = append(q.notes, Note{Title: title, Body: body, Tag: tag})
	if len(q.notes) > q.limit {
		q.notes = q.notes[len(q.notes)-q.limit:]
	}
	q.mu.Unlock()
	select {
	case q.ch <- struct{}{}:
	default:
	}
}

// Ready is signalled after a note is queued.
func (q *Queue) Ready() <-chan struct{} { return q.ch }

// Drain returns and clears the queued notes.
func (q *Queue) Drain() []Note {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notes
	q.notes = nil
	return out
}
