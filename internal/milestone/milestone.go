// Package milestone watches state transitions for achievements and
// celebrates each one at most once.
package milestone

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/kv"
	"github.com/sadopc/studyplan/internal/notify"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/throttle"
)

// StreakThresholds are the streak lengths worth celebrating.
var StreakThresholds = []int{7, 14, 30, 60, 100}

// GrammarMinAttempts is how many answers a perfect grammar score needs before
// it counts as mastery.
const GrammarMinAttempts = 5

const markerPrefix = "celebrated:"

// Event is one detected milestone.
type Event struct {
	Category throttle.Category
	Detail   string
	Params   map[string]string
}

// Key identifies the milestone for its one-shot marker.
func (e Event) Key() string { return markerPrefix + string(e.Category) + ":" + e.Detail }

// Celebrator shows an in-app celebration.
type Celebrator interface {
	Celebrate(e Event)
}

// Analytics records product events.
type Analytics interface {
	Capture(event string, props map[string]string)
}

// LogAnalytics writes events to the standard logger.
type LogAnalytics struct{}

func (LogAnalytics) Capture(event string, props map[string]string) {
	log.Printf("analytics %s %v", event, props)
}

type Detector struct {
	markers   kv.Store
	gate      *notify.Gate
	celebrate Celebrator
	analytics Analytics
	clk       clock.Clock
}

// New builds a detector. celebrate and analytics may be nil.
func New(markers kv.Store, gate *notify.Gate, celebrate Celebrator, analytics Analytics, clk clock.Clock) *Detector {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Detector{markers: markers, gate: gate, celebrate: celebrate, analytics: analytics, clk: clk}
}

// Observe is a state.Listener. Replaying the same pair is harmless: every
// event is marked before anything is delivered.
func (d *Detector) Observe(prev, next *state.State) {
	for _, e := range Detect(prev, next, clock.DayKey(d.clk.Now())) {
		d.fire(e)
	}
}

func (d *Detector) fire(e Event) {
	if d.celebrated(e) {
		return
	}
	if err := d.markers.Set(e.Key(), clock.DayKey(d.clk.Now())); err != nil {
		log.Printf("milestone: store marker %s: %v", e.Key(), err)
	}
	if d.celebrate != nil {
		d.celebrate.Celebrate(e)
	}
	if d.analytics != nil {
		props := map[string]string{"detail": e.Detail}
		for k, v := range e.Params {
			props[k] = v
		}
		d.analytics.Capture("milestone_"+string(e.Category), props)
	}
	if d.gate != nil {
		d.gate.Send(e.Category, e.Params)
	}
}

// celebrated treats an unreadable marker as absent.
func (d *Detector) celebrated(e Event) bool {
	_, err := d.markers.Get(e.Key())
	if err == nil {
		return true
	}
	if !errors.Is(err, kv.ErrNotFound) {
		log.Printf("milestone: read marker %s: %v", e.Key(), err)
	}
	return false
}

// Detect compares two snapshots and lists the milestones crossed between
// them, in a stable order.
func Detect(prev, next *state.State, today string) []Event {
	var out []Event
	out = append(out, chapterEvents(prev, next)...)

	for _, th := range StreakThresholds {
		if prev.Streak.Count < th && next.Streak.Count >= th {
			out = append(out, Event{
				Category: throttle.Streak,
				Detail:   strconv.Itoa(th),
				Params:   map[string]string{"streak": strconv.Itoa(next.Streak.Count)},
			})
		}
	}

	out = append(out, grammarEvents(prev, next)...)

	if target := next.TargetHours; target > 0 {
		before, after := prev.HoursOn(today), next.HoursOn(today)
		if before < target && after >= target {
			out = append(out, Event{
				Category: throttle.DailyGoal,
				Detail:   today,
				Params:   map[string]string{"hours": fmt.Sprintf("%.1f", after)},
			})
		}
	}
	return out
}

func chapterEvents(prev, next *state.State) []Event {
	var out []Event
	for _, key := range next.Subjects.Keys() {
		subj := next.Subjects[key]
		was := map[string]planner.ChapterStatus{}
		for _, c := range prev.Subjects[key].Chapters {
			was[c.Name] = c.Status
		}
		for _, c := range subj.Chapters {
			if c.Status != planner.Completed || was[c.Name] == planner.Completed {
				continue
			}
			name := subj.Name
			if name == "" {
				name = planner.SubjectName(key)
			}
			out = append(out, Event{
				Category: throttle.ChapterComplete,
				Detail:   key + "/" + c.Name,
				Params:   map[string]string{"chapter": c.Name, "subject": name},
			})
		}
	}
	return out
}

func mastered(g state.GrammarStat) bool {
	return g.Attempts >= GrammarMinAttempts && g.Correct == g.Attempts
}

func grammarEvents(prev, next *state.State) []Event {
	cats := make([]string, 0, len(next.Grammar))
	for c := range next.Grammar {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	var out []Event
	for _, c := range cats {
		g := next.Grammar[c]
		if !mastered(g) || mastered(prev.Grammar[c]) {
			continue
		}
		out = append(out, Event{
			Category: throttle.GrammarMastery,
			Detail:   c,
			Params:   map[string]string{"category": c, "attempts": strconv.Itoa(g.Attempts)},
		})
	}
	return out
}
