// Package throttle is the single gate every user-visible notification passes
// through: a per-category cooldown plus a global cap per calendar day.
package throttle

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/kv"
)

type Category string

const (
	Streak          Category = "streak"
	DailyGoal       Category = "daily_goal"
	Morning         Category = "morning"
	Evening         Category = "evening"
	StreakRisk      Category = "streak_risk"
	ChapterComplete Category = "chapter_complete"
	ExamCountdown   Category = "exam_countdown"
	GrammarMastery  Category = "grammar_mastery"
	StudyBlock      Category = "study_block"
	RevisionDue     Category = "revision_due"
	BreakDone       Category = "break_done"
)

// DailyCap is the maximum number of notifications delivered per calendar day.
const DailyCap = 8

// Cooldowns per category. Categories not listed only count towards DailyCap.
var Cooldowns = map[Category]time.Duration{
	Streak:          24 * time.Hour,
	DailyGoal:       24 * time.Hour,
	Morning:         24 * time.Hour,
	Evening:         24 * time.Hour,
	StreakRisk:      24 * time.Hour,
	ChapterComplete: 30 * time.Minute,
	ExamCountdown:   12 * time.Hour,
}

const (
	lastSentPrefix = "throttle:last:"
	dailyKey       = "throttle:daily"
)

type Throttle struct {
	mu    sync.Mutex
	store kv.Store
	clock clock.Clock
	cap   int
}

func New(store kv.Store, clk clock.Clock) *Throttle {
	return &Throttle{store: store, clock: clk, cap: DailyCap}
}

// Throttle checks and records in one step. It returns true when the caller
// may deliver the notification.
func (t *Throttle) Throttle(c Category) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.canSend(c) {
		return false
	}
	t.recordSent(c)
	return true
}

func (t *Throttle) CanSend(c Category) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canSend(c)
}

func (t *Throttle) RecordSent(c Category) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recordSent(c)
}

// SentToday reports the daily counter for the current date.
func (t *Throttle) SentToday() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	day, n := t.daily()
	if day != clock.DayKey(t.clock.Now()) {
		return 0
	}
	return n
}

func (t *Throttle) canSend(c Category) bool {
	now := t.clock.Now()
	if cd, ok := Cooldowns[c]; ok {
		if last, ok := t.lastSent(c); ok && now.Sub(last) < cd {
			return false
		}
	}
	day, n := t.daily()
	if day == clock.DayKey(now) && n >= t.cap {
		return false
	}
	return true
}

func (t *Throttle) recordSent(c Category) {
	now := t.clock.Now()
	if err := t.store.Set(lastSentPrefix+string(c), now.Format(time.RFC3339Nano)); err != nil {
		log.Printf("throttle: record %s: %v", c, err)
	}
	today := clock.DayKey(now)
	day, n := t.daily()
	if day != today {
		n = 0
	}
	n++
	if err := t.store.Set(dailyKey, fmt.Sprintf("%s|%d", today, n)); err != nil {
		log.Printf("throttle: record daily count: %v", err)
	}
}

// lastSent treats unreadable or missing timestamps as "never sent".
func (t *Throttle) lastSent(c Category) (time.Time, bool) {
	v, err := t.store.Get(lastSentPrefix + string(c))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("throttle: read %s: %v", c, err)
		}
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (t *Throttle) daily() (string, int) {
	v, err := t.store.Get(dailyKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.Printf("throttle: read daily count: %v", err)
		}
		return "", 0
	}
	day, count, ok := strings.Cut(v, "|")
	if !ok {
		return "", 0
	}
	n, err := strconv.Atoi(count)
	if err != nil {
		return "", 0
	}
	return day, n
}
