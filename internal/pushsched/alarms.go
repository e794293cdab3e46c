// Package pushsched turns the day plan and exam calendar into alarms armed
// at absolute times, re-armed every midnight.
package pushsched

import (
	"sort"
	"strconv"
	"time"

	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/throttle"
)

// ExamWindowDays is how far ahead exam countdowns start.
const ExamWindowDays = 3

// EveningLead is how long before sleep the evening check fires.
const EveningLead = 60 * time.Minute

type Alarm struct {
	At       time.Time
	Category throttle.Category
	Params   map[string]string
}

// Input is what today's alarms are computed from.
type Input struct {
	Now          time.Time
	Blocks       []planner.Block
	Exams        []planner.Exam
	Routine      planner.Routine
	DueRevisions int
	LeadMinutes  int // extra reminder before each study block, 0 for none
}

// Alarms lists the future alarms for the day of in.Now, ordered by time.
// Nothing at or before Now is returned.
func Alarms(in Input) []Alarm {
	now := in.Now
	day := clock.StartOfDay(now)
	today := clock.DayKey(now)
	var out []Alarm
	add := func(at time.Time, c throttle.Category, params map[string]string) {
		if at.After(now) {
			out = append(out, Alarm{At: at, Category: c, Params: params})
		}
	}

	var study []planner.Block
	for _, b := range in.Blocks {
		if b.Type == planner.BlockStudy {
			study = append(study, b)
		}
	}
	for _, b := range study {
		start := b.Start.On(day)
		params := map[string]string{
			"subject": planner.SubjectName(b.SubjectKey),
			"label":   b.Label,
			"start":   b.Start.String(),
		}
		add(start, throttle.StudyBlock, params)
		if in.LeadMinutes > 0 {
			add(start.Add(-time.Duration(in.LeadMinutes)*time.Minute), throttle.StudyBlock, params)
		}
	}

	wake := in.Routine.Wake.Normalize().On(day)
	morning := map[string]string{"blocks": strconv.Itoa(len(study)), "first": "free study"}
	if len(study) > 0 {
		morning["first"] = study[0].Label
	}
	add(wake, throttle.Morning, morning)

	if in.DueRevisions > 0 {
		add(wake.Add(30*time.Minute), throttle.RevisionDue, map[string]string{"count": strconv.Itoa(in.DueRevisions)})
	}

	// an exam alarm that would have been at wake goes out shortly instead
	examAt := wake
	if !examAt.After(now) {
		examAt = now.Add(time.Minute)
	}
	for _, e := range in.Exams {
		days, err := clock.DaysBetween(today, e.Date)
		if err != nil || days < 0 || days > ExamWindowDays {
			continue
		}
		add(examAt, throttle.ExamCountdown, map[string]string{
			"subject": planner.SubjectName(e.Subject),
			"days":    strconv.Itoa(days),
		})
	}

	sleep := in.Routine.Sleep.Normalize()
	if sleep > in.Routine.Wake.Normalize() {
		add(sleep.On(day).Add(-EveningLead), throttle.Evening, nil)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
