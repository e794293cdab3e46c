package pushsched

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/throttle"
)

const (
	planTag     = "plan"
	midnightTag = "midnight"
)

// Sender delivers an alarm; notify.Gate satisfies it.
type Sender interface {
	Send(c throttle.Category, params map[string]string) bool
}

// Status is read when an evening alarm fires, to pick between a wrap-up and
// a streak warning.
type Status struct {
	HoursToday float64
	Streak     int
}

// Scheduler arms today's alarms on a gocron scheduler.
type Scheduler struct {
	mu     sync.Mutex
	cron   *gocron.Scheduler
	send   Sender
	source func() (Input, error)
	status func() Status
	clk    clock.Clock
}

// New builds a scheduler. source supplies today's plan input; Now is filled
// in from clk. status may be nil.
func New(send Sender, source func() (Input, error), status func() Status, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.Real{}
	}
	if status == nil {
		status = func() Status { return Status{} }
	}
	return &Scheduler{
		cron:   gocron.NewScheduler(time.Local),
		send:   send,
		source: source,
		status: status,
		clk:    clk,
	}
}

// Start arms today's alarms plus the midnight job that re-arms them, and
// starts the scheduler in the background.
func (s *Scheduler) Start() error {
	if _, err := s.cron.Every(1).Day().At("00:00:05").Tag(midnightTag).Do(s.rearmLogged); err != nil {
		return fmt.Errorf("schedule midnight rearm: %w", err)
	}
	if _, err := s.Rearm(); err != nil {
		return err
	}
	s.cron.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) rearmLogged() {
	if n, err := s.Rearm(); err != nil {
		log.Printf("pushsched: rearm: %v", err)
	} else {
		log.Printf("pushsched: armed %d alarms", n)
	}
}

// Rearm cancels every plan alarm and schedules today's again. Calling it
// repeatedly leaves exactly one set armed.
func (s *Scheduler) Rearm() (int, error) {
	in, err := s.source()
	if err != nil {
		return 0, fmt.Errorf("build alarm input: %w", err)
	}
	in.Now = s.clk.Now()
	alarms := Alarms(in)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.clearPlan(); err != nil {
		log.Printf("pushsched: %v", err)
	}

	for _, a := range alarms {
		_, err := s.cron.Every(1).Day().
			At(a.At.Format("15:04:05")).
			LimitRunsTo(1).
			Tag(planTag).
			Do(s.fire, a)
		if err != nil {
			return 0, fmt.Errorf("arm %s alarm at %s: %w", a.Category, a.At.Format("15:04"), err)
		}
	}
	return len(alarms), nil
}

// clearPlan drops every plan alarm. Having none armed is not an error.
// Callers hold s.mu.
func (s *Scheduler) clearPlan() error {
	err := s.cron.RemoveByTag(planTag)
	if err != nil && !errors.Is(err, gocron.ErrJobNotFoundWithTag) {
		return fmt.Errorf("remove plan alarms: %w", err)
	}
	return nil
}

// Armed returns how many plan alarms are scheduled.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, j := range s.cron.Jobs() {
		for _, t := range j.Tags() {
			if t == planTag {
				n++
				break
			}
		}
	}
	return n
}

func (s *Scheduler) fire(a Alarm) {
	c, params := s.resolve(a)
	s.send.Send(c, params)
}

// resolve fills in the evening alarm from the current status.
func (s *Scheduler) resolve(a Alarm) (throttle.Category, map[string]string) {
	if a.Category != throttle.Evening {
		return a.Category, a.Params
	}
	st := s.status()
	if st.HoursToday == 0 && st.Streak > 0 {
		return throttle.StreakRisk, map[string]string{"streak": strconv.Itoa(st.Streak)}
	}
	return throttle.Evening, map[string]string{"hours": fmt.Sprintf("%.1f", st.HoursToday)}
}
