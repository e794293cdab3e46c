// Package timer implements the work/break countdown used for study sessions.
package timer

import (
	"context"
	"time"
)

type Phase int

const (
	PhaseWork Phase = iota
	PhaseBreak
)

var phaseNames = map[Phase]string{
	PhaseWork:  "WORK",
	PhaseBreak: "BREAK",
}

func (p Phase) String() string { return phaseNames[p] }

// Event is what a tick produced.
type Event int

const (
	EventNone Event = iota
	EventWorkDone
	EventBreakDone
)

type Preset struct {
	Name         string
	WorkMinutes  int
	BreakMinutes int
}

var (
	Pomodoro = Preset{Name: "pomodoro", WorkMinutes: 25, BreakMinutes: 5}
	Deep     = Preset{Name: "deep", WorkMinutes: 50, BreakMinutes: 10}
)

// Custom returns a user-defined preset. Non-positive values fall back to the
// pomodoro lengths.
func Custom(work, brk int) Preset {
	if work <= 0 {
		work = Pomodoro.WorkMinutes
	}
	if brk <= 0 {
		brk = Pomodoro.BreakMinutes
	}
	return Preset{Name: "custom", WorkMinutes: work, BreakMinutes: brk}
}

// PresetByName resolves a stored preset name; custom uses work/brk.
func PresetByName(name string, work, brk int) Preset {
	switch name {
	case Deep.Name:
		return Deep
	case "custom":
		return Custom(work, brk)
	default:
		return Pomodoro
	}
}

// Engine is the countdown state. It is not safe for concurrent use; a single
// owner drives it.
type Engine struct {
	preset Preset

	Phase        Phase
	Seconds      int
	TotalSeconds int
	Running      bool
	Subject      string
	Chapter      string
}

func New(p Preset) *Engine {
	e := &Engine{}
	e.SetPreset(p)
	return e
}

func (e *Engine) Preset() Preset { return e.preset }

// SetPreset switches preset and starts over in the work phase. Any
// in-progress count is discarded.
func (e *Engine) SetPreset(p Preset) {
	e.preset = p
	e.Reset()
}

// Reset returns to a paused work phase with a full countdown.
func (e *Engine) Reset() {
	e.Phase = PhaseWork
	e.TotalSeconds = e.preset.WorkMinutes * 60
	e.Seconds = e.TotalSeconds
	e.Running = false
}

func (e *Engine) Start() { e.Running = true }
func (e *Engine) Pause() { e.Running = false }

func (e *Engine) Toggle() { e.Running = !e.Running }

// SetTopic records what the current session is spent on.
func (e *Engine) SetTopic(subject, chapter string) {
	e.Subject, e.Chapter = subject, chapter
}

// Tick advances one second. A paused engine does not move.
func (e *Engine) Tick() Event {
	if !e.Running {
		return EventNone
	}
	if e.Seconds > 1 {
		e.Seconds--
		return EventNone
	}
	switch e.Phase {
	case PhaseWork:
		e.Phase = PhaseBreak
		e.TotalSeconds = e.preset.BreakMinutes * 60
		e.Seconds = e.TotalSeconds
		return EventWorkDone
	default:
		e.Phase = PhaseWork
		e.TotalSeconds = e.preset.WorkMinutes * 60
		e.Seconds = e.TotalSeconds
		e.Running = false
		return EventBreakDone
	}
}

// Elapsed is the time spent in the current phase.
func (e *Engine) Elapsed() time.Duration {
	return time.Duration(e.TotalSeconds-e.Seconds) * time.Second
}

// Remaining is the time left in the current phase.
func (e *Engine) Remaining() time.Duration {
	return time.Duration(e.Seconds) * time.Second
}

// Run ticks e every interval until ctx is done or the engine stops running.
// The ticker is stopped on every return path. onEvent sees every non-empty
// event and may be nil.
func Run(ctx context.Context, e *Engine, interval time.Duration, onEvent func(Event)) {
	if !e.Running {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ev := e.Tick()
			if ev != EventNone && onEvent != nil {
				onEvent(ev)
			}
			if !e.Running {
				return
			}
		}
	}
}
