package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/throttle"
	"github.com/sadopc/studyplan/internal/timer"
)

var presetCycle = []string{timer.Pomodoro.Name, timer.Deep.Name, "custom"}

// pomodoroModel is the study timer view. The engine is shared by value
// copies of the model; gen invalidates ticks armed before a pause or reset.
type pomodoroModel struct {
	deps   Deps
	width  int
	height int

	engine *timer.Engine
	gen    int

	subjects   []string
	subjectIdx int
	chapters   []string // "" means the subject in general
	chapterIdx int
	st         *state.State
}

func newPomodoroModel(d Deps, p timer.Preset) pomodoroModel {
	return pomodoroModel{deps: d, engine: timer.New(p)}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pomodoroModel) running() bool { return p.engine.Running }

// started reports whether the current phase has begun counting.
func (p pomodoroModel) started() bool {
	return p.engine.Seconds < p.engine.TotalSeconds || p.engine.Phase == timer.PhaseBreak
}

func (p pomodoroModel) remaining() time.Duration { return p.engine.Remaining() }

func (p pomodoroModel) tickCmd() tea.Cmd {
	gen := p.gen
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{gen: gen}
	})
}

func (p pomodoroModel) setState(st *state.State) pomodoroModel {
	p.st = st
	p.subjects = st.Subjects.Keys()
	if p.engine.Subject != "" {
		for i, k := range p.subjects {
			if k == p.engine.Subject {
				p.subjectIdx = i
			}
		}
	}
	if p.subjectIdx >= len(p.subjects) {
		p.subjectIdx = 0
	}
	return p.loadChapters()
}

func (p pomodoroModel) loadChapters() pomodoroModel {
	p.chapters = []string{""}
	if p.st != nil && len(p.subjects) > 0 {
		for _, c := range p.st.Subjects[p.subjects[p.subjectIdx]].Unfinished() {
			p.chapters = append(p.chapters, c.Name)
		}
	}
	p.chapterIdx = 0
	for i, c := range p.chapters {
		if c == p.engine.Chapter {
			p.chapterIdx = i
		}
	}
	if p.started() {
		return p
	}
	return p.applyTopic()
}

func (p pomodoroModel) applyTopic() pomodoroModel {
	if len(p.subjects) == 0 {
		return p
	}
	p.engine.SetTopic(p.subjects[p.subjectIdx], p.chapters[p.chapterIdx])
	return p
}

// setPreset switches the countdown length. A running session is dropped.
func (p pomodoroModel) setPreset(pr timer.Preset) pomodoroModel {
	if pr == p.engine.Preset() {
		return p
	}
	p.engine.SetPreset(pr)
	p.gen++
	return p
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		if msg.gen != p.gen || !p.engine.Running {
			return p, nil
		}
		var cmd tea.Cmd
		switch p.engine.Tick() {
		case timer.EventWorkDone:
			cmd = p.logSession()
		case timer.EventBreakDone:
			cmd = p.breakDone()
		}
		if p.engine.Running {
			return p, tea.Batch(cmd, p.tickCmd())
		}
		return p, cmd

	case startTopicMsg:
		if p.started() {
			return p, func() tea.Msg { return statusMsg{text: "Finish or reset the current session first", isError: true} }
		}
		p.engine.SetTopic(msg.subject, msg.chapter)
		if p.st != nil {
			p = p.setState(p.st)
		}
		return p.toggle()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start), key.Matches(msg, keys.Pause):
			return p.toggle()
		case key.Matches(msg, keys.Reset):
			p.engine.Reset()
			p.gen++
			return p, func() tea.Msg { return statusMsg{text: "Timer reset"} }
		case key.Matches(msg, keys.Preset):
			return p.cyclePreset()
		}
		if p.started() {
			return p, nil
		}
		switch {
		case key.Matches(msg, keys.Left):
			if len(p.subjects) > 0 {
				p.subjectIdx = (p.subjectIdx + len(p.subjects) - 1) % len(p.subjects)
				p.engine.Chapter = ""
				return p.loadChapters(), nil
			}
		case key.Matches(msg, keys.Right):
			if len(p.subjects) > 0 {
				p.subjectIdx = (p.subjectIdx + 1) % len(p.subjects)
				p.engine.Chapter = ""
				return p.loadChapters(), nil
			}
		case key.Matches(msg, keys.Up):
			if p.chapterIdx > 0 {
				p.chapterIdx--
			}
			return p.applyTopic(), nil
		case key.Matches(msg, keys.Down):
			if p.chapterIdx < len(p.chapters)-1 {
				p.chapterIdx++
			}
			return p.applyTopic(), nil
		}
	}
	return p, nil
}

func (p pomodoroModel) toggle() (pomodoroModel, tea.Cmd) {
	if p.engine.Subject == "" {
		return p, func() tea.Msg { return statusMsg{text: "Pick a subject first", isError: true} }
	}
	p.engine.Toggle()
	p.gen++
	if p.engine.Running {
		return p, p.tickCmd()
	}
	return p, nil
}

func (p pomodoroModel) cyclePreset() (pomodoroModel, tea.Cmd) {
	if p.started() {
		return p, func() tea.Msg { return statusMsg{text: "Reset the timer to change preset", isError: true} }
	}
	cur := p.engine.Preset().Name
	next := presetCycle[0]
	for i, name := range presetCycle {
		if name == cur {
			next = presetCycle[(i+1)%len(presetCycle)]
		}
	}
	cfg := p.deps.Store.LoadSettings()
	cfg.TimerPreset = next
	p = p.setPreset(cfg.Preset())
	st := p.deps.Store
	return p, func() tea.Msg {
		if err := st.SetSetting("timer_preset", next); err != nil {
			return errStatus("Save preset", err)
		}
		return statusMsg{text: "Preset: " + next}
	}
}

func (p pomodoroModel) logSession() tea.Cmd {
	subject, chapter := p.engine.Subject, p.engine.Chapter
	minutes := p.engine.Preset().WorkMinutes
	tr, c := p.deps.Tracker, p.deps.State
	return func() tea.Msg {
		if _, err := tr.LogStudy(subject, chapter, minutes); err != nil {
			return errStatus("Log session", err)
		}
		return sessionLoggedMsg{
			text: fmt.Sprintf("Logged %s of %s. Break time! \a", formatMinutes(minutes), planner.SubjectName(subject)),
			st:   c.Snapshot(),
		}
	}
}

func (p pomodoroModel) breakDone() tea.Cmd {
	gate := p.deps.Gate
	subject := planner.SubjectName(p.engine.Subject)
	return func() tea.Msg {
		if gate != nil {
			gate.Send(throttle.BreakDone, map[string]string{"subject": subject})
		}
		return statusMsg{text: "Break over \a"}
	}
}

func (p pomodoroModel) view() string {
	w := p.width - 4
	e := p.engine

	title := titleStyle.Render("Study Timer") + mutedStyle.Render("  "+e.Preset().Name+
		fmt.Sprintf(" %d/%d", e.Preset().WorkMinutes, e.Preset().BreakMinutes))

	clockStr := formatCountdown(e.Remaining())
	var timeDisplay, phaseLabel string
	switch {
	case e.Phase == timer.PhaseBreak:
		timeDisplay = successStyle.Bold(true).Width(w - 6).Align(lipgloss.Center).Render(clockStr)
		phaseLabel = successStyle.Bold(true).Render("BREAK")
	case e.Running:
		timeDisplay = timerRunningStyle.Width(w - 6).Render(clockStr)
		phaseLabel = accentStyle.Bold(true).Render("FOCUS")
	case p.started():
		timeDisplay = timerPausedStyle.Width(w - 6).Render(clockStr)
		phaseLabel = warningStyle.Render("⏸  PAUSED")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(clockStr)
		phaseLabel = mutedStyle.Render("Ready to start")
	}

	topic := mutedStyle.Render("No subject selected")
	if e.Subject != "" {
		topic = highlightStyle.Render(planner.SubjectName(e.Subject))
		if e.Chapter != "" {
			topic += mutedStyle.Render(" / " + e.Chapter)
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		p.renderProgress(w-10),
		"",
		topic,
	)

	var controls string
	if p.started() {
		controls = mutedStyle.Render("space: pause/resume  r: reset")
	} else {
		controls = mutedStyle.Render("s: start  ←/→: subject  ↑/↓: chapter  p: preset")
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (p pomodoroModel) renderProgress(w int) string {
	e := p.engine
	if e.TotalSeconds == 0 || w < 4 {
		return ""
	}
	filled := w * int(e.Elapsed()/time.Second) / e.TotalSeconds
	return successStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", w-filled))
}
