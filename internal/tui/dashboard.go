package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studyplan/internal/ai"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/credits"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/tracker"
)

const aiTimeout = 45 * time.Second

// dashboardModel is the Today view: the day plan, progress and the AI
// briefing and grammar drill.
type dashboardModel struct {
	deps   Deps
	width  int
	height int

	st     *state.State
	day    string
	now    time.Time
	blocks []planner.Block
	cursor int // index into studyBlocks()

	briefing     string
	briefingBusy bool

	drill drillState
}

type drillState struct {
	next     int // next category in ai.GrammarCategories
	busy     bool
	category string
	question string
	answer   string
	result   string
}

func newDashboardModel(d Deps) dashboardModel {
	return dashboardModel{deps: d, now: d.State.Clock().Now()}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

// capturing is true while a drill question waits for an answer.
func (d dashboardModel) capturing() bool { return d.drill.question != "" }

type briefingMsg struct {
	text string
	err  error
}

type drillMsg struct {
	category string
	question string
	answer   string
	err      error
}

func (d dashboardModel) setState(st *state.State) dashboardModel {
	d.st = st
	return d.replan()
}

func (d dashboardModel) replan() dashboardModel {
	if d.st == nil {
		return d
	}
	d.day = clock.DayKey(d.now)
	blocks, err := d.deps.Planner.DayPlan(d.day, d.st.PlanInput())
	if err != nil {
		d.blocks = nil
		return d
	}
	d.blocks = blocks
	if n := len(d.studyBlocks()); d.cursor >= n {
		d.cursor = max(n-1, 0)
	}
	return d
}

func (d dashboardModel) studyBlocks() []planner.Block {
	var out []planner.Block
	for _, b := range d.blocks {
		if b.Type == planner.BlockStudy {
			out = append(out, b)
		}
	}
	return out
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case clockMsg:
		d.now = time.Time(msg)
		return d.replan(), nil

	case briefingMsg:
		d.briefingBusy = false
		if msg.err != nil {
			return d, func() tea.Msg { return errStatus("Briefing", msg.err) }
		}
		d.briefing = strings.TrimSpace(msg.text)
		return d, nil

	case drillMsg:
		d.drill.busy = false
		if msg.err != nil {
			return d, func() tea.Msg { return errStatus("Grammar", msg.err) }
		}
		if msg.answer == "" {
			return d, func() tea.Msg { return statusMsg{text: "Could not read the answer key, try again", isError: true} }
		}
		d.drill.category, d.drill.question, d.drill.answer = msg.category, msg.question, msg.answer
		d.drill.result = ""
		return d, nil

	case tea.KeyMsg:
		if d.capturing() {
			return d.answerDrill(msg)
		}
		switch {
		case key.Matches(msg, keys.Up):
			if d.cursor > 0 {
				d.cursor--
			}
		case key.Matches(msg, keys.Down):
			if d.cursor < len(d.studyBlocks())-1 {
				d.cursor++
			}
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Start):
			blocks := d.studyBlocks()
			if len(blocks) == 0 {
				return d, nil
			}
			b := blocks[d.cursor]
			return d, func() tea.Msg { return startTopicMsg{subject: b.SubjectKey, chapter: b.Chapter} }
		case key.Matches(msg, keys.Briefing):
			return d.requestBriefing()
		case key.Matches(msg, keys.Grammar):
			return d.requestDrill()
		}
	}
	return d, nil
}

func (d dashboardModel) requestBriefing() (dashboardModel, tea.Cmd) {
	if d.briefingBusy || d.st == nil {
		return d, nil
	}
	d.briefingBusy = true
	svc, msgs := d.deps.AI, ai.BriefingPrompt(d.day, d.blocks, d.st)
	return d, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
		defer cancel()
		text, err := svc.Run(ctx, credits.Briefing, msgs)
		return briefingMsg{text: text, err: err}
	}
}

func (d dashboardModel) requestDrill() (dashboardModel, tea.Cmd) {
	if d.drill.busy {
		return d, nil
	}
	d.drill.busy = true
	cat := ai.GrammarCategories[d.drill.next%len(ai.GrammarCategories)]
	d.drill.next++
	svc := d.deps.AI
	return d, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), aiTimeout)
		defer cancel()
		text, err := svc.Run(ctx, credits.GrammarQuestion, ai.GrammarPrompt(cat))
		if err != nil {
			return drillMsg{err: err}
		}
		q, a := ai.ParseAnswer(text)
		return drillMsg{category: cat, question: q, answer: a}
	}
}

func (d dashboardModel) answerDrill(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if key.Matches(msg, keys.Back) {
		d.drill.question = ""
		return d, nil
	}
	choice := strings.ToUpper(msg.String())
	if len(choice) != 1 || choice < "A" || choice > "D" {
		return d, nil
	}
	correct := choice == d.drill.answer
	cat := d.drill.category
	if correct {
		d.drill.result = successStyle.Render("Correct!")
	} else {
		d.drill.result = errorStyle.Render("Answer was " + d.drill.answer)
	}
	d.drill.question = ""
	tr, c := d.deps.Tracker, d.deps.State
	return d, func() tea.Msg {
		if err := tr.RecordGrammarAttempt(cat, correct); err != nil {
			return errStatus("Grammar", err)
		}
		return stateMsg{st: c.Snapshot()}
	}
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	if d.st == nil {
		return mutedStyle.Render("Loading...")
	}

	contentWidth := d.width - 4
	planWidth := contentWidth * 3 / 5
	sideWidth := contentWidth - planWidth

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		d.renderPlanPanel(planWidth),
		d.renderProgressPanel(sideWidth),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, d.renderAIPanel(contentWidth))
}

func (d dashboardModel) renderPlanPanel(w int) string {
	date, _ := clock.ParseDayKey(d.day, nil)
	rows := []string{titleStyle.Render("Plan · " + date.Format("Mon 02 Jan"))}

	now := clock.MinutesOf(d.now)
	studyIdx := -1
	for _, b := range d.blocks {
		if b.Type == planner.BlockStudy {
			studyIdx++
		}
		marker := "  "
		if b.Start <= now && now < b.End {
			marker = "▶ "
		}
		style, ok := blockStyles[b.Type]
		if !ok {
			style = normalItemStyle
		}
		if b.Type == planner.BlockStudy && studyIdx == d.cursor {
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s–%s  %s", marker, b.Start, b.End, b.Label)))
	}
	if len(d.studyBlocks()) == 0 {
		rows = append(rows, "", mutedStyle.Render("No study blocks today"))
	} else {
		rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("Planned %s of study", formatMinutes(planner.StudyMinutes(d.blocks)))))
		if next, ok := planner.NextStudyBlock(d.blocks, now); ok {
			rows = append(rows, highlightStyle.Render(fmt.Sprintf("Next: %s at %s", next.Label, next.Start)))
		}
	}
	rows = append(rows, "", mutedStyle.Render("enter: study selected block"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderProgressPanel(w int) string {
	st := d.st
	hours := st.HoursOn(d.day)
	rows := []string{titleStyle.Render("Progress")}

	goal := fmt.Sprintf("%s / %s", formatHours(hours), formatHours(st.TargetHours))
	if hours >= st.TargetHours {
		rows = append(rows, successStyle.Render("✓ "+goal))
	} else {
		rows = append(rows, highlightStyle.Render(goal))
	}
	rows = append(rows, fmt.Sprintf("Sessions    %d", len(st.SessionsBetween(d.day, d.day))))
	rows = append(rows, fmt.Sprintf("Streak      %s", accentStyle.Render(fmt.Sprintf("%d days", st.Streak.Count))))
	if st.Streak.RecoveryAvailable {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("Study %s today to restore %d days",
			formatHours(2*st.TargetHours), st.Streak.BeforeReset)))
	}

	done, total := st.Subjects.Progress()
	rows = append(rows, fmt.Sprintf("Chapters    %d/%d", done, total))
	if due := tracker.DueRevisions(st); due > 0 {
		rows = append(rows, warningStyle.Render(fmt.Sprintf("Revisions   %d due", due)))
	}
	rows = append(rows, fmt.Sprintf("Credits     %d", st.Credits.Balance))

	if exams := d.upcomingExams(); len(exams) > 0 {
		rows = append(rows, "", titleStyle.Render("Exams"))
		rows = append(rows, exams...)
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) upcomingExams() []string {
	type upcoming struct {
		name string
		days int
	}
	var list []upcoming
	for _, e := range d.st.Exams {
		n, err := clock.DaysBetween(d.day, e.Date)
		if err != nil || n < 0 {
			continue
		}
		list = append(list, upcoming{planner.SubjectName(e.Subject), n})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].days < list[j].days })

	var rows []string
	for _, u := range list {
		label := fmt.Sprintf("%-18s %3dd", u.name, u.days)
		if u.days <= 3 {
			label = accentStyle.Render(label)
		}
		rows = append(rows, label)
	}
	return rows
}

func (d dashboardModel) renderAIPanel(w int) string {
	title := titleStyle.Render("Coach")
	if !d.deps.AI.Available() {
		return panelStyle.Width(w).Render(title + "\n" + mutedStyle.Render("Set OPENAI_API_KEY to enable briefings and grammar drills"))
	}

	var rows []string
	rows = append(rows, title)
	switch {
	case d.drill.question != "":
		rows = append(rows, subtitleStyle.Render(strings.ReplaceAll(d.drill.category, "_", " ")), d.drill.question, "",
			mutedStyle.Render("a-d: answer  esc: skip"))
	case d.drill.busy:
		rows = append(rows, mutedStyle.Render("Writing a question..."))
	case d.briefingBusy:
		rows = append(rows, mutedStyle.Render("Preparing your briefing..."))
	case d.briefing != "":
		rows = append(rows, d.briefing)
	default:
		rows = append(rows, mutedStyle.Render("b: briefing  g: grammar drill"))
	}
	if d.drill.result != "" && d.drill.question == "" {
		rows = append(rows, d.drill.result)
	}
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
