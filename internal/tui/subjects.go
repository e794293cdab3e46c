package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
)

type subjectForm int

const (
	formNone subjectForm = iota
	formStatus
	formChapter
	formExam
)

var statusLabels = map[planner.ChapterStatus]string{
	planner.NotStarted:    "Not started",
	planner.InProgress:    "In progress",
	planner.Completed:     "Completed",
	planner.NeedsRevision: "Needs revision",
}

var statusOrder = []planner.ChapterStatus{planner.NotStarted, planner.InProgress, planner.Completed, planner.NeedsRevision}

type subjectsModel struct {
	deps   Deps
	width  int
	height int

	st         *state.State
	keys       []string
	subjectIdx int
	chapterIdx int

	formActive bool
	formKind   subjectForm
	form       *huh.Form

	// Form values as pointers (survive value copies)
	status  *string
	chapter *string
	examDay *string
}

func newSubjectsModel(d Deps) subjectsModel {
	st, ch, ex := "", "", ""
	return subjectsModel{deps: d, status: &st, chapter: &ch, examDay: &ex}
}

func (s *subjectsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s subjectsModel) setState(st *state.State) subjectsModel {
	s.st = st
	s.keys = st.Subjects.Keys()
	if s.subjectIdx >= len(s.keys) {
		s.subjectIdx = 0
	}
	if n := len(s.chapters()); s.chapterIdx >= n {
		s.chapterIdx = max(n-1, 0)
	}
	return s
}

func (s subjectsModel) selected() (planner.Subject, bool) {
	if s.st == nil || len(s.keys) == 0 {
		return planner.Subject{}, false
	}
	subj, ok := s.st.Subjects[s.keys[s.subjectIdx]]
	return subj, ok
}

func (s subjectsModel) chapters() []planner.Chapter {
	subj, _ := s.selected()
	return subj.Chapters
}

func (s subjectsModel) update(msg tea.Msg) (subjectsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch {
	case key.Matches(km, keys.Left):
		if len(s.keys) > 0 {
			s.subjectIdx = (s.subjectIdx + len(s.keys) - 1) % len(s.keys)
			s.chapterIdx = 0
		}
	case key.Matches(km, keys.Right):
		if len(s.keys) > 0 {
			s.subjectIdx = (s.subjectIdx + 1) % len(s.keys)
			s.chapterIdx = 0
		}
	case key.Matches(km, keys.Up):
		if s.chapterIdx > 0 {
			s.chapterIdx--
		}
	case key.Matches(km, keys.Down):
		if s.chapterIdx < len(s.chapters())-1 {
			s.chapterIdx++
		}
	case key.Matches(km, keys.Enter):
		return s.showStatusForm()
	case key.Matches(km, keys.New):
		return s.showChapterForm()
	case key.Matches(km, keys.Exam):
		return s.showExamForm()
	case key.Matches(km, keys.Difficulty):
		subj, ok := s.selected()
		if !ok {
			return s, nil
		}
		level := subj.Difficulty%5 + 1
		return s, s.apply(func() error { return s.deps.Tracker.SetDifficulty(subj.Key, level) })
	case key.Matches(km, keys.Start):
		subj, ok := s.selected()
		if !ok {
			return s, nil
		}
		chapter := ""
		if chs := s.chapters(); len(chs) > 0 {
			chapter = chs[s.chapterIdx].Name
		}
		return s, func() tea.Msg { return startTopicMsg{subject: subj.Key, chapter: chapter} }
	}
	return s, nil
}

// apply runs a tracker mutation and reloads the document.
func (s subjectsModel) apply(fn func() error) tea.Cmd {
	c := s.deps.State
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errStatus("Update failed", err)
		}
		return stateMsg{st: c.Snapshot()}
	}
}

func (s subjectsModel) showStatusForm() (subjectsModel, tea.Cmd) {
	chs := s.chapters()
	if len(chs) == 0 {
		return s, nil
	}
	cur := chs[s.chapterIdx].Status
	var opts []huh.Option[string]
	for _, to := range statusOrder {
		if to != cur && planner.CanTransition(cur, to) {
			opts = append(opts, huh.NewOption(statusLabels[to], string(to)))
		}
	}
	if len(opts) == 0 {
		return s, func() tea.Msg { return statusMsg{text: "No further status for this chapter"} }
	}
	*s.status = opts[0].Value

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(chs[s.chapterIdx].Name).
				Options(opts...).
				Value(s.status),
		),
	).WithShowHelp(true)
	s.formKind = formStatus
	s.formActive = true
	return s, s.form.Init()
}

func (s subjectsModel) showChapterForm() (subjectsModel, tea.Cmd) {
	subj, ok := s.selected()
	if !ok {
		return s, nil
	}
	*s.chapter = ""
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New chapter in " + subj.Name).
				Value(s.chapter).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	s.formKind = formChapter
	s.formActive = true
	return s, s.form.Init()
}

func (s subjectsModel) showExamForm() (subjectsModel, tea.Cmd) {
	subj, ok := s.selected()
	if !ok {
		return s, nil
	}
	*s.examDay = ""
	for _, e := range s.st.Exams {
		if e.Subject == subj.Key {
			*s.examDay = e.Date
		}
	}
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(subj.Name + " exam date").
				Placeholder("YYYY-MM-DD").
				Value(s.examDay).
				Validate(func(v string) error {
					_, err := clock.ParseDayKey(strings.TrimSpace(v), nil)
					return err
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)
	s.formKind = formExam
	s.formActive = true
	return s, s.form.Init()
}

func (s subjectsModel) updateForm(msg tea.Msg) (subjectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		return s, s.submit()
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func (s subjectsModel) submit() tea.Cmd {
	subj, ok := s.selected()
	if !ok {
		return nil
	}
	tr := s.deps.Tracker
	switch s.formKind {
	case formStatus:
		chapter := s.chapters()[s.chapterIdx].Name
		to := planner.ChapterStatus(*s.status)
		return s.apply(func() error { return tr.SetChapterStatus(subj.Key, chapter, to) })
	case formChapter:
		name := strings.TrimSpace(*s.chapter)
		return s.apply(func() error { return tr.AddChapter(subj.Key, name) })
	case formExam:
		day := strings.TrimSpace(*s.examDay)
		return s.apply(func() error { return tr.SetExam(subj.Key, day) })
	}
	return nil
}

func (s subjectsModel) view() string {
	w := s.width - 4
	if s.st == nil {
		return mutedStyle.Render("Loading...")
	}

	if s.formActive && s.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Subjects"), "", s.form.View()),
		)
	}

	listWidth := w * 2 / 5
	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.renderSubjectList(listWidth),
		s.renderChapters(w-listWidth),
	)
}

func (s subjectsModel) renderSubjectList(w int) string {
	rows := []string{titleStyle.Render("Subjects"), ""}
	today := clock.DayKey(s.deps.State.Clock().Now())
	exams := make(map[string]string)
	for _, e := range s.st.Exams {
		exams[e.Subject] = e.Date
	}

	for i, k := range s.keys {
		subj := s.st.Subjects[k]
		done := 0
		for _, c := range subj.Chapters {
			if c.Status == planner.Completed {
				done++
			}
		}
		cursor := "  "
		style := normalItemStyle
		if i == s.subjectIdx {
			cursor = "> "
			style = selectedItemStyle
		}
		line := style.Render(fmt.Sprintf("%s%-22s %d/%d", cursor, subj.Name, done, len(subj.Chapters)))
		line += " " + warningStyle.Render(strings.Repeat("★", subj.Difficulty))
		if d, ok := exams[k]; ok {
			if n, err := clock.DaysBetween(today, d); err == nil && n >= 0 {
				line += accentStyle.Render(fmt.Sprintf("  %dd", n))
			}
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", mutedStyle.Render("←/→: subject  d: difficulty  x: exam date"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (s subjectsModel) renderChapters(w int) string {
	subj, _ := s.selected()
	rows := []string{titleStyle.Render(subj.Name), ""}
	if len(subj.Chapters) == 0 {
		rows = append(rows, mutedStyle.Render("No chapters yet. Press n to add one."))
	}
	for i, c := range subj.Chapters {
		cursor := "  "
		style := normalItemStyle
		if i == s.chapterIdx {
			cursor = "> "
			style = selectedItemStyle
		}
		line := fmt.Sprintf("%s%s %s", cursor, statusIcons[c.Status], style.Render(c.Name))
		if c.RevisionDate != "" {
			line += mutedStyle.Render("  revise " + c.RevisionDate)
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", mutedStyle.Render("↑/↓: chapter  enter: status  n: add  s: study"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
