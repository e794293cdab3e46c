package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studyplan/internal/ai"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/export"
	"github.com/sadopc/studyplan/internal/notify"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/store"
	"github.com/sadopc/studyplan/internal/tracker"
)

// Deps are the collaborators the views drive. Notes, AI and OnSettingsSaved
// are optional.
type Deps struct {
	Store   *store.Store
	State   *state.Container
	Tracker *tracker.Tracker
	Planner *planner.Planner
	Gate    *notify.Gate
	Notes   *notify.Queue
	AI      *ai.Service

	OnSettingsSaved func(store.Settings)
}

var exportFormats = []string{"CSV", "JSON", "XLSX"}

// App is the root Bubble Tea model.
type App struct {
	deps   Deps
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	today    dashboardModel
	timer    pomodoroModel
	subjects subjectsModel
	reports  reportsModel
	settings settingsModel

	help   help.Model
	status string
	toast  []notify.Note
}

func NewApp(d Deps) App {
	h := help.New()
	h.ShowAll = false

	cfg := d.Store.LoadSettings()
	return App{
		deps:       d,
		activeView: viewToday,
		today:      newDashboardModel(d),
		timer:      newPomodoroModel(d, cfg.Preset()),
		subjects:   newSubjectsModel(d),
		reports:    newReportsModel(d),
		settings:   newSettingsModel(d),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.loadState(),
		clockCmd(),
		a.waitForNotes(),
	)
}

func clockCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

func (a App) loadState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg{st: a.deps.State.Snapshot()}
	}
}

// waitForNotes blocks until the queue has something to show.
func (a App) waitForNotes() tea.Cmd {
	if a.deps.Notes == nil {
		return nil
	}
	q := a.deps.Notes
	return func() tea.Msg {
		<-q.Ready()
		return notesMsg(q.Drain())
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.timer.setSize(a.width, contentHeight)
		a.subjects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (form, drill answer), delegate first.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewToday
			return a, a.loadState()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewSubjects
			return a, a.loadState()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case stateMsg:
		a.today = a.today.setState(msg.st)
		a.timer = a.timer.setState(msg.st)
		a.subjects = a.subjects.setState(msg.st)
		return a, nil

	case clockMsg:
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		return a, tea.Batch(cmd, clockCmd())

	case timerTickMsg:
		var cmd tea.Cmd
		a.timer, cmd = a.timer.update(msg)
		return a, cmd

	case startTopicMsg:
		a.activeView = viewTimer
		var cmd tea.Cmd
		a.timer, cmd = a.timer.update(msg)
		return a, cmd

	case sessionLoggedMsg:
		a.status = msg.text
		return a.Update(stateMsg{st: msg.st})

	case notesMsg:
		a.toast = []notify.Note(msg)
		if n := len(a.toast); n > 0 {
			a.status = a.toast[n-1].Title + " \a"
		}
		return a, a.waitForNotes()

	case statusMsg:
		a.status = msg.text
		if msg.isError {
			a.status = errorStyle.Render(msg.text)
		}
		return a, nil

	case settingsSavedMsg:
		a.deps.Planner.SetPolicy(msg.settings.Policy)
		a.timer = a.timer.setPreset(msg.settings.Preset())
		if a.deps.OnSettingsSaved != nil {
			a.deps.OnSettingsSaved(msg.settings)
		}
		a.status = "Settings saved"
		return a, tea.Batch(a.loadState(), a.settings.refresh())

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewTimer:
		a.timer, cmd = a.timer.update(msg)
	case viewSubjects:
		a.subjects, cmd = a.subjects.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewToday:
		return a.today.capturing()
	case viewSubjects:
		return a.subjects.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday, viewSubjects:
		return a.loadState()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewTimer:
		content = a.timer.view()
	case viewSubjects:
		content = a.subjects.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	} else if toast := a.renderToast(); toast != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, toast, content)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorInk).Render("studyplan")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" ") + a.status
	}

	// Countdown indicator while a session is running in the background
	timerInfo := ""
	if a.timer.running() {
		timerInfo = successStyle.Render(" ● " + formatCountdown(a.timer.remaining()))
	} else if a.timer.started() {
		timerInfo = warningStyle.Render(" ⏸ " + formatCountdown(a.timer.remaining()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

// renderToast shows the latest celebration above the latest notification.
func (a App) renderToast() string {
	var cheer, note *notify.Note
	for i := range a.toast {
		if a.toast[i].Tag == celebrateTag {
			cheer = &a.toast[i]
		} else {
			note = &a.toast[i]
		}
	}
	var parts []string
	if cheer != nil {
		parts = append(parts, celebrateStyle.Render(titleStyle.Render(cheer.Title)+"\n"+cheer.Body))
	}
	if note != nil {
		parts = append(parts, toastStyle.Render(titleStyle.Render(note.Title)+"\n"+note.Body))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		home, _ := os.UserHomeDir()
		return a, a.doExport(a.exportCursor, home)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the session log from the live document, so sessions not
// yet flushed to the database are included.
func (a App) doExport(format int, dir string) tea.Cmd {
	return func() tea.Msg {
		st := a.deps.State.Snapshot()
		base := filepath.Join(dir, "studyplan-export-"+clock.DayKey(a.deps.State.Clock().Now()))

		var path string
		var err error
		switch format {
		case 0:
			path = base + ".csv"
			err = export.ToCSV(st.Sessions, path)
		case 1:
			path = base + ".json"
			err = export.ToJSON(st.Sessions, path)
		default:
			path = base + ".xlsx"
			err = export.ToXLSX(st.Sessions, st.StudyLog, path)
		}
		if err != nil {
			return statusMsg{text: fmt.Sprintf("%s export error: %v", exportFormats[min(format, len(exportFormats)-1)], err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}
