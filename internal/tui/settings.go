package tui

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/notify"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/store"
	"github.com/sadopc/studyplan/internal/timer"
	"github.com/sadopc/studyplan/internal/tracker"
)

// settingsValues backs the form fields. It is held by pointer so the
// bindings survive value copies of the model.
type settingsValues struct {
	Wake, Breakfast, Lunch, Snack, Dinner, Sleep string

	Target      string
	Preset      string
	CustomWork  string
	CustomBreak string

	DifficultyWeight string
	ExamWeight       string
	LeadMinutes      string

	StudyReminders bool
	ExamAlerts     bool
	RevisionDue    bool
	Milestones     bool

	SecondLanguage string
	Elective       string
}

type settingsModel struct {
	deps   Deps
	width  int
	height int

	settings   []store.Setting
	st         *state.State
	formActive bool
	form       *huh.Form
	vals       *settingsValues
}

func newSettingsModel(d Deps) settingsModel {
	return settingsModel{deps: d, vals: &settingsValues{}}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
	st       *state.State
}

func (s settingsModel) refresh() tea.Cmd {
	db, c := s.deps.Store, s.deps.State
	return func() tea.Msg {
		settings, _ := db.GetAllSettings()
		return settingsDataMsg{settings: settings, st: c.Snapshot()}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		s.st = msg.st
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

// fillValues loads the form from the stored settings and the document.
func fillValues(v *settingsValues, cfg store.Settings, prefs notify.Prefs, st *state.State) {
	r := st.Routine
	v.Wake, v.Breakfast, v.Lunch = r.Wake.String(), r.Breakfast.String(), r.Lunch.String()
	v.Snack, v.Dinner, v.Sleep = r.Snack.String(), r.Dinner.String(), r.Sleep.String()
	v.Target = strconv.FormatFloat(st.TargetHours, 'f', -1, 64)
	v.Preset = cfg.TimerPreset
	v.CustomWork = strconv.Itoa(cfg.CustomWork)
	v.CustomBreak = strconv.Itoa(cfg.CustomBreak)
	v.DifficultyWeight = strconv.FormatFloat(cfg.Policy.DifficultyWeight, 'f', -1, 64)
	v.ExamWeight = strconv.FormatFloat(cfg.Policy.ExamWeight, 'f', -1, 64)
	v.LeadMinutes = strconv.Itoa(cfg.LeadMinutes)
	v.StudyReminders, v.ExamAlerts = prefs.StudyReminders, prefs.ExamAlerts
	v.RevisionDue, v.Milestones = prefs.RevisionDue, prefs.Milestones
	v.SecondLanguage, v.Elective = st.SecondLanguage, st.Elective
}

// parseValues validates the form. base supplies the settings the form does
// not edit.
func parseValues(v *settingsValues, base store.Settings) (store.Settings, tracker.Profile, notify.Prefs, error) {
	var errs []error
	minutes := func(name, s string) clock.Minutes {
		m, err := clock.ParseMinutes(strings.TrimSpace(s))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return m
	}
	number := func(name, s string) float64 {
		f, err := parseNumber(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return f
	}

	p := tracker.Profile{
		SecondLanguage: v.SecondLanguage,
		Elective:       v.Elective,
		Routine: planner.Routine{
			Wake:      minutes("wake", v.Wake),
			Breakfast: minutes("breakfast", v.Breakfast),
			Lunch:     minutes("lunch", v.Lunch),
			Snack:     minutes("snack", v.Snack),
			Dinner:    minutes("dinner", v.Dinner),
			Sleep:     minutes("sleep", v.Sleep),
		},
		TargetHours: number("target hours", v.Target),
	}

	cfg := base
	cfg.TimerPreset = v.Preset
	cfg.CustomWork = int(number("custom work", v.CustomWork))
	cfg.CustomBreak = int(number("custom break", v.CustomBreak))
	cfg.Policy.DifficultyWeight = number("difficulty weight", v.DifficultyWeight)
	cfg.Policy.ExamWeight = number("exam weight", v.ExamWeight)
	cfg.LeadMinutes = int(number("reminder lead", v.LeadMinutes))

	prefs := notify.Prefs{
		StudyReminders: v.StudyReminders,
		ExamAlerts:     v.ExamAlerts,
		RevisionDue:    v.RevisionDue,
		Milestones:     v.Milestones,
	}
	return cfg, p, prefs, errors.Join(errs...)
}

func validTime(s string) error {
	_, err := clock.ParseMinutes(strings.TrimSpace(s))
	return err
}

var errNotPositive = errors.New("enter a positive number")

// parseNumber accepts finite, non-negative decimals. ParseFloat also reads
// "NaN" and "Inf", which no setting can store.
func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, errNotPositive
	}
	return f, nil
}

func validNumber(s string) error {
	_, err := parseNumber(s)
	return err
}

func sortedOptions(m map[string]string) []huh.Option[string] {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	opts := make([]huh.Option[string], 0, len(keys))
	for _, k := range keys {
		opts = append(opts, huh.NewOption(m[k], k))
	}
	return opts
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	st := s.st
	if st == nil {
		st = s.deps.State.Snapshot()
	}
	fillValues(s.vals, s.deps.Store.LoadSettings(), notify.LoadPrefs(s.deps.Store.GetSetting), st)
	v := s.vals

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Wake up").Value(&v.Wake).Validate(validTime),
			huh.NewInput().Title("Breakfast").Value(&v.Breakfast).Validate(validTime),
			huh.NewInput().Title("Lunch").Value(&v.Lunch).Validate(validTime),
			huh.NewInput().Title("Snack").Value(&v.Snack).Validate(validTime),
			huh.NewInput().Title("Dinner").Value(&v.Dinner).Validate(validTime),
			huh.NewInput().Title("Sleep").Value(&v.Sleep).Validate(validTime),
		).Title("Routine"),
		huh.NewGroup(
			huh.NewInput().Title("Daily target (hours)").Value(&v.Target).Validate(validNumber),
			huh.NewSelect[string]().Title("Timer preset").
				Options(
					huh.NewOption("Pomodoro 25/5", timer.Pomodoro.Name),
					huh.NewOption("Deep work 50/10", timer.Deep.Name),
					huh.NewOption("Custom", "custom"),
				).Value(&v.Preset),
			huh.NewInput().Title("Custom work (min)").Value(&v.CustomWork).Validate(validNumber),
			huh.NewInput().Title("Custom break (min)").Value(&v.CustomBreak).Validate(validNumber),
		).Title("Study"),
		huh.NewGroup(
			huh.NewInput().Title("Weak-subject weight").Value(&v.DifficultyWeight).Validate(validNumber),
			huh.NewInput().Title("Exam proximity weight").Value(&v.ExamWeight).Validate(validNumber),
			huh.NewInput().Title("Reminder lead (min)").Value(&v.LeadMinutes).Validate(validNumber),
		).Title("Planner"),
		huh.NewGroup(
			huh.NewConfirm().Title("Study reminders").Value(&v.StudyReminders),
			huh.NewConfirm().Title("Exam alerts").Value(&v.ExamAlerts),
			huh.NewConfirm().Title("Revision due").Value(&v.RevisionDue),
			huh.NewConfirm().Title("Milestones").Value(&v.Milestones),
		).Title("Notifications"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Second language").
				Options(sortedOptions(planner.SecondLanguages)...).Value(&v.SecondLanguage),
			huh.NewSelect[string]().Title("Elective").
				Options(sortedOptions(planner.Electives)...).Value(&v.Elective),
		).Title("Subjects"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
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

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save()
	}

	return s, cmd
}

func (s settingsModel) save() tea.Cmd {
	db, tr := s.deps.Store, s.deps.Tracker
	vals := *s.vals
	return func() tea.Msg {
		cfg, profile, prefs, err := parseValues(&vals, db.LoadSettings())
		if err != nil {
			return errStatus("Settings", err)
		}
		if err := tr.SetProfile(profile); err != nil {
			return errStatus("Settings", err)
		}
		if err := db.SaveSettings(cfg); err != nil {
			return errStatus("Settings", err)
		}
		for k, on := range map[string]bool{
			notify.KeyStudyReminders: prefs.StudyReminders,
			notify.KeyExamAlerts:     prefs.ExamAlerts,
			notify.KeyRevisionDue:    prefs.RevisionDue,
			notify.KeyMilestones:     prefs.Milestones,
		} {
			if err := db.SetSetting(k, strconv.FormatBool(on)); err != nil {
				return errStatus("Settings", err)
			}
		}
		return settingsSavedMsg{settings: cfg}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, titleStyle.Render("Settings"), "")

	if st := s.st; st != nil {
		r := st.Routine
		rows = append(rows,
			settingRow("subjects", planner.SubjectName(st.SecondLanguage)+", "+planner.SubjectName(st.Elective)),
			settingRow("routine", fmt.Sprintf("wake %s  meals %s %s %s %s  sleep %s",
				r.Wake, r.Breakfast, r.Lunch, r.Snack, r.Dinner, r.Sleep)),
			settingRow("target", formatHours(st.TargetHours)+" per day"),
			"",
		)
	}
	for _, setting := range s.settings {
		rows = append(rows, settingRow(setting.Key, formatSettingValue(setting.Key, setting.Value)))
	}

	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func settingRow(k, v string) string {
	label := lipgloss.NewStyle().Width(24).Render(k)
	return fmt.Sprintf("  %s %s", label, highlightStyle.Render(v))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "custom_work", "custom_break", "lead_minutes", "break_minutes", "max_block_minutes", "min_block_minutes":
		return v + " min"
	case "horizon_days":
		return v + " days"
	case notify.KeyStudyReminders, notify.KeyExamAlerts, notify.KeyRevisionDue, notify.KeyMilestones:
		if on, err := strconv.ParseBool(v); err == nil && !on {
			return "off"
		}
		return "on"
	}
	return v
}
