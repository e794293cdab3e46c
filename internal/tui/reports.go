package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studyplan/internal/clock"
	"github.com/sadopc/studyplan/internal/planner"
	"github.com/sadopc/studyplan/internal/state"
	"github.com/sadopc/studyplan/internal/store"
)

const reportDays = 7

type reportsModel struct {
	deps   Deps
	width  int
	height int

	days    []store.DayHours
	totals  []store.SubjectMinutes
	grammar map[string]state.GrammarStat
	target  float64
	offset  int // 7-day blocks back from today (0 = current)

	chart barchart.Model
}

func newReportsModel(d Deps) reportsModel {
	return reportsModel{
		deps:  d,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days    []store.DayHours
	totals  []store.SubjectMinutes
	grammar map[string]state.GrammarStat
	target  float64
	err     error
}

func (r reportsModel) refresh() tea.Cmd {
	from, to := r.dateRange()
	s, c := r.deps.Store, r.deps.State
	return func() tea.Msg {
		ctx := context.Background()
		days, err := s.DailyHours(ctx, from, to)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		totals, err := s.SubjectTotals(ctx, from, to)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		st := c.Snapshot()
		return reportsDataMsg{days: days, totals: totals, grammar: st.Grammar, target: st.TargetHours}
	}
}

// dateRange is the inclusive day-key range shown.
func (r reportsModel) dateRange() (string, string) {
	today := clock.DayKey(r.deps.State.Clock().Now())
	to := clock.AddDays(today, -reportDays*r.offset)
	return clock.AddDays(to, 1-reportDays), to
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg { return errStatus("Reports", msg.err) }
		}
		r.days = msg.days
		r.totals = msg.totals
		r.grammar = msg.grammar
		r.target = msg.target
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	hours := make(map[string]float64, len(r.days))
	for _, d := range r.days {
		hours[d.Day] = d.Hours
	}

	from, _ := r.dateRange()
	var bars []barchart.BarData
	for i := 0; i < reportDays; i++ {
		day := clock.AddDays(from, i)
		date, _ := clock.ParseDayKey(day, nil)

		style := lipgloss.NewStyle().Foreground(colorInk)
		if r.target > 0 && hours[day] >= r.target {
			style = lipgloss.NewStyle().Foreground(colorDone)
		}
		bars = append(bars, barchart.BarData{
			Label:  date.Format("Mon 02"),
			Values: []barchart.BarValue{{Name: "hours", Value: hours[day], Style: style}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	fromDate, _ := clock.ParseDayKey(from, nil)
	toDate, _ := clock.ParseDayKey(to, nil)
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", fromDate.Format("Jan 02"), toDate.Format("Jan 02, 2006")))

	var total float64
	for _, d := range r.days {
		total += d.Hours
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", dateLabel, "  ", highlightStyle.Render(formatHours(total)),
	)

	nav := mutedStyle.Render("  ←/→: previous/next week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderSubjectTable(w), "", r.renderGrammar(), "", nav,
		),
	)
}

func (r reportsModel) renderSubjectTable(w int) string {
	if len(r.totals) == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-24s %10s %9s", "Subject", "Time", "Sessions")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 45))))
	for _, t := range r.totals {
		rows = append(rows, fmt.Sprintf("  %-24s %10s %9d",
			planner.SubjectName(t.Subject), formatDuration(time.Duration(t.Minutes)*time.Minute), t.Sessions))
	}
	return strings.Join(rows, "\n")
}

func (r reportsModel) renderGrammar() string {
	if len(r.grammar) == 0 {
		return ""
	}
	cats := make([]string, 0, len(r.grammar))
	for c := range r.grammar {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	rows := []string{titleStyle.Render("  Grammar")}
	for _, c := range cats {
		g := r.grammar[c]
		rows = append(rows, fmt.Sprintf("  %-24s %3.0f%%  (%d/%d)",
			strings.ReplaceAll(c, "_", " "), g.Accuracy()*100, g.Correct, g.Attempts))
	}
	return strings.Join(rows, "\n")
}
