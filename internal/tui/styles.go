package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/studyplan/internal/planner"
)

// Palette, named for what each colour marks on screen.
var (
	colorInk    = lipgloss.AdaptiveColor{Light: "#3B4BA8", Dark: "#8C9EFF"} // titles, focus
	colorStudy  = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"} // study blocks
	colorMeal   = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFB74D"} // meals, paused
	colorRevise = lipgloss.AdaptiveColor{Light: "#AD1457", Dark: "#F48FB1"} // revision due
	colorDone   = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"} // completed, running
	colorDanger = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}
	colorCheer  = lipgloss.AdaptiveColor{Light: "#F9A825", Dark: "#FFD54F"}
	colorText   = lipgloss.AdaptiveColor{Light: "#212121", Dark: "#E0E0E0"}
	colorDim    = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#8A8A8A"}
	colorRule   = lipgloss.AdaptiveColor{Light: "#BDBDBD", Dark: "#4A4A4A"}
)

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func boxed(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
}

var (
	titleStyle        = fg(colorText).Bold(true)
	subtitleStyle     = fg(colorDim).Italic(true)
	mutedStyle        = fg(colorDim)
	highlightStyle    = fg(colorStudy)
	accentStyle       = fg(colorRevise)
	successStyle      = fg(colorDone)
	warningStyle      = fg(colorMeal)
	errorStyle        = fg(colorDanger).Bold(true)
	normalItemStyle   = fg(colorText)
	selectedItemStyle = fg(colorInk).Bold(true)

	activeTabStyle = fg(colorInk).Bold(true).Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorInk)
	inactiveTabStyle = fg(colorDim).Padding(0, 2)
	headerStyle      = lipgloss.NewStyle().Padding(0, 1)
	footerStyle      = fg(colorDim).Padding(0, 1)

	panelStyle       = boxed(colorRule).Padding(1, 2)
	activePanelStyle = boxed(colorInk).Padding(1, 2)

	// The countdown's colour tracks the engine: idle, running, paused.
	timerStyle        = fg(colorInk).Bold(true).Align(lipgloss.Center)
	timerRunningStyle = timerStyle.Foreground(colorDone)
	timerPausedStyle  = timerStyle.Foreground(colorMeal)

	toastStyle     = boxed(colorStudy).Padding(0, 1)
	celebrateStyle = boxed(colorCheer).BorderStyle(lipgloss.DoubleBorder()).Padding(0, 1)
)

var blockStyles = map[planner.BlockType]lipgloss.Style{
	planner.BlockStudy: fg(colorStudy),
	planner.BlockMeal:  fg(colorMeal),
	planner.BlockSleep: fg(colorRule),
	planner.BlockFree:  fg(colorDim),
}

var statusIcons = map[planner.ChapterStatus]string{
	planner.NotStarted:    mutedStyle.Render("○"),
	planner.InProgress:    warningStyle.Render("◐"),
	planner.Completed:     successStyle.Render("●"),
	planner.NeedsRevision: accentStyle.Render("↻"),
}
