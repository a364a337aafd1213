package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/crev/internal/model"
)

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorOrange    = lipgloss.Color("#ffb86c")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	// Panel list styles
	panelListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	panelItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	panelItemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorHighlight).
				Bold(true)

	panelItemPendingStyle = lipgloss.NewStyle().
				Foreground(colorDim)

	// Detail view styles
	detailViewStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	detailHeaderStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true).
				Padding(0, 0, 1, 0)

	sectionStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true)

	metricNameStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(22)

	narrativeStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	unavailableStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true)

	faultStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(4).
			Align(lipgloss.Right)

	// Score styles
	scoreHighStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	scoreMediumStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Bold(true)

	scoreLowStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	// Help bar
	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)

// severityStyles color findings and code markers by severity.
var severityStyles = map[model.Severity]lipgloss.Style{
	model.SeverityCritical: lipgloss.NewStyle().Foreground(colorRed).Bold(true),
	model.SeverityHigh:     lipgloss.NewStyle().Foreground(colorOrange).Bold(true),
	model.SeverityMedium:   lipgloss.NewStyle().Foreground(colorYellow),
	model.SeverityLow:      lipgloss.NewStyle().Foreground(colorBlue),
}

func severityStyle(s model.Severity) lipgloss.Style {
	if st, ok := severityStyles[s]; ok {
		return st
	}
	return panelItemStyle
}

func scoreStyle(score int) lipgloss.Style {
	switch model.Level(score) {
	case "high":
		return scoreHighStyle
	case "medium":
		return scoreMediumStyle
	default:
		return scoreLowStyle
	}
}
