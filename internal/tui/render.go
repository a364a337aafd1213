package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/crev/internal/model"
)

func (m Model) renderPanelList(width, height int) string {
	var b strings.Builder
	running, isRunning := m.running()

	for p := panel(0); p < panelCount; p++ {
		status := ""
		pending := false
		if c, ok := p.category(); ok {
			r, done := m.results[c]
			switch {
			case done && r.Error != "":
				status = faultStyle.Render("!")
			case done:
				status = scoreStyle(r.Metrics.Score).Render(fmt.Sprintf("%3d", r.Metrics.Score))
			case isRunning && c == running:
				status = m.spinner.View()
			default:
				pending = true
			}
		} else if p == panelSummary {
			if m.summary != nil {
				status = scoreStyle(m.summary.OverallScore).Render(fmt.Sprintf("%3d", m.summary.OverallScore))
			} else {
				pending = true
			}
		}

		name := p.title()
		gap := max(width-4-lipgloss.Width(name)-lipgloss.Width(status), 1)
		line := name + strings.Repeat(" ", gap) + status

		var style lipgloss.Style
		switch {
		case p == m.panel:
			style = panelItemSelectedStyle
		case pending:
			style = panelItemPendingStyle
		default:
			style = panelItemStyle
		}

		b.WriteString(style.Width(width - 4).Render(line))
		if p < panelCount-1 {
			b.WriteByte('\n')
		}
	}

	innerHeight := height - 2 // borders
	return panelListStyle.Width(width).Height(innerHeight).Render(b.String())
}

// renderPanel renders the selected panel's scrollable content.
func (m Model) renderPanel(width int) string {
	if m.failure != nil {
		return faultStyle.Render("Review rejected: "+m.failure.Message) + "\n\n" +
			helpBarStyle.Render("kind: "+m.failure.Kind)
	}

	if c, ok := m.panel.category(); ok {
		return m.renderCategory(c, width)
	}
	if m.panel == panelSummary {
		return m.renderSummary(width)
	}
	return m.renderCode()
}

func (m Model) renderCategory(c model.Category, width int) string {
	var b strings.Builder
	b.WriteString(detailHeaderStyle.Render(m.panel.title()))
	b.WriteByte('\n')

	r, ok := m.results[c]
	if !ok {
		if running, isRunning := m.running(); isRunning && running == c {
			b.WriteString(m.spinner.View() + " Analyzing...")
		} else {
			b.WriteString(panelItemPendingStyle.Render("Waiting..."))
		}
		return b.String()
	}

	fmt.Fprintf(&b, "Score  %s\n", scoreStyle(r.Metrics.Score).Render(fmt.Sprintf("%d/100", r.Metrics.Score)))
	if r.Error != "" {
		b.WriteString(faultStyle.Render(r.Error))
		b.WriteByte('\n')
	}

	b.WriteString("\n" + sectionStyle.Render("Metrics") + "\n")
	for _, mt := range r.Metrics.Metrics {
		fmt.Fprintf(&b, "  %s %s\n", metricNameStyle.Render(mt.Name), mt)
	}

	b.WriteString("\n" + sectionStyle.Render(fmt.Sprintf("Findings (%d)", len(r.Findings))) + "\n")
	if len(r.Findings) == 0 {
		b.WriteString(helpBarStyle.Render("  none") + "\n")
	}
	for _, f := range r.Findings {
		loc := "   -"
		if f.Line > 0 {
			loc = fmt.Sprintf("%4d", f.Line)
		}
		fmt.Fprintf(&b, "  %s %s %s\n",
			lineNumberStyle.Render(loc),
			severityStyle(f.Severity).Render(fmt.Sprintf("%-8s", f.Severity)),
			f.Message)
		if f.Snippet != "" {
			fmt.Fprintf(&b, "       %s\n", helpBarStyle.Render(f.Snippet))
		}
	}

	b.WriteString("\n" + sectionStyle.Render("Analysis") + "\n")
	b.WriteString(renderNarrative(r.Narrative, width))
	return b.String()
}

func (m Model) renderSummary(width int) string {
	var b strings.Builder
	b.WriteString(detailHeaderStyle.Render("Summary"))
	b.WriteByte('\n')

	if m.summary == nil {
		if m.closed {
			b.WriteString(panelItemPendingStyle.Render("Review ended before a summary was produced."))
		} else {
			b.WriteString(panelItemPendingStyle.Render("Waiting for all categories..."))
		}
		return b.String()
	}

	s := m.summary
	fmt.Fprintf(&b, "Overall  %s  (%s)\n\n",
		scoreStyle(s.OverallScore).Render(fmt.Sprintf("%d/100", s.OverallScore)), s.Level)
	for _, c := range model.Categories {
		fmt.Fprintf(&b, "  %s %s\n", metricNameStyle.Render(string(c)), scoreStyle(s.Scores[c]).Render(fmt.Sprintf("%d", s.Scores[c])))
	}

	b.WriteString("\n" + sectionStyle.Render("Findings") + "\n")
	for _, sev := range model.Severities {
		fmt.Fprintf(&b, "  %s %d\n", severityStyle(sev).Render(fmt.Sprintf("%-22s", sev)), s.Findings[sev.String()])
	}

	b.WriteString("\n" + sectionStyle.Render("Assessment") + "\n")
	b.WriteString(renderNarrative(s.Narrative, width))
	return b.String()
}

func renderNarrative(text string, width int) string {
	if text == "" || text == model.NarrativeUnavailable {
		return unavailableStyle.Render("Narrative unavailable.")
	}
	return narrativeStyle.Width(max(width-2, 10)).Render(text)
}

// renderCode shows the submission with line numbers, marking lines that
// carry findings with the most severe one.
func (m Model) renderCode() string {
	if len(m.code) == 0 {
		return panelItemPendingStyle.Render("No code submitted.")
	}

	marks := make(map[int]model.Severity)
	for _, r := range m.results {
		for _, f := range r.Findings {
			if f.Line > 0 && f.Severity > marks[f.Line] {
				marks[f.Line] = f.Severity
			}
		}
	}

	var b strings.Builder
	for i, line := range m.code {
		n := i + 1
		marker := " "
		if sev, ok := marks[n]; ok {
			marker = severityStyle(sev).Render("●")
		}
		fmt.Fprintf(&b, "%s %s %s", lineNumberStyle.Render(fmt.Sprintf("%d", n)), marker, line)
		if i < len(m.code)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) renderStatusBar() string {
	left := " " + m.source
	if m.reviewID != "" {
		left += "  " + m.reviewID[:min(8, len(m.reviewID))]
	}

	state := "connecting"
	switch {
	case m.failure != nil:
		state = "rejected"
	case m.summary != nil:
		state = "complete"
	case m.closed:
		state = "canceled"
	case m.started:
		state = fmt.Sprintf("%d/%d categories", len(m.results), len(model.Categories))
	}

	right := fmt.Sprintf("%s  ? help ", state)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(detailHeaderStyle.Render("crev: Keyboard Shortcuts"))
	b.WriteString("\n\n")

	helpItems := []struct{ key, desc string }{
		{"↑/k", "Scroll up"},
		{"↓/j", "Scroll down"},
		{"pgup/b", "Page up"},
		{"pgdn/space", "Page down"},
		{"n/Tab", "Next panel"},
		{"N/S-Tab", "Previous panel"},
		{"c", "Show code"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, item := range helpItems {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(item.key),
			item.desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}
