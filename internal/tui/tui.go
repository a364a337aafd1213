// Package tui implements the Bubble Tea review viewer: category results fill
// in as the review stream delivers them.
package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/review"
)

// panel is one selectable entry of the left-hand list.
type panel int

const (
	panelSecurity panel = iota
	panelPerformance
	panelReadability
	panelSummary
	panelCode
	panelCount
)

func (p panel) title() string {
	return [...]string{"Security", "Performance", "Readability", "Summary", "Code"}[p]
}

func (p panel) category() (model.Category, bool) {
	if p < panelSummary {
		return model.Categories[p], true
	}
	return "", false
}

const panelListWidth = 24

// eventMsg delivers one review event.
type eventMsg struct{ ev review.Event }

// streamClosedMsg reports that the review stream ended.
type streamClosedMsg struct{}

func waitForEvent(events <-chan review.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

// Model is the top-level Bubble Tea model for crev.
type Model struct {
	events <-chan review.Event
	source string
	code   []string
	sub    model.Submission

	// UI state
	width  int
	height int
	panel  panel

	// Review state
	reviewID string
	started  bool
	closed   bool
	results  map[model.Category]model.AnalysisResult
	summary  *model.SummaryResult
	failure  *review.ErrorPayload

	viewport viewport.Model
	spinner  spinner.Model

	// Help
	showHelp bool
}

// New creates a viewer for a review stream. source names the reviewed code
// in the status bar.
func New(events <-chan review.Event, sub model.Submission, source string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.KeyMap.Up = keys.Up
	vp.KeyMap.Down = keys.Down
	vp.KeyMap.PageUp = keys.PageUp
	vp.KeyMap.PageDown = keys.PageDown
	return Model{
		events:   events,
		source:   source,
		sub:      sub,
		code:     highlightLines(sub.Language, sub.Code),
		results:  make(map[model.Category]model.AnalysisResult),
		viewport: vp,
		spinner:  sp,
	}
}

// Summary returns the review summary once it has arrived.
func (m Model) Summary() *model.SummaryResult { return m.summary }

// Failure returns the terminal error of a rejected review.
func (m Model) Failure() *review.ErrorPayload { return m.failure }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(m.width-panelListWidth-1-4, 10) // gap + borders + padding
		m.viewport.Height = max(m.height-1-2, 1)               // status bar + borders
		m.refresh()
		return m, nil

	case eventMsg:
		m.apply(msg.ev)
		m.refresh()
		return m, waitForEvent(m.events)

	case streamClosedMsg:
		m.closed = true
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.NextPanel):
			m.selectPanel((m.panel + 1) % panelCount)
			return m, nil

		case key.Matches(msg, keys.PrevPanel):
			m.selectPanel((m.panel + panelCount - 1) % panelCount)
			return m, nil

		case key.Matches(msg, keys.Code):
			m.selectPanel(panelCode)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) apply(ev review.Event) {
	switch ev.Kind {
	case review.KindStarted:
		m.reviewID = ev.ReviewID
		m.started = true
	case review.KindCategoryComplete:
		if ev.Result != nil {
			m.results[ev.Result.Category] = *ev.Result
		}
	case review.KindSummary:
		m.summary = ev.Summary
	case review.KindError:
		m.failure = ev.Error
	}
}

func (m *Model) selectPanel(p panel) {
	m.panel = p
	m.refresh()
	m.viewport.GotoTop()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderPanel(m.viewport.Width))
}

// running returns the category currently being analyzed.
func (m Model) running() (model.Category, bool) {
	if !m.started || m.closed || m.failure != nil {
		return "", false
	}
	for _, c := range model.Categories {
		if _, ok := m.results[c]; !ok {
			return c, true
		}
	}
	return "", false
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	list := m.renderPanelList(panelListWidth, m.height-1)
	detail := detailViewStyle.
		Width(m.width - panelListWidth - 1).
		Height(m.height - 1 - 2).
		Render(m.viewport.View())

	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", detail)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

// Run starts the viewer and blocks until the user quits. The final model is
// returned so callers can report the outcome.
func Run(events <-chan review.Event, sub model.Submission, source string) (Model, error) {
	p := tea.NewProgram(New(events, sub, source), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Model{}, err
	}
	return final.(Model), nil
}
