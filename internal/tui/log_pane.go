package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/aristath/taskdag/events"
)

// LogPaneModel is a scrollable log of scheduler events.
type LogPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewLogPaneModel creates a new log pane model.
func NewLogPaneModel() LogPaneModel {
	vp := viewport.New(0, 0)
	return LogPaneModel{viewport: vp}
}

// Update handles messages for the log pane.
func (m LogPaneModel) Update(msg tea.Msg) (LogPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()

	case tea.KeyMsg:
		if m.focused {
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.NodeSpawnedEvent:
		line := StyleSpawned.Render("spawn") + "     " + msg.ID
		if len(msg.Deps) > 0 {
			line += StyleHelp.Render(" <- " + strings.Join(msg.Deps, ", "))
		}
		m.appendLine(line)

	case events.NodeRespawnedEvent:
		m.appendLine(StyleSpawned.Render("respawn") + "   " + msg.ID)

	case events.NodeCompletedEvent:
		m.appendLine(StyleCompleted.Render("complete") + "  " + msg.ID +
			StyleHelp.Render(fmt.Sprintf(" = %v", msg.Result)))
	}

	return m, cmd
}

func (m *LogPaneModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *LogPaneModel) resizeViewport() {
	m.viewport.Width = m.width - 2
	m.viewport.Height = m.height - 2
}

// View renders the log pane.
func (m LogPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(m.viewport.View())
}

// SetSize updates the pane dimensions.
func (m *LogPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
}

// SetFocused updates the focus state.
func (m *LogPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
