package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/taskdag/events"
)

// CountersPaneModel displays the scheduler allocation counters.
type CountersPaneModel struct {
	countAlloc int
	maxAlloc   int
	accumAlloc int64
	spawned    int
	completed  int
	width      int
	height     int
	focused    bool
}

// NewCountersPaneModel creates a new counters pane model.
func NewCountersPaneModel() CountersPaneModel {
	return CountersPaneModel{}
}

// Update handles messages for the counters pane.
func (m CountersPaneModel) Update(msg tea.Msg) (CountersPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case events.QueueProgressEvent:
		m.countAlloc = msg.CountAlloc
		m.maxAlloc = msg.MaxAlloc
		m.accumAlloc = msg.AccumAlloc

	case events.NodeSpawnedEvent:
		m.spawned++

	case events.NodeCompletedEvent:
		m.completed++
	}

	return m, nil
}

// View renders the counters pane.
func (m CountersPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	title := StyleTitle.Render("Scheduler")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Outstanding: %s\n", StyleCounter.Render(fmt.Sprintf("%d", m.countAlloc))))
	b.WriteString(fmt.Sprintf("High water:  %s\n", StyleCounter.Render(fmt.Sprintf("%d", m.maxAlloc))))
	b.WriteString(fmt.Sprintf("Lifetime:    %s\n", StyleCounter.Render(fmt.Sprintf("%d", m.accumAlloc))))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Spawned:   %s\n", StyleSpawned.Render(fmt.Sprintf("%d", m.spawned))))
	b.WriteString(fmt.Sprintf("Completed: %s\n", StyleCompleted.Render(fmt.Sprintf("%d", m.completed))))

	// Progress bar over spawned nodes
	if m.spawned > 0 {
		barWidth := m.width - 4
		if barWidth > 40 {
			barWidth = 40
		}
		doneWidth := (m.completed * barWidth) / m.spawned
		if doneWidth > barWidth {
			doneWidth = barWidth
		}
		bar := StyleCompleted.Render(strings.Repeat("=", doneWidth))
		bar += strings.Repeat(".", barWidth-doneWidth)
		b.WriteString(fmt.Sprintf("\n[%s]  %d/%d\n", bar, m.completed, m.spawned))
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions.
func (m *CountersPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *CountersPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
