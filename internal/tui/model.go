// Package tui is a live monitor for a running scheduler: a counters pane
// fed by QueueProgress snapshots and a scrolling event log, both driven
// by the event bus.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/taskdag/events"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneCounters PaneID = iota
	PaneLog
)

// Model is the root Bubble Tea model for the monitor.
type Model struct {
	countersPane CountersPaneModel
	logPane      LogPaneModel
	focusedPane  PaneID
	eventSub     <-chan events.Event
	width        int
	height       int
	quitting     bool
}

// New creates a new monitor model subscribed to all bus topics.
func New(eventBus *events.EventBus) Model {
	return Model{
		countersPane: NewCountersPaneModel(),
		logPane:      NewLogPaneModel(),
		focusedPane:  PaneLog,
		eventSub:     eventBus.SubscribeAll(256),
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next bus event.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return busClosedMsg{}
		}
		return event
	}
}

type busClosedMsg struct{}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeyTab, KeyShiftTab:
			if m.focusedPane == PaneCounters {
				m.focusedPane = PaneLog
			} else {
				m.focusedPane = PaneCounters
			}
			m.updateFocusStates()

		default:
			var cmd tea.Cmd
			m.logPane, cmd = m.logPane.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()

	case busClosedMsg:
		return m, tea.Quit

	case events.Event:
		var cmd tea.Cmd
		m.countersPane, cmd = m.countersPane.Update(msg)
		cmds = append(cmds, cmd)
		m.logPane, cmd = m.logPane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))
	}

	return m, tea.Batch(cmds...)
}

// computeLayout splits the window: counters on the left third, log on
// the rest.
func (m *Model) computeLayout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	left := m.width / 3
	m.countersPane.SetSize(left, m.height-1)
	m.logPane.SetSize(m.width-left, m.height-1)
	m.updateFocusStates()
}

func (m *Model) updateFocusStates() {
	m.countersPane.SetFocused(m.focusedPane == PaneCounters)
	m.logPane.SetFocused(m.focusedPane == PaneLog)
}

// View renders the monitor.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	panes := lipgloss.JoinHorizontal(lipgloss.Top, m.countersPane.View(), m.logPane.View())
	help := StyleHelp.Render("tab: switch pane - q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, panes, help)
}
