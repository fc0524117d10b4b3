package tui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/albiondps/meter/internal/tui/components"
	"github.com/albiondps/meter/pkg/backend"
	"github.com/albiondps/meter/pkg/meter"
	"github.com/albiondps/meter/pkg/photon"
)

// Model is the main TUI model
type Model struct {
	statusBar  components.StatusBar
	eventLog   components.EventLog
	meterPanel components.MeterPanel

	// Backend service reference for runtime control
	svc *backend.Service

	// Channels for receiving data from the backend
	snapshotChan <-chan meter.Snapshot
	eventChan    <-chan backend.GameEvent
	statsChan    <-chan *photon.Stats
	onlineChan   <-chan bool

	// UI state
	width    int
	height   int
	quitting bool
	ready    bool

	// Display settings
	fullNumbers bool // Show full numbers instead of abbreviated (e.g., 4984 vs 4.9k)
}

// New creates a new TUI Model bound to a running backend service.
func New(svc *backend.Service) Model {
	m := Model{
		statusBar:   components.NewStatusBar(),
		eventLog:    components.NewEventLog(),
		meterPanel:  components.NewMeterPanel(),
		svc:         svc,
		fullNumbers: false, // Default: abbreviated numbers (e.g., 4.9k)
	}
	if svc != nil {
		m.snapshotChan = svc.Snapshots
		m.eventChan = svc.Events
		m.statsChan = svc.Stats
		m.onlineChan = svc.OnlineStatus
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		TickCmd(), // Start the tick timer
	}

	if m.snapshotChan != nil {
		cmds = append(cmds, WaitForSnapshot(m.snapshotChan))
	}
	if m.eventChan != nil {
		cmds = append(cmds, WaitForEvent(m.eventChan))
	}
	if m.statsChan != nil {
		cmds = append(cmds, WaitForStats(m.statsChan))
	}
	if m.onlineChan != nil {
		cmds = append(cmds, WaitForOnline(m.onlineChan))
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	// Window resize
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.updateLayout()
		m.ready = true
		return m, nil

	// Keyboard input
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			m.quitting = true
			if m.svc != nil {
				m.svc.Stop()
			}
			return m, tea.Quit
		case "c", "C":
			m.eventLog = m.eventLog.Clear()
			return m, nil
		case "s", "S":
			m.meterPanel = m.meterPanel.CycleSort()
			return m, nil
		case "m", "M":
			if m.svc != nil {
				m.svc.ToggleManual(nowTimestamp())
			}
			return m, nil
		case "n", "N":
			if m.svc != nil {
				m.svc.EndSession(nowTimestamp())
			}
			return m, nil
		case "f", "F":
			m.fullNumbers = !m.fullNumbers
			m.meterPanel = m.meterPanel.SetFullNumbers(m.fullNumbers)
			m.eventLog = m.eventLog.SetFullNumbers(m.fullNumbers)
			return m, nil
		case "up", "k":
			m.eventLog = m.eventLog.ScrollUp()
			return m, nil
		case "down", "j":
			m.eventLog = m.eventLog.ScrollDown()
			return m, nil
		}

	// Fresh meter reading
	case SnapshotMsg:
		m.meterPanel = m.meterPanel.SetSnapshot(msg.Snapshot)

		if m.snapshotChan != nil {
			cmds = append(cmds, WaitForSnapshot(m.snapshotChan))
		}
		return m, tea.Batch(cmds...)

	// Backend status/session-lifecycle event
	case EventMsg:
		m.eventLog = m.eventLog.AddEvent(msg.Event)

		if m.eventChan != nil {
			cmds = append(cmds, WaitForEvent(m.eventChan))
		}
		return m, tea.Batch(cmds...)

	// Stats update from parser
	case StatsUpdateMsg:
		m.statusBar = m.statusBar.UpdateStats(msg.Stats)

		if m.statsChan != nil {
			cmds = append(cmds, WaitForStats(m.statsChan))
		}
		return m, tea.Batch(cmds...)

	// Online status change
	case OnlineMsg:
		m.statusBar = m.statusBar.SetOnline(msg.Online)

		if m.onlineChan != nil {
			cmds = append(cmds, WaitForOnline(m.onlineChan))
		}
		return m, tea.Batch(cmds...)

	// Periodic tick
	case TickMsg:
		cmds = append(cmds, TickCmd())
		return m, tea.Batch(cmds...)
	}

	return m, tea.Batch(cmds...)
}

// updateLayout recalculates component sizes based on window dimensions
func (m Model) updateLayout() Model {
	// Reserve space for status bar (4 lines) and help bar (1 line)
	statusBarHeight := 4
	helpBarHeight := 1
	mainHeight := m.height - statusBarHeight - helpBarHeight

	if mainHeight < 5 {
		mainHeight = 5
	}

	// Meter panel takes 60% width, event log takes 40%
	meterPanelWidth := m.width * 3 / 5
	eventLogWidth := m.width - meterPanelWidth

	if meterPanelWidth < 30 {
		meterPanelWidth = 30
	}
	if eventLogWidth < 20 {
		eventLogWidth = 20
	}

	m.statusBar = m.statusBar.SetWidth(m.width)
	m.meterPanel = m.meterPanel.SetSize(meterPanelWidth, mainHeight)
	m.eventLog = m.eventLog.SetSize(eventLogWidth, mainHeight)

	return m
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if !m.ready {
		return "Initializing..."
	}

	// Status bar (top)
	statusBar := m.statusBar.View()

	// Main panel (meter leaderboard + event log side by side)
	mainPanel := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.meterPanel.View(),
		m.eventLog.View(),
	)

	// Help bar (bottom)
	helpBar := m.renderHelpBar()

	// Combine all sections
	return lipgloss.JoinVertical(
		lipgloss.Left,
		statusBar,
		mainPanel,
		helpBar,
	)
}

// renderHelpBar renders the help bar at the bottom
func (m Model) renderHelpBar() string {
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	textStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	help := lipgloss.JoinHorizontal(lipgloss.Left,
		keyStyle.Render("Q"), textStyle.Render("uit  "),
		keyStyle.Render("C"), textStyle.Render("lear log  "),
		keyStyle.Render("S"), textStyle.Render("ort  "),
		keyStyle.Render("M"), textStyle.Render("anual toggle  "),
		keyStyle.Render("N"), textStyle.Render("ew session  "),
		keyStyle.Render("F"), textStyle.Render("ull numbers"),
	)

	toggleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	if m.fullNumbers {
		help += "  " + toggleStyle.Render("[FULL]")
	}

	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(help)
}

// nowTimestamp returns the current time as a float64 unix timestamp,
// matching the format used for packet timestamps throughout the
// pipeline.
func nowTimestamp() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// formatNumber formats a number based on fullNumbers setting
// If fullNumbers is true, returns the full number (e.g., 4984)
// If fullNumbers is false, returns abbreviated form (e.g., 4.9k)
func formatNumber(amount int64, full bool) string {
	if full {
		return fmt.Sprintf("%d", amount)
	}
	// Abbreviated format with truncation (floor) instead of rounding
	if amount >= 1000000 {
		val := math.Floor(float64(amount)/100000.0) / 10.0
		return fmt.Sprintf("%.1fM", val)
	} else if amount >= 1000 {
		val := math.Floor(float64(amount)/100.0) / 10.0
		return fmt.Sprintf("%.1fk", val)
	}
	return fmt.Sprintf("%d", amount)
}
