package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/albiondps/meter/pkg/backend"
	"github.com/albiondps/meter/pkg/meter"
	"github.com/albiondps/meter/pkg/photon"
)

// SnapshotMsg carries a fresh meter reading from the backend.
type SnapshotMsg struct {
	Snapshot meter.Snapshot
}

// EventMsg carries a status or session-lifecycle notification.
type EventMsg struct {
	Event backend.GameEvent
}

// StatsUpdateMsg triggers a status bar stats update.
type StatsUpdateMsg struct {
	Stats *photon.Stats
}

// OnlineMsg updates the capture online status.
type OnlineMsg struct {
	Online bool
}

// TickMsg is sent periodically to drive time-based redraws.
type TickMsg time.Time

// TickCmd returns a command that sends a TickMsg after 1 second.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// WaitForSnapshot returns a command that waits for the next snapshot.
func WaitForSnapshot(ch <-chan meter.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// WaitForEvent returns a command that waits for the next backend event.
func WaitForEvent(ch <-chan backend.GameEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// WaitForStats returns a command that waits for the next stats tick.
func WaitForStats(ch <-chan *photon.Stats) tea.Cmd {
	return func() tea.Msg {
		stats, ok := <-ch
		if !ok {
			return nil
		}
		return StatsUpdateMsg{Stats: stats}
	}
}

// WaitForOnline returns a command that waits for the next online
// status change.
func WaitForOnline(ch <-chan bool) tea.Cmd {
	return func() tea.Msg {
		online, ok := <-ch
		if !ok {
			return nil
		}
		return OnlineMsg{Online: online}
	}
}
