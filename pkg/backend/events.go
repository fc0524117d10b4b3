// Package backend provides a unified service layer wiring packet
// capture through to meter snapshots, for use by any frontend (TUI,
// Wails, web API).
package backend

import (
	"time"

	"github.com/albiondps/meter/pkg/meter"
)

// EventType identifies what a GameEvent is reporting.
type EventType string

const (
	// EventTypeInfo carries a human-readable status line: capture
	// started, traffic detected or lost, a load warning.
	EventTypeInfo EventType = "info"
	// EventTypeSessionClosed fires whenever a meter session ends; Data
	// holds a SessionClosedData carrying the closed meter.SessionSummary.
	EventTypeSessionClosed EventType = "session_closed"
)

// GameEvent is a status or session-lifecycle notification for display
// in a frontend.
type GameEvent struct {
	Type      EventType
	Message   string
	Timestamp time.Time
	Data      interface{}
}

// SessionClosedData is the Data payload of an EventTypeSessionClosed
// event.
type SessionClosedData struct {
	Summary meter.SessionSummary
}
