// SPDX-License-Identifier: MIT

// Package audit records security-relevant session transitions.
// It follows the WHO/WHAT/WHEN pattern used for forensics on unattended devices.
package audit

import (
	"sort"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/rs/zerolog"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventLocked        EventType = "lockout.locked"
	EventUnlocked      EventType = "lockout.unlocked"
	EventUnlockFailed  EventType = "lockout.unlock_failed"
	EventHiddenGranted EventType = "hidden.granted"
	EventHiddenDenied  EventType = "hidden.denied"
	EventPowerAction   EventType = "power.action"
	EventSessionStart  EventType = "session.started"
)

// Event represents a structured audit event.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	Actor      string            `json:"actor"`  // WHO: "system", "user" or a remote address
	Action     string            `json:"action"` // WHAT: human-readable description
	Result     string            `json:"result"` // success, failure, denied
	Reason     string            `json:"reason,omitempty"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// Sink persists audit events. Implementations must not block the caller.
type Sink interface {
	Enqueue(Event)
}

// Logger writes audit events to the structured log and an optional Sink.
type Logger struct {
	logger zerolog.Logger
	sink   Sink
}

// NewLogger creates an audit logger with a dedicated "audit" component.
func NewLogger(sink Sink) *Logger {
	auditLogger := log.WithComponent("audit").With().
		Str("log_type", "audit").
		Logger()

	return &Logger{logger: auditLogger, sink: sink}
}

// Record writes an audit event.
func (l *Logger) Record(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Actor == "" {
		event.Actor = "system"
	}

	logEvent := l.logger.Info().
		Time("timestamp", event.Timestamp).
		Str("event_type", string(event.Type)).
		Str("actor", event.Actor).
		Str("action", event.Action).
		Str("result", event.Result)

	if event.Reason != "" {
		logEvent.Str(log.FieldReason, event.Reason)
	}
	if event.RemoteAddr != "" {
		logEvent.Str(log.FieldRemoteAddr, event.RemoteAddr)
	}
	if event.RequestID != "" {
		logEvent.Str(log.FieldRequestID, event.RequestID)
	}

	keys := make([]string, 0, len(event.Details))
	for k := range event.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logEvent.Str(k, event.Details[k])
	}

	logEvent.Msg("audit event")

	if l.sink != nil {
		l.sink.Enqueue(event)
	}
}

// Locked records a lock transition.
func (l *Logger) Locked(reason string, at time.Time) {
	l.Record(Event{
		Timestamp: at,
		Type:      EventLocked,
		Action:    "session locked",
		Result:    "success",
		Reason:    reason,
	})
}

// Unlocked records a successful unlock.
func (l *Logger) Unlocked(at time.Time) {
	l.Record(Event{
		Timestamp: at,
		Type:      EventUnlocked,
		Actor:     "user",
		Action:    "session unlocked",
		Result:    "success",
	})
}

// UnlockFailed records a rejected password.
func (l *Logger) UnlockFailed(at time.Time) {
	l.Record(Event{
		Timestamp: at,
		Type:      EventUnlockFailed,
		Actor:     "user",
		Action:    "unlock attempt rejected",
		Result:    "failure",
	})
}

// HiddenAccess records a hidden view access decision.
func (l *Logger) HiddenAccess(granted bool, reason string, at time.Time) {
	e := Event{
		Timestamp: at,
		Type:      EventHiddenDenied,
		Actor:     "user",
		Action:    "hidden views requested",
		Result:    "denied",
		Reason:    reason,
	}
	if granted {
		e.Type = EventHiddenGranted
		e.Result = "success"
	}
	l.Record(e)
}

// PowerAction records a power menu action.
func (l *Logger) PowerAction(action, result string, at time.Time) {
	l.Record(Event{
		Timestamp: at,
		Type:      EventPowerAction,
		Actor:     "user",
		Action:    "power " + action,
		Result:    result,
		Details:   map[string]string{"power_action": action},
	})
}
