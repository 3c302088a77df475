// SPDX-License-Identifier: MIT

// Package telemetry provides OpenTelemetry tracing utilities for the kiosk daemon.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the daemon.
const (
	// Command attributes
	CommandNameKey    = "kiosk.command"
	CommandOutcomeKey = "kiosk.command.outcome"
	CommandDialogKey  = "kiosk.command.dialog"

	// Session attributes
	SessionViewKey   = "kiosk.view"
	SessionHiddenKey = "kiosk.hidden"
	SessionLockedKey = "kiosk.locked"
	SessionDialogKey = "kiosk.dialog"
	SessionReasonKey = "kiosk.lock_reason"
	SessionMediaKey  = "kiosk.media_playing"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// CommandAttributes creates span attributes for a dispatched command.
func CommandAttributes(name, outcome, dialog string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	attrs = append(attrs, attribute.String(CommandNameKey, name))
	if outcome != "" {
		attrs = append(attrs, attribute.String(CommandOutcomeKey, outcome))
	}
	if dialog != "" {
		attrs = append(attrs, attribute.String(CommandDialogKey, dialog))
	}
	return attrs
}

// SessionAttributes creates span attributes describing the session after a command.
func SessionAttributes(viewID string, hidden, locked bool, lockReason, dialog string, media bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(SessionViewKey, viewID),
		attribute.Bool(SessionHiddenKey, hidden),
		attribute.Bool(SessionLockedKey, locked),
		attribute.Bool(SessionMediaKey, media),
	}
	if locked && lockReason != "" {
		attrs = append(attrs, attribute.String(SessionReasonKey, lockReason))
	}
	if dialog != "" {
		attrs = append(attrs, attribute.String(SessionDialogKey, dialog))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
