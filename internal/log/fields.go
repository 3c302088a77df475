// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldQueryID   = "query_id"
	FieldClientID  = "client_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldSubsystem = "subsystem"

	// Session fields
	FieldView       = "view"
	FieldSiteIndex  = "site_index"
	FieldHidden     = "hidden"
	FieldDialog     = "dialog"
	FieldReason     = "reason"
	FieldMinutes    = "minutes"
	FieldUntil      = "until"
	FieldIdle       = "idle"
	FieldCommand    = "command"
	FieldAction     = "action"
	FieldOldState   = "old_state"
	FieldNewState   = "new_state"
	FieldRemoteAddr = "remote_addr"

	// Path / URL fields
	FieldPath = "path"
	FieldURL  = "url"
)

// Subsystem tags used by external diagnostics tooling. Transition messages are
// prefixed with "[TAG] " and carry the tag in FieldSubsystem.
const (
	SubsystemLockout  = "LOCKOUT"
	SubsystemHome     = "HOME"
	SubsystemRotation = "ROTATION"
	SubsystemPause    = "PAUSE"
	SubsystemHidden   = "HIDDEN"
	SubsystemKeyboard = "KEYBOARD"
	SubsystemMedia    = "MEDIA"
	SubsystemDialog   = "DIALOG"
	SubsystemPower    = "POWER"
)
