// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package surface connects the session controller to the renderer process
// that owns the actual browser views.
package surface

import "time"

// Controller to renderer message types.
const (
	TypeAttach       = "attach"
	TypeDetachAll    = "detach-all"
	TypeLockScreen   = "lock-screen"
	TypeUnlockScreen = "unlock-screen"
	TypeDialogOpen   = "dialog-open"
	TypeDialogClose  = "dialog-close"
	TypeSignal       = "signal"
	TypeBroadcast    = "broadcast"
	TypeQueryMedia   = "query-media"
)

// Renderer to controller message types.
const (
	TypeMediaState   = "media-state"
	TypeViewReloaded = "view-reloaded"
)

// Message is one JSON frame on the renderer socket.
type Message struct {
	Type      string         `json:"type"`
	ID        string         `json:"id,omitempty"`
	View      string         `json:"view,omitempty"`
	URL       string         `json:"url,omitempty"`
	Username  string         `json:"username,omitempty"`
	Password  string         `json:"password,omitempty"`
	Dialog    string         `json:"dialog,omitempty"`
	Name      string         `json:"name,omitempty"`
	Value     *bool          `json:"value,omitempty"`
	Playing   bool           `json:"playing,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
