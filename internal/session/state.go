// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "time"

// Dialog identifies a modal dialog. At most one is open at a time.
type Dialog string

const (
	DialogNone       Dialog = ""
	DialogPIN        Dialog = "pin"
	DialogPause      Dialog = "pause"
	DialogInactivity Dialog = "inactivity"
	DialogLockout    Dialog = "lockout"
)

// Foreground is the surface currently visible.
type Foreground string

const (
	ForegroundNormal Foreground = "normal"
	ForegroundHidden Foreground = "hidden"
	ForegroundLocked Foreground = "locked"
)

// LockReason names what triggered a lock.
type LockReason string

const (
	LockInactivity LockReason = "inactivity"
	LockDaily      LockReason = "daily"
	LockWake       LockReason = "wake"
	LockBoot       LockReason = "boot"
)

// Inactivity prompt answers.
const (
	ResponseStillHere = "still-here"
	ResponseGoHome    = "go-home"
	ResponseExtend    = "extend"
)

// state is the single mutable nucleus. Only the controller goroutine touches it.
type state struct {
	view          int
	hiddenIndex   int
	showingHidden bool
	attached      bool

	siteStartTime       time.Time
	lastUserInteraction time.Time
	lockoutActivityTime time.Time

	extensionUntil         time.Time
	extensionCoversLockout bool

	locked     bool
	lockReason LockReason
	lastDaily  string

	dialog         Dialog
	promptDeadline time.Time

	mediaPlaying    bool
	mediaChangeTime time.Time
	mediaSeq        uint64
	queryInFlight   bool
	queryStarted    time.Time

	keyboardOpen    bool
	keyboardLastUse time.Time

	lastTick time.Time
}

// Snapshot is the published, read-only view of the session.
type Snapshot struct {
	Foreground             Foreground `json:"foreground"`
	ViewID                 string     `json:"viewId,omitempty"`
	URL                    string     `json:"url,omitempty"`
	SiteIndex              int        `json:"siteIndex"`
	NormalIndex            int        `json:"normalIndex"`
	HiddenIndex            int        `json:"hiddenIndex"`
	ShowingHidden          bool       `json:"showingHidden"`
	Attached               bool       `json:"attached"`
	Locked                 bool       `json:"locked"`
	LockReason             LockReason `json:"lockReason,omitempty"`
	Dialog                 Dialog     `json:"dialog,omitempty"`
	PromptDeadline         *time.Time `json:"promptDeadline,omitempty"`
	ExtensionUntil         *time.Time `json:"extensionUntil,omitempty"`
	ExtensionCoversLockout bool       `json:"extensionCoversLockout"`
	MediaPlaying           bool       `json:"mediaPlaying"`
	KeyboardOpen           bool       `json:"keyboardOpen"`
	IdleSeconds            int64      `json:"idleSeconds"`
	LastTick               time.Time  `json:"lastTick"`
	Version                string     `json:"version,omitempty"`
}

// changeKey is the comparable part of a snapshot used to detect state changes.
type changeKey struct {
	foreground Foreground
	viewID     string
	locked     bool
	dialog     Dialog
	extension  time.Time
	media      bool
	keyboard   bool
}

func (s Snapshot) key() changeKey {
	k := changeKey{
		foreground: s.Foreground,
		viewID:     s.ViewID,
		locked:     s.Locked,
		dialog:     s.Dialog,
		media:      s.MediaPlaying,
		keyboard:   s.KeyboardOpen,
	}
	if s.ExtensionUntil != nil {
		k.extension = *s.ExtensionUntil
	}
	return k
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
