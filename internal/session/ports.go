// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"time"
)

// Per-view signals sent on attach and reload.
const (
	SignalPauseButton    = "pause-button-visibility"
	SignalKeyboardButton = "keyboard-button-enabled"
)

// Broadcast names.
const (
	BroadcastKeyboardState     = "keyboard-state-changed"
	BroadcastKeyboardAutoClose = "keyboard-auto-closed"
	BroadcastPasswordIncorrect = "lockout-password-incorrect"
	BroadcastPINIncorrect      = "pin-incorrect"
	BroadcastPowerMenu         = "power-menu"
)

// Display is the rendering side. Calls must not block the controller.
type Display interface {
	Attach(v View)
	DetachAll()
	ShowLockScreen()
	HideLockScreen()
	OpenDialog(d Dialog, payload map[string]any)
	CloseDialog(d Dialog)
	Signal(v View, name string, value bool)
	Broadcast(name string, payload map[string]any)
}

// MediaQuerier asks the renderer whether v is playing audio or video. It must
// return immediately and call done exactly once, possibly from another goroutine.
type MediaQuerier interface {
	QueryMedia(ctx context.Context, v View, done func(playing bool, err error))
}

// PowerExecutor runs a power action without blocking the caller.
type PowerExecutor interface {
	Execute(ctx context.Context, action PowerAction) error
}

// FlagSource is a consume-once sentinel such as the boot or display-wake flag.
type FlagSource interface {
	Consume() (bool, error)
}

// Auditor records security-relevant transitions.
type Auditor interface {
	Locked(reason string, at time.Time)
	Unlocked(at time.Time)
	UnlockFailed(at time.Time)
	HiddenAccess(granted bool, reason string, at time.Time)
	PowerAction(action, result string, at time.Time)
}

type nopDisplay struct{}

func (nopDisplay) Attach(View)                       {}
func (nopDisplay) DetachAll()                        {}
func (nopDisplay) ShowLockScreen()                   {}
func (nopDisplay) HideLockScreen()                   {}
func (nopDisplay) OpenDialog(Dialog, map[string]any) {}
func (nopDisplay) CloseDialog(Dialog)                {}
func (nopDisplay) Signal(View, string, bool)         {}
func (nopDisplay) Broadcast(string, map[string]any)  {}

type nopQuerier struct{}

func (nopQuerier) QueryMedia(_ context.Context, _ View, done func(bool, error)) { done(false, nil) }

type nopAuditor struct{}

func (nopAuditor) Locked(string, time.Time)              {}
func (nopAuditor) Unlocked(time.Time)                    {}
func (nopAuditor) UnlockFailed(time.Time)                {}
func (nopAuditor) HiddenAccess(bool, string, time.Time)  {}
func (nopAuditor) PowerAction(string, string, time.Time) {}

type nopPower struct{}

func (nopPower) Execute(context.Context, PowerAction) error { return ErrPowerDisabled }
