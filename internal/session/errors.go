// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import "errors"

var (
	// ErrLocked is returned for every command except unlock and the limited power menu while locked.
	ErrLocked = errors.New("session is locked")

	// ErrNotLocked is returned for an unlock attempt on an unlocked session.
	ErrNotLocked = errors.New("session is not locked")

	// ErrDialogOpen is returned when a modal dialog blocks the command or a second dialog was requested.
	ErrDialogOpen = errors.New("another dialog is open")

	// ErrNoDialog is returned when answering a dialog that is not open.
	ErrNoDialog = errors.New("dialog is not open")

	ErrPasswordIncorrect = errors.New("password incorrect")
	ErrPINIncorrect      = errors.New("pin incorrect")

	// ErrHiddenDisabled is returned when no PIN is configured.
	ErrHiddenDisabled = errors.New("hidden views are disabled")

	ErrNoHiddenViews = errors.New("no hidden views configured")

	// ErrNotRotating is returned when the pause dialog is requested on a non-rotating view.
	ErrNotRotating = errors.New("current view does not rotate")

	ErrExtensionTooLong = errors.New("extension exceeds maximum")
	ErrInvalidExtension = errors.New("invalid extension minutes")
	ErrInvalidArgument  = errors.New("invalid command argument")
	ErrUnknownCommand   = errors.New("unknown command")

	// ErrNoViews is returned by New when no non-hidden site is configured.
	ErrNoViews = errors.New("no visible views configured")

	ErrReloadWhileLocked = errors.New("reload is not available while locked")
	ErrPowerDisabled     = errors.New("power menu is disabled")
	ErrKeyboardDisabled  = errors.New("on-screen keyboard is disabled")

	// ErrControllerStopped is returned by Submit after Run has exited.
	ErrControllerStopped = errors.New("controller stopped")
)
