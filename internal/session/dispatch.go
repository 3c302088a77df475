// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"errors"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// CommandName identifies an external command.
type CommandName string

const (
	CmdTabNext              CommandName = "tab-next"
	CmdTabPrev              CommandName = "tab-prev"
	CmdSwipeLeft            CommandName = "swipe-left"
	CmdSwipeRight           CommandName = "swipe-right"
	CmdToggleHidden         CommandName = "toggle-hidden"
	CmdForceReturn          CommandName = "force-return"
	CmdShowPowerMenu        CommandName = "show-power-menu"
	CmdPowerAction          CommandName = "power-action"
	CmdUserActivity         CommandName = "user-activity"
	CmdActivityPing         CommandName = "activity-ping"
	CmdShowKeyboard         CommandName = "show-keyboard"
	CmdShowPauseDialog      CommandName = "show-pause-dialog"
	CmdPauseSelect          CommandName = "pause-select"
	CmdPINSubmit            CommandName = "pin-submit"
	CmdPINCancel            CommandName = "pin-cancel"
	CmdCloseDialog          CommandName = "close-dialog"
	CmdInactivityResponse   CommandName = "inactivity-response"
	CmdCheckLockoutPassword CommandName = "check-lockout-password"
	CmdUnlockAttempt        CommandName = "unlock-attempt"
)

// Command is one external input. Only the fields relevant to Name are read.
type Command struct {
	Name     CommandName `json:"command"`
	Minutes  int         `json:"minutes,omitempty"`
	PIN      string      `json:"pin,omitempty"`
	Password string      `json:"password,omitempty"`
	Response string      `json:"response,omitempty"`
	Action   PowerAction `json:"action,omitempty"`
	Dialog   Dialog      `json:"dialog,omitempty"`
}

type handler struct {
	// whileLocked admits the command past the lock.
	whileLocked bool
	// blockedByDialog marks rotation-affecting commands refused while a dialog is open.
	blockedByDialog bool
	run             func(c *Controller, now time.Time, cmd Command) error
}

var aliases = map[CommandName]CommandName{
	CmdSwipeLeft:     CmdTabNext,
	CmdSwipeRight:    CmdTabPrev,
	CmdActivityPing:  CmdUserActivity,
	CmdUnlockAttempt: CmdCheckLockoutPassword,
}

var handlers = map[CommandName]handler{
	CmdTabNext: {blockedByDialog: true, run: func(c *Controller, now time.Time, _ Command) error {
		c.navigate(now, 1)
		return nil
	}},
	CmdTabPrev: {blockedByDialog: true, run: func(c *Controller, now time.Time, _ Command) error {
		c.navigate(now, -1)
		return nil
	}},
	CmdToggleHidden: {blockedByDialog: true, run: func(c *Controller, now time.Time, _ Command) error {
		return c.toggleHidden(now)
	}},
	CmdShowPauseDialog: {blockedByDialog: true, run: func(c *Controller, _ time.Time, _ Command) error {
		return c.showPauseDialog()
	}},
	CmdForceReturn: {run: func(c *Controller, now time.Time, _ Command) error {
		c.forceReturn(now)
		return nil
	}},
	CmdUserActivity: {run: func(*Controller, time.Time, Command) error { return nil }},
	CmdShowKeyboard: {run: func(c *Controller, now time.Time, _ Command) error {
		return c.toggleKeyboard(now)
	}},
	CmdPauseSelect: {run: func(c *Controller, now time.Time, cmd Command) error {
		return c.selectPause(now, cmd.Minutes)
	}},
	CmdPINSubmit: {run: func(c *Controller, now time.Time, cmd Command) error {
		return c.submitPIN(now, cmd.PIN)
	}},
	CmdPINCancel: {run: func(c *Controller, _ time.Time, _ Command) error {
		c.closeDialog(DialogPIN)
		return nil
	}},
	CmdCloseDialog: {run: func(c *Controller, _ time.Time, cmd Command) error {
		switch cmd.Dialog {
		case DialogPIN, DialogPause, DialogInactivity:
			c.closeDialog(cmd.Dialog)
			return nil
		default:
			return ErrInvalidArgument
		}
	}},
	CmdInactivityResponse: {run: func(c *Controller, now time.Time, cmd Command) error {
		return c.answerPrompt(now, cmd.Response, cmd.Minutes)
	}},
	CmdShowPowerMenu: {whileLocked: true, run: func(c *Controller, _ time.Time, _ Command) error {
		return c.showPowerMenu()
	}},
	CmdPowerAction: {whileLocked: true, run: func(c *Controller, now time.Time, cmd Command) error {
		return c.runPowerAction(now, cmd.Action)
	}},
	CmdCheckLockoutPassword: {whileLocked: true, run: func(c *Controller, now time.Time, cmd Command) error {
		return c.unlock(now, cmd.Password)
	}},
}

// Canonical resolves command aliases (swipe-left is tab-next, and so on).
func Canonical(name CommandName) CommandName {
	if target, ok := aliases[name]; ok {
		return target
	}
	return name
}

// Known reports whether name (or its alias target) is a dispatchable command.
func Known(name CommandName) bool {
	_, ok := handlers[Canonical(name)]
	return ok
}

// Dispatch is the single synchronous entry point for external commands.
// Precedence: lock, then an open dialog, then the command itself followed by
// the activity path.
func (c *Controller) Dispatch(cmd Command) error {
	now := c.clock.Now()
	name := Canonical(cmd.Name)
	h, ok := handlers[name]
	if !ok {
		metrics.IncCommand("unknown", "rejected")
		return ErrUnknownCommand
	}
	if !c.started {
		metrics.IncCommand(string(name), "rejected")
		return ErrControllerStopped
	}
	defer c.publish()

	if c.st.locked && !h.whileLocked {
		metrics.IncCommand(string(name), "locked")
		c.logger.Debug().
			Str(log.FieldCommand, string(name)).
			Msg("[LOCKOUT] command ignored while locked")
		return ErrLocked
	}
	if h.blockedByDialog && c.st.dialog != DialogNone {
		metrics.IncCommand(string(name), "dialog_open")
		c.logger.Debug().
			Str(log.FieldCommand, string(name)).
			Str(log.FieldDialog, string(c.st.dialog)).
			Msg("[DIALOG] command blocked by open dialog")
		return ErrDialogOpen
	}
	err := h.run(c, now, cmd)
	if !c.st.locked {
		// A rejected prompt answer leaves the prompt up, like a rejected pause selection.
		c.recordActivity(now, err == nil || name != CmdInactivityResponse)
	}

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrDialogOpen):
		outcome = "dialog_open"
	default:
		outcome = "rejected"
	}
	metrics.IncCommand(string(name), outcome)
	c.logger.Debug().
		Str(log.FieldCommand, string(name)).
		Str("outcome", outcome).
		AnErr("error", err).
		Msg("command dispatched")
	return err
}

// recordActivity is the activity-ping path. It never touches the lockout clock.
func (c *Controller) recordActivity(now time.Time, closePrompt bool) {
	c.st.lastUserInteraction = now
	if closePrompt {
		c.closeDialog(DialogInactivity)
	}
}
