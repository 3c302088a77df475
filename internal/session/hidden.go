// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// toggleHidden opens the PIN dialog, or cycles the hidden set when already
// inside it, wrapping back to the normal view after the last hidden view.
func (c *Controller) toggleHidden(now time.Time) error {
	if c.reg.HiddenCount() == 0 {
		return ErrNoHiddenViews
	}
	if c.st.showingHidden {
		next := c.st.hiddenIndex + 1
		if next >= c.reg.HiddenCount() {
			c.exitHidden(now, "cycle")
			return nil
		}
		c.st.hiddenIndex = next
		v := c.currentView()
		c.attach(now, v)
		c.logger.Info().
			Str(log.FieldSubsystem, log.SubsystemHidden).
			Str(log.FieldEvent, "hidden.cycled").
			Str(log.FieldView, v.ID).
			Msg("[HIDDEN] next hidden view")
		return nil
	}

	if c.cfg.Hidden.PIN == "" {
		metrics.IncHiddenAccess("disabled")
		c.auditor.HiddenAccess(false, "disabled", now)
		return ErrHiddenDisabled
	}
	return c.openDialog(DialogPIN, nil)
}

// submitPIN answers the PIN dialog. A wrong PIN keeps the dialog open.
func (c *Controller) submitPIN(now time.Time, pin string) error {
	if c.st.dialog != DialogPIN {
		return ErrNoDialog
	}
	if !checkPIN(c.cfg.Hidden.PIN, pin) {
		metrics.IncHiddenAccess("denied")
		c.auditor.HiddenAccess(false, "pin_incorrect", now)
		c.display.Broadcast(BroadcastPINIncorrect, nil)
		c.logger.Warn().
			Str(log.FieldSubsystem, log.SubsystemHidden).
			Str(log.FieldEvent, "hidden.denied").
			Msg("[HIDDEN] incorrect pin")
		return ErrPINIncorrect
	}

	c.closeDialog(DialogPIN)
	c.st.showingHidden = true
	c.st.hiddenIndex = 0
	v := c.currentView()
	c.attach(now, v)

	metrics.IncHiddenAccess("granted")
	c.auditor.HiddenAccess(true, "", now)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemHidden).
		Str(log.FieldEvent, "hidden.entered").
		Str(log.FieldView, v.ID).
		Msg("[HIDDEN] hidden views unlocked")
	return nil
}

// forceReturn leaves hidden mode unconditionally and closes any non-lockout dialog.
func (c *Controller) forceReturn(now time.Time) {
	if open := c.st.dialog; open != DialogNone && open != DialogLockout {
		c.closeDialog(open)
	}
	if c.st.showingHidden {
		c.exitHidden(now, "force-return")
	}
}

func (c *Controller) exitHidden(now time.Time, reason string) {
	c.st.showingHidden = false
	c.st.hiddenIndex = 0
	v := c.currentView()
	c.attach(now, v)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemHidden).
		Str(log.FieldEvent, "hidden.exited").
		Str(log.FieldReason, reason).
		Str(log.FieldView, v.ID).
		Msg("[HIDDEN] returned to normal views")
}
