// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// tickLockout evaluates the daily lock time and the lockout inactivity clock.
func (c *Controller) tickLockout(now time.Time) {
	if !c.lockoutEnabled() {
		return
	}

	// A daily minute that passes while already locked counts as fired, so an
	// unlock inside that minute does not lock again.
	if key, due := c.sched.dailyKey(now); due && key != c.st.lastDaily {
		c.st.lastDaily = key
		if !c.st.locked {
			c.lock(now, LockDaily)
		}
		return
	}
	if c.st.locked {
		return
	}

	timeout := c.cfg.Lockout.Timeout
	if timeout <= 0 || !c.sched.withinActiveHours(now) {
		return
	}
	if c.extensionActive(now) && c.st.extensionCoversLockout {
		return
	}
	if now.Sub(c.st.lockoutActivityTime) >= timeout {
		c.lock(now, LockInactivity)
	}
}

// tickWakeFlag consumes the display-wake sentinel.
func (c *Controller) tickWakeFlag(now time.Time) {
	if c.wakeFlag == nil {
		return
	}
	present, err := c.wakeFlag.Consume()
	if err != nil {
		c.logger.Warn().Err(err).Msg("[LOCKOUT] wake flag check failed")
		return
	}
	if !present {
		return
	}
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemLockout).
		Str(log.FieldEvent, "lockout.wake_flag").
		Bool("locked", c.st.locked).
		Msg("[LOCKOUT] display wake detected")
	if c.lockoutEnabled() && c.cfg.Lockout.RequirePasswordOnWake && !c.st.locked {
		c.lock(now, LockWake)
	}
}

// lock detaches every surface and shows the password screen. It supersedes
// any open dialog.
func (c *Controller) lock(now time.Time, reason LockReason) {
	if c.st.locked {
		return
	}
	if open := c.st.dialog; open != DialogNone {
		c.closeDialog(open)
	}
	if c.st.keyboardOpen {
		c.setKeyboard(now, false, BroadcastKeyboardState)
	}

	c.st.locked = true
	c.st.lockReason = reason
	c.resetMedia()
	c.display.DetachAll()
	c.display.ShowLockScreen()
	c.st.dialog = DialogLockout

	metrics.IncLockout(string(reason))
	metrics.SetLocked(true)
	c.auditor.Locked(string(reason), now)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemLockout).
		Str(log.FieldEvent, "lockout.locked").
		Str(log.FieldReason, string(reason)).
		Msg("[LOCKOUT] session locked")
}

// unlock checks password and, on success, reattaches the previous view and
// restarts the lockout clock.
func (c *Controller) unlock(now time.Time, password string) error {
	if !c.st.locked {
		return ErrNotLocked
	}
	if !c.credential.Verify(password) {
		metrics.IncUnlockAttempt(false)
		c.auditor.UnlockFailed(now)
		c.display.Broadcast(BroadcastPasswordIncorrect, nil)
		c.logger.Warn().
			Str(log.FieldSubsystem, log.SubsystemLockout).
			Str(log.FieldEvent, "lockout.unlock_failed").
			Msg("[LOCKOUT] incorrect password")
		return ErrPasswordIncorrect
	}

	reason := c.st.lockReason
	c.st.locked = false
	c.st.lockReason = ""
	c.st.dialog = DialogNone
	c.display.HideLockScreen()

	c.st.lockoutActivityTime = now
	c.st.lastUserInteraction = now
	if key, due := c.sched.dailyKey(now); due {
		c.st.lastDaily = key
	}
	c.attach(now, c.currentView())

	metrics.IncUnlockAttempt(true)
	metrics.SetLocked(false)
	c.auditor.Unlocked(now)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemLockout).
		Str(log.FieldEvent, "lockout.unlocked").
		Str("locked_by", string(reason)).
		Str(log.FieldView, c.currentView().ID).
		Msg("[LOCKOUT] session unlocked")
	return nil
}
