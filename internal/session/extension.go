// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// Extension sources.
const (
	sourcePause  = "pause"
	sourcePrompt = "prompt"
)

// checkExtensionMinutes validates a selection. Zero is a valid "no selection".
func (c *Controller) checkExtensionMinutes(minutes int) error {
	if minutes < 0 {
		return ErrInvalidExtension
	}
	if minutes > c.cfg.Pause.MaxMinutes {
		return ErrExtensionTooLong
	}
	return nil
}

// grantExtension suppresses rotation and home-return until now+minutes. When
// password protection is enabled the lockout clock restarts with it.
func (c *Controller) grantExtension(now time.Time, minutes int, source string) error {
	if err := c.checkExtensionMinutes(minutes); err != nil {
		return err
	}
	if minutes == 0 {
		return nil
	}

	c.st.extensionUntil = now.Add(time.Duration(minutes) * time.Minute)
	c.st.siteStartTime = now
	c.st.extensionCoversLockout = false
	if c.lockoutEnabled() {
		c.st.lockoutActivityTime = now
		c.st.extensionCoversLockout = true
	}

	metrics.IncExtension(source)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemPause).
		Str(log.FieldEvent, "pause.granted").
		Str("source", source).
		Int(log.FieldMinutes, minutes).
		Time(log.FieldUntil, c.st.extensionUntil).
		Bool("covers_lockout", c.st.extensionCoversLockout).
		Msg("[PAUSE] extension granted")
	return nil
}

// tickExtension ends an elapsed extension and restarts the interaction and
// rotation clocks in the same pass.
func (c *Controller) tickExtension(now time.Time) {
	if c.st.extensionUntil.IsZero() || now.Before(c.st.extensionUntil) {
		return
	}
	until := c.st.extensionUntil
	c.st.extensionUntil = time.Time{}
	c.st.extensionCoversLockout = false
	c.st.lastUserInteraction = now
	c.st.siteStartTime = now
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemPause).
		Str(log.FieldEvent, "pause.expired").
		Time(log.FieldUntil, until).
		Msg("[PAUSE] extension expired")
}

// clearExtension drops a pending extension. It reports whether one was set.
func (c *Controller) clearExtension(reason string) bool {
	if c.st.extensionUntil.IsZero() {
		return false
	}
	c.st.extensionUntil = time.Time{}
	c.st.extensionCoversLockout = false
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemPause).
		Str(log.FieldEvent, "pause.cleared").
		Str(log.FieldReason, reason).
		Msg("[PAUSE] extension cleared")
	return true
}

func (c *Controller) showPauseDialog() error {
	if c.st.showingHidden || !c.currentView().Rotating() {
		return ErrNotRotating
	}
	return c.openDialog(DialogPause, map[string]any{
		"options":    c.cfg.Pause.Options,
		"maxMinutes": c.cfg.Pause.MaxMinutes,
	})
}

// selectPause answers the pause dialog. Zero minutes cancels without touching state.
func (c *Controller) selectPause(now time.Time, minutes int) error {
	if c.st.dialog != DialogPause {
		return ErrNoDialog
	}
	if err := c.checkExtensionMinutes(minutes); err != nil {
		return err
	}
	c.closeDialog(DialogPause)
	if minutes == 0 {
		c.logger.Info().
			Str(log.FieldSubsystem, log.SubsystemPause).
			Str(log.FieldEvent, "pause.cancelled").
			Msg("[PAUSE] pause dialog cancelled")
		return nil
	}
	return c.grantExtension(now, minutes, sourcePause)
}
