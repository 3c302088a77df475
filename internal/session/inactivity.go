// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// Home-return triggers.
const (
	triggerTimeout = "timeout"
	triggerAnswer  = "answer"
)

// tickHome resolves an unanswered prompt or raises one when a manual or
// hidden view has been idle for the inactivity timeout.
func (c *Controller) tickHome(now time.Time) {
	if c.homeView < 0 {
		return
	}
	if c.st.dialog == DialogInactivity {
		if !now.Before(c.st.promptDeadline) {
			c.closeDialog(DialogInactivity)
			c.returnHome(now, triggerTimeout)
		}
		return
	}
	if c.st.dialog != DialogNone || c.extensionActive(now) {
		return
	}
	v := c.currentView()
	if v.Site.Duration > 0 {
		return
	}
	if !c.st.showingHidden && c.st.view == c.homeView {
		return
	}
	idle := now.Sub(c.st.lastUserInteraction)
	if idle < c.cfg.InactivityTimeout {
		return
	}

	if err := c.openDialog(DialogInactivity, map[string]any{
		"timeoutSeconds": int(c.cfg.PromptTimeout / time.Second),
		"options":        c.cfg.Pause.Options,
	}); err != nil {
		return
	}
	c.st.promptDeadline = now.Add(c.cfg.PromptTimeout)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemHome).
		Str(log.FieldEvent, "home.prompt").
		Str(log.FieldView, v.ID).
		Dur(log.FieldIdle, idle).
		Time("deadline", c.st.promptDeadline).
		Msg("[HOME] inactivity prompt opened")
}

// tickIdleDialog cancels a PIN or pause dialog left untouched for the
// inactivity timeout, so rotation and home-return are not held off forever.
func (c *Controller) tickIdleDialog(now time.Time) {
	d := c.st.dialog
	if d != DialogPIN && d != DialogPause {
		return
	}
	idle := now.Sub(c.st.lastUserInteraction)
	if c.cfg.InactivityTimeout <= 0 || idle < c.cfg.InactivityTimeout {
		return
	}
	c.closeDialog(d)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemDialog).
		Str(log.FieldEvent, "dialog.abandoned").
		Str(log.FieldDialog, string(d)).
		Dur(log.FieldIdle, idle).
		Msg("[DIALOG] idle dialog cancelled")
}

// answerPrompt applies an inactivity prompt response.
func (c *Controller) answerPrompt(now time.Time, response string, minutes int) error {
	if c.st.dialog != DialogInactivity {
		return ErrNoDialog
	}
	switch response {
	case ResponseStillHere:
		c.closeDialog(DialogInactivity)
		// The lockout clock is left alone: presence is only confirmed by unlock or an extension.
		c.st.lastUserInteraction = now
		c.st.siteStartTime = now
		c.logger.Info().
			Str(log.FieldSubsystem, log.SubsystemHome).
			Str(log.FieldEvent, "home.still_here").
			Msg("[HOME] user confirmed presence")
		return nil
	case ResponseGoHome:
		c.closeDialog(DialogInactivity)
		c.returnHome(now, triggerAnswer)
		return nil
	case ResponseExtend:
		if err := c.checkExtensionMinutes(minutes); err != nil {
			return err
		}
		c.closeDialog(DialogInactivity)
		return c.grantExtension(now, minutes, sourcePrompt)
	default:
		return ErrInvalidArgument
	}
}

// returnHome attaches the home view, leaving hidden mode and any extension.
func (c *Controller) returnHome(now time.Time, trigger string) {
	if c.st.locked || c.homeView < 0 {
		return
	}
	c.clearExtension("home-return")
	wasHidden := c.st.showingHidden
	c.st.showingHidden = false
	c.st.hiddenIndex = 0
	c.st.view = c.homeView
	c.st.lastUserInteraction = now

	home := c.reg.Normal(c.homeView)
	c.attach(now, home)
	metrics.IncHomeReturn(trigger)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemHome).
		Str(log.FieldEvent, "home.returned").
		Str("trigger", trigger).
		Str(log.FieldView, home.ID).
		Bool("from_hidden", wasHidden).
		Msg("[HOME] returned to home site")
}
