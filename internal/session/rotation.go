// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// tickRotation advances to the next rotating view once the current one has
// been shown for its duration. It reports whether a new view was attached.
func (c *Controller) tickRotation(now time.Time) bool {
	if c.st.locked || c.st.showingHidden || c.st.dialog != DialogNone {
		return false
	}
	v := c.currentView()
	if !v.Rotating() {
		return false
	}
	if c.mediaBlocksRotation(now) || c.extensionActive(now) {
		return false
	}
	if now.Sub(c.st.siteStartTime) < v.Site.RotationPeriod() {
		return false
	}

	next, ok := c.reg.NextRotating(c.st.view)
	if !ok {
		// Sole rotating view: restart its clock instead of re-attaching.
		c.st.siteStartTime = now
		c.logger.Debug().
			Str(log.FieldSubsystem, log.SubsystemRotation).
			Str(log.FieldEvent, "rotation.stay").
			Str(log.FieldView, v.ID).
			Msg("[ROTATION] no other rotating site, staying")
		return false
	}

	c.st.view = next
	target := c.reg.Normal(next)
	c.attach(now, target)
	metrics.IncRotation()
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemRotation).
		Str(log.FieldEvent, "rotation.advanced").
		Str("from", v.ID).
		Str(log.FieldView, target.ID).
		Int(log.FieldSiteIndex, target.Site.Index).
		Msg("[ROTATION] advanced to next site")
	return true
}

// navigate moves by delta within the active view set. Manual navigation ends
// any running extension.
func (c *Controller) navigate(now time.Time, delta int) {
	c.clearExtension("navigation")

	if c.st.showingHidden {
		n := c.reg.HiddenCount()
		c.st.hiddenIndex = ((c.st.hiddenIndex+delta)%n + n) % n
	} else {
		n := c.reg.NormalCount()
		next := ((c.st.view+delta)%n + n) % n
		if next == c.st.view && c.st.attached {
			c.st.siteStartTime = now
			return
		}
		c.st.view = next
	}

	v := c.currentView()
	c.attach(now, v)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemRotation).
		Str(log.FieldEvent, "rotation.manual").
		Str(log.FieldView, v.ID).
		Bool(log.FieldHidden, c.st.showingHidden).
		Int("delta", delta).
		Msg("[ROTATION] manual navigation")
}
