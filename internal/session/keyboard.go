// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"time"

	"github.com/ManuGH/kiosk/internal/log"
)

func (c *Controller) toggleKeyboard(now time.Time) error {
	if !c.cfg.KeyboardEnabled {
		return ErrKeyboardDisabled
	}
	c.setKeyboard(now, !c.st.keyboardOpen, BroadcastKeyboardState)
	return nil
}

// tickKeyboard closes the keyboard after KeyboardAutoClose without interaction.
func (c *Controller) tickKeyboard(now time.Time) {
	if !c.st.keyboardOpen {
		return
	}
	last := c.st.keyboardLastUse
	if c.st.lastUserInteraction.After(last) {
		last = c.st.lastUserInteraction
	}
	if now.Sub(last) >= c.cfg.KeyboardAutoClose {
		c.setKeyboard(now, false, BroadcastKeyboardAutoClose)
	}
}

func (c *Controller) setKeyboard(now time.Time, open bool, broadcast string) {
	c.st.keyboardOpen = open
	c.st.keyboardLastUse = now
	c.display.Broadcast(broadcast, map[string]any{"open": open})
	event := "keyboard.changed"
	if broadcast == BroadcastKeyboardAutoClose {
		event = "keyboard.auto_closed"
	}
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemKeyboard).
		Str(log.FieldEvent, event).
		Bool("open", open).
		Msg("[KEYBOARD] keyboard state changed")
}
