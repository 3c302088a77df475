// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// PowerAction is a power menu entry.
type PowerAction string

const (
	PowerShutdown PowerAction = "shutdown"
	PowerRestart  PowerAction = "restart"
	PowerReload   PowerAction = "reload"
)

// powerOptions lists the menu entries. Reload is withheld while locked so an
// app relaunch cannot bypass the lock.
func (c *Controller) powerOptions() []PowerAction {
	opts := []PowerAction{PowerShutdown, PowerRestart}
	if !c.st.locked {
		opts = append(opts, PowerReload)
	}
	return opts
}

func (c *Controller) showPowerMenu() error {
	if !c.cfg.PowerEnabled {
		return ErrPowerDisabled
	}
	opts := c.powerOptions()
	c.display.Broadcast(BroadcastPowerMenu, map[string]any{"options": opts})
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemPower).
		Str(log.FieldEvent, "power.menu").
		Bool("locked", c.st.locked).
		Int("options", len(opts)).
		Msg("[POWER] power menu shown")
	return nil
}

func (c *Controller) runPowerAction(now time.Time, action PowerAction) error {
	if !c.cfg.PowerEnabled {
		return ErrPowerDisabled
	}
	switch action {
	case PowerShutdown, PowerRestart:
	case PowerReload:
		if c.st.locked {
			metrics.IncPowerAction(string(action), "refused")
			return ErrReloadWhileLocked
		}
	default:
		return ErrInvalidArgument
	}

	err := c.power.Execute(c.ctx, action)
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.IncPowerAction(string(action), result)
	c.auditor.PowerAction(string(action), result, now)

	ev := c.logger.Info()
	if err != nil {
		ev = c.logger.Error().Err(err)
	}
	ev.Str(log.FieldSubsystem, log.SubsystemPower).
		Str(log.FieldEvent, "power.action").
		Str(log.FieldAction, string(action)).
		Bool("locked", c.st.locked).
		Msg("[POWER] power action requested")
	return err
}
