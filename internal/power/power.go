// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package power carries out power menu actions on the host.
package power

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/procgroup"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/rs/zerolog"
)

var ErrNoReloadHook = errors.New("reload hook not configured")

// Runner starts a host command without waiting for it to finish.
type Runner interface {
	Start(name string, args ...string) error
}

// ExecRunner runs commands via os/exec and reaps them in the background.
type ExecRunner struct {
	Logger zerolog.Logger
}

func (r ExecRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 -- fixed argv from Commands
	procgroup.Set(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			r.Logger.Error().Err(err).Str("cmd", name).Msg("[POWER] host command failed")
		}
	}()
	return nil
}

// Commands maps shutdown and restart onto host argv.
type Commands struct {
	Shutdown []string
	Restart  []string
}

// DefaultCommands uses systemd.
func DefaultCommands() Commands {
	return Commands{
		Shutdown: []string{"systemctl", "poweroff"},
		Restart:  []string{"systemctl", "reboot"},
	}
}

// Executor implements session.PowerExecutor. Execute returns as soon as the
// action is started; the controller loop never waits on the host.
type Executor struct {
	commands Commands
	runner   Runner
	reload   func()
	logger   zerolog.Logger
}

// NewExecutor builds an executor. reload is invoked for the reload action,
// typically cancelling the daemon context so the service manager relaunches it.
func NewExecutor(commands Commands, runner Runner, reload func()) *Executor {
	logger := log.WithComponent("power")
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Executor{commands: commands, runner: runner, reload: reload, logger: logger}
}

func (e *Executor) Execute(_ context.Context, action session.PowerAction) error {
	var argv []string
	switch action {
	case session.PowerShutdown:
		argv = e.commands.Shutdown
	case session.PowerRestart:
		argv = e.commands.Restart
	case session.PowerReload:
		if e.reload == nil {
			return ErrNoReloadHook
		}
		e.logger.Info().
			Str(log.FieldSubsystem, log.SubsystemPower).
			Str(log.FieldAction, string(action)).
			Msg("[POWER] relaunching application")
		go e.reload()
		return nil
	default:
		return fmt.Errorf("%w: %q", session.ErrInvalidArgument, action)
	}

	if len(argv) == 0 {
		return fmt.Errorf("no command configured for %s", action)
	}
	e.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemPower).
		Str(log.FieldAction, string(action)).
		Strs("argv", argv).
		Msg("[POWER] running host command")
	return e.runner.Start(argv[0], argv[1:]...)
}

var _ session.PowerExecutor = (*Executor)(nil)
