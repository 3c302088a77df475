// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/session"
)

// Runner is a long-lived subsystem stopped by cancelling its context.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// LockState reports whether the session is locked. A controller that
// implements it makes Reload refuse while the lock screen is up.
type LockState interface {
	Locked() bool
}

type namedRunner struct {
	name string
	run  Runner
}

// App owns the long-lived runtime: the session controller loop, background
// writers and watchers, and the reload wiring. Listeners are delegated to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	controller   Runner
	lock         LockState
	tasks        []namedRunner
	reloadSignal os.Signal

	mu       sync.Mutex
	cancel   context.CancelCauseFunc
	reloaded bool
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, controller Runner) *App {
	a := &App{
		logger:       logger,
		manager:      manager,
		controller:   controller,
		reloadSignal: syscall.SIGHUP,
	}
	if ls, ok := controller.(LockState); ok {
		a.lock = ls
	}
	return a
}

// Manager returns the listener manager, mainly for registering shutdown hooks.
func (a *App) Manager() Manager { return a.manager }

// AddTask registers a background subsystem started alongside the controller.
// Must be called before Run.
func (a *App) AddTask(name string, r Runner) {
	a.tasks = append(a.tasks, namedRunner{name: name, run: r})
}

// Reload stops the daemon so the service manager can relaunch it with fresh
// configuration. Run then returns ErrReloadRequested. Safe for concurrent use
// and idempotent; a reload requested before Run takes effect as soon as Run starts.
// While the session is locked the request is refused with session.ErrReloadWhileLocked,
// since the relaunched process would come up without the lock.
func (a *App) Reload() error {
	if a.lock != nil && a.lock.Locked() {
		a.logger.Warn().Str(log.FieldEvent, "daemon.reload_refused").Msg("reload refused while session is locked")
		return session.ErrReloadWhileLocked
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.reloaded {
		return nil
	}
	a.reloaded = true
	a.logger.Info().Str(log.FieldEvent, "daemon.reload").Msg("reload requested, stopping for relaunch")
	if a.cancel != nil {
		a.cancel(ErrReloadRequested)
	}
	return nil
}

// Run starts every owned subsystem and blocks until ctx is cancelled, a
// reload is requested or one of them fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}
	if a.controller == nil {
		return ErrMissingController
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	a.mu.Lock()
	a.cancel = cancel
	if a.reloaded {
		cancel(ErrReloadRequested)
	}
	a.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.controller.Run(gctx); err != nil {
			a.logger.Error().Err(err).Str(log.FieldEvent, "session.failed").Msg("session controller failed")
			return err
		}
		return nil
	})

	for _, t := range a.tasks {
		t := t
		g.Go(func() error {
			if err := t.run.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Str("task", t.name).Str(log.FieldEvent, "task.failed").Msg("background task failed")
				return err
			}
			return nil
		})
	}

	if a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "daemon.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal")
					if err := a.Reload(); err == nil {
						return nil
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(gctx)
		if err != nil {
			_ = a.manager.Shutdown(context.WithoutCancel(gctx))
		}
		return err
	})

	err := g.Wait()
	if errors.Is(context.Cause(ctx), ErrReloadRequested) {
		if err != nil {
			return errors.Join(ErrReloadRequested, err)
		}
		return ErrReloadRequested
	}
	return err
}
