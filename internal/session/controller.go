// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package session implements the kiosk session controller: one owned state
// driven by a periodic tick and a synchronous command dispatcher.
package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ManuGH/kiosk/internal/clock"
	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
	"github.com/rs/zerolog"
)

const inboxSize = 64

// Options wires a controller to its collaborators. Nil ports fall back to no-ops.
type Options struct {
	Settings config.Settings
	Clock    clock.Clock
	Display  Display
	Querier  MediaQuerier
	Auditor  Auditor
	Power    PowerExecutor
	BootFlag FlagSource
	WakeFlag FlagSource
	Logger   *zerolog.Logger
}

// Controller owns the session state. Tick and Dispatch are not safe for
// concurrent use; Run serialises them onto one goroutine and Submit is the
// concurrent entry point.
type Controller struct {
	cfg      config.Settings
	clock    clock.Clock
	display  Display
	querier  MediaQuerier
	auditor  Auditor
	power    PowerExecutor
	bootFlag FlagSource
	wakeFlag FlagSource
	logger   zerolog.Logger

	reg        *Registry
	sched      schedule
	credential Credential
	homeView   int // normal view index of the home site, -1 when disabled

	st      state
	started bool
	ctx     context.Context

	inbox    chan inboxMsg
	requests chan request
	stopped  chan struct{}
	notify   chan struct{}

	snapshot atomic.Pointer[Snapshot]
	lastKey  changeKey
}

// New builds a controller from a validated settings snapshot.
func New(opts Options) (*Controller, error) {
	reg, err := NewRegistry(opts.Settings.Sites)
	if err != nil {
		return nil, err
	}
	sched, err := parseSchedule(opts.Settings.Lockout.ActiveHours, opts.Settings.Lockout.DailyLockTime)
	if err != nil {
		return nil, fmt.Errorf("lockout schedule: %w", err)
	}

	c := &Controller{
		cfg:        opts.Settings,
		clock:      opts.Clock,
		display:    opts.Display,
		querier:    opts.Querier,
		auditor:    opts.Auditor,
		power:      opts.Power,
		bootFlag:   opts.BootFlag,
		wakeFlag:   opts.WakeFlag,
		reg:        reg,
		sched:      sched,
		credential: NewCredential(opts.Settings.Lockout.PasswordHash),
		homeView:   -1,
		ctx:        context.Background(),
		inbox:      make(chan inboxMsg, inboxSize),
		requests:   make(chan request),
		stopped:    make(chan struct{}),
		notify:     make(chan struct{}, 1),
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	if c.display == nil {
		c.display = nopDisplay{}
	}
	if c.querier == nil {
		c.querier = nopQuerier{}
	}
	if c.auditor == nil {
		c.auditor = nopAuditor{}
	}
	if c.power == nil {
		c.power = nopPower{}
	}
	if opts.Logger != nil {
		c.logger = *opts.Logger
	} else {
		c.logger = log.WithComponent("session")
	}

	if home := opts.Settings.HomeIndex; home != config.NoHome {
		if idx, ok := reg.NormalIndexOfSite(home); ok {
			c.homeView = idx
		} else {
			c.logger.Warn().Int(log.FieldSiteIndex, home).Msg("[HOME] home index is not a visible site, home-return disabled")
		}
	}

	c.publish()
	return c, nil
}

// Start evaluates the boot flag and attaches the initial view. A boot lock
// happens before anything is attached.
func (c *Controller) Start() error {
	if c.started {
		return nil
	}
	c.started = true
	now := c.clock.Now()
	c.st.lastUserInteraction = now
	c.st.lockoutActivityTime = now
	c.st.siteStartTime = now
	c.st.lastTick = now
	c.st.keyboardLastUse = now

	bootFlagged := false
	if c.bootFlag != nil {
		present, err := c.bootFlag.Consume()
		if err != nil {
			c.logger.Warn().Err(err).Msg("[LOCKOUT] boot flag check failed")
		}
		bootFlagged = present
	}

	if bootFlagged && c.lockoutEnabled() && c.cfg.Lockout.RequirePasswordOnBoot {
		c.lock(now, LockBoot)
	} else {
		c.attach(now, c.currentView())
	}

	c.logger.Info().
		Str(log.FieldEvent, "session.started").
		Int("normal_views", c.reg.NormalCount()).
		Int("hidden_views", c.reg.HiddenCount()).
		Bool("locked", c.st.locked).
		Msg("session controller started")
	c.publish()
	return nil
}

// Tick runs one pass of the time-driven subsystems in fixed order.
func (c *Controller) Tick() {
	began := time.Now()
	now := c.clock.Now()
	c.st.lastTick = now

	c.drainInbox(now)

	c.tickKeyboard(now)
	c.tickLockout(now)
	c.tickWakeFlag(now)
	if !c.st.locked && c.st.attached {
		c.tickMedia(now)
		c.tickExtension(now)
		c.tickIdleDialog(now)
		if !c.tickRotation(now) {
			c.tickHome(now)
		}
	}

	c.publish()
	metrics.ObserveTick(time.Since(began))
}

// Snapshot returns the last published state. Safe for concurrent use.
func (c *Controller) Snapshot() Snapshot {
	return *c.snapshot.Load()
}

// Locked reports whether the published state shows the lock screen.
func (c *Controller) Locked() bool { return c.snapshot.Load().Locked }

// Changes is signalled (coalesced) whenever the published state changes.
func (c *Controller) Changes() <-chan struct{} { return c.notify }

// Registry exposes the immutable view sets.
func (c *Controller) Registry() *Registry { return c.reg }

func (c *Controller) lockoutEnabled() bool { return c.cfg.Lockout.Enabled }

func (c *Controller) currentView() View {
	if c.st.showingHidden {
		return c.reg.Hidden(c.st.hiddenIndex)
	}
	return c.reg.Normal(c.st.view)
}

func (c *Controller) foreground() Foreground {
	switch {
	case c.st.locked:
		return ForegroundLocked
	case c.st.showingHidden:
		return ForegroundHidden
	default:
		return ForegroundNormal
	}
}

// attach makes v the visible surface and restarts its rotation clock.
func (c *Controller) attach(now time.Time, v View) {
	if c.st.locked {
		c.logger.Warn().Str(log.FieldView, v.ID).Msg("attach refused while locked")
		return
	}
	c.display.Attach(v)
	c.st.attached = true
	c.st.siteStartTime = now
	c.resetMedia()
	c.sendViewSignals(v)
	metrics.SetShowingHidden(c.st.showingHidden)
}

func (c *Controller) sendViewSignals(v View) {
	c.display.Signal(v, SignalPauseButton, v.Rotating())
	c.display.Signal(v, SignalKeyboardButton, c.cfg.KeyboardEnabled)
}

func (c *Controller) extensionActive(now time.Time) bool {
	return !c.st.extensionUntil.IsZero() && now.Before(c.st.extensionUntil)
}

// openDialog claims the single dialog slot.
func (c *Controller) openDialog(d Dialog, payload map[string]any) error {
	if c.st.dialog != DialogNone {
		metrics.IncDialogConflict(string(d), string(c.st.dialog))
		c.logger.Info().
			Str(log.FieldSubsystem, log.SubsystemDialog).
			Str(log.FieldEvent, "dialog.conflict").
			Str(log.FieldDialog, string(d)).
			Str("open_dialog", string(c.st.dialog)).
			Msg("[DIALOG] open refused, another dialog is active")
		return ErrDialogOpen
	}
	c.st.dialog = d
	c.display.OpenDialog(d, payload)
	c.logger.Debug().
		Str(log.FieldSubsystem, log.SubsystemDialog).
		Str(log.FieldEvent, "dialog.opened").
		Str(log.FieldDialog, string(d)).
		Msg("[DIALOG] opened")
	return nil
}

// closeDialog is idempotent: closing a dialog that is not open changes nothing.
func (c *Controller) closeDialog(d Dialog) bool {
	if d == DialogNone || c.st.dialog != d || d == DialogLockout {
		return false
	}
	c.st.dialog = DialogNone
	if d == DialogInactivity {
		c.st.promptDeadline = time.Time{}
	}
	c.display.CloseDialog(d)
	c.logger.Debug().
		Str(log.FieldSubsystem, log.SubsystemDialog).
		Str(log.FieldEvent, "dialog.closed").
		Str(log.FieldDialog, string(d)).
		Msg("[DIALOG] closed")
	return true
}

func (c *Controller) publish() {
	now := c.clock.Now()
	v := c.currentView()
	s := Snapshot{
		Foreground:             c.foreground(),
		SiteIndex:              v.Site.Index,
		NormalIndex:            c.st.view,
		HiddenIndex:            -1,
		ShowingHidden:          c.st.showingHidden,
		Attached:               c.st.attached,
		Locked:                 c.st.locked,
		LockReason:             c.st.lockReason,
		Dialog:                 c.st.dialog,
		PromptDeadline:         timePtr(c.st.promptDeadline),
		ExtensionUntil:         timePtr(c.st.extensionUntil),
		ExtensionCoversLockout: c.st.extensionCoversLockout,
		MediaPlaying:           c.st.mediaPlaying,
		KeyboardOpen:           c.st.keyboardOpen,
		LastTick:               c.st.lastTick,
		Version:                c.cfg.Version,
	}
	if c.st.showingHidden {
		s.HiddenIndex = c.st.hiddenIndex
	}
	if !c.st.locked && c.st.attached {
		s.ViewID = v.ID
		s.URL = config.MaskURL(v.Site.URL)
	}
	if !c.st.lastUserInteraction.IsZero() {
		s.IdleSeconds = int64(now.Sub(c.st.lastUserInteraction) / time.Second)
	}
	c.snapshot.Store(&s)

	if k := s.key(); k != c.lastKey {
		c.lastKey = k
		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}
