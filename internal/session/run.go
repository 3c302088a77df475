// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

type inboxKind int

const (
	inboxMedia inboxKind = iota
	inboxReloaded
)

// inboxMsg is a surface callback queued for the controller goroutine.
type inboxMsg struct {
	kind    inboxKind
	viewID  string
	seq     uint64
	playing bool
	err     error
}

type request struct {
	cmd   Command
	reply chan error
}

// Run serialises ticks, commands and surface reports onto the calling
// goroutine until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.stopped)
	c.ctx = ctx
	if err := c.Start(); err != nil {
		return err
	}

	ticker := c.clock.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Str(log.FieldEvent, "session.stopped").Msg("session controller stopped")
			return nil
		case <-ticker.C():
			c.Tick()
		case req := <-c.requests:
			req.reply <- c.Dispatch(req.cmd)
		case msg := <-c.inbox:
			c.applyInbox(c.clock.Now(), msg)
			c.publish()
		}
	}
}

// Submit hands cmd to the Run goroutine and waits for its result.
func (c *Controller) Submit(ctx context.Context, cmd Command) (Snapshot, error) {
	req := request{cmd: cmd, reply: make(chan error, 1)}
	select {
	case c.requests <- req:
	case <-c.stopped:
		return Snapshot{}, ErrControllerStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case err := <-req.reply:
		return c.Snapshot(), err
	case <-c.stopped:
		return Snapshot{}, ErrControllerStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// NotifyViewReloaded queues a renderer report that viewID reloaded its content.
// Safe for concurrent use.
func (c *Controller) NotifyViewReloaded(viewID string) {
	c.enqueue(inboxMsg{kind: inboxReloaded, viewID: viewID})
}

func (c *Controller) enqueue(msg inboxMsg) {
	select {
	case c.inbox <- msg:
	default:
		if msg.kind == inboxMedia {
			metrics.IncMediaQuery("dropped")
		}
		c.logger.Warn().Int("kind", int(msg.kind)).Msg("controller inbox full, report dropped")
	}
}

func (c *Controller) drainInbox(now time.Time) {
	for {
		select {
		case msg := <-c.inbox:
			c.applyInbox(now, msg)
		default:
			return
		}
	}
}

func (c *Controller) applyInbox(now time.Time, msg inboxMsg) {
	switch msg.kind {
	case inboxMedia:
		c.applyMediaReport(now, msg)
	case inboxReloaded:
		c.applyViewReloaded(msg.viewID)
	}
}

func (c *Controller) applyViewReloaded(viewID string) {
	if c.st.locked {
		return
	}
	v, ok := c.reg.ByID(viewID)
	if !ok {
		c.logger.Debug().Str(log.FieldView, viewID).Msg("reload report for unknown view")
		return
	}
	c.sendViewSignals(v)
}
