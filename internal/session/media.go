// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/metrics"
)

// tickMedia fires a query for the visible rotating view unless one is pending.
// Results arrive through the inbox and are applied on a later pass.
func (c *Controller) tickMedia(now time.Time) {
	v := c.currentView()
	if !v.Rotating() || c.st.showingHidden {
		return
	}
	if c.st.queryInFlight {
		// A query that never answered is abandoned so the cadence survives.
		if now.Sub(c.st.queryStarted) < 2*c.cfg.MediaQueryTimeout {
			return
		}
		c.st.queryInFlight = false
		metrics.IncMediaQuery("error")
	}

	c.st.queryInFlight = true
	c.st.queryStarted = now
	seq := c.st.mediaSeq
	viewID := v.ID

	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.MediaQueryTimeout)
	c.querier.QueryMedia(ctx, v, func(playing bool, err error) {
		cancel()
		c.enqueue(inboxMsg{kind: inboxMedia, viewID: viewID, seq: seq, playing: playing, err: err})
	})
}

func (c *Controller) applyMediaReport(now time.Time, msg inboxMsg) {
	if msg.seq != c.st.mediaSeq || c.st.locked || msg.viewID != c.currentView().ID {
		metrics.IncMediaQuery("stale")
		return
	}
	c.st.queryInFlight = false
	if msg.err != nil {
		metrics.IncMediaQuery("error")
		c.logger.Debug().Err(msg.err).Str(log.FieldView, msg.viewID).Msg("[MEDIA] query failed")
		return
	}
	if msg.playing {
		metrics.IncMediaQuery("playing")
	} else {
		metrics.IncMediaQuery("idle")
	}
	if msg.playing == c.st.mediaPlaying {
		return
	}
	c.st.mediaPlaying = msg.playing
	c.st.mediaChangeTime = now
	metrics.SetMediaPlaying(msg.playing)
	c.logger.Info().
		Str(log.FieldSubsystem, log.SubsystemMedia).
		Str(log.FieldEvent, "media.changed").
		Str(log.FieldView, msg.viewID).
		Bool("playing", msg.playing).
		Msg("[MEDIA] playback state changed")
}

// mediaBlocksRotation reports playing media or a running post-media grace period.
func (c *Controller) mediaBlocksRotation(now time.Time) bool {
	if c.st.mediaPlaying {
		return true
	}
	return !c.st.mediaChangeTime.IsZero() && now.Sub(c.st.mediaChangeTime) < c.cfg.MediaGrace
}

// resetMedia forgets the media state of the previous view.
func (c *Controller) resetMedia() {
	c.st.mediaSeq++
	c.st.queryInFlight = false
	if c.st.mediaPlaying {
		metrics.SetMediaPlaying(false)
	}
	c.st.mediaPlaying = false
	c.st.mediaChangeTime = time.Time{}
}
