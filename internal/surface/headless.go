// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package surface

import (
	"context"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/rs/zerolog"
)

// Headless is a Display and MediaQuerier for runs without a renderer. It logs
// what a renderer would have been told and never reports playing media.
type Headless struct {
	logger zerolog.Logger
}

// NewHeadless returns a headless surface.
func NewHeadless() *Headless {
	return &Headless{logger: log.WithComponent("surface")}
}

func (h *Headless) Attach(v session.View) {
	h.logger.Debug().Str(log.FieldView, v.ID).Str(log.FieldURL, v.Site.URL).Msg("headless attach")
}

func (h *Headless) DetachAll()      { h.logger.Debug().Msg("headless detach all") }
func (h *Headless) ShowLockScreen() { h.logger.Debug().Msg("headless lock screen") }
func (h *Headless) HideLockScreen() { h.logger.Debug().Msg("headless unlock screen") }

func (h *Headless) OpenDialog(d session.Dialog, _ map[string]any) {
	h.logger.Debug().Str(log.FieldDialog, string(d)).Msg("headless dialog open")
}

func (h *Headless) CloseDialog(d session.Dialog) {
	h.logger.Debug().Str(log.FieldDialog, string(d)).Msg("headless dialog close")
}

func (h *Headless) Signal(session.View, string, bool) {}

func (h *Headless) Broadcast(name string, _ map[string]any) {
	h.logger.Debug().Str("name", name).Msg("headless broadcast")
}

func (h *Headless) QueryMedia(_ context.Context, _ session.View, done func(bool, error)) {
	done(false, nil)
}

var (
	_ session.Display     = (*Headless)(nil)
	_ session.MediaQuerier = (*Headless)(nil)
)
