// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/ManuGH/kiosk/internal/telemetry"
)

const (
	maxCommandBody  = 4 << 10
	defaultAuditMax = 50
	maxAuditLimit   = 500
)

var tracer = telemetry.Tracer("github.com/ManuGH/kiosk/internal/api")

// unlockRequest is the body of POST /api/v1/unlock.
type unlockRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.health.ServeHealth(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.health.ServeReady(w, r)
}

// handleCommand accepts one external command and answers with the snapshot
// after dispatch.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd session.Command
	if err := decodeBody(w, r, &cmd); err != nil {
		writeError(w, err)
		return
	}
	if cmd.Name == "" {
		writeError(w, fmt.Errorf("%w: command is required", errBadRequest))
		return
	}

	// Password attempts share the unlock limiter whichever route carries them.
	if session.Canonical(cmd.Name) == session.CmdCheckLockoutPassword {
		s.unlockLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.submit(w, r, cmd)
		})).ServeHTTP(w, r)
		return
	}
	s.submit(w, r, cmd)
}

// handleUnlock is the dedicated password entry point.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.submit(w, r, session.Command{Name: session.CmdCheckLockoutPassword, Password: req.Password})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, cmd session.Command) {
	name := string(session.Canonical(cmd.Name))
	ctx, span := tracer.Start(r.Context(), "session.Submit",
		trace.WithAttributes(telemetry.CommandAttributes(name, "", string(cmd.Dialog))...),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	defer cancel()

	snap, err := s.ctl.Submit(ctx, cmd)
	if err != nil {
		status, code := classify(err)
		span.SetAttributes(telemetry.ErrorAttributes(err, code)...)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, code)
		}
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().
			Str(log.FieldEvent, "command.rejected").
			Str(log.FieldCommand, name).
			Str("code", code).
			Int("status", status).
			Msg("command rejected")
		writeError(w, err)
		return
	}

	span.SetAttributes(telemetry.CommandAttributes(name, "ok", "")...)
	span.SetAttributes(telemetry.SessionAttributes(
		snap.ViewID, snap.ShowingHidden, snap.Locked, string(snap.LockReason), string(snap.Dialog), snap.MediaPlaying,
	)...)
	writeJSON(w, http.StatusOK, snap)
}

// handleState returns the published snapshot without entering the run loop.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Snapshot())
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w)
		return
	}
	limit := defaultAuditMax
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer", errBadRequest))
			return
		}
		limit = min(n, maxAuditLimit)
	}
	events, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	if s.surface == nil {
		writeServiceUnavailable(w, "no renderer bridge configured")
		return
	}
	s.surface.ServeHTTP(w, r)
}

// decodeBody strictly decodes a size-capped JSON object into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}
