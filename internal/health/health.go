// SPDX-License-Identifier: MIT

// Package health serves the liveness and readiness endpoints of the kiosk
// daemon. Liveness only proves the listener answers. Readiness fails when a
// component, chiefly the controller loop, reports unhealthy.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
)

// Status is the state of one component or of the whole daemon.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// worse orders statuses so a report takes its worst component.
func (s Status) worse(than Status) bool {
	rank := map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	return rank[s] > rank[than]
}

// Component is the outcome of one checker.
type Component struct {
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report is the body of both endpoints.
type Report struct {
	Status     Status               `json:"status"`
	Ready      bool                 `json:"ready"`
	Version    string               `json:"version,omitempty"`
	Uptime     int64                `json:"uptimeSeconds"`
	Components map[string]Component `json:"components,omitempty"`
}

// Checker reports on one component.
type Checker interface {
	Name() string
	Check(ctx context.Context) Component
}

// Manager aggregates the registered checkers.
type Manager struct {
	version  string
	started  time.Time
	now      func() time.Time
	checkers []Checker
}

// NewManager creates a manager reporting version and uptime from now on.
func NewManager(version string) *Manager {
	return &Manager{version: version, started: time.Now(), now: time.Now}
}

// RegisterChecker adds a checker. Must be called before serving.
func (m *Manager) RegisterChecker(c Checker) {
	m.checkers = append(m.checkers, c)
}

// Evaluate runs every checker. The daemon is ready unless one is unhealthy.
func (m *Manager) Evaluate(ctx context.Context) Report {
	r := Report{
		Status:  StatusHealthy,
		Ready:   true,
		Version: m.version,
		Uptime:  int64(m.now().Sub(m.started) / time.Second),
	}
	if len(m.checkers) == 0 {
		return r
	}
	r.Components = make(map[string]Component, len(m.checkers))
	for _, c := range m.checkers {
		res := c.Check(ctx)
		r.Components[c.Name()] = res
		if res.Status.worse(r.Status) {
			r.Status = res.Status
		}
	}
	r.Ready = r.Status != StatusUnhealthy
	return r
}

// ServeHealth answers liveness: always 200 while the listener is up.
// Components are evaluated only for ?verbose=true.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	rep := Report{Status: StatusHealthy, Ready: true, Version: m.version, Uptime: int64(m.now().Sub(m.started) / time.Second)}
	if r.URL.Query().Get("verbose") == "true" {
		rep = m.Evaluate(r.Context())
	}
	m.write(w, r, http.StatusOK, rep, "health")
}

// ServeReady answers readiness: 503 while any component is unhealthy.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	rep := m.Evaluate(r.Context())
	code := http.StatusOK
	if !rep.Ready {
		code = http.StatusServiceUnavailable
	}
	m.write(w, r, code, rep, "readiness")
}

func (m *Manager) write(w http.ResponseWriter, r *http.Request, code int, rep Report, kind string) {
	logger := log.WithComponentFromContext(r.Context(), "health")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		logger.Error().Err(err).Str(log.FieldEvent, kind+".encode_failed").Msg("failed to encode health response")
		return
	}
	logger.Debug().
		Str(log.FieldEvent, kind+".checked").
		Str("status", string(rep.Status)).
		Bool("ready", rep.Ready).
		Msg("health answered")
}

// TickChecker fails once the controller loop has not ticked within maxAge.
type TickChecker struct {
	lastTick func() time.Time
	maxAge   time.Duration
	now      func() time.Time
}

// NewTickChecker reads the last tick time through lastTick.
func NewTickChecker(lastTick func() time.Time, maxAge time.Duration) *TickChecker {
	return &TickChecker{lastTick: lastTick, maxAge: maxAge, now: time.Now}
}

func (c *TickChecker) Name() string { return "controller" }

func (c *TickChecker) Check(context.Context) Component {
	last := c.lastTick()
	if last.IsZero() {
		return Component{Status: StatusUnhealthy, Detail: "controller has not started"}
	}
	if age := c.now().Sub(last); age > c.maxAge {
		return Component{Status: StatusUnhealthy, Detail: "loop stalled, last tick " + age.Truncate(time.Second).String() + " ago"}
	}
	return Component{Status: StatusHealthy}
}

// RendererChecker reports degraded while no renderer is connected. The kiosk
// keeps serving commands without one, so it never fails readiness.
type RendererChecker struct {
	connected func() bool
}

// NewRendererChecker reads the connection state through connected.
func NewRendererChecker(connected func() bool) *RendererChecker {
	return &RendererChecker{connected: connected}
}

func (c *RendererChecker) Name() string { return "renderer" }

func (c *RendererChecker) Check(context.Context) Component {
	if c.connected() {
		return Component{Status: StatusHealthy}
	}
	return Component{Status: StatusDegraded, Detail: "no renderer connected"}
}
