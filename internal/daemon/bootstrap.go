// SPDX-License-Identifier: MIT

// Package daemon wires the kiosk session controller to its collaborators and
// manages the daemon lifecycle.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManuGH/kiosk/internal/api"
	"github.com/ManuGH/kiosk/internal/audit"
	"github.com/ManuGH/kiosk/internal/clock"
	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/flags"
	"github.com/ManuGH/kiosk/internal/health"
	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/power"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/ManuGH/kiosk/internal/status"
	"github.com/ManuGH/kiosk/internal/surface"
	"github.com/ManuGH/kiosk/internal/telemetry"
)

const (
	auditQueueSize     = 256
	auditCloseWait     = 2 * time.Second
	readinessTickAge   = 5 * time.Second
	defaultEnvironment = "production"
)

// Options control how Build assembles the daemon.
type Options struct {
	// Version is the build version
	Version string

	// Environment is attached to trace resources; defaults to "production"
	Environment string

	// Headless runs without a renderer; surface calls are logged only
	Headless bool

	// Clock overrides the wall clock (tests)
	Clock clock.Clock

	// PowerRunner overrides process execution for power actions; nil runs host commands
	PowerRunner power.Runner
}

// Build validates the environment and assembles a runnable App from a
// loaded settings snapshot.
func Build(ctx context.Context, s config.Settings, opts Options) (*App, error) {
	log.Configure(log.Config{
		Level:   s.LogLevel,
		Output:  os.Stdout,
		Service: telemetry.ServiceName,
		Version: opts.Version,
	})
	logger := log.WithComponent("daemon")

	if err := health.PerformStartupChecks(ctx, s); err != nil {
		return nil, err
	}
	for _, w := range s.Warnings {
		logger.Warn().Str(log.FieldEvent, "config.warning").Msg(w)
	}

	provider := initTelemetry(ctx, s.Telemetry, opts)

	var (
		store *audit.Store
		sink  audit.Sink
	)
	if s.AuditDBPath != "" {
		var err error
		store, err = audit.OpenStore(ctx, s.AuditDBPath, auditQueueSize)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		sink = store
	}

	var (
		bridge  *surface.Bridge
		display session.Display
		querier session.MediaQuerier
	)
	if opts.Headless {
		h := surface.NewHeadless()
		display, querier = h, h
	} else {
		bridge = surface.NewBridge(originMatcher(s.Server.AllowedOrigins))
		display, querier = bridge, bridge
	}

	bootFlag := flags.NewSentinel(s.Lockout.BootFlag)
	wakeFlag := flags.NewSentinel(s.Lockout.WakeFlag)

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	// The power executor's reload hook needs the App, which needs the
	// controller; break the cycle with a late-bound reload func.
	var app *App
	var executor session.PowerExecutor
	if s.PowerEnabled {
		executor = power.NewExecutor(power.DefaultCommands(), opts.PowerRunner, func() { _ = app.Reload() })
	}

	ctl, err := session.New(session.Options{
		Settings: s,
		Clock:    clk,
		Display:  display,
		Querier:  querier,
		Auditor:  audit.NewLogger(sink),
		Power:    executor,
		BootFlag: bootFlag,
		WakeFlag: wakeFlag,
	})
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("create session controller: %w", err)
	}

	hm := health.NewManager(opts.Version)
	hm.RegisterChecker(health.NewTickChecker(func() time.Time { return ctl.Snapshot().LastTick }, readinessTickAge))

	apiDeps := api.Deps{
		Controller:   ctl,
		Health:       hm,
		ServeMetrics: s.Server.MetricsAddr == "",
	}
	if bridge != nil {
		bridge.OnViewReloaded(ctl.NotifyViewReloaded)
		hm.RegisterChecker(health.NewRendererChecker(bridge.Connected))
		apiDeps.Surface = http.HandlerFunc(bridge.HandleWebSocket)
	}
	if store != nil {
		apiDeps.Audit = store
	}
	if s.Telemetry.Enabled {
		apiDeps.TracingService = telemetry.ServiceName
	}
	srv := api.New(s.Server, apiDeps)

	mgrDeps := Deps{
		Logger:      logger,
		APIHandler:  srv.Handler(),
		MetricsAddr: s.Server.MetricsAddr,
	}
	if s.Server.MetricsAddr != "" {
		mgrDeps.MetricsHandler = api.MetricsHandler()
	}
	mgr, err := NewManager(s.Server, mgrDeps)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	// Hooks run newest first: surface, then audit, then telemetry.
	if provider != nil {
		mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	}
	if store != nil {
		mgr.RegisterShutdownHook("audit", func(context.Context) error { return store.Close(auditCloseWait) })
	}
	if bridge != nil {
		mgr.RegisterShutdownHook("surface", func(context.Context) error {
			bridge.Close()
			return nil
		})
	}

	app = NewApp(logger, mgr, ctl)
	var watched []*flags.Sentinel
	for _, f := range []*flags.Sentinel{bootFlag, wakeFlag} {
		if f.Path() != "" {
			watched = append(watched, f)
		}
	}
	if len(watched) > 0 {
		app.AddTask("flags", flags.NewWatcher(watched...))
	}
	if s.StatusPath != "" {
		app.AddTask("status", status.NewWriter(s.StatusPath, ctl))
	}
	if store != nil {
		app.AddTask("audit", store)
	}

	logger.Info().
		Str("version", opts.Version).
		Int("sites", len(s.Sites)).
		Bool("lockout", s.Lockout.Enabled).
		Bool("headless", opts.Headless).
		Bool("power", s.PowerEnabled).
		Str(log.FieldEvent, "daemon.built").
		Msg("kiosk daemon assembled")

	return app, nil
}

// initTelemetry installs the trace provider. Failures are logged and the
// daemon continues without tracing.
func initTelemetry(ctx context.Context, ts config.TelemetrySettings, opts Options) *telemetry.Provider {
	if !ts.Enabled {
		return nil
	}
	env := opts.Environment
	if env == "" {
		env = defaultEnvironment
	}
	provider, err := telemetry.NewProvider(ctx, ts, opts.Version, env)
	logger := log.WithComponent("telemetry")
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry initialization failed, continuing without tracing")
		return nil
	}
	logger.Info().
		Str("exporter", ts.Exporter).
		Str("endpoint", ts.Endpoint).
		Float64("sampling_rate", ts.SamplingRate).
		Msg("telemetry initialized")
	return provider
}

// originMatcher accepts origins listed in allowed, or any origin when allowed contains "*".
func originMatcher(allowed []string) func(string) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(origin string) bool {
		return set["*"] || set[origin]
	}
}

func closeStore(store *audit.Store) {
	if store != nil {
		_ = store.Close(0)
	}
}

// WaitForShutdown returns a context cancelled on interrupt or termination signals.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
