// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

const (
	DefaultInactivityTimeout = 120 * time.Second
	DefaultPromptTimeout     = 15 * time.Second
	DefaultMediaGrace        = 5 * time.Second
	DefaultMediaQueryTimeout = 3 * time.Second
	DefaultKeyboardAutoClose = 30 * time.Second
	DefaultTickInterval      = time.Second
	DefaultPauseMaxMinutes   = 120

	DefaultListenAddr  = "127.0.0.1:8787"
	DefaultMetricsAddr = ""
	DefaultBootFlag    = "/run/kiosk/boot.flag"
	DefaultWakeFlag    = "/run/kiosk/wake.flag"

	// BlankURL is attached for sites configured without a URL.
	BlankURL = "about:blank"

	// NoPINSentinel as the PIN file content accepts any PIN.
	NoPINSentinel = "no-pin"
)

// DefaultPauseOptions are the minute choices offered by the pause dialog.
func DefaultPauseOptions() []int {
	return []int{15, 30, 60, 120}
}

// Defaults returns the settings used when neither file nor environment sets a value.
func Defaults() Settings {
	return Settings{
		HomeIndex:         NoHome,
		InactivityTimeout: DefaultInactivityTimeout,
		PromptTimeout:     DefaultPromptTimeout,
		MediaGrace:        DefaultMediaGrace,
		MediaQueryTimeout: DefaultMediaQueryTimeout,
		KeyboardEnabled:   true,
		KeyboardAutoClose: DefaultKeyboardAutoClose,
		TickInterval:      DefaultTickInterval,
		Lockout: LockoutSettings{
			BootFlag: DefaultBootFlag,
			WakeFlag: DefaultWakeFlag,
		},
		Pause: PauseSettings{
			Options:    DefaultPauseOptions(),
			MaxMinutes: DefaultPauseMaxMinutes,
		},
		Server: ServerSettings{
			ListenAddr:      DefaultListenAddr,
			MetricsAddr:     DefaultMetricsAddr,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxHeaderBytes:  1 << 16,
		},
		Telemetry: TelemetrySettings{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		LogLevel:     "info",
		PowerEnabled: true,
	}
}
