// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/kiosk/internal/validate"
)

var siteSchemes = []string{"http", "https", "file", "about"}

// Validate checks a resolved snapshot. Site-level problems were already
// degraded by the loader; anything reported here is fatal.
func Validate(cfg Settings) error {
	v := validate.New()

	if len(cfg.Sites) == 0 {
		v.AddError("sites", ErrNoSites.Error(), nil)
	} else if countNormal(cfg.Sites) == 0 {
		v.AddError("sites", "at least one non-hidden site is required", len(cfg.Sites))
	}
	for i, s := range cfg.Sites {
		v.URL(fmt.Sprintf("sites[%d].url", i), s.URL, siteSchemes)
		v.Range(fmt.Sprintf("sites[%d].duration", i), s.Duration, DurationHidden, 24*60*60)
	}

	v.MinDuration("inactivityTimeout", cfg.InactivityTimeout, time.Second)
	v.MinDuration("promptTimeout", cfg.PromptTimeout, time.Second)
	v.MinDuration("mediaGrace", cfg.MediaGrace, 0)
	v.MinDuration("mediaQueryTimeout", cfg.MediaQueryTimeout, 100*time.Millisecond)
	v.MinDuration("keyboardAutoClose", cfg.KeyboardAutoClose, time.Second)
	v.MinDuration("tickInterval", cfg.TickInterval, 10*time.Millisecond)

	validateLockout(v, cfg.Lockout)

	v.Positive("pause.maxMinutes", cfg.Pause.MaxMinutes)
	for i, opt := range cfg.Pause.Options {
		field := fmt.Sprintf("pause.options[%d]", i)
		v.Positive(field, opt)
		if opt > cfg.Pause.MaxMinutes {
			v.AddError(field, fmt.Sprintf("option exceeds pause.maxMinutes (%d)", cfg.Pause.MaxMinutes), opt)
		}
	}

	v.ListenAddr("server.listenAddr", cfg.Server.ListenAddr)
	if cfg.Server.MetricsAddr != "" {
		v.ListenAddr("server.metricsAddr", cfg.Server.MetricsAddr)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			v.AddError("telemetry.samplingRate", "must be between 0 and 1", cfg.Telemetry.SamplingRate)
		}
	}

	v.OneOf("logLevel", strings.ToLower(cfg.LogLevel),
		[]string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"})

	return v.Err()
}

func validateLockout(v *validate.Validator, lo LockoutSettings) {
	if lo.Timeout < 0 {
		v.AddError("lockout.timeout", "cannot be negative", lo.Timeout.String())
	}
	v.TimeWindow("lockout.activeHours", lo.ActiveHours)
	v.ClockTime("lockout.dailyLockTime", lo.DailyLockTime)
	if !lo.Enabled {
		return
	}
	if lo.PasswordHash == "" {
		v.AddError("lockout.passwordHash", "required when lockout is enabled", nil)
	} else if !IsSupportedHash(lo.PasswordHash) {
		v.AddError("lockout.passwordHash", "must be a bcrypt hash or 64 hex characters (SHA-256)", maskedValue)
	}
	if lo.RequirePasswordOnBoot {
		v.NotEmpty("lockout.bootFlag", lo.BootFlag)
	}
	if lo.RequirePasswordOnWake {
		v.NotEmpty("lockout.wakeFlag", lo.WakeFlag)
	}
}

// IsSupportedHash reports whether h looks like a bcrypt or hex SHA-256 digest.
func IsSupportedHash(h string) bool {
	if strings.HasPrefix(h, "$2") {
		return true
	}
	if len(h) != 64 {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}

func countNormal(sites []Site) int {
	n := 0
	for _, s := range sites {
		if s.Kind() != SiteHidden {
			n++
		}
	}
	return n
}
