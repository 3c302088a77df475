// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader builds a Settings snapshot with precedence ENV > file > defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a loader. An empty path loads defaults plus environment only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load reads, merges, resolves and validates the configuration.
func (l *Loader) Load() (Settings, error) {
	cfg := Defaults()
	cfg.Version = l.version

	path := l.configPath
	if path == "" {
		path = ParseString(EnvConfig, "")
	}

	fileCfg := &FileConfig{}
	if path != "" {
		var err error
		fileCfg, err = l.loadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	mergeFile(&cfg, fileCfg)
	mergeEnv(&cfg)
	resolveDerivedPaths(&cfg)
	resolvePIN(&cfg)
	resolveHome(&cfg)

	if err := Validate(cfg); err != nil {
		return Settings{}, err
	}

	logger := log.WithComponent("config")
	for _, w := range cfg.Warnings {
		logger.Warn().Str(log.FieldEvent, "config.degraded").Msg(w)
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseFile(data)
}

// ParseFile decodes a single strict YAML document.
func ParseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFile(dst *Settings, src *FileConfig) {
	dst.Sites = make([]Site, 0, len(src.Sites))
	for i, fs := range src.Sites {
		site := Site{
			Index:    i,
			URL:      strings.TrimSpace(fs.URL),
			Username: fs.Username,
			Password: fs.Password,
		}
		switch {
		case !fs.Duration.Set:
			site.Duration = DurationManual
		case !fs.Duration.Valid:
			dst.Warnings = append(dst.Warnings,
				fmt.Sprintf("sites[%d].duration %q is not an integer; treating site as manual-only", i, fs.Duration.Raw))
			site.Duration = DurationManual
		case fs.Duration.Value < DurationHidden:
			dst.Warnings = append(dst.Warnings,
				fmt.Sprintf("sites[%d].duration %d is negative; treating site as manual-only", i, fs.Duration.Value))
			site.Duration = DurationManual
		default:
			site.Duration = fs.Duration.Value
		}
		if site.URL == "" {
			dst.Warnings = append(dst.Warnings,
				fmt.Sprintf("sites[%d] has no url; showing %s as manual-only", i, BlankURL))
			site.URL = BlankURL
			site.Duration = DurationManual
		}
		dst.Sites = append(dst.Sites, site)
	}

	if src.HomeIndex != nil {
		dst.HomeIndex = *src.HomeIndex
	}
	setSeconds(&dst.InactivityTimeout, src.InactivityTimeout)
	setSeconds(&dst.PromptTimeout, src.PromptTimeout)
	setSeconds(&dst.MediaGrace, src.MediaGrace)
	setSeconds(&dst.MediaQueryTimeout, src.MediaQueryTimeout)
	setSeconds(&dst.KeyboardAutoClose, src.KeyboardAutoClose)
	if src.KeyboardEnabled != nil {
		dst.KeyboardEnabled = *src.KeyboardEnabled
	}

	lo := src.Lockout
	if lo.Enabled != nil {
		dst.Lockout.Enabled = *lo.Enabled
	}
	dst.Lockout.PasswordHash = strings.TrimSpace(lo.PasswordHash)
	if lo.Timeout != nil {
		dst.Lockout.Timeout = time.Duration(*lo.Timeout) * time.Minute
	}
	dst.Lockout.ActiveHours = strings.TrimSpace(lo.ActiveHours)
	dst.Lockout.DailyLockTime = strings.TrimSpace(lo.DailyLockTime)
	if lo.RequirePasswordOnBoot != nil {
		dst.Lockout.RequirePasswordOnBoot = *lo.RequirePasswordOnBoot
	}
	if lo.RequirePasswordOnWake != nil {
		dst.Lockout.RequirePasswordOnWake = *lo.RequirePasswordOnWake
	}
	if lo.BootFlag != "" {
		dst.Lockout.BootFlag = lo.BootFlag
	}
	if lo.WakeFlag != "" {
		dst.Lockout.WakeFlag = lo.WakeFlag
	}

	dst.Hidden.PINFile = src.Hidden.PINFile

	if len(src.Pause.Options) > 0 {
		dst.Pause.Options = append([]int(nil), src.Pause.Options...)
	}
	if src.Pause.MaxMinutes != nil {
		dst.Pause.MaxMinutes = *src.Pause.MaxMinutes
	}

	if src.Server.ListenAddr != "" {
		dst.Server.ListenAddr = src.Server.ListenAddr
	}
	if src.Server.MetricsAddr != nil {
		dst.Server.MetricsAddr = *src.Server.MetricsAddr
	}
	dst.Server.AllowedOrigins = append([]string(nil), src.Server.AllowedOrigins...)

	if src.Telemetry.Enabled != nil {
		dst.Telemetry.Enabled = *src.Telemetry.Enabled
	}
	if src.Telemetry.Exporter != "" {
		dst.Telemetry.Exporter = src.Telemetry.Exporter
	}
	if src.Telemetry.Endpoint != "" {
		dst.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
	if src.Telemetry.SamplingRate != nil {
		dst.Telemetry.SamplingRate = *src.Telemetry.SamplingRate
	}

	if src.Log.Level != "" {
		dst.LogLevel = src.Log.Level
	}
	if src.DataDir != "" {
		dst.DataDir = src.DataDir
	}
	dst.StatusPath = src.Status.Path
	dst.AuditDBPath = src.Audit.DBPath
	if src.Power.Enabled != nil {
		dst.PowerEnabled = *src.Power.Enabled
	}
}

func mergeEnv(dst *Settings) {
	dst.LogLevel = ParseString(EnvLogLevel, dst.LogLevel)
	dst.Server.ListenAddr = ParseString(EnvListen, dst.Server.ListenAddr)
	dst.Server.MetricsAddr = ParseString(EnvMetricsAddr, dst.Server.MetricsAddr)
	dst.DataDir = ParseString(EnvDataDir, dst.DataDir)
	dst.Hidden.PINFile = ParseString(EnvHiddenPINFile, dst.Hidden.PINFile)
	dst.Lockout.RequirePasswordOnBoot = ParseBool(EnvRequirePasswordOnBoot, dst.Lockout.RequirePasswordOnBoot)
}

// resolveDerivedPaths places the status file and audit database under DataDir
// when a data directory is set and the paths were not given explicitly.
func resolveDerivedPaths(dst *Settings) {
	if dst.DataDir == "" {
		return
	}
	if dst.StatusPath == "" {
		dst.StatusPath = filepath.Join(dst.DataDir, "status.json")
	}
	if dst.AuditDBPath == "" {
		dst.AuditDBPath = filepath.Join(dst.DataDir, "audit.db")
	}
}

// resolvePIN reads the hidden PIN. Missing or empty files leave PIN empty,
// which refuses hidden access.
func resolvePIN(dst *Settings) {
	if dst.Hidden.PINFile == "" {
		return
	}
	// #nosec G304 -- PIN file path is operator-provided
	data, err := os.ReadFile(dst.Hidden.PINFile)
	if err != nil {
		dst.Warnings = append(dst.Warnings,
			fmt.Sprintf("hidden.pinFile unreadable (%v); hidden access disabled", err))
		return
	}
	dst.Hidden.PIN = strings.TrimSpace(string(data))
	if dst.Hidden.PIN == "" {
		dst.Warnings = append(dst.Warnings, "hidden.pinFile is empty; hidden access disabled")
	}
}

// resolveHome disables home-return when the index is out of range or names a hidden site.
func resolveHome(dst *Settings) {
	if dst.HomeIndex == NoHome {
		return
	}
	if dst.HomeIndex < 0 || dst.HomeIndex >= len(dst.Sites) {
		dst.Warnings = append(dst.Warnings,
			fmt.Sprintf("homeIndex %d is out of range; home-return disabled", dst.HomeIndex))
		dst.HomeIndex = NoHome
		return
	}
	if dst.Sites[dst.HomeIndex].Kind() == SiteHidden {
		dst.Warnings = append(dst.Warnings,
			fmt.Sprintf("homeIndex %d names a hidden site; home-return disabled", dst.HomeIndex))
		dst.HomeIndex = NoHome
	}
}

func setSeconds(dst *time.Duration, src *int) {
	if src != nil {
		*dst = time.Duration(*src) * time.Second
	}
}
