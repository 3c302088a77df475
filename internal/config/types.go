// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Site duration sentinels.
const (
	DurationManual = 0
	DurationHidden = -1
)

// NoHome marks a snapshot without a configured home site.
const NoHome = -1

// SiteKind classifies a configured site by its duration.
type SiteKind string

const (
	SiteRotating SiteKind = "rotating"
	SiteManual   SiteKind = "manual"
	SiteHidden   SiteKind = "hidden"
)

// Site is one configured URL. Index is the stable identity used by home and
// extension logic.
type Site struct {
	Index    int    `json:"index" yaml:"index"`
	URL      string `json:"url" yaml:"url"`
	Duration int    `json:"duration" yaml:"duration"` // seconds; >0 rotating, 0 manual, -1 hidden
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"-" yaml:"password,omitempty"`
}

// Kind reports whether the site rotates, is manual-only or hidden.
func (s Site) Kind() SiteKind {
	switch {
	case s.Duration > 0:
		return SiteRotating
	case s.Duration == DurationHidden:
		return SiteHidden
	default:
		return SiteManual
	}
}

// RotationPeriod returns the per-site display duration, zero for non-rotating sites.
func (s Site) RotationPeriod() time.Duration {
	if s.Duration <= 0 {
		return 0
	}
	return time.Duration(s.Duration) * time.Second
}

// LockoutSettings configures password protection.
type LockoutSettings struct {
	Enabled               bool          `json:"enabled" yaml:"enabled"`
	PasswordHash          string        `json:"-" yaml:"passwordHash,omitempty"`
	Timeout               time.Duration `json:"timeout" yaml:"timeout"`
	ActiveHours           string        `json:"activeHours,omitempty" yaml:"activeHours,omitempty"`
	DailyLockTime         string        `json:"dailyLockTime,omitempty" yaml:"dailyLockTime,omitempty"`
	RequirePasswordOnBoot bool          `json:"requirePasswordOnBoot" yaml:"requirePasswordOnBoot"`
	RequirePasswordOnWake bool          `json:"requirePasswordOnWake" yaml:"requirePasswordOnWake"`
	BootFlag              string        `json:"bootFlag" yaml:"bootFlag"`
	WakeFlag              string        `json:"wakeFlag" yaml:"wakeFlag"`
}

// HiddenSettings configures the PIN-gated hidden view set.
type HiddenSettings struct {
	PINFile string `json:"pinFile" yaml:"pinFile"`
	PIN     string `json:"-" yaml:"-"` // resolved from PINFile at load time
}

// PauseSettings configures the pause dialog and the extension ceiling.
type PauseSettings struct {
	Options    []int `json:"options" yaml:"options"`
	MaxMinutes int   `json:"maxMinutes" yaml:"maxMinutes"`
}

// ServerSettings configures the HTTP ingress.
type ServerSettings struct {
	ListenAddr      string        `json:"listenAddr" yaml:"listenAddr"`
	MetricsAddr     string        `json:"metricsAddr" yaml:"metricsAddr"`
	ReadTimeout     time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout     time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
	MaxHeaderBytes  int           `json:"maxHeaderBytes" yaml:"maxHeaderBytes"`
	AllowedOrigins  []string      `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// TelemetrySettings configures optional OpenTelemetry tracing of the HTTP ingress.
type TelemetrySettings struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	Exporter     string  `json:"exporter" yaml:"exporter"`
	Endpoint     string  `json:"endpoint" yaml:"endpoint"`
	SamplingRate float64 `json:"samplingRate" yaml:"samplingRate"`
}

// Settings is the immutable snapshot the controller is built from.
type Settings struct {
	Sites             []Site        `json:"sites" yaml:"sites"`
	HomeIndex         int           `json:"homeIndex" yaml:"homeIndex"`
	InactivityTimeout time.Duration `json:"inactivityTimeout" yaml:"inactivityTimeout"`
	PromptTimeout     time.Duration `json:"promptTimeout" yaml:"promptTimeout"`
	MediaGrace        time.Duration `json:"mediaGrace" yaml:"mediaGrace"`
	MediaQueryTimeout time.Duration `json:"mediaQueryTimeout" yaml:"mediaQueryTimeout"`
	KeyboardEnabled   bool          `json:"keyboardEnabled" yaml:"keyboardEnabled"`
	KeyboardAutoClose time.Duration `json:"keyboardAutoClose" yaml:"keyboardAutoClose"`
	TickInterval      time.Duration `json:"tickInterval" yaml:"tickInterval"`

	Lockout LockoutSettings `json:"lockout" yaml:"lockout"`
	Hidden  HiddenSettings  `json:"hidden" yaml:"hidden"`
	Pause   PauseSettings   `json:"pause" yaml:"pause"`

	Server       ServerSettings    `json:"server" yaml:"server"`
	Telemetry    TelemetrySettings `json:"telemetry" yaml:"telemetry"`
	LogLevel     string            `json:"logLevel" yaml:"logLevel"`
	DataDir      string            `json:"dataDir" yaml:"dataDir"`
	StatusPath   string            `json:"statusPath,omitempty" yaml:"statusPath,omitempty"`
	AuditDBPath  string            `json:"auditDbPath,omitempty" yaml:"auditDbPath,omitempty"`
	PowerEnabled bool              `json:"powerEnabled" yaml:"powerEnabled"`

	Version  string   `json:"version" yaml:"version"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FileConfig is the on-disk YAML shape. Pointer fields distinguish "absent" from zero.
type FileConfig struct {
	Sites             []FileSite `yaml:"sites"`
	HomeIndex         *int       `yaml:"homeIndex,omitempty"`
	InactivityTimeout *int       `yaml:"inactivityTimeout,omitempty"` // seconds
	PromptTimeout     *int       `yaml:"promptTimeout,omitempty"`     // seconds
	MediaGrace        *int       `yaml:"mediaGrace,omitempty"`        // seconds
	MediaQueryTimeout *int       `yaml:"mediaQueryTimeout,omitempty"` // seconds
	KeyboardEnabled   *bool      `yaml:"keyboardEnabled,omitempty"`
	KeyboardAutoClose *int       `yaml:"keyboardAutoClose,omitempty"` // seconds

	Lockout FileLockout `yaml:"lockout,omitempty"`
	Hidden  FileHidden  `yaml:"hidden,omitempty"`
	Pause   FilePause   `yaml:"pause,omitempty"`

	Server    FileServer    `yaml:"server,omitempty"`
	Telemetry FileTelemetry `yaml:"telemetry,omitempty"`
	Log       FileLog       `yaml:"log,omitempty"`
	DataDir   string        `yaml:"dataDir,omitempty"`
	Status    FileStatus    `yaml:"status,omitempty"`
	Audit     FileAudit     `yaml:"audit,omitempty"`
	Power     FilePower     `yaml:"power,omitempty"`
}

// FileSite is one entry of the sites list.
type FileSite struct {
	URL      string       `yaml:"url"`
	Duration SiteDuration `yaml:"duration"`
	Username string       `yaml:"username,omitempty"`
	Password string       `yaml:"password,omitempty"`
}

type FileLockout struct {
	Enabled               *bool  `yaml:"enabled,omitempty"`
	PasswordHash          string `yaml:"passwordHash,omitempty"`
	Timeout               *int   `yaml:"timeout,omitempty"` // minutes
	ActiveHours           string `yaml:"activeHours,omitempty"`
	DailyLockTime         string `yaml:"dailyLockTime,omitempty"`
	RequirePasswordOnBoot *bool  `yaml:"requirePasswordOnBoot,omitempty"`
	RequirePasswordOnWake *bool  `yaml:"requirePasswordOnWake,omitempty"`
	BootFlag              string `yaml:"bootFlag,omitempty"`
	WakeFlag              string `yaml:"wakeFlag,omitempty"`
}

type FileHidden struct {
	PINFile string `yaml:"pinFile,omitempty"`
}

type FilePause struct {
	Options    []int `yaml:"options,omitempty"`
	MaxMinutes *int  `yaml:"maxMinutes,omitempty"`
}

type FileServer struct {
	ListenAddr     string   `yaml:"listenAddr,omitempty"`
	MetricsAddr    *string  `yaml:"metricsAddr,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

type FileTelemetry struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

type FileLog struct {
	Level string `yaml:"level,omitempty"`
}

type FileStatus struct {
	Path string `yaml:"path,omitempty"`
}

type FileAudit struct {
	DBPath string `yaml:"dbPath,omitempty"`
}

type FilePower struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// SiteDuration accepts any YAML scalar. Values that are not integers are kept
// as Raw with Valid=false so the loader can degrade them to manual.
type SiteDuration struct {
	Value int
	Raw   string
	Set   bool
	Valid bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *SiteDuration) UnmarshalYAML(node *yaml.Node) error {
	d.Set = true
	d.Raw = node.Value
	if node.Kind != yaml.ScalarNode {
		d.Raw = "<non-scalar>"
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if n, err := strconv.Atoi(raw); err == nil {
		d.Value = n
		d.Valid = true
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int(f)) {
		d.Value = int(f)
		d.Valid = true
	}
	return nil
}

// MarshalYAML keeps round-trips readable in `config dump`.
func (d SiteDuration) MarshalYAML() (interface{}, error) {
	if d.Valid {
		return d.Value, nil
	}
	return d.Raw, nil
}
