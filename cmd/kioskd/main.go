// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command kioskd runs the kiosk session controller and its control API.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/daemon"
	klog "github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/version"
)

// exitReload tells the service manager to relaunch the daemon
// (RestartForceExitStatus=75 in the unit file).
const exitReload = 75

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "config":
			return runConfigCLI(args[1:], stdout, stderr)
		case "healthcheck":
			return runHealthcheckCLI(args[1:], stdout, stderr)
		case "audit":
			return runAuditCLI(args[1:], stdout, stderr)
		}
	}
	return runDaemon(args, stdout, stderr)
}

func runDaemon(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kioskd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	headless := fs.Bool("headless", false, "run without a renderer")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	}

	// Safe defaults until the settings are loaded.
	klog.Configure(klog.Config{Level: "info", Service: "kioskd", Version: version.Version})
	logger := klog.WithComponent("daemon")

	path := resolveConfigPath(*configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(klog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
		return 1
	}
	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(klog.FieldEvent, "config.loaded").
		Str("source", source).
		Str(klog.FieldPath, path).
		Msg("configuration loaded")

	ctx, stop := daemon.WaitForShutdown()
	defer stop()

	app, err := daemon.Build(ctx, cfg, daemon.Options{Version: version.Version, Headless: *headless})
	if err != nil {
		logger.Error().Err(err).Str(klog.FieldEvent, "startup.failed").Msg("startup failed")
		return 1
	}

	err = app.Run(ctx)
	switch {
	case errors.Is(err, daemon.ErrReloadRequested):
		return exitReload
	case err != nil:
		dlog := klog.WithComponent("daemon")
		dlog.Error().Err(err).Str(klog.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		return 1
	}
	return 0
}

// resolveConfigPath prefers an explicit path, then $KIOSK_CONFIG, then
// $KIOSK_DATA/config.yaml when that file exists.
func resolveConfigPath(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(config.EnvConfig)); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(os.Getenv(config.EnvDataDir))
	if dataDir == "" {
		return ""
	}
	auto := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(auto); err == nil {
		return auto
	}
	return ""
}
