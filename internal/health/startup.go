// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the daemon starts.
func PerformStartupChecks(ctx context.Context, cfg config.Settings) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Data Directory Permissions
	if cfg.DataDir != "" {
		if err := checkDataDir(logger, cfg.DataDir); err != nil {
			return fmt.Errorf("data directory check failed: %w", err)
		}
	}

	// 2. Targeted Validations
	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info().Msg("All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("Data directory is writable")
	return nil
}

func checkTargetedValidations(logger zerolog.Logger, cfg config.Settings) error {
	// a. Listen addresses (parseable)
	for name, addr := range map[string]string{"listen": cfg.Server.ListenAddr, "metrics": cfg.Server.MetricsAddr} {
		if addr == "" {
			continue
		}
		_, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("invalid %s address %q: %w", name, addr, err)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil || portNum < 0 || portNum > 65535 {
			return fmt.Errorf("invalid %s port %q in %q", name, port, addr)
		}
	}

	// b. Sentinel directories (warn only; the host integration may create them later)
	if cfg.Lockout.Enabled {
		for _, flag := range []string{cfg.Lockout.BootFlag, cfg.Lockout.WakeFlag} {
			if flag == "" {
				continue
			}
			if _, err := os.Stat(filepath.Dir(flag)); err != nil {
				logger.Warn().Err(err).Str("path", flag).Msg("sentinel directory missing; flag will only be polled")
			}
		}
	}

	// c. Hidden PIN file readable when configured
	if cfg.Hidden.PINFile != "" {
		if err := checkFileReadable(cfg.Hidden.PINFile); err != nil {
			logger.Warn().Err(err).Msg("hidden PIN file unreadable; hidden views are disabled")
		}
	}

	// d. Audit database directory
	if cfg.AuditDBPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.AuditDBPath), 0o750); err != nil {
			return fmt.Errorf("audit directory: %w", err)
		}
	}
	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
