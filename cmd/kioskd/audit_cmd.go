// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/kiosk/internal/audit"
	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/persistence/sqlite"
	"github.com/ManuGH/kiosk/internal/version"
)

func runAuditCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printAuditUsage(stdout)
		return 0
	}

	switch args[0] {
	case "verify":
		return runAuditVerify(args[1:], stdout, stderr)
	case "list":
		return runAuditList(args[1:], stdout, stderr)
	default:
		_, _ = fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printAuditUsage(stderr)
		return 2
	}
}

func printAuditUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  kioskd audit verify [--path PATH] [--mode quick|full]")
	_, _ = fmt.Fprintln(w, "  kioskd audit list [--path PATH] [--limit N]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Without --path the database configured by audit.dbPath (or $KIOSK_DATA/audit.db) is used.")
}

// auditPath falls back to the configured audit database.
func auditPath(explicit string) (string, error) {
	if p := strings.TrimSpace(explicit); p != "" {
		return p, nil
	}
	cfg, err := config.NewLoader(resolveConfigPath(""), version.Version).Load()
	if err != nil {
		return "", fmt.Errorf("load configuration: %w", err)
	}
	if cfg.AuditDBPath == "" {
		return "", fmt.Errorf("no audit database configured")
	}
	return cfg.AuditDBPath, nil
}

func runAuditVerify(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kioskd audit verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", "", "path to the audit database")
	mode := fs.String("mode", "quick", "verification mode: quick or full")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *mode != "quick" && *mode != "full" {
		_, _ = fmt.Fprintf(stderr, "Error: invalid mode %q (use quick or full)\n", *mode)
		return 2
	}

	dbPath, err := auditPath(*path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if _, err := os.Stat(dbPath); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	issues, err := sqlite.VerifyIntegrity(ctx, dbPath, *mode)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Verification interrupted: %v\n", err)
		return 1
	}
	if issues != nil {
		_, _ = fmt.Fprintf(stderr, "Corruption detected in %s:\n", dbPath)
		for _, issue := range issues {
			_, _ = fmt.Fprintf(stderr, "  - %s\n", issue)
		}
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "%s: integrity ok (%s)\n", dbPath, *mode)
	return 0
}

func runAuditList(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kioskd audit list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("path", "", "path to the audit database")
	limit := fs.Int("limit", 50, "maximum number of events, newest first")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	dbPath, err := auditPath(*path)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	events, err := audit.Recent(context.Background(), db, *limit)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}
