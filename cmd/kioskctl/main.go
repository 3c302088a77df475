// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command kioskctl drives a running kioskd over its control API. The gesture
// bridge and operators use it to inject commands and inspect the session.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/version"
)

const defaultTimeout = 5 * time.Second

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	addr    string
	timeout time.Duration
	json    bool
}

func defaultAddr() string {
	if v := strings.TrimSpace(os.Getenv(config.EnvListen)); v != "" {
		return v
	}
	return config.DefaultListenAddr
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "kioskctl",
		Short:         "Control a running kiosk daemon",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.addr, "addr", defaultAddr(), "kioskd API address (host:port or URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON")

	root.AddCommand(
		newSendCommand(opts),
		newStateCommand(opts),
		newUnlockCommand(opts),
		newAuditCommand(opts),
		newHashPasswordCommand(),
	)
	return root
}

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
