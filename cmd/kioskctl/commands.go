// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ManuGH/kiosk/internal/audit"
	"github.com/ManuGH/kiosk/internal/session"
)

func newSendCommand(opts *globalOptions) *cobra.Command {
	var cmd session.Command
	var action, dialog string
	c := &cobra.Command{
		Use:   "send <command>",
		Short: "Send one session command (swipe-left, toggle-hidden, show-power-menu, ...)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd.Name = session.CommandName(args[0])
			cmd.Action = session.PowerAction(action)
			cmd.Dialog = session.Dialog(dialog)
			return submit(c, opts, http.MethodPost, "/commands", cmd)
		},
	}
	c.Flags().IntVar(&cmd.Minutes, "minutes", 0, "extension minutes (pause-select, inactivity-response)")
	c.Flags().StringVar(&cmd.PIN, "pin", "", "PIN (pin-submit)")
	c.Flags().StringVar(&cmd.Response, "response", "", "prompt answer: extend or home (inactivity-response)")
	c.Flags().StringVar(&action, "action", "", "power action: shutdown, restart or reload (power-action)")
	c.Flags().StringVar(&dialog, "dialog", "", "dialog to close (close-dialog)")
	return c
}

func newStateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the current session snapshot",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return submit(c, opts, http.MethodGet, "/state", nil)
		},
	}
}

func newUnlockCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the session with the password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			password, err := readSecret(c.InOrStdin())
			if err != nil {
				return err
			}
			return submit(c, opts, http.MethodPost, "/unlock", map[string]string{"password": password})
		},
	}
}

func newAuditCommand(opts *globalOptions) *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "audit",
		Short: "List recent audit events, newest first",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(c.Context(), opts.timeout)
			defer cancel()

			data, err := newClient(opts.addr, opts.timeout).do(ctx, http.MethodGet, "/audit?limit="+strconv.Itoa(limit), nil)
			if err != nil {
				return err
			}
			if opts.json {
				_, err = c.OutOrStdout().Write(data)
				return err
			}
			var events []audit.Event
			if err := json.Unmarshal(data, &events); err != nil {
				return fmt.Errorf("decode audit events: %w", err)
			}
			tw := tabwriter.NewWriter(c.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TIME\tTYPE\tRESULT\tREASON")
			for _, e := range events {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type, e.Result, e.Reason)
			}
			return tw.Flush()
		},
	}
	c.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	return c
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash for lockout.passwordHash",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			password, err := readSecret(c.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := session.HashPassword(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), hash)
			return err
		},
	}
}

// submit performs one request and prints the returned session snapshot.
func submit(c *cobra.Command, opts *globalOptions, method, path string, body any) error {
	ctx, cancel := context.WithTimeout(c.Context(), opts.timeout)
	defer cancel()

	data, err := newClient(opts.addr, opts.timeout).do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if opts.json {
		_, err = c.OutOrStdout().Write(data)
		return err
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return printSnapshot(c.OutOrStdout(), snap)
}

func printSnapshot(w io.Writer, s session.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(k, v string) { _, _ = fmt.Fprintf(tw, "%s\t%s\n", k, v) }

	row("view", s.ViewID)
	row("foreground", string(s.Foreground))
	if s.Locked {
		row("locked", "yes ("+string(s.LockReason)+")")
	} else {
		row("locked", "no")
	}
	if s.Dialog != "" {
		row("dialog", string(s.Dialog))
	}
	if s.ExtensionUntil != nil {
		row("extended until", s.ExtensionUntil.Format("15:04:05"))
	}
	row("media", strconv.FormatBool(s.MediaPlaying))
	row("idle", strconv.FormatInt(s.IdleSeconds, 10)+"s")
	return tw.Flush()
}

// readSecret returns the first line of r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
