// SPDX-License-Identifier: MIT

// Package status maintains the on-disk JSON status file read by external
// diagnostics tooling.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
)

// Source publishes session snapshots and signals changes.
type Source interface {
	Snapshot() session.Snapshot
	Changes() <-chan struct{}
}

// Document is the file layout.
type Document struct {
	UpdatedAt time.Time        `json:"updatedAt"`
	PID       int              `json:"pid"`
	Session   session.Snapshot `json:"session"`
}

// Writer rewrites the status file after every published change.
type Writer struct {
	path   string
	source Source
	logger zerolog.Logger
	now    func() time.Time
}

// NewWriter returns a writer for path.
func NewWriter(path string, source Source) *Writer {
	return &Writer{
		path:   path,
		source: source,
		logger: log.WithComponent("status"),
		now:    time.Now,
	}
}

// Run writes the current snapshot, then once per change until ctx ends, with
// a final write on the way out.
func (w *Writer) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o750); err != nil {
		return fmt.Errorf("create status directory: %w", err)
	}
	w.writeLogged()
	for {
		select {
		case <-ctx.Done():
			w.writeLogged()
			return nil
		case <-w.source.Changes():
			w.writeLogged()
		}
	}
}

func (w *Writer) writeLogged() {
	if err := w.Write(w.source.Snapshot()); err != nil {
		w.logger.Warn().Err(err).Str(log.FieldPath, w.path).Msg("status file write failed")
	}
}

// Write atomically replaces the status file with snap.
func (w *Writer) Write(snap session.Snapshot) error {
	doc := Document{UpdatedAt: w.now().UTC(), PID: os.Getpid(), Session: snap}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	pending, err := renameio.NewPendingFile(w.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending status file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			w.logger.Debug().Err(err).Msg("cleanup pending status file")
		}
	}()

	if _, err := pending.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace status file: %w", err)
	}
	return nil
}

// Read loads a status file written by Writer.
func Read(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode status file: %w", err)
	}
	return doc, nil
}
