// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package flags implements the boot and display-wake sentinel files written
// by the host integration. A sentinel is consumed at most once per appearance.
package flags

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"
)

// Sentinel is a consume-and-clear flag file.
type Sentinel struct {
	path  string
	armed atomic.Bool
}

// NewSentinel returns a sentinel for path. An empty path never fires.
func NewSentinel(path string) *Sentinel {
	return &Sentinel{path: path}
}

// Path returns the watched file path.
func (s *Sentinel) Path() string { return s.path }

// Arm marks the sentinel as raised without touching the file system.
func (s *Sentinel) Arm() { s.armed.Store(true) }

// Consume reports whether the flag was raised since the last call and clears
// it. The file is removed so a later appearance fires again.
func (s *Sentinel) Consume() (bool, error) {
	if s.path == "" {
		return s.armed.Swap(false), nil
	}
	armed := s.armed.Swap(false)

	_, err := os.Stat(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return armed, nil
	case err != nil:
		return armed, fmt.Errorf("stat %s: %w", s.path, err)
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return true, fmt.Errorf("clear %s: %w", s.path, err)
	}
	return true, nil
}
