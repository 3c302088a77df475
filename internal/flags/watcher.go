// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package flags

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher arms sentinels as soon as their files are created, so a flag that
// is written and removed again between two ticks is not missed.
type Watcher struct {
	logger    zerolog.Logger
	sentinels []*Sentinel
}

// NewWatcher watches the given sentinels. Sentinels without a path are skipped.
func NewWatcher(sentinels ...*Sentinel) *Watcher {
	w := &Watcher{logger: log.WithComponent("flags")}
	for _, s := range sentinels {
		if s != nil && s.path != "" {
			w.sentinels = append(w.sentinels, s)
		}
	}
	return w
}

// Run blocks until ctx is cancelled. Parent directories that do not exist are
// logged and left to the per-tick stat in Consume.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.sentinels) == 0 {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	byName := make(map[string]*Sentinel, len(w.sentinels))
	watched := make(map[string]bool)
	for _, s := range w.sentinels {
		path := filepath.Clean(s.path)
		byName[path] = s
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str(log.FieldPath, dir).Msg("flag directory not watchable, relying on polling")
			continue
		}
		watched[dir] = true
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if s, ok := byName[filepath.Clean(event.Name)]; ok {
				s.Arm()
				w.logger.Debug().
					Str(log.FieldEvent, "flag.raised").
					Str(log.FieldPath, s.path).
					Msg("sentinel file appeared")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}
