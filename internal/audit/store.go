// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/persistence/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts_ms INTEGER NOT NULL,
	type TEXT NOT NULL,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	result TEXT NOT NULL,
	reason TEXT,
	remote_addr TEXT,
	request_id TEXT,
	details TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_events(ts_ms);
`

// Store persists audit events to SQLite from a single writer goroutine.
type Store struct {
	db    *sql.DB
	queue chan Event

	mu      sync.Mutex
	closed  bool
	dropped uint64
	done    chan struct{}
}

// OpenStore opens (and migrates) the audit database at path.
func OpenStore(ctx context.Context, path string, queueSize int) (*Store, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, schemaVersion, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit store: migration failed: %w", err)
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Store{
		db:    db,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}, nil
}

// Enqueue hands an event to the writer. A full queue drops the event.
func (s *Store) Enqueue(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- e:
	default:
		s.dropped++
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (s *Store) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Run writes queued events until ctx is cancelled, then drains the queue.
func (s *Store) Run(ctx context.Context) error {
	defer close(s.done)
	logger := log.WithComponent("audit")
	for {
		select {
		case e := <-s.queue:
			if err := s.insert(context.WithoutCancel(ctx), e); err != nil {
				logger.Error().Err(err).Str("event_type", string(e.Type)).Msg("audit insert failed")
			}
		case <-ctx.Done():
			s.mu.Lock()
			s.closed = true
			s.mu.Unlock()
			for {
				select {
				case e := <-s.queue:
					if err := s.insert(context.Background(), e); err != nil {
						logger.Error().Err(err).Str("event_type", string(e.Type)).Msg("audit insert failed")
					}
				default:
					return nil
				}
			}
		}
	}
}

// Close waits for Run to exit (if started) and closes the database.
func (s *Store) Close(wait time.Duration) error {
	select {
	case <-s.done:
	case <-time.After(wait):
	}
	return s.db.Close()
}

func (s *Store) insert(ctx context.Context, e Event) error {
	var details []byte
	if len(e.Details) > 0 {
		var err error
		if details, err = json.Marshal(e.Details); err != nil {
			return fmt.Errorf("marshal details: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO audit_events (ts_ms, type, actor, action, result, reason, remote_addr, request_id, details)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.UnixMilli(), string(e.Type), e.Actor, e.Action, e.Result,
		e.Reason, e.RemoteAddr, e.RequestID, string(details))
	return err
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	return Recent(ctx, s.db, limit)
}

// Recent reads events from an already opened audit database.
func Recent(ctx context.Context, db *sql.DB, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
	SELECT ts_ms, type, actor, action, result, COALESCE(reason, ''), COALESCE(remote_addr, ''),
	       COALESCE(request_id, ''), COALESCE(details, '')
	FROM audit_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			tsMS    int64
			typ     string
			details string
		)
		if err := rows.Scan(&tsMS, &typ, &e.Actor, &e.Action, &e.Result, &e.Reason,
			&e.RemoteAddr, &e.RequestID, &details); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Timestamp = time.UnixMilli(tsMS)
		e.Type = EventType(typ)
		if details != "" {
			_ = json.Unmarshal([]byte(details), &e.Details)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
