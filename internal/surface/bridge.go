// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package surface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ManuGH/kiosk/internal/log"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
)

// ErrNoRenderer is reported to pending queries when the renderer goes away.
var ErrNoRenderer = errors.New("no renderer connected")

// Bridge implements session.Display and session.MediaQuerier over a single
// renderer WebSocket. A newer connection replaces the current one. Without a
// renderer, sends are dropped and queries report not playing.
type Bridge struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu       sync.Mutex
	client   *client
	queries  map[string]func(bool, error)
	onReload func(viewID string)

	// replayed to a renderer that connects later
	locked  bool
	attach  *Message
	signals map[string]Message
}

type client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// enqueue reports false when the client is gone or its buffer is full.
func (c *client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// NewBridge returns a bridge. originAllowed validates the Origin header on
// upgrade; requests without an Origin are always accepted.
func NewBridge(originAllowed func(string) bool) *Bridge {
	return &Bridge{
		logger:  log.WithComponent("surface"),
		queries: make(map[string]func(bool, error)),
		signals: make(map[string]Message),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if originAllowed != nil {
					return originAllowed(origin)
				}
				return false
			},
		},
	}
}

// OnViewReloaded registers the handler for renderer reload reports.
func (b *Bridge) OnViewReloaded(fn func(viewID string)) {
	b.mu.Lock()
	b.onReload = fn
	b.mu.Unlock()
}

// Connected reports whether a renderer is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}

// HandleWebSocket upgrades the request and serves the renderer until it
// disconnects.
func (b *Bridge) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn().Err(err).Msg("renderer upgrade failed")
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	b.register(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	b.readPump(c)
	b.unregister(c)
	<-done
}

// Close disconnects the current renderer.
func (b *Bridge) Close() {
	b.mu.Lock()
	c := b.client
	b.mu.Unlock()
	if c != nil {
		_ = c.conn.Close()
	}
}

func (b *Bridge) register(c *client) {
	b.mu.Lock()
	old := b.client
	b.client = c
	replay := b.replayLocked()
	b.mu.Unlock()

	if old != nil {
		b.logger.Info().Str(log.FieldClientID, old.id).Msg("renderer replaced by a new connection")
		_ = old.conn.Close()
	}
	for _, m := range replay {
		b.deliver(c, m)
	}
	b.logger.Info().
		Str(log.FieldEvent, "surface.connected").
		Str(log.FieldClientID, c.id).
		Msg("renderer connected")
}

func (b *Bridge) unregister(c *client) {
	b.mu.Lock()
	var pending []func(bool, error)
	if b.client == c {
		b.client = nil
		for id, done := range b.queries {
			pending = append(pending, done)
			delete(b.queries, id)
		}
	}
	b.mu.Unlock()

	c.close()
	_ = c.conn.Close()
	for _, done := range pending {
		done(false, ErrNoRenderer)
	}
	b.logger.Info().
		Str(log.FieldEvent, "surface.disconnected").
		Str(log.FieldClientID, c.id).
		Msg("renderer disconnected")
}

func (b *Bridge) replayLocked() []Message {
	if b.locked {
		return []Message{{Type: TypeLockScreen}}
	}
	if b.attach == nil {
		return nil
	}
	out := []Message{*b.attach}
	for _, s := range b.signals {
		out = append(out, s)
	}
	return out
}

func (b *Bridge) readPump(c *client) {
	_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn().Err(err).Str(log.FieldClientID, c.id).Msg("renderer read failed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.logger.Warn().Err(err).Msg("malformed renderer message")
			continue
		}
		b.handle(msg)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *Bridge) handle(msg Message) {
	switch msg.Type {
	case TypeMediaState:
		b.mu.Lock()
		done, ok := b.queries[msg.ID]
		delete(b.queries, msg.ID)
		b.mu.Unlock()
		if !ok {
			b.logger.Debug().Str(log.FieldQueryID, msg.ID).Msg("media report for unknown query")
			return
		}
		done(msg.Playing, nil)
	case TypeViewReloaded:
		b.mu.Lock()
		fn := b.onReload
		b.mu.Unlock()
		if fn != nil {
			fn(msg.View)
		}
	default:
		b.logger.Debug().Str("type", msg.Type).Msg("ignoring renderer message")
	}
}

// send queues msg for the current renderer, dropping it when none is
// connected or its buffer is full.
func (b *Bridge) send(msg Message) {
	b.mu.Lock()
	c := b.client
	b.mu.Unlock()
	if c == nil {
		return
	}
	b.deliver(c, msg)
}

func (b *Bridge) deliver(c *client, msg Message) {
	msg.Timestamp = time.Now()
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error().Err(err).Str("type", msg.Type).Msg("failed to encode renderer message")
		return
	}
	if !c.enqueue(data) {
		b.logger.Warn().Str("type", msg.Type).Str(log.FieldClientID, c.id).Msg("renderer message dropped")
	}
}

// Attach implements session.Display.
func (b *Bridge) Attach(v session.View) {
	msg := Message{
		Type:     TypeAttach,
		View:     v.ID,
		URL:      v.Site.URL,
		Username: v.Site.Username,
		Password: v.Site.Password,
	}
	b.mu.Lock()
	b.attach = &msg
	b.signals = make(map[string]Message)
	b.mu.Unlock()
	b.send(msg)
}

// DetachAll implements session.Display.
func (b *Bridge) DetachAll() {
	b.mu.Lock()
	b.attach = nil
	b.signals = make(map[string]Message)
	b.mu.Unlock()
	b.send(Message{Type: TypeDetachAll})
}

// ShowLockScreen implements session.Display.
func (b *Bridge) ShowLockScreen() {
	b.mu.Lock()
	b.locked = true
	b.mu.Unlock()
	b.send(Message{Type: TypeLockScreen})
}

// HideLockScreen implements session.Display.
func (b *Bridge) HideLockScreen() {
	b.mu.Lock()
	b.locked = false
	b.mu.Unlock()
	b.send(Message{Type: TypeUnlockScreen})
}

// OpenDialog implements session.Display.
func (b *Bridge) OpenDialog(d session.Dialog, payload map[string]any) {
	b.send(Message{Type: TypeDialogOpen, Dialog: string(d), Payload: payload})
}

// CloseDialog implements session.Display.
func (b *Bridge) CloseDialog(d session.Dialog) {
	b.send(Message{Type: TypeDialogClose, Dialog: string(d)})
}

// Signal implements session.Display.
func (b *Bridge) Signal(v session.View, name string, value bool) {
	msg := Message{Type: TypeSignal, View: v.ID, Name: name, Value: &value}
	b.mu.Lock()
	if b.attach != nil && b.attach.View == v.ID {
		b.signals[name] = msg
	}
	b.mu.Unlock()
	b.send(msg)
}

// Broadcast implements session.Display.
func (b *Bridge) Broadcast(name string, payload map[string]any) {
	b.send(Message{Type: TypeBroadcast, Name: name, Payload: payload})
}

// QueryMedia implements session.MediaQuerier. done runs exactly once: with
// the renderer's report, or with an error when ctx ends or the renderer leaves.
func (b *Bridge) QueryMedia(ctx context.Context, v session.View, done func(bool, error)) {
	b.mu.Lock()
	c := b.client
	if c == nil {
		b.mu.Unlock()
		done(false, nil)
		return
	}
	id := uuid.NewString()
	b.queries[id] = done
	b.mu.Unlock()

	b.deliver(c, Message{Type: TypeQueryMedia, ID: id, View: v.ID})

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		pending, ok := b.queries[id]
		delete(b.queries, id)
		b.mu.Unlock()
		if ok {
			pending(false, ctx.Err())
		}
	}()
}

var (
	_ session.Display     = (*Bridge)(nil)
	_ session.MediaQuerier = (*Bridge)(nil)
)
