// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package surface

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var testView = session.View{
	ID:   "site-0",
	Site: config.Site{Index: 0, URL: "https://intranet.example", Duration: 30, Username: "kiosk", Password: "pw"},
}

type renderer struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server) *renderer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return &renderer{t: t, conn: conn}
}

func (r *renderer) read() Message {
	r.t.Helper()
	require.NoError(r.t, r.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m Message
	require.NoError(r.t, r.conn.ReadJSON(&m))
	return m
}

func (r *renderer) write(m Message) {
	r.t.Helper()
	require.NoError(r.t, r.conn.WriteJSON(m))
}

func newTestBridge(t *testing.T) (*Bridge, *httptest.Server) {
	t.Helper()
	b := NewBridge(func(origin string) bool { return origin == "http://kiosk.local" })
	srv := httptest.NewServer(http.HandlerFunc(b.HandleWebSocket))
	return b, srv
}

// waitConnected polls since registration happens on the server goroutine.
func waitConnected(t *testing.T, b *Bridge, want bool) {
	t.Helper()
	require.Eventually(t, func() bool { return b.Connected() == want }, 2*time.Second, 5*time.Millisecond)
}

func TestBridge_DropsWithoutRenderer(t *testing.T) {
	b := NewBridge(nil)
	b.Attach(testView)
	b.Broadcast(session.BroadcastPowerMenu, nil)

	var playing, called bool
	b.QueryMedia(context.Background(), testView, func(p bool, err error) {
		called, playing = true, p
		assert.NoError(t, err)
	})
	assert.True(t, called)
	assert.False(t, playing)
}

func TestBridge_ReplaysViewOnConnect(t *testing.T) {
	defer goleak.VerifyNone(t)
	b, srv := newTestBridge(t)
	defer srv.Close()

	b.Attach(testView)
	b.Signal(testView, session.SignalPauseButton, true)

	r := dial(t, srv)
	defer r.conn.Close()

	m := r.read()
	assert.Equal(t, TypeAttach, m.Type)
	assert.Equal(t, "site-0", m.View)
	assert.Equal(t, "https://intranet.example", m.URL)
	assert.Equal(t, "kiosk", m.Username)

	m = r.read()
	assert.Equal(t, TypeSignal, m.Type)
	assert.Equal(t, session.SignalPauseButton, m.Name)
	require.NotNil(t, m.Value)
	assert.True(t, *m.Value)

	b.Close()
	waitConnected(t, b, false)
}

func TestBridge_ReplaysLockScreen(t *testing.T) {
	defer goleak.VerifyNone(t)
	b, srv := newTestBridge(t)
	defer srv.Close()

	b.Attach(testView)
	b.DetachAll()
	b.ShowLockScreen()

	r := dial(t, srv)
	defer r.conn.Close()
	assert.Equal(t, TypeLockScreen, r.read().Type)

	b.Close()
	waitConnected(t, b, false)
}

func TestBridge_QueryRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t)
	b, srv := newTestBridge(t)
	defer srv.Close()

	r := dial(t, srv)
	defer r.conn.Close()
	waitConnected(t, b, true)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result := make(chan bool, 1)
	b.QueryMedia(ctx, testView, func(playing bool, err error) {
		assert.NoError(t, err)
		result <- playing
	})

	query := r.read()
	require.Equal(t, TypeQueryMedia, query.Type)
	require.NotEmpty(t, query.ID)
	assert.Equal(t, "site-0", query.View)

	r.write(Message{Type: TypeMediaState, ID: "unknown", Playing: false})
	r.write(Message{Type: TypeMediaState, ID: query.ID, Playing: true})
	select {
	case playing := <-result:
		assert.True(t, playing)
	case <-time.After(2 * time.Second):
		t.Fatal("query not answered")
	}
	cancel()

	b.Close()
	waitConnected(t, b, false)
}

func TestBridge_QueryFailsWhenRendererLeaves(t *testing.T) {
	defer goleak.VerifyNone(t)
	b, srv := newTestBridge(t)
	defer srv.Close()

	r := dial(t, srv)
	waitConnected(t, b, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errs := make(chan error, 1)
	b.QueryMedia(ctx, testView, func(_ bool, err error) { errs <- err })
	_ = r.read()

	require.NoError(t, r.conn.Close())
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrNoRenderer)
	case <-time.After(2 * time.Second):
		t.Fatal("pending query not failed")
	}
	cancel()
	waitConnected(t, b, false)
}

func TestBridge_QueryContextTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)
	b, srv := newTestBridge(t)
	defer srv.Close()

	r := dial(t, srv)
	defer r.conn.Close()
	waitConnected(t, b, true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	errs := make(chan error, 1)
	b.QueryMedia(ctx, testView, func(_ bool, err error) { errs <- err })

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("query did not time out")
	}

	b.Close()
	waitConnected(t, b, false)
}

func TestBridge_ViewReloaded(t *testing.T) {
	defer goleak.VerifyNone(t)
	b, srv := newTestBridge(t)
	defer srv.Close()

	reloaded := make(chan string, 1)
	b.OnViewReloaded(func(id string) { reloaded <- id })

	r := dial(t, srv)
	defer r.conn.Close()
	r.write(Message{Type: TypeViewReloaded, View: "site-3"})

	select {
	case id := <-reloaded:
		assert.Equal(t, "site-3", id)
	case <-time.After(2 * time.Second):
		t.Fatal("reload not delivered")
	}

	b.Close()
	waitConnected(t, b, false)
}

func TestBridge_RejectsForeignOrigin(t *testing.T) {
	b, srv := newTestBridge(t)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, b.Connected())
}

func TestHeadless(t *testing.T) {
	h := NewHeadless()
	h.Attach(testView)
	h.ShowLockScreen()
	h.OpenDialog(session.DialogPause, nil)

	called := false
	h.QueryMedia(context.Background(), testView, func(playing bool, err error) {
		called = true
		assert.False(t, playing)
		assert.NoError(t, err)
	})
	assert.True(t, called)
}
