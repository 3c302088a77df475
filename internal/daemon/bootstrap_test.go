// SPDX-License-Identifier: MIT
package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/kiosk/internal/config"
	"github.com/ManuGH/kiosk/internal/session"
	"github.com/ManuGH/kiosk/internal/status"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingRunner) Start(name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func (r *recordingRunner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func testSettings(t *testing.T) config.Settings {
	t.Helper()
	dir := t.TempDir()
	s := config.Defaults()
	s.Sites = []config.Site{
		{Index: 0, URL: "https://example.com/a", Duration: 0},
		{Index: 1, URL: "https://example.com/b", Duration: 0},
	}
	s.DataDir = dir
	s.StatusPath = filepath.Join(dir, "status.json")
	s.AuditDBPath = filepath.Join(dir, "audit.db")
	s.Lockout.BootFlag = filepath.Join(dir, "boot.flag")
	s.Lockout.WakeFlag = filepath.Join(dir, "wake.flag")
	s.Server.ListenAddr = reserveListenAddr(t)
	s.Server.MetricsAddr = ""
	s.Server.ShutdownTimeout = 2 * time.Second
	s.LogLevel = "error"
	return s
}

func startApp(t *testing.T, app *App) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() { errChan <- app.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, errChan
}

func postCommand(t *testing.T, addr string, body map[string]any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Post("http://"+addr+"/api/v1/commands", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestBuild_ServesAndShutsDown(t *testing.T) {
	s := testSettings(t)
	app, err := Build(context.Background(), s, Options{Version: "test", Headless: true})
	require.NoError(t, err)

	cancel, errChan := startApp(t, app)
	require.NoError(t, waitForListen(s.Server.ListenAddr, 2*time.Second))

	resp := postCommand(t, s.Server.ListenAddr, map[string]any{"command": "swipe-left"})
	var snap struct {
		ViewID string `json:"viewId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "site-1", snap.ViewID)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	metrics, err := client.Get("http://" + s.Server.ListenAddr + "/metrics")
	require.NoError(t, err)
	_ = metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)

	require.Eventually(t, func() bool {
		_, err := os.Stat(s.StatusPath)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	doc, err := status.Read(s.StatusPath)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), doc.PID)
}

func TestBuild_PowerReloadStopsWithReloadRequested(t *testing.T) {
	s := testSettings(t)
	runner := &recordingRunner{}
	app, err := Build(context.Background(), s, Options{Version: "test", Headless: true, PowerRunner: runner})
	require.NoError(t, err)

	_, errChan := startApp(t, app)
	require.NoError(t, waitForListen(s.Server.ListenAddr, 2*time.Second))

	resp := postCommand(t, s.Server.ListenAddr, map[string]any{"command": "power-action", "action": "restart"})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, runner.Calls(), 1)

	resp = postCommand(t, s.Server.ListenAddr, map[string]any{"command": "power-action", "action": "reload"})
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case err := <-errChan:
		assert.True(t, errors.Is(err, ErrReloadRequested), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after reload")
	}
}

func TestBuild_BootLockedRefusesReload(t *testing.T) {
	s := testSettings(t)
	s.Lockout.Enabled = true
	s.Lockout.RequirePasswordOnBoot = true
	// sha256 of "secret"
	s.Lockout.PasswordHash = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	require.NoError(t, os.WriteFile(s.Lockout.BootFlag, nil, 0o600))

	app, err := Build(context.Background(), s, Options{Version: "test", Headless: true})
	require.NoError(t, err)

	cancel, errChan := startApp(t, app)
	require.NoError(t, waitForListen(s.Server.ListenAddr, 2*time.Second))
	require.Eventually(t, func() bool { return app.lock != nil && app.lock.Locked() }, 2*time.Second, 10*time.Millisecond)

	assert.ErrorIs(t, app.Reload(), session.ErrReloadWhileLocked)

	cancel()
	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestBuild_RejectsInvalidListenAddr(t *testing.T) {
	s := testSettings(t)
	s.Server.ListenAddr = "not-an-address"
	_, err := Build(context.Background(), s, Options{Headless: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid listen address")
}

func TestOriginMatcher(t *testing.T) {
	match := originMatcher([]string{"http://localhost:8080"})
	assert.True(t, match("http://localhost:8080"))
	assert.False(t, match("http://evil.example"))
	assert.True(t, originMatcher([]string{"*"})("http://anything"))
	assert.False(t, originMatcher(nil)("http://localhost"))
}
