// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/kiosk/internal/session"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func fakeDaemon(t *testing.T, status int, reply any) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var got []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				assert.NoError(t, json.Unmarshal(data, &rec.body))
			}
		}
		got = append(got, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSend_PostsCommand(t *testing.T) {
	srv, got := fakeDaemon(t, http.StatusOK, session.Snapshot{ViewID: "site-1", Foreground: "normal"})

	out, err := execute(t, "", "--addr", srv.URL, "send", "pause-select", "--minutes", "30")
	require.NoError(t, err)

	require.Len(t, *got, 1)
	req := (*got)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/v1/commands", req.path)
	assert.Equal(t, "pause-select", req.body["command"])
	assert.Equal(t, float64(30), req.body["minutes"])
	assert.NotContains(t, req.body, "pin")
	assert.Contains(t, out, "site-1")
	assert.Contains(t, out, "locked")
}

func TestSend_PowerAction(t *testing.T) {
	srv, got := fakeDaemon(t, http.StatusOK, session.Snapshot{})

	_, err := execute(t, "", "--addr", strings.TrimPrefix(srv.URL, "http://"), "send", "power-action", "--action", "restart")
	require.NoError(t, err)
	assert.Equal(t, "restart", (*got)[0].body["action"])
}

func TestSend_LockedMapsToExitCode(t *testing.T) {
	srv, _ := fakeDaemon(t, http.StatusLocked, map[string]string{"error": "locked", "detail": "session is locked"})

	_, err := execute(t, "", "--addr", srv.URL, "send", "swipe-left")
	require.Error(t, err)

	var ae *apiError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "locked", ae.Code)
	assert.Equal(t, 3, exitCode(err))
	assert.Contains(t, err.Error(), "HTTP 423")
}

func TestSend_RequiresCommand(t *testing.T) {
	_, err := execute(t, "", "send")
	require.Error(t, err)
}

func TestState_JSON(t *testing.T) {
	srv, got := fakeDaemon(t, http.StatusOK, session.Snapshot{ViewID: "site-0", Locked: true, LockReason: "inactivity"})

	out, err := execute(t, "", "--addr", srv.URL, "--json", "state")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, (*got)[0].method)
	assert.Equal(t, "/api/v1/state", (*got)[0].path)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.True(t, snap.Locked)
}

func TestState_Table(t *testing.T) {
	srv, _ := fakeDaemon(t, http.StatusOK, session.Snapshot{ViewID: "site-0", Locked: true, LockReason: "daily"})

	out, err := execute(t, "", "--addr", srv.URL, "state")
	require.NoError(t, err)
	assert.Contains(t, out, "yes (daily)")
}

func TestUnlock_ReadsPasswordFromStdin(t *testing.T) {
	srv, got := fakeDaemon(t, http.StatusOK, session.Snapshot{})

	_, err := execute(t, "s3cret\n", "--addr", srv.URL, "unlock")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/unlock", (*got)[0].path)
	assert.Equal(t, "s3cret", (*got)[0].body["password"])
}

func TestUnlock_WrongPassword(t *testing.T) {
	srv, _ := fakeDaemon(t, http.StatusUnauthorized, map[string]string{"error": "password_incorrect"})

	_, err := execute(t, "nope\n", "--addr", srv.URL, "unlock")
	require.Error(t, err)
	assert.Equal(t, 4, exitCode(err))
}

func TestUnlock_EmptyStdin(t *testing.T) {
	_, err := execute(t, "", "unlock")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty password")
}

func TestAudit_ListsEvents(t *testing.T) {
	srv, got := fakeDaemon(t, http.StatusOK, []map[string]any{
		{"timestamp": "2025-03-01T10:00:00Z", "type": "lockout.locked", "result": "success", "reason": "inactivity"},
	})

	out, err := execute(t, "", "--addr", srv.URL, "audit", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, "limit=5", (*got)[0].query)
	assert.Contains(t, out, "lockout.locked")
	assert.Contains(t, out, "inactivity")
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "hunter2\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2"), hash)
	assert.True(t, session.NewCredential(hash).Verify("hunter2"))
}

func TestExitCode_NonAPIError(t *testing.T) {
	assert.Equal(t, 1, exitCode(errors.New("dial tcp: refused")))
	assert.Equal(t, 1, exitCode(&apiError{Status: http.StatusServiceUnavailable}))
}

func TestNewClient_NormalisesAddress(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8787", newClient("127.0.0.1:8787", 0).base)
	assert.Equal(t, "https://kiosk.local", newClient("https://kiosk.local/", 0).base)
}
