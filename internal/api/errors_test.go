// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/kiosk/internal/api/middleware"
	"github.com/ManuGH/kiosk/internal/session"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name           string
		data           interface{}
		wantStatusCode int
	}{
		{
			name:           "simple map",
			data:           map[string]string{"status": "ok"},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "snapshot",
			data:           session.Snapshot{ViewID: "site-0"},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeJSON(w, tt.wantStatusCode, tt.data)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var result map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		})
	}
}

func TestClassify_EverySessionError(t *testing.T) {
	for _, e := range errorTable {
		t.Run(e.code, func(t *testing.T) {
			wrapped := fmt.Errorf("dispatch swipe-left: %w", e.target)
			status, code := classify(wrapped)
			assert.Equal(t, e.status, status)
			assert.Equal(t, e.code, code)
		})
	}
}

func TestClassify_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad request", fmt.Errorf("%w: trailing data", errBadRequest), http.StatusBadRequest, "bad_request"},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, "timeout"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set(middleware.HeaderRequestID, "req-42")
	writeError(w, errors.New("sql: database is locked"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "internal_error", body.Error)
	assert.NotContains(t, body.Detail, "sql")
	assert.Equal(t, "req-42", body.RequestID)
}

func TestWriteError_Locked(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, session.ErrLocked)

	assert.Equal(t, http.StatusLocked, w.Code)
	var body errorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "locked", body.Error)
	assert.Equal(t, session.ErrLocked.Error(), body.Detail)
}

func TestWriteNotFoundAndUnavailable(t *testing.T) {
	w := httptest.NewRecorder()
	writeNotFound(w)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	writeServiceUnavailable(w, "renderer bridge disabled")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "renderer bridge disabled")
}
