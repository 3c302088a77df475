// SPDX-License-Identifier: MIT

package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	c1, c2 := net.Pipe()
	_ = c2.Close()
	return c1, bufio.NewReadWriter(bufio.NewReader(c1), bufio.NewWriter(c1)), nil
}

func TestMetricsWriter_Hijack(t *testing.T) {
	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	mw := &metricsWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	conn, _, err := mw.Hijack()
	require.NoError(t, err)
	_ = conn.Close()
	assert.True(t, rec.hijacked)
	assert.True(t, mw.hijacked)
}

func TestMetricsWriter_HijackUnsupported(t *testing.T) {
	mw := &metricsWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	_, _, err := mw.Hijack()
	assert.Error(t, err)
	assert.False(t, mw.hijacked)
}

func TestMetricsWriter_CapturesStatusAndSize(t *testing.T) {
	rec := httptest.NewRecorder()
	mw := &metricsWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	mw.WriteHeader(http.StatusConflict)
	mw.WriteHeader(http.StatusOK)
	_, _ = mw.Write([]byte("hello"))
	mw.Flush()

	assert.Equal(t, http.StatusConflict, mw.statusCode)
	assert.Equal(t, 5, mw.bytesWritten)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, rec.Flushed)
	assert.Same(t, rec, mw.Unwrap())
}
