// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/kiosk/internal/api/middleware"
	"github.com/ManuGH/kiosk/internal/session"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error     string `json:"error"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// apiError pairs a session error with its HTTP status and stable code.
type apiError struct {
	target error
	status int
	code   string
}

var errorTable = []apiError{
	{session.ErrLocked, http.StatusLocked, "locked"},
	{session.ErrNotLocked, http.StatusConflict, "not_locked"},
	{session.ErrDialogOpen, http.StatusConflict, "dialog_open"},
	{session.ErrNoDialog, http.StatusConflict, "no_dialog"},
	{session.ErrNotRotating, http.StatusConflict, "not_rotating"},
	{session.ErrReloadWhileLocked, http.StatusConflict, "reload_while_locked"},
	{session.ErrPasswordIncorrect, http.StatusUnauthorized, "password_incorrect"},
	{session.ErrPINIncorrect, http.StatusForbidden, "pin_incorrect"},
	{session.ErrHiddenDisabled, http.StatusForbidden, "hidden_disabled"},
	{session.ErrPowerDisabled, http.StatusForbidden, "power_disabled"},
	{session.ErrKeyboardDisabled, http.StatusForbidden, "keyboard_disabled"},
	{session.ErrNoHiddenViews, http.StatusConflict, "no_hidden_views"},
	{session.ErrExtensionTooLong, http.StatusBadRequest, "extension_too_long"},
	{session.ErrInvalidExtension, http.StatusBadRequest, "invalid_extension"},
	{session.ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
	{session.ErrUnknownCommand, http.StatusNotFound, "unknown_command"},
	{session.ErrControllerStopped, http.StatusServiceUnavailable, "controller_stopped"},
}

// classify maps err onto an HTTP status and error code.
func classify(err error) (int, string) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			return e.status, e.code
		}
	}
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

var errBadRequest = errors.New("malformed request")

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the mapped status and an {"error","detail"} body.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	body := errorBody{
		Error:     code,
		Detail:    err.Error(),
		RequestID: w.Header().Get(middleware.HeaderRequestID),
	}
	if status == http.StatusInternalServerError {
		body.Detail = "An unexpected error occurred."
	}
	writeJSON(w, status, body)
}

// writeNotFound writes a 404 Not Found response
func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not_found"})
}

// writeServiceUnavailable writes a 503 Service Unavailable response
func writeServiceUnavailable(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable", Detail: detail})
}
