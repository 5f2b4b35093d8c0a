// Package httputil writes JSON responses and maps domain error codes to HTTP
// statuses for the transports built on this module.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "hrcore/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeUnknownPermission:      http.StatusForbidden,
	dErrors.CodeInsufficientPermission: http.StatusForbidden,
	dErrors.CodeOrgBoundaryViolation:   http.StatusForbidden,
	dErrors.CodeForbidden:              http.StatusForbidden,
	dErrors.CodeUnauthorized:           http.StatusUnauthorized,
	dErrors.CodeCycleDetected:          http.StatusConflict,
	dErrors.CodeInvalidTransition:      http.StatusConflict,
	dErrors.CodeConflict:               http.StatusConflict,
	dErrors.CodeValidation:             http.StatusBadRequest,
	dErrors.CodeInvalidInput:           http.StatusBadRequest,
	dErrors.CodeBadRequest:             http.StatusBadRequest,
	dErrors.CodeNotFound:               http.StatusNotFound,
	dErrors.CodeTimeout:                http.StatusGatewayTimeout,
	dErrors.CodeUnavailable:            http.StatusServiceUnavailable,
	dErrors.CodeInvariantViolation:     http.StatusInternalServerError,
	dErrors.CodeInternal:               http.StatusInternalServerError,
}

// StatusFor returns the HTTP status for a domain error code.
func StatusFor(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError writes err as {"error": code, "error_description": message}.
// Server-side failures omit the description so internals never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(code)
	body := errorBody{Error: string(code)}
	if status < http.StatusInternalServerError {
		body.ErrorDescription = dErrors.Message(err)
	}
	WriteJSON(w, status, body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
