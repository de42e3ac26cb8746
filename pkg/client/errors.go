package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HTTPError represents a non-2xx HTTP response from the gateway.
type HTTPError struct {
	StatusCode int
	Code       string // machine-readable error code, when the gateway sent one
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// decodeErrorBody turns a gateway error payload into an HTTPError.
// The gateway may respond with a bare string, or a JSON object carrying
// "error" and/or "message"; anything else falls back to fallback.
func decodeErrorBody(status int, body []byte, fallback string) *HTTPError {
	he := &HTTPError{StatusCode: status, Message: fallback}

	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return he
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		he.Code = payload.Error
		switch {
		case payload.Message != "":
			he.Message = payload.Message
		case payload.Error != "":
			he.Message = payload.Error
		}
		return he
	}

	// Bare JSON string, or plain text.
	var s string
	if err := json.Unmarshal(body, &s); err == nil && s != "" {
		he.Message = s
		return he
	}
	he.Message = trimmed
	return he
}
