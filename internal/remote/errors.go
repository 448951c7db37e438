package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized signals a missing or stale auth session (HTTP 401).
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound signals that the requested quiz record does not exist.
	ErrNotFound = errors.New("quiz not found")
)

// AuthError carries the server-side rejection of a login or signup attempt
// (bad credentials, duplicate email). It is surfaced inline near the auth
// prompt and never treated as a transport failure.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// errorBody extracts the server's error message from a non-2xx response.
// The backend answers JSON {"error": ...} in newer paths and plain
// http.Error text in older ones, so both are accepted.
func errorBody(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(data))
}

// statusError wraps a non-2xx response as a generic transport error.
func statusError(op string, resp *http.Response) error {
	return fmt.Errorf("%s: server returned %d: %s", op, resp.StatusCode, errorBody(resp))
}
