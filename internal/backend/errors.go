package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches any StatusError carrying a 401.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoToken      = errors.New("login response carried no token")
	ErrNoProjectID  = errors.New("project creation response carried no id")
)

const maxErrorBody = 512

// StatusError is returned for every non-2xx backend response. Message is the
// user-facing text of the failed operation.
type StatusError struct {
	Message    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d - %s)", e.Message, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

func newStatusError(message string, status int, body []byte) *StatusError {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return &StatusError{Message: message, StatusCode: status, Body: text}
}
