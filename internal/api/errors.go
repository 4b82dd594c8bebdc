package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoToken is returned by NewClient when no access token is configured.
	ErrNoToken = errors.New("no access token configured")

	// ErrAgentRequired is returned by the telemetry calls when agent is empty.
	ErrAgentRequired = errors.New("agent name is required")
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// HTTPError is a non-2xx response from the manager.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// IsUnauthorized reports whether err is a 401 from the manager.
func IsUnauthorized(err error) bool {
	return statusIs(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 from the manager.
func IsNotFound(err error) bool {
	return statusIs(err, http.StatusNotFound)
}

func statusIs(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}
