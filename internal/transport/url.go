package transport

import (
	"fmt"
	"net/url"
	"strings"
)

// WebSocketPath is the chat endpoint on the manager.
const WebSocketPath = "/webWs"

// BuildURL derives the websocket URL from the manager's HTTP endpoint.
func BuildURL(endpoint, token string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	u.Path = WebSocketPath
	u.RawQuery = url.Values{"token": []string{token}}.Encode()
	u.Fragment = ""
	return u.String(), nil
}
