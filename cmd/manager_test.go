package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/transport"
)

const testToken = "t0k"

// fakeManager serves the manager HTTP API and the chat websocket from
// memory.
type fakeManager struct {
	*httptest.Server

	mu       sync.Mutex
	doc      *config.Document
	puts     int
	cron     map[string][]api.CronJob
	tasks    map[string][]api.Task
	sessions map[string][]api.Session
	status   api.InstanceStatus
	actions  []string
	chat     []string
}

func newFakeManager(t *testing.T) *fakeManager {
	t.Helper()
	m := &fakeManager{
		doc:      config.Default(),
		cron:     map[string][]api.CronJob{},
		tasks:    map[string][]api.Task{},
		sessions: map[string][]api.Session{},
		status:   api.InstanceStatus{Running: true, PID: 4242, Uptime: "1h2m"},
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

func (m *fakeManager) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") != testToken {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.URL.Path == transport.WebSocketPath {
		m.serveChat(w, r)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	agent := r.URL.Query().Get("agent")

	switch {
	case r.URL.Path == "/api/config" && r.Method == http.MethodGet:
		writeJSON(w, map[string]any{"config": m.doc})
	case r.URL.Path == "/api/config" && r.Method == http.MethodPut:
		doc := config.NewDocument()
		if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.doc = doc
		m.puts++
		writeJSON(w, map[string]any{"success": true})
	case r.URL.Path == "/api/cron":
		writeJSON(w, map[string]any{"cronJobs": m.cron[agent]})
	case r.URL.Path == "/api/tasks":
		writeJSON(w, map[string]any{"tasks": m.tasks[agent]})
	case r.URL.Path == "/api/sessions":
		writeJSON(w, map[string]any{"sessions": m.sessions[agent]})
	case r.URL.Path == "/api/instance" && r.Method == http.MethodGet:
		writeJSON(w, map[string]any{"status": m.status})
	case r.URL.Path == "/api/instance" && r.Method == http.MethodPost:
		action := r.URL.Query().Get("action")
		m.actions = append(m.actions, action)
		writeJSON(w, map[string]any{"message": "instance " + action + "ed"})
	default:
		http.NotFound(w, r)
	}
}

// serveChat reports the runtime as attached and echoes every message.
func (m *fakeManager) serveChat(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"type": transport.RuntimeStatusType, "status": "connected"}); err != nil {
		return
	}
	for {
		var in transport.Outbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		m.mu.Lock()
		m.chat = append(m.chat, in.Content)
		m.mu.Unlock()
		if err := conn.WriteJSON(map[string]string{"content": "echo: " + in.Content}); err != nil {
			return
		}
	}
}

func (m *fakeManager) snapshot() (*config.Document, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone(), m.puts
}

func (m *fakeManager) recordedActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.actions...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// runManager runs rootCmd against m with the test token.
func runManager(t *testing.T, m *fakeManager, args ...string) (string, error) {
	t.Helper()
	useTempContexts(t)
	return runRoot(t, append(args, "--endpoint", m.URL, "--token", testToken)...)
}
