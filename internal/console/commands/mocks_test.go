package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/editor"
	"github.com/yockii/yoctl/internal/transport"
)

// memRemote serves a configuration document from memory.
type memRemote struct {
	mu     sync.Mutex
	doc    *config.Document
	puts   int
	putErr error
	getErr error
}

func (m *memRemote) GetConfig(ctx context.Context) (*config.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.doc.Clone(), nil
}

func (m *memRemote) PutConfig(ctx context.Context, doc *config.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.doc = doc.Clone()
	return nil
}

type mockChat struct {
	state    transport.State
	ready    bool
	attempts int
	sent     []string
	sendErr  error
}

func (m *mockChat) Send(content string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, content)
	return nil
}

func (m *mockChat) Snapshot() (transport.State, bool) { return m.state, m.ready }
func (m *mockChat) Attempts() int                     { return m.attempts }

type mockAPI struct {
	cron      map[string][]api.CronJob
	tasks     map[string][]api.Task
	sessions  map[string][]api.Session
	status    *api.InstanceStatus
	actions   []api.Action
	actionMsg string
	err       error
}

func (m *mockAPI) ListCronJobs(ctx context.Context, agent string) ([]api.CronJob, error) {
	return m.cron[agent], m.err
}

func (m *mockAPI) ListTasks(ctx context.Context, agent string) ([]api.Task, error) {
	return m.tasks[agent], m.err
}

func (m *mockAPI) ListSessions(ctx context.Context, agent string) ([]api.Session, error) {
	return m.sessions[agent], m.err
}

func (m *mockAPI) InstanceStatus(ctx context.Context) (*api.InstanceStatus, error) {
	return m.status, m.err
}

func (m *mockAPI) InstanceAction(ctx context.Context, action api.Action) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.actions = append(m.actions, action)
	return m.actionMsg, nil
}

type mockHistory struct {
	msgs []InboundMessage
}

func (m *mockHistory) Recent(n int) []InboundMessage {
	if n >= len(m.msgs) {
		return m.msgs
	}
	return m.msgs[len(m.msgs)-n:]
}

func (m *mockHistory) Len() int { return len(m.msgs) }

// mockSession wires the fakes together. confirm answers every prompt and
// records it.
type mockSession struct {
	chat     *mockChat
	api      *mockAPI
	apiErr   error
	remote   *memRemote
	store    *config.Store
	editor   *editor.Editor
	history  *mockHistory
	confirm  bool
	prompts  []string
	endpoint string
	ctxName  string
}

func newMockSession() *mockSession {
	remote := &memRemote{doc: config.Default()}
	store := config.NewStore(remote)
	if err := store.Load(context.Background()); err != nil {
		panic(err)
	}
	return &mockSession{
		chat:     &mockChat{state: transport.Open, ready: true},
		api:      &mockAPI{},
		remote:   remote,
		store:    store,
		editor:   editor.New(store.Snapshot()),
		history:  &mockHistory{},
		confirm:  true,
		endpoint: "http://localhost:8080",
		ctxName:  "local",
	}
}

func (m *mockSession) Confirm(prompt string) bool {
	m.prompts = append(m.prompts, prompt)
	return m.confirm
}

func (m *mockSession) Chat() ChatChannel {
	if m.chat == nil {
		return nil
	}
	return m.chat
}

func (m *mockSession) API() (ManagerAPI, error) {
	if m.apiErr != nil {
		return nil, m.apiErr
	}
	return m.api, nil
}

func (m *mockSession) Store() *config.Store     { return m.store }
func (m *mockSession) Editor() *editor.Editor   { return m.editor }
func (m *mockSession) Messages() MessageHistory { return m.history }
func (m *mockSession) Endpoint() string         { return m.endpoint }
func (m *mockSession) ContextName() string      { return m.ctxName }
func (m *mockSession) DefaultAgent() string     { return config.DefaultAgentName }

// captureOutput records everything written through the OutputLogger.
type captureOutput struct {
	buf bytes.Buffer
}

func (c *captureOutput) Output(format string, args ...interface{}) {
	fmt.Fprintf(&c.buf, format, args...)
}

func (c *captureOutput) OutputLine(format string, args ...interface{}) {
	fmt.Fprintf(&c.buf, format+"\n", args...)
}

func (c *captureOutput) Info(format string, args ...interface{}) {
	fmt.Fprintf(&c.buf, "INFO "+format+"\n", args...)
}

func (c *captureOutput) Debug(format string, args ...interface{}) {}

func (c *captureOutput) Warn(format string, args ...interface{}) {
	fmt.Fprintf(&c.buf, "WARN "+format+"\n", args...)
}

func (c *captureOutput) Error(format string, args ...interface{}) {
	fmt.Fprintf(&c.buf, "ERROR "+format+"\n", args...)
}

func (c *captureOutput) Success(format string, args ...interface{}) {
	fmt.Fprintf(&c.buf, "OK "+format+"\n", args...)
}

func (c *captureOutput) Writer() io.Writer       { return &c.buf }
func (c *captureOutput) SetVerbose(verbose bool) {}

func (c *captureOutput) String() string { return c.buf.String() }
