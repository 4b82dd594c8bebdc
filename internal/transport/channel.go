package transport

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yockii/yoctl/pkg/logging"
)

// DefaultReconnectDelay is the fixed wait between a close and the next dial.
const DefaultReconnectDelay = 3000 * time.Millisecond

const subsystem = "Transport"

var (
	// ErrUnavailable is returned by Send unless the socket is open and the
	// runtime is attached.
	ErrUnavailable = errors.New("chat is unavailable: not connected or runtime not attached")

	// ErrEmptyMessage is returned by Send for blank content.
	ErrEmptyMessage = errors.New("message is empty")
)

// Option configures a Channel.
type Option func(*Channel)

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Channel) {
		c.reconnectDelay = d
	}
}

// WithDialer sets the websocket dialer, e.g. for TLS settings or timeouts.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) {
		c.dialer = d
	}
}

// Channel is a self-reconnecting chat connection.
type Channel struct {
	url            string
	dialer         *websocket.Dialer
	reconnectDelay time.Duration

	mu       sync.Mutex
	state    State
	ready    bool
	conn     *websocket.Conn
	cancel   context.CancelFunc
	attempts int

	onMessage []func(Message)
	onState   []func(State, bool)

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

// New creates an idle channel for url. Use BuildURL to derive url.
func New(url string, opts ...Option) *Channel {
	c := &Channel{
		url:            url,
		dialer:         websocket.DefaultDialer,
		reconnectDelay: DefaultReconnectDelay,
		state:          Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnMessage registers fn for every inbound frame, including Unknown.
// Register handlers before Connect.
func (c *Channel) OnMessage(fn func(Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = append(c.onMessage, fn)
}

// OnStateChange registers fn for every change of socket state or readiness.
// Register handlers before Connect.
func (c *Channel) OnStateChange(fn func(State, bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = append(c.onState, fn)
}

// Connect starts the supervisor if it is not already running. It returns
// immediately; dial failures are logged and retried, never returned.
func (c *Channel) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go c.supervise(ctx)
}

// Close stops reconnection, closes the socket and waits for the background
// goroutines. The channel ends in Closed and may be reconnected with Connect.
func (c *Channel) Close() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	if cancel != nil {
		cancel()
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.setState(Closed, false)
}

// Send writes one chat message.
func (c *Channel) Send(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	conn := c.conn
	ok := c.state == Open && c.ready && conn != nil
	c.mu.Unlock()
	if !ok {
		return ErrUnavailable
	}

	c.writeMu.Lock()
	err := conn.WriteJSON(NewOutbound(content))
	c.writeMu.Unlock()
	if err != nil {
		logging.Warn(subsystem, "Write failed, closing connection: %v", err)
		conn.Close()
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// State returns the socket state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Ready reports whether the runtime is attached.
func (c *Channel) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Snapshot returns state and readiness read together.
func (c *Channel) Snapshot() (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.ready
}

// Attempts returns the number of dials started so far.
func (c *Channel) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *Channel) supervise(ctx context.Context) {
	defer c.wg.Done()

	for {
		c.runOnce(ctx)
		if ctx.Err() != nil {
			return
		}

		logging.Debug(subsystem, "Reconnecting in %s", c.reconnectDelay)
		timer := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runOnce performs one dial and, on success, reads until the socket fails.
func (c *Channel) runOnce(ctx context.Context) {
	c.mu.Lock()
	c.attempts++
	c.mu.Unlock()
	c.setState(Connecting, false)

	logging.Debug(subsystem, "Dialing %s", redact(c.url))
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		logging.Warn(subsystem, "Connection failed: %v", err)
		c.setState(Closed, false)
		return
	}

	c.mu.Lock()
	if ctx.Err() != nil {
		c.mu.Unlock()
		conn.Close()
		c.setState(Closed, false)
		return
	}
	c.conn = conn
	c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		c.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		conn.Close()
	})
	defer stop()

	logging.Info(subsystem, "Connected")
	c.setState(Open, false)
	c.readLoop(conn)

	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	conn.Close()
	c.setState(Closed, false)
	logging.Info(subsystem, "Disconnected")
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug(subsystem, "Read ended: %v", err)
			}
			return
		}

		for _, msg := range DecodeAll(data) {
			switch m := msg.(type) {
			case RuntimeStatus:
				c.setState(Open, m.Ready)
			case Unknown:
				logging.Debug(subsystem, "Ignoring unrecognized frame: %s", truncate(string(m.Raw), 200))
			}
			c.dispatch(msg)
		}
	}
}

func (c *Channel) setState(state State, ready bool) {
	c.mu.Lock()
	if state != Open {
		ready = false
	}
	if c.state == state && c.ready == ready {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.ready = ready
	handlers := slices.Clone(c.onState)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(state, ready)
	}
}

func (c *Channel) dispatch(msg Message) {
	c.mu.Lock()
	handlers := slices.Clone(c.onMessage)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(msg)
	}
}

func redact(raw string) string {
	if i := strings.Index(raw, "token="); i >= 0 {
		return raw[:i] + "token=***"
	}
	return raw
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
