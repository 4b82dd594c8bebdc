package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	accepted atomic.Int32
	conns    chan *websocket.Conn
	received chan []byte
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		conns:    make(chan *websocket.Conn, 16),
		received: make(chan []byte, 16),
	}
	upgrader := websocket.Upgrader{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != WebSocketPath || r.URL.Query().Get("token") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.accepted.Add(1)
		ts.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.received <- data
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) url(t *testing.T) string {
	u, err := BuildURL(ts.URL, "secret")
	require.NoError(t, err)
	return u
}

func (ts *testServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ts.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a connection")
		return nil
	}
}

func sendStatus(t *testing.T, conn *websocket.Conn, status string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": RuntimeStatusType, "status": status}))
}

func TestChannel_SendRequiresOpenAndReady(t *testing.T) {
	ts := newTestServer(t)
	ch := New(ts.url(t), WithReconnectDelay(20*time.Millisecond))
	defer ch.Close()

	assert.ErrorIs(t, ch.Send("too early"), ErrUnavailable)

	ch.Connect()
	server := ts.nextConn(t)
	require.Eventually(t, func() bool { return ch.State() == Open }, time.Second, 5*time.Millisecond)

	assert.False(t, ch.Ready())
	assert.ErrorIs(t, ch.Send("not ready"), ErrUnavailable)

	sendStatus(t, server, "connected")
	require.Eventually(t, ch.Ready, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, ch.Send("   "), ErrEmptyMessage)
	require.NoError(t, ch.Send("hello"))

	select {
	case data := <-ts.received:
		var frame Outbound
		require.NoError(t, json.Unmarshal(data, &frame))
		assert.Equal(t, Outbound{Type: "message", Content: "hello"}, frame)
	case <-time.After(time.Second):
		t.Fatal("message not received")
	}

	select {
	case data := <-ts.received:
		t.Fatalf("unexpected extra frame %s", data)
	case <-time.After(50 * time.Millisecond):
	}

	sendStatus(t, server, "disconnected")
	require.Eventually(t, func() bool { return !ch.Ready() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, ch.Send("detached"), ErrUnavailable)
}

func TestChannel_ReconnectsAfterEachDrop(t *testing.T) {
	ts := newTestServer(t)
	ch := New(ts.url(t), WithReconnectDelay(20*time.Millisecond))
	defer ch.Close()

	ch.Connect()
	const drops = 3
	for i := 0; i < drops; i++ {
		server := ts.nextConn(t)
		sendStatus(t, server, "connected")
		require.Eventually(t, ch.Ready, time.Second, 5*time.Millisecond)
		server.Close()
	}

	ts.nextConn(t)
	require.Eventually(t, func() bool { return ch.State() == Open }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(drops+1), ts.accepted.Load())
	assert.Equal(t, drops+1, ch.Attempts())
	assert.False(t, ch.Ready(), "readiness must reset after reconnect")
}

func TestChannel_ConnectIsIdempotent(t *testing.T) {
	ts := newTestServer(t)
	ch := New(ts.url(t), WithReconnectDelay(20*time.Millisecond))
	defer ch.Close()

	ch.Connect()
	ch.Connect()
	ts.nextConn(t)
	ch.Connect()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), ts.accepted.Load())
	assert.Equal(t, 1, ch.Attempts())
}

func TestChannel_CloseStopsReconnecting(t *testing.T) {
	ts := newTestServer(t)
	ch := New(ts.url(t), WithReconnectDelay(20*time.Millisecond))

	ch.Connect()
	ts.nextConn(t)
	require.Eventually(t, func() bool { return ch.State() == Open }, time.Second, 5*time.Millisecond)

	ch.Close()
	assert.Equal(t, Closed, ch.State())
	assert.False(t, ch.Ready())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), ts.accepted.Load())
	assert.Equal(t, Closed, ch.State())
}

func TestChannel_DialFailureRetriesWithFixedDelay(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := BuildURL(srv.URL, "secret")
	require.NoError(t, err)
	srv.Close()

	ch := New(u, WithReconnectDelay(10*time.Millisecond))
	ch.Connect()
	require.Eventually(t, func() bool { return ch.Attempts() >= 3 }, 2*time.Second, 5*time.Millisecond)
	ch.Close()

	attempts := ch.Attempts()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, attempts, ch.Attempts())
	assert.Equal(t, Closed, ch.State())
}

func TestChannel_HandlersSeeStatusBeforeMessage(t *testing.T) {
	ts := newTestServer(t)
	ch := New(ts.url(t), WithReconnectDelay(20*time.Millisecond))
	defer ch.Close()

	var mu sync.Mutex
	var events []string
	ch.OnStateChange(func(s State, ready bool) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, "state:"+s.String()+":"+map[bool]string{true: "ready", false: "detached"}[ready])
	})
	ch.OnMessage(func(m Message) {
		mu.Lock()
		defer mu.Unlock()
		switch v := m.(type) {
		case AssistantReply:
			events = append(events, "reply:"+v.Content)
		case RelayedMessage:
			events = append(events, "relay:"+v.Role+":"+v.Content)
		case RuntimeStatus:
			events = append(events, "status:"+v.Status)
		case Unknown:
			events = append(events, "unknown")
		}
	})

	ch.Connect()
	server := ts.nextConn(t)
	sendStatus(t, server, "connected")
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"content":"one"}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"content":"two","role":"user"}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`garbage`)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) >= 7
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"state:connecting:detached",
		"state:open:detached",
		"state:open:ready",
		"status:connected",
		"reply:one",
		"relay:user:two",
		"unknown",
	}, events)
}

func TestChannel_RejectedHandshakeIsRetried(t *testing.T) {
	ts := newTestServer(t)
	u, err := BuildURL(ts.URL, "wrong")
	require.NoError(t, err)

	ch := New(u, WithReconnectDelay(10*time.Millisecond))
	ch.Connect()
	require.Eventually(t, func() bool { return ch.Attempts() >= 2 }, 2*time.Second, 5*time.Millisecond)
	ch.Close()

	assert.Zero(t, ts.accepted.Load())
	assert.Equal(t, Closed, ch.State())
}

func TestChannel_NonStringStatusDetaches(t *testing.T) {
	ts := newTestServer(t)
	ch := New(ts.url(t), WithReconnectDelay(20*time.Millisecond))
	defer ch.Close()

	replies := make(chan string, 4)
	ch.OnMessage(func(m Message) {
		if r, ok := m.(AssistantReply); ok {
			replies <- r.Content
		}
	})

	ch.Connect()
	server := ts.nextConn(t)
	sendStatus(t, server, "connected")
	require.Eventually(t, ch.Ready, time.Second, 5*time.Millisecond)

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"type":"yoclaw_status","status":1,"content":"going away"}`)))
	require.Eventually(t, func() bool { return !ch.Ready() }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, ch.Send("hello"), ErrUnavailable)

	select {
	case got := <-replies:
		assert.Equal(t, "going away", got)
	case <-time.After(time.Second):
		t.Fatal("content of the status frame was not delivered")
	}
}

func TestChannel_HandlerRegisteredDuringDispatch(t *testing.T) {
	ts := newTestServer(t)
	ch := New(ts.url(t), WithReconnectDelay(20*time.Millisecond))
	defer ch.Close()

	var late atomic.Int32
	var once sync.Once
	ch.OnStateChange(func(s State, ready bool) {
		once.Do(func() {
			ch.OnStateChange(func(State, bool) { late.Add(1) })
		})
	})

	ch.Connect()
	server := ts.nextConn(t)
	require.Eventually(t, func() bool { return ch.State() == Open }, time.Second, 5*time.Millisecond)
	sendStatus(t, server, "connected")
	require.Eventually(t, func() bool { return late.Load() >= 2 }, time.Second, 5*time.Millisecond)
}
