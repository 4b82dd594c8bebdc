package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Message
	}{
		{
			name:     "assistant reply",
			raw:      `{"content":"hello"}`,
			expected: AssistantReply{Content: "hello"},
		},
		{
			name:     "relayed message from another client",
			raw:      `{"content":"hi all","role":"user"}`,
			expected: RelayedMessage{Role: "user", Content: "hi all"},
		},
		{
			name:     "runtime attached",
			raw:      `{"type":"yoclaw_status","status":"connected"}`,
			expected: RuntimeStatus{Status: "connected", Ready: true},
		},
		{
			name:     "runtime detached",
			raw:      `{"type":"yoclaw_status","status":"disconnected"}`,
			expected: RuntimeStatus{Status: "disconnected", Ready: false},
		},
		{
			name:     "runtime status with unexpected value",
			raw:      `{"type":"yoclaw_status","status":"starting"}`,
			expected: RuntimeStatus{Status: "starting", Ready: false},
		},
		{
			name:     "runtime status that is not a string",
			raw:      `{"type":"yoclaw_status","status":1}`,
			expected: RuntimeStatus{Status: "1", Ready: false},
		},
		{
			name:     "runtime status missing",
			raw:      `{"type":"yoclaw_status"}`,
			expected: RuntimeStatus{Status: "", Ready: false},
		},
		{
			name:     "non-string role",
			raw:      `{"content":"hey","role":7}`,
			expected: RelayedMessage{Role: "7", Content: "hey"},
		},
		{
			name:     "null role is an assistant reply",
			raw:      `{"content":"hey","role":null}`,
			expected: AssistantReply{Content: "hey"},
		},
		{
			name:     "empty content",
			raw:      `{"content":""}`,
			expected: Unknown{Raw: []byte(`{"content":""}`)},
		},
		{
			name:     "unrelated type",
			raw:      `{"type":"ping"}`,
			expected: Unknown{Raw: []byte(`{"type":"ping"}`)},
		},
		{
			name:     "invalid json",
			raw:      `not json`,
			expected: Unknown{Raw: []byte(`not json`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Decode([]byte(tt.raw)))
		})
	}
}

func TestDecodeAll(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []Message
	}{
		{
			name:     "plain reply",
			raw:      `{"content":"hello"}`,
			expected: []Message{AssistantReply{Content: "hello"}},
		},
		{
			name: "status frame carrying content",
			raw:  `{"type":"yoclaw_status","status":"connected","content":"hi"}`,
			expected: []Message{
				AssistantReply{Content: "hi"},
				RuntimeStatus{Status: "connected", Ready: true},
			},
		},
		{
			name: "detached status with relayed content",
			raw:  `{"type":"yoclaw_status","status":false,"content":"bye","role":"user"}`,
			expected: []Message{
				RelayedMessage{Role: "user", Content: "bye"},
				RuntimeStatus{Status: "false", Ready: false},
			},
		},
		{
			name:     "type that is not a string",
			raw:      `{"type":["yoclaw_status"],"status":"connected"}`,
			expected: []Message{Unknown{Raw: []byte(`{"type":["yoclaw_status"],"status":"connected"}`)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeAll([]byte(tt.raw)))
		})
	}
}

func TestNewOutbound(t *testing.T) {
	assert.Equal(t, Outbound{Type: "message", Content: "x"}, NewOutbound("x"))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		endpoint string
		token    string
		expected string
		wantErr  bool
	}{
		{endpoint: "http://localhost:8080", token: "abc", expected: "ws://localhost:8080/webWs?token=abc"},
		{endpoint: "https://claw.example.com/", token: "abc", expected: "wss://claw.example.com/webWs?token=abc"},
		{endpoint: "ws://10.0.0.1:9000", token: "a b", expected: "ws://10.0.0.1:9000/webWs?token=a+b"},
		{endpoint: "ftp://host", token: "abc", wantErr: true},
		{endpoint: "http://", token: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			got, err := BuildURL(tt.endpoint, tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
