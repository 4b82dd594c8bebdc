package console

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yockii/yoctl/internal/console/commands"
)

// DefaultMessageLogSize is how many inbound messages the console keeps.
const DefaultMessageLogSize = 200

// MessageLog is a bounded ring of inbound messages, safe for concurrent use.
type MessageLog struct {
	mu      sync.RWMutex
	entries []commands.InboundMessage
	start   int
	count   int
}

// NewMessageLog creates a log holding at most capacity messages.
func NewMessageLog(capacity int) *MessageLog {
	if capacity <= 0 {
		capacity = DefaultMessageLogSize
	}
	return &MessageLog{entries: make([]commands.InboundMessage, capacity)}
}

// Append records a message, evicting the oldest when full.
func (m *MessageLog) Append(role, content string, received time.Time) commands.InboundMessage {
	msg := commands.InboundMessage{
		ID:       uuid.NewString(),
		Received: received,
		Role:     role,
		Content:  content,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	idx := (m.start + m.count) % len(m.entries)
	m.entries[idx] = msg
	if m.count < len(m.entries) {
		m.count++
	} else {
		m.start = (m.start + 1) % len(m.entries)
	}
	return msg
}

// Recent returns up to n messages, oldest first.
func (m *MessageLog) Recent(n int) []commands.InboundMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n > m.count {
		n = m.count
	}
	out := make([]commands.InboundMessage, 0, n)
	for i := m.count - n; i < m.count; i++ {
		out = append(out, m.entries[(m.start+i)%len(m.entries)])
	}
	return out
}

// Len returns the number of messages held.
func (m *MessageLog) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}
