package transport

import "encoding/json"

// RuntimeStatusType is the frame type the manager uses to report whether the
// YoClaw runtime is attached.
const RuntimeStatusType = "yoclaw_status"

// Message is an inbound frame. It is one of AssistantReply, RelayedMessage,
// RuntimeStatus or Unknown.
type Message interface {
	isMessage()
}

// AssistantReply is a reply produced by the runtime.
type AssistantReply struct {
	Content string
}

// RelayedMessage is a message another client sent, echoed with its role.
type RelayedMessage struct {
	Role    string
	Content string
}

// RuntimeStatus reports the runtime attachment. Ready is true only for the
// status "connected".
type RuntimeStatus struct {
	Status string
	Ready  bool
}

// Unknown is any frame that matches no other variant.
type Unknown struct {
	Raw []byte
}

func (AssistantReply) isMessage() {}
func (RelayedMessage) isMessage() {}
func (RuntimeStatus) isMessage()  {}
func (Unknown) isMessage()        {}

// Outbound is the only frame the client sends.
type Outbound struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// NewOutbound wraps chat content in an outbound frame.
func NewOutbound(content string) Outbound {
	return Outbound{Type: "message", Content: content}
}

type inboundFrame struct {
	Type    json.RawMessage `json:"type"`
	Status  json.RawMessage `json:"status"`
	Content json.RawMessage `json:"content"`
	Role    json.RawMessage `json:"role"`
}

// text returns the value of a frame field as the web console would show it.
// Strings are unquoted, null and absent fields are empty, anything else is
// its JSON text.
func text(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// isString reports whether raw is the JSON string want.
func isString(raw json.RawMessage, want string) bool {
	var s string
	return json.Unmarshal(raw, &s) == nil && s == want
}

// Decode classifies a raw frame. It never fails: undecodable input becomes
// Unknown. For a frame carrying both chat content and a runtime status it
// returns the chat message; DecodeAll returns both.
func Decode(data []byte) Message {
	return DecodeAll(data)[0]
}

// DecodeAll returns every message a frame carries, in the order they are
// handled: chat content first, then the runtime status. The result is never
// empty.
func DecodeAll(data []byte) []Message {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return []Message{Unknown{Raw: data}}
	}

	var msgs []Message
	if content := text(f.Content); content != "" {
		if role := text(f.Role); role != "" {
			msgs = append(msgs, RelayedMessage{Role: role, Content: content})
		} else {
			msgs = append(msgs, AssistantReply{Content: content})
		}
	}
	if isString(f.Type, RuntimeStatusType) {
		msgs = append(msgs, RuntimeStatus{Status: text(f.Status), Ready: isString(f.Status, "connected")})
	}
	if len(msgs) == 0 {
		return []Message{Unknown{Raw: data}}
	}
	return msgs
}
