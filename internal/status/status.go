// Package status turns connection and configuration state into the
// indicators shown by the console and the status command. It keeps no state
// of its own; callers re-project on every change.
package status

import (
	"fmt"

	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/transport"
)

// Indicator classes.
const (
	ClassConnecting   = "connecting"
	ClassConnected    = "connected"
	ClassDisconnected = "disconnected"
)

// Indicator is one status badge.
type Indicator struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

// Input is the transport state a View is derived from.
type Input struct {
	State transport.State
	Ready bool
}

// View is the derived presentation of the chat connection.
type View struct {
	Server      Indicator `json:"server"`
	Runtime     Indicator `json:"runtime"`
	SendEnabled bool      `json:"sendEnabled"`
}

// Snapshotter is implemented by *transport.Channel.
type Snapshotter interface {
	Snapshot() (transport.State, bool)
}

// Observe projects the current state of src.
func Observe(src Snapshotter) View {
	state, ready := src.Snapshot()
	return Project(Input{State: state, Ready: ready})
}

// Project derives the view for in.
func Project(in Input) View {
	v := View{SendEnabled: in.State == transport.Open && in.Ready}

	switch in.State {
	case transport.Connecting:
		v.Server = Indicator{Text: "服务端: 连接中...", Class: ClassConnecting}
	case transport.Open:
		v.Server = Indicator{Text: "服务端: 已连接", Class: ClassConnected}
	default:
		v.Server = Indicator{Text: "服务端: 未连接", Class: ClassDisconnected}
	}

	if in.Ready {
		v.Runtime = Indicator{Text: "YoClaw: 已连接", Class: ClassConnected}
	} else {
		v.Runtime = Indicator{Text: "YoClaw: 未连接", Class: ClassDisconnected}
	}
	return v
}

// PromptTag is the short marker the console prefixes to its prompt. It is
// empty when sending is possible.
func (v View) PromptTag() string {
	switch {
	case v.SendEnabled:
		return ""
	case v.Server.Class == ClassConnecting:
		return "[CONNECTING]"
	case v.Server.Class == ClassDisconnected:
		return "[OFFLINE]"
	default:
		return "[RUNTIME DETACHED]"
	}
}

// ConfigView summarizes the loaded configuration.
type ConfigView struct {
	Loaded          bool     `json:"loaded"`
	Agents          int      `json:"agents"`
	Providers       int      `json:"providers"`
	Channels        int      `json:"channels"`
	EnabledChannels int      `json:"enabledChannels"`
	Dangling        []string `json:"dangling,omitempty"`
}

// ProjectConfig derives the configuration summary. doc may be nil before the
// first load. Dangling lists references to entries that no longer exist.
func ProjectConfig(doc *config.Document) ConfigView {
	if doc == nil {
		return ConfigView{}
	}

	v := ConfigView{
		Loaded:    true,
		Agents:    len(doc.Agents),
		Providers: len(doc.Providers),
		Channels:  len(doc.Channels),
	}
	for _, name := range doc.AgentNames() {
		if p := doc.Agents[name].Provider; p != "" && !doc.HasProvider(p) {
			v.Dangling = append(v.Dangling, fmt.Sprintf("agents.%s.provider -> %s", name, p))
		}
	}
	for _, name := range doc.ChannelNames() {
		ch := doc.Channels[name]
		if ch.Enabled {
			v.EnabledChannels++
		}
		if ch.Agent != "" && !doc.HasAgent(ch.Agent) {
			v.Dangling = append(v.Dangling, fmt.Sprintf("channels.%s.agent -> %s", name, ch.Agent))
		}
	}
	return v
}
