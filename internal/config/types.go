package config

import (
	"sort"
)

// ProviderType identifies the API flavour of a model provider.
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGoogle    ProviderType = "google"
	ProviderAzure     ProviderType = "azure"
	ProviderBaidu     ProviderType = "baidu"
	ProviderOther     ProviderType = "other"
)

// ProviderTypes lists every provider type in display order.
var ProviderTypes = []ProviderType{
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderGoogle,
	ProviderAzure,
	ProviderBaidu,
	ProviderOther,
}

// ChannelType identifies the communication surface of a channel.
type ChannelType string

const (
	ChannelWeb    ChannelType = "web"
	ChannelFeishu ChannelType = "feishu"
)

// ChannelTypes lists every channel type in display order.
var ChannelTypes = []ChannelType{ChannelWeb, ChannelFeishu}

// IsValid reports whether t is a known channel type.
func (t ChannelType) IsValid() bool {
	return t == ChannelWeb || t == ChannelFeishu
}

// Agent is a configured workspace bound to a model provider.
type Agent struct {
	Workspace   string  `json:"workspace" yaml:"workspace" toml:"workspace"`
	Provider    string  `json:"provider" yaml:"provider" toml:"provider"`
	Model       string  `json:"model" yaml:"model" toml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature" toml:"temperature" jsonschema:"minimum=0"`
}

// Provider is a model-serving backend credential and endpoint.
type Provider struct {
	Type    ProviderType `json:"type" yaml:"type" toml:"type"`
	APIKey  string       `json:"api_key" yaml:"api_key" toml:"api_key"`
	BaseURL string       `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty"`
}

// Channel is an inbound/outbound communication surface bound to one agent.
// Only the fields of its Type are meaningful; the others are omitted on the
// wire.
type Channel struct {
	Type    ChannelType `json:"type" yaml:"type" toml:"type"`
	Enabled bool        `json:"enabled" yaml:"enabled" toml:"enabled"`
	Agent   string      `json:"agent" yaml:"agent" toml:"agent"`

	// feishu
	AppID     string `json:"app_id,omitempty" yaml:"app_id,omitempty" toml:"app_id,omitempty"`
	AppSecret string `json:"app_secret,omitempty" yaml:"app_secret,omitempty" toml:"app_secret,omitempty"`

	// web
	HostAddress string `json:"host_address,omitempty" yaml:"host_address,omitempty" toml:"host_address,omitempty"`
	Token       string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
}

// Skill holds the skill search paths.
type Skill struct {
	GlobalPath  string `json:"global_path" yaml:"global_path" toml:"global_path"`
	BuiltinPath string `json:"builtin_path" yaml:"builtin_path" toml:"builtin_path"`
}

// Document is the runtime configuration as served by GET /api/config.
type Document struct {
	Agents    map[string]Agent    `json:"agents" yaml:"agents" toml:"agents"`
	Providers map[string]Provider `json:"providers" yaml:"providers" toml:"providers"`
	Channels  map[string]Channel  `json:"channels" yaml:"channels" toml:"channels"`
	Skill     Skill               `json:"skill" yaml:"skill" toml:"skill"`
}

// NewDocument returns an empty document with all maps allocated.
func NewDocument() *Document {
	return &Document{
		Agents:    make(map[string]Agent),
		Providers: make(map[string]Provider),
		Channels:  make(map[string]Channel),
	}
}

// Normalize allocates nil maps so callers can index without checks.
func (d *Document) Normalize() {
	if d.Agents == nil {
		d.Agents = make(map[string]Agent)
	}
	if d.Providers == nil {
		d.Providers = make(map[string]Provider)
	}
	if d.Channels == nil {
		d.Channels = make(map[string]Channel)
	}
}

// Clone returns a deep copy of the document. All entity types are plain
// values, so copying the maps is sufficient.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Agents:    make(map[string]Agent, len(d.Agents)),
		Providers: make(map[string]Provider, len(d.Providers)),
		Channels:  make(map[string]Channel, len(d.Channels)),
		Skill:     d.Skill,
	}
	for k, v := range d.Agents {
		out.Agents[k] = v
	}
	for k, v := range d.Providers {
		out.Providers[k] = v
	}
	for k, v := range d.Channels {
		out.Channels[k] = v
	}
	return out
}

// AgentNames returns the agent keys in sorted order.
func (d *Document) AgentNames() []string {
	return sortedKeys(d.Agents)
}

// ProviderNames returns the provider keys in sorted order.
func (d *Document) ProviderNames() []string {
	return sortedKeys(d.Providers)
}

// ChannelNames returns the channel keys in sorted order.
func (d *Document) ChannelNames() []string {
	return sortedKeys(d.Channels)
}

// HasAgent reports whether name is an agent key.
func (d *Document) HasAgent(name string) bool {
	_, ok := d.Agents[name]
	return ok
}

// HasProvider reports whether name is a provider key.
func (d *Document) HasProvider(name string) bool {
	_, ok := d.Providers[name]
	return ok
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RedactedSecret replaces secret values in Redacted documents.
const RedactedSecret = "******"

// Redacted returns a copy with provider API keys, feishu app secrets and web
// channel tokens replaced by RedactedSecret. Empty secrets stay empty.
func (d *Document) Redacted() *Document {
	out := d.Clone()
	if out == nil {
		return nil
	}
	redact := func(s string) string {
		if s == "" {
			return ""
		}
		return RedactedSecret
	}
	for k, p := range out.Providers {
		p.APIKey = redact(p.APIKey)
		out.Providers[k] = p
	}
	for k, c := range out.Channels {
		c.AppSecret = redact(c.AppSecret)
		c.Token = redact(c.Token)
		out.Channels[k] = c
	}
	return out
}
