package editor

import (
	"github.com/yockii/yoctl/internal/config"
)

// Section names a top-level part of the configuration document.
type Section string

const (
	SectionAgents    Section = "agents"
	SectionProviders Section = "providers"
	SectionChannels  Section = "channels"
	SectionSkill     Section = "skill"
)

// Sections lists the sections in display order.
var Sections = []Section{SectionAgents, SectionProviders, SectionChannels, SectionSkill}

// ParseSection accepts a section name in singular or plural form.
func ParseSection(s string) (Section, bool) {
	switch s {
	case "agent", "agents":
		return SectionAgents, true
	case "provider", "providers":
		return SectionProviders, true
	case "channel", "channels":
		return SectionChannels, true
	case "skill", "skills":
		return SectionSkill, true
	}
	return "", false
}

// Kind selects the field schema of a block.
type Kind int

const (
	KindAgent Kind = iota
	KindProvider
	KindWebChannel
	KindFeishuChannel
	// KindChannel covers channels whose type is not recognized. Only the
	// common channel fields are editable.
	KindChannel
	KindSkill
)

func (k Kind) String() string {
	switch k {
	case KindAgent:
		return "agent"
	case KindProvider:
		return "provider"
	case KindWebChannel:
		return "web channel"
	case KindFeishuChannel:
		return "feishu channel"
	case KindChannel:
		return "channel"
	case KindSkill:
		return "skill"
	default:
		return "unknown"
	}
}

// FieldType controls how a field is parsed and displayed.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "bool"
	FieldSelect FieldType = "select"
	FieldSecret FieldType = "secret"
)

// FieldSpec describes one editable field.
type FieldSpec struct {
	Key   string
	Label string
	Type  FieldType
	// Options lists the allowed values of a select field, computed from the
	// document being edited.
	Options func(doc *config.Document) []string
	// Reference marks a select whose options are names of other entries. A
	// value not among the options is shown as none and committed as empty.
	Reference bool
}

func providerTypeOptions(*config.Document) []string {
	out := make([]string, 0, len(config.ProviderTypes))
	for _, t := range config.ProviderTypes {
		out = append(out, string(t))
	}
	return out
}

func channelTypeOptions(*config.Document) []string {
	out := make([]string, 0, len(config.ChannelTypes))
	for _, t := range config.ChannelTypes {
		out = append(out, string(t))
	}
	return out
}

func providerNames(doc *config.Document) []string { return doc.ProviderNames() }
func agentNames(doc *config.Document) []string    { return doc.AgentNames() }

var (
	agentFields = []FieldSpec{
		{Key: "workspace", Label: "Workspace", Type: FieldText},
		{Key: "provider", Label: "Provider", Type: FieldSelect, Options: providerNames, Reference: true},
		{Key: "model", Label: "Model", Type: FieldText},
		{Key: "temperature", Label: "Temperature", Type: FieldNumber},
	}

	providerFields = []FieldSpec{
		{Key: "type", Label: "Type", Type: FieldSelect, Options: providerTypeOptions},
		{Key: "api_key", Label: "API Key", Type: FieldSecret},
		{Key: "base_url", Label: "Base URL", Type: FieldText},
	}

	channelCommonFields = []FieldSpec{
		{Key: "type", Label: "Type", Type: FieldSelect, Options: channelTypeOptions},
		{Key: "enabled", Label: "Enabled", Type: FieldBool},
		{Key: "agent", Label: "Agent", Type: FieldSelect, Options: agentNames, Reference: true},
	}

	webChannelFields = append(append([]FieldSpec(nil), channelCommonFields...),
		FieldSpec{Key: "host_address", Label: "Host Address", Type: FieldText},
		FieldSpec{Key: "token", Label: "Token", Type: FieldSecret},
	)

	feishuChannelFields = append(append([]FieldSpec(nil), channelCommonFields...),
		FieldSpec{Key: "app_id", Label: "App ID", Type: FieldText},
		FieldSpec{Key: "app_secret", Label: "App Secret", Type: FieldSecret},
	)

	skillFields = []FieldSpec{
		{Key: "global_path", Label: "Global Path", Type: FieldText},
		{Key: "builtin_path", Label: "Built-in Path", Type: FieldText},
	}
)

// SchemaFor returns the ordered fields of kind.
func SchemaFor(kind Kind) []FieldSpec {
	switch kind {
	case KindAgent:
		return agentFields
	case KindProvider:
		return providerFields
	case KindWebChannel:
		return webChannelFields
	case KindFeishuChannel:
		return feishuChannelFields
	case KindChannel:
		return channelCommonFields
	case KindSkill:
		return skillFields
	default:
		return nil
	}
}

// KindForChannel maps a channel type to its schema.
func KindForChannel(t config.ChannelType) Kind {
	switch t {
	case config.ChannelWeb:
		return KindWebChannel
	case config.ChannelFeishu:
		return KindFeishuChannel
	default:
		return KindChannel
	}
}

func fieldSpec(kind Kind, key string) (FieldSpec, bool) {
	for _, f := range SchemaFor(kind) {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}
