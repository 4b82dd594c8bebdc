package config

const (
	// DefaultTemperature is the sampling temperature given to new agents.
	DefaultTemperature = 0.7

	// DefaultWebHostAddress is the listen address given to new web channels.
	DefaultWebHostAddress = "localhost:8080"

	// DefaultAgentName is the agent created by the manager on first start.
	DefaultAgentName = "default"
)

// NewAgent returns the field values used when an agent is added.
func NewAgent() Agent {
	return Agent{Temperature: DefaultTemperature}
}

// NewProvider returns the field values used when a provider is added.
func NewProvider() Provider {
	return Provider{}
}

// NewChannel returns a disabled channel of type t bound to agent, with the
// type-specific fields initialised.
func NewChannel(t ChannelType, agent string) Channel {
	ch := Channel{Type: t, Agent: agent}
	if t == ChannelWeb {
		ch.HostAddress = DefaultWebHostAddress
	}
	return ch
}

// Default returns the document the manager writes when no configuration
// exists yet. It is used by `config init` and as a fixture.
func Default() *Document {
	return &Document{
		Agents: map[string]Agent{
			DefaultAgentName: {
				Workspace:   "~/.yoClaw/workspace",
				Provider:    "myProvider",
				Model:       "qwen3-max",
				Temperature: DefaultTemperature,
			},
		},
		Providers: map[string]Provider{
			"myProvider": {
				Type:    ProviderOpenAI,
				APIKey:  "sk-your-openai-api-key",
				BaseURL: "",
			},
		},
		Channels: map[string]Channel{
			"feishuTest": {
				Type:      ChannelFeishu,
				Agent:     DefaultAgentName,
				AppID:     "your feishu app id",
				AppSecret: "your feishu app secret",
			},
			"webTest": {
				Type:        ChannelWeb,
				Agent:       DefaultAgentName,
				HostAddress: DefaultWebHostAddress,
				Token:       "custom defined token",
			},
		},
		Skill: Skill{
			GlobalPath:  "~/.yoClaw/skills",
			BuiltinPath: "./skills",
		},
	}
}
