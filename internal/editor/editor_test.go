package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yockii/yoctl/internal/config"
)

type recordingSaver struct {
	saved []*config.Document
	err   error
}

func (s *recordingSaver) Save(ctx context.Context, doc *config.Document) error {
	s.saved = append(s.saved, doc.Clone())
	return s.err
}

type countingConfirmer struct {
	answer  bool
	prompts []string
}

func (c *countingConfirmer) Confirm(prompt string) bool {
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

// memoryRemote is an in-memory configuration endpoint.
type memoryRemote struct {
	mu   sync.Mutex
	doc  *config.Document
	puts int
}

func (m *memoryRemote) GetConfig(ctx context.Context) (*config.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc.Clone(), nil
}

func (m *memoryRemote) PutConfig(ctx context.Context, doc *config.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.doc = doc.Clone()
	return nil
}

func TestRenderBuild_RoundTrip(t *testing.T) {
	docs := map[string]*config.Document{
		"default": config.Default(),
		"zero temperature and enabled channel": func() *config.Document {
			doc := config.Default()
			a := doc.Agents[config.DefaultAgentName]
			a.Temperature = 0
			doc.Agents[config.DefaultAgentName] = a
			doc.Agents["second"] = config.Agent{Workspace: "/w", Provider: "myProvider", Model: "m", Temperature: 1.25}
			web := doc.Channels["webTest"]
			web.Enabled = true
			doc.Channels["webTest"] = web
			return doc
		}(),
		"empty references": func() *config.Document {
			doc := config.Default()
			doc.Channels["loose"] = config.Channel{Type: config.ChannelFeishu}
			return doc
		}(),
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			built, err := Render(doc).Build()
			require.NoError(t, err)
			assert.Equal(t, doc, built)
		})
	}
}

func TestRender_Order(t *testing.T) {
	doc := config.Default()
	doc.Agents["alpha"] = config.NewAgent()

	var got []string
	for _, b := range Render(doc).Blocks() {
		got = append(got, string(b.Section)+"/"+b.Name)
	}
	assert.Equal(t, []string{
		"agents/alpha",
		"agents/default",
		"providers/myProvider",
		"channels/feishuTest",
		"channels/webTest",
		"skill/skill",
	}, got)
}

func TestRender_DanglingReferenceShowsNone(t *testing.T) {
	doc := config.Default()
	a := doc.Agents[config.DefaultAgentName]
	a.Provider = "removed"
	doc.Agents[config.DefaultAgentName] = a

	form := Render(doc)
	b, ok := form.Block(SectionAgents, config.DefaultAgentName)
	require.True(t, ok)
	spec, _ := fieldSpec(KindAgent, "provider")

	assert.Equal(t, "removed", b.Values["provider"], "stored value is left in place")
	assert.Equal(t, NoneLabel, form.Display(b, spec, false))

	built, err := form.Build()
	require.NoError(t, err)
	assert.Empty(t, built.Agents[config.DefaultAgentName].Provider)
}

func TestForm_DisplayMasksSecrets(t *testing.T) {
	form := Render(config.Default())
	b, _ := form.Block(SectionProviders, "myProvider")
	spec, _ := fieldSpec(KindProvider, "api_key")

	assert.Equal(t, "sk******ey", form.Display(b, spec, false))
	assert.Equal(t, "sk-your-openai-api-key", form.Display(b, spec, true))
}

func TestEditor_Add(t *testing.T) {
	t.Run("empty name is rejected", func(t *testing.T) {
		e := New(config.Default())
		assert.ErrorIs(t, e.Add(SectionAgents, "  "), ErrEmptyName)
		assert.False(t, e.Dirty())
	})

	t.Run("duplicate channel is rejected without mutation", func(t *testing.T) {
		e := New(config.Default())
		before, err := e.Build()
		require.NoError(t, err)

		err = e.Add(SectionChannels, "webTest", config.ChannelFeishu)
		assert.ErrorIs(t, err, ErrDuplicateChannel)

		after, err := e.Build()
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.False(t, e.Dirty())
	})

	t.Run("invalid channel type", func(t *testing.T) {
		e := New(config.Default())
		assert.ErrorIs(t, e.Add(SectionChannels, "irc", "irc"), ErrInvalidChannelType)
	})

	t.Run("agent add overwrites with defaults", func(t *testing.T) {
		e := New(config.Default())
		require.NoError(t, e.Add(SectionAgents, config.DefaultAgentName))

		doc, err := e.Build()
		require.NoError(t, err)
		assert.Equal(t, config.NewAgent(), doc.Agents[config.DefaultAgentName])
		assert.Len(t, doc.Agents, 1)
		assert.True(t, e.Dirty())
	})

	t.Run("provider and feishu channel take the entity defaults", func(t *testing.T) {
		e := New(config.Default())
		require.NoError(t, e.Add(SectionProviders, "backup"))
		require.NoError(t, e.Add(SectionChannels, "lark", config.ChannelFeishu))

		doc, err := e.Build()
		require.NoError(t, err)
		assert.Equal(t, config.NewProvider(), doc.Providers["backup"])
		assert.Equal(t, config.NewChannel(config.ChannelFeishu, config.DefaultAgentName), doc.Channels["lark"])
	})

	t.Run("new web channel defaults", func(t *testing.T) {
		doc := config.Default()
		doc.Agents["aaa"] = config.NewAgent()
		e := New(doc)
		require.NoError(t, e.Add(SectionChannels, "web2", config.ChannelWeb))

		built, err := e.Build()
		require.NoError(t, err)
		assert.Equal(t, config.Channel{
			Type:        config.ChannelWeb,
			Enabled:     false,
			Agent:       "aaa",
			HostAddress: config.DefaultWebHostAddress,
		}, built.Channels["web2"])
	})

	t.Run("new feishu channel defaults", func(t *testing.T) {
		e := New(config.Default())
		require.NoError(t, e.Add(SectionChannels, "lark", config.ChannelFeishu))

		built, err := e.Build()
		require.NoError(t, err)
		assert.Equal(t, config.Channel{Type: config.ChannelFeishu, Agent: config.DefaultAgentName}, built.Channels["lark"])
	})

	t.Run("skill section cannot be added to", func(t *testing.T) {
		e := New(config.Default())
		assert.ErrorIs(t, e.Add(SectionSkill, "x"), ErrInvalidSection)
	})
}

func TestEditor_DeleteLastAgentOrProvider(t *testing.T) {
	tests := []struct {
		section Section
		name    string
		want    error
	}{
		{section: SectionAgents, name: config.DefaultAgentName, want: ErrLastAgent},
		{section: SectionProviders, name: "myProvider", want: ErrLastProvider},
	}

	for _, tt := range tests {
		t.Run(string(tt.section), func(t *testing.T) {
			remote := &memoryRemote{doc: config.Default()}
			store := config.NewStore(remote)
			require.NoError(t, store.Load(context.Background()))

			e := New(store.Snapshot())
			confirmer := &countingConfirmer{answer: true}

			err := e.Delete(tt.section, tt.name, confirmer)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, confirmer.prompts, "must be rejected before asking")
			assert.False(t, e.Dirty())
			assert.Zero(t, remote.puts)

			built, err := e.Build()
			require.NoError(t, err)
			assert.Equal(t, config.Default(), built)
		})
	}

	assert.Equal(t, "至少需要保留一个 Agent", ErrLastAgent.Error())
	assert.Equal(t, "至少需要保留一个 Provider", ErrLastProvider.Error())
}

func TestEditor_DeleteSecondToLast(t *testing.T) {
	doc := config.Default()
	doc.Agents["writer"] = config.NewAgent()
	e := New(doc)
	confirmer := &countingConfirmer{answer: true}

	require.NoError(t, e.Delete(SectionAgents, config.DefaultAgentName, confirmer))
	assert.Len(t, confirmer.prompts, 1)
	assert.Equal(t, []string{"writer"}, e.Form().Names(SectionAgents))

	built, err := e.Build()
	require.NoError(t, err)
	assert.Empty(t, built.Channels["webTest"].Agent, "dangling reference resolves to none")

	assert.ErrorIs(t, e.Delete(SectionAgents, "writer", confirmer), ErrLastAgent)
}

func TestEditor_DeleteChannel(t *testing.T) {
	e := New(config.Default())

	assert.ErrorIs(t, e.Delete(SectionChannels, "webTest", &countingConfirmer{answer: false}), ErrCancelled)
	assert.ErrorIs(t, e.Delete(SectionChannels, "webTest", nil), ErrCancelled)
	assert.Equal(t, 2, e.Form().Count(SectionChannels))

	require.NoError(t, e.Delete(SectionChannels, "webTest", AlwaysConfirm))
	require.NoError(t, e.Delete(SectionChannels, "feishuTest", AlwaysConfirm))
	assert.Zero(t, e.Form().Count(SectionChannels))

	assert.ErrorIs(t, e.Delete(SectionChannels, "webTest", AlwaysConfirm), ErrNotFound)
}

func TestEditor_Set(t *testing.T) {
	tests := []struct {
		name    string
		section Section
		entry   string
		field   string
		value   string
		wantErr bool
		check   func(t *testing.T, doc *config.Document)
	}{
		{
			name: "temperature", section: SectionAgents, entry: "default", field: "temperature", value: "1.5",
			check: func(t *testing.T, doc *config.Document) { assert.Equal(t, 1.5, doc.Agents["default"].Temperature) },
		},
		{
			name: "temperature not a number", section: SectionAgents, entry: "default", field: "temperature", value: "warm",
			wantErr: true,
		},
		{
			name: "negative temperature", section: SectionAgents, entry: "default", field: "temperature", value: "-1",
			wantErr: true,
		},
		{
			name: "provider must exist", section: SectionAgents, entry: "default", field: "provider", value: "ghost",
			wantErr: true,
		},
		{
			name: "provider cleared with none", section: SectionAgents, entry: "default", field: "provider", value: "none",
			check: func(t *testing.T, doc *config.Document) { assert.Empty(t, doc.Agents["default"].Provider) },
		},
		{
			name: "provider type", section: SectionProviders, entry: "myProvider", field: "type", value: "anthropic",
			check: func(t *testing.T, doc *config.Document) {
				assert.Equal(t, config.ProviderAnthropic, doc.Providers["myProvider"].Type)
			},
		},
		{
			name: "unknown provider type", section: SectionProviders, entry: "myProvider", field: "type", value: "llama",
			wantErr: true,
		},
		{
			name: "enabled accepts yes", section: SectionChannels, entry: "webTest", field: "enabled", value: "yes",
			check: func(t *testing.T, doc *config.Document) { assert.True(t, doc.Channels["webTest"].Enabled) },
		},
		{
			name: "enabled rejects garbage", section: SectionChannels, entry: "webTest", field: "enabled", value: "maybe",
			wantErr: true,
		},
		{
			name: "field of another channel type", section: SectionChannels, entry: "webTest", field: "app_id", value: "x",
			wantErr: true,
		},
		{
			name: "skill path", section: SectionSkill, entry: "", field: "global_path", value: "/srv/skills",
			check: func(t *testing.T, doc *config.Document) { assert.Equal(t, "/srv/skills", doc.Skill.GlobalPath) },
		},
		{
			name: "missing entry", section: SectionAgents, entry: "ghost", field: "model", value: "m",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(config.Default())
			err := e.Set(tt.section, tt.entry, tt.field, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, e.Dirty())
				return
			}
			require.NoError(t, err)
			assert.True(t, e.Dirty())
			doc, err := e.Build()
			require.NoError(t, err)
			tt.check(t, doc)
		})
	}
}

func TestEditor_ChannelTypeSwitchDropsStaleFields(t *testing.T) {
	e := New(config.Default())

	require.NoError(t, e.Set(SectionChannels, "webTest", "type", "feishu"))
	b, _ := e.Form().Block(SectionChannels, "webTest")
	assert.Equal(t, KindFeishuChannel, b.Kind)
	assert.NotContains(t, b.Values, "host_address")
	assert.NotContains(t, b.Values, "token")
	require.NoError(t, e.Set(SectionChannels, "webTest", "app_id", "cli_123"))

	require.NoError(t, e.SetChannelType("webTest", config.ChannelWeb))
	b, _ = e.Form().Block(SectionChannels, "webTest")
	assert.Equal(t, KindWebChannel, b.Kind)
	assert.Empty(t, b.Values["host_address"])
	assert.Empty(t, b.Values["token"])
	assert.NotContains(t, b.Values, "app_id")

	doc, err := e.Build()
	require.NoError(t, err)
	assert.Equal(t, config.Channel{Type: config.ChannelWeb, Agent: config.DefaultAgentName}, doc.Channels["webTest"])

	assert.ErrorIs(t, e.SetChannelType("webTest", "irc"), ErrInvalidChannelType)
}

func TestEditor_CommitValidatesBeforeSaving(t *testing.T) {
	e := New(config.Default())
	require.NoError(t, e.Add(SectionAgents, strings.Repeat("a", 101)))

	saver := &recordingSaver{}
	err := e.Commit(context.Background(), saver)

	var verrs config.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Empty(t, saver.saved)
	assert.True(t, e.Dirty())
}

func TestEditor_CommitFailureKeepsEdits(t *testing.T) {
	e := New(config.Default())
	require.NoError(t, e.Set(SectionAgents, "default", "model", "gpt-x"))

	saver := &recordingSaver{err: errors.New("status 500")}
	require.Error(t, e.Commit(context.Background(), saver))
	assert.True(t, e.Dirty())

	saver.err = nil
	require.NoError(t, e.Commit(context.Background(), saver))
	assert.False(t, e.Dirty())
	require.Len(t, saver.saved, 2)
	assert.Equal(t, "gpt-x", saver.saved[1].Agents["default"].Model)
}

func TestEditor_AddProviderSaveAndReload(t *testing.T) {
	remote := &memoryRemote{doc: config.Default()}
	store := config.NewStore(remote)
	require.NoError(t, store.Load(context.Background()))

	e := New(store.Snapshot())
	cancel := store.Subscribe(e.Reset)
	defer cancel()

	require.NoError(t, e.Add(SectionProviders, "p2"))
	require.NoError(t, e.Set(SectionProviders, "p2", "type", "anthropic"))
	require.NoError(t, e.Set(SectionProviders, "p2", "api_key", "sk-ant"))
	require.NoError(t, e.Set(SectionAgents, "default", "provider", "p2"))

	require.NoError(t, e.Commit(context.Background(), store))
	assert.Equal(t, 1, remote.puts)
	assert.False(t, e.Dirty())

	doc := store.Snapshot()
	assert.Equal(t, config.Provider{Type: config.ProviderAnthropic, APIKey: "sk-ant"}, doc.Providers["p2"])
	assert.Equal(t, "p2", doc.Agents["default"].Provider)
	assert.Equal(t, []string{"myProvider", "p2"}, e.Form().Names(SectionProviders))
}
