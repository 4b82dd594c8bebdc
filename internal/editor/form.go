package editor

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/yockii/yoctl/internal/config"
)

// NoneLabel is shown for an empty or dangling reference.
const NoneLabel = "none"

const skillBlockName = "skill"

// Block is the editable projection of one entry. Values holds the raw
// string form of each field in the block's schema and nothing else.
type Block struct {
	Section Section
	Name    string
	Kind    Kind
	Values  map[string]string
}

// Fields returns the schema of the block.
func (b *Block) Fields() []FieldSpec {
	return SchemaFor(b.Kind)
}

// Form is the ordered set of blocks rendered from a document.
type Form struct {
	blocks []*Block
}

// Render projects doc into a form: agents, providers and channels in sorted
// key order, followed by the skill block.
func Render(doc *config.Document) *Form {
	if doc == nil {
		doc = config.NewDocument()
	}
	f := &Form{}

	for _, name := range doc.AgentNames() {
		f.blocks = append(f.blocks, &Block{Section: SectionAgents, Name: name, Kind: KindAgent, Values: agentValues(doc.Agents[name])})
	}
	for _, name := range doc.ProviderNames() {
		f.blocks = append(f.blocks, &Block{Section: SectionProviders, Name: name, Kind: KindProvider, Values: providerValues(doc.Providers[name])})
	}
	for _, name := range doc.ChannelNames() {
		kind, values := channelValues(doc.Channels[name])
		f.blocks = append(f.blocks, &Block{Section: SectionChannels, Name: name, Kind: kind, Values: values})
	}

	f.blocks = append(f.blocks, &Block{
		Section: SectionSkill,
		Name:    skillBlockName,
		Kind:    KindSkill,
		Values: map[string]string{
			"global_path":  doc.Skill.GlobalPath,
			"builtin_path": doc.Skill.BuiltinPath,
		},
	})
	return f
}

func agentValues(a config.Agent) map[string]string {
	return map[string]string{
		"workspace":   a.Workspace,
		"provider":    a.Provider,
		"model":       a.Model,
		"temperature": formatFloat(a.Temperature),
	}
}

func providerValues(p config.Provider) map[string]string {
	return map[string]string{
		"type":     string(p.Type),
		"api_key":  p.APIKey,
		"base_url": p.BaseURL,
	}
}

// channelValues returns the schema kind of ch and the values of the fields
// that kind defines.
func channelValues(ch config.Channel) (Kind, map[string]string) {
	kind := KindForChannel(ch.Type)
	values := map[string]string{
		"type":    string(ch.Type),
		"enabled": strconv.FormatBool(ch.Enabled),
		"agent":   ch.Agent,
	}
	switch kind {
	case KindWebChannel:
		values["host_address"] = ch.HostAddress
		values["token"] = ch.Token
	case KindFeishuChannel:
		values["app_id"] = ch.AppID
		values["app_secret"] = ch.AppSecret
	}
	return kind, values
}

// Blocks returns the blocks in display order.
func (f *Form) Blocks() []*Block {
	return f.blocks
}

// Section returns the blocks of one section in display order.
func (f *Form) Section(section Section) []*Block {
	var out []*Block
	for _, b := range f.blocks {
		if b.Section == section {
			out = append(out, b)
		}
	}
	return out
}

// Block finds a block by section and name. The skill block is found under
// any name.
func (f *Form) Block(section Section, name string) (*Block, bool) {
	for _, b := range f.blocks {
		if b.Section != section {
			continue
		}
		if section == SectionSkill || b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Count returns the number of blocks in section.
func (f *Form) Count(section Section) int {
	return len(f.Section(section))
}

// Names returns the block names of section in display order.
func (f *Form) Names(section Section) []string {
	var out []string
	for _, b := range f.Section(section) {
		out = append(out, b.Name)
	}
	return out
}

// Value returns the effective value of a field. A reference that names no
// existing entry resolves to the empty string.
func (f *Form) Value(b *Block, spec FieldSpec) string {
	v := b.Values[spec.Key]
	if spec.Reference && v != "" && !slices.Contains(f.options(spec), v) {
		return ""
	}
	return v
}

// Display returns the value as shown to the user. Secrets are masked unless
// reveal is set.
func (f *Form) Display(b *Block, spec FieldSpec, reveal bool) string {
	v := f.Value(b, spec)
	switch {
	case spec.Type == FieldSelect && v == "":
		return NoneLabel
	case spec.Type == FieldSecret && !reveal && v != "":
		return maskSecret(v)
	}
	return v
}

// Options returns the current options of a select field.
func (f *Form) Options(spec FieldSpec) []string {
	return f.options(spec)
}

func (f *Form) options(spec FieldSpec) []string {
	if spec.Options == nil {
		return nil
	}
	return spec.Options(f.namesOnly())
}

// namesOnly builds a document holding just the entry keys, which is all the
// option functions need.
func (f *Form) namesOnly() *config.Document {
	doc := config.NewDocument()
	for _, b := range f.blocks {
		switch b.Section {
		case SectionAgents:
			doc.Agents[b.Name] = config.Agent{}
		case SectionProviders:
			doc.Providers[b.Name] = config.Provider{}
		case SectionChannels:
			doc.Channels[b.Name] = config.Channel{}
		}
	}
	return doc
}

// Build reads every block back into a freshly constructed document. Entries
// are rebuilt from scratch, so fields outside a block's current schema are
// not carried over.
func (f *Form) Build() (*config.Document, error) {
	doc := config.NewDocument()
	for _, b := range f.blocks {
		get := func(key string) string {
			spec, ok := fieldSpec(b.Kind, key)
			if !ok {
				return ""
			}
			return f.Value(b, spec)
		}

		switch b.Section {
		case SectionAgents:
			temp, err := parseNumber(get("temperature"))
			if err != nil {
				return nil, fmt.Errorf("agent %q temperature: %w", b.Name, err)
			}
			doc.Agents[b.Name] = config.Agent{
				Workspace:   get("workspace"),
				Provider:    get("provider"),
				Model:       get("model"),
				Temperature: temp,
			}
		case SectionProviders:
			doc.Providers[b.Name] = config.Provider{
				Type:    config.ProviderType(get("type")),
				APIKey:  get("api_key"),
				BaseURL: get("base_url"),
			}
		case SectionChannels:
			enabled, err := parseBool(get("enabled"))
			if err != nil {
				return nil, fmt.Errorf("channel %q enabled: %w", b.Name, err)
			}
			doc.Channels[b.Name] = config.Channel{
				Type:        config.ChannelType(get("type")),
				Enabled:     enabled,
				Agent:       get("agent"),
				AppID:       get("app_id"),
				AppSecret:   get("app_secret"),
				HostAddress: get("host_address"),
				Token:       get("token"),
			}
		case SectionSkill:
			doc.Skill = config.Skill{
				GlobalPath:  get("global_path"),
				BuiltinPath: get("builtin_path"),
			}
		}
	}
	return doc, nil
}

func (f *Form) insert(b *Block) {
	f.blocks = append(f.blocks, b)
	f.sort()
}

func (f *Form) remove(section Section, name string) {
	f.blocks = slices.DeleteFunc(f.blocks, func(b *Block) bool {
		return b.Section == section && b.Name == name
	})
}

func (f *Form) sort() {
	order := make(map[Section]int, len(Sections))
	for i, s := range Sections {
		order[s] = i
	}
	sort.SliceStable(f.blocks, func(i, j int) bool {
		a, b := f.blocks[i], f.blocks[j]
		if order[a.Section] != order[b.Section] {
			return order[a.Section] < order[b.Section]
		}
		return a.Name < b.Name
	})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumber(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "false", "no", "off", "0", "否":
		return false, nil
	case "true", "yes", "on", "1", "是":
		return true, nil
	}
	return false, fmt.Errorf("%q is not a boolean", s)
}

func maskSecret(s string) string {
	r := []rune(s)
	if len(r) <= 4 {
		return "****"
	}
	return string(r[:2]) + strings.Repeat("*", 6) + string(r[len(r)-2:])
}
