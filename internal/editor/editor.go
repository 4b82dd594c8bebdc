package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/pkg/logging"
)

var (
	ErrEmptyName          = errors.New("name must not be empty")
	ErrDuplicateChannel   = errors.New("channel name already exists")
	ErrInvalidChannelType = errors.New("invalid channel type (expected web or feishu)")
	ErrLastAgent          = errors.New("至少需要保留一个 Agent")
	ErrLastProvider       = errors.New("至少需要保留一个 Provider")
	ErrCancelled          = errors.New("cancelled")
	ErrNotFound           = errors.New("entry not found")
	ErrUnknownField       = errors.New("unknown field")
	ErrInvalidSection     = errors.New("invalid section")
)

// Saver persists a committed document. *config.Store implements it.
type Saver interface {
	Save(ctx context.Context, doc *config.Document) error
}

// Editor holds the form being edited and applies add, delete and set
// operations to it. It is not safe for concurrent use.
type Editor struct {
	form  *Form
	dirty bool
}

// New creates an editor showing doc.
func New(doc *config.Document) *Editor {
	e := &Editor{}
	e.Reset(doc)
	return e
}

// Reset discards all edits and re-renders doc.
func (e *Editor) Reset(doc *config.Document) {
	e.form = Render(doc)
	e.dirty = false
}

// Form returns the form being edited.
func (e *Editor) Form() *Form {
	return e.form
}

// Dirty reports whether there are edits not yet committed.
func (e *Editor) Dirty() bool {
	return e.dirty
}

// Add creates an entry with default values. Agents and providers replace an
// existing entry of the same name; channels reject duplicates. channelType
// is required for channels and ignored otherwise.
func (e *Editor) Add(section Section, name string, channelType ...config.ChannelType) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	var block *Block
	switch section {
	case SectionAgents:
		block = &Block{Section: section, Name: name, Kind: KindAgent, Values: agentValues(config.NewAgent())}
	case SectionProviders:
		block = &Block{Section: section, Name: name, Kind: KindProvider, Values: providerValues(config.NewProvider())}
	case SectionChannels:
		if _, exists := e.form.Block(SectionChannels, name); exists {
			return fmt.Errorf("%w: %s", ErrDuplicateChannel, name)
		}
		t := config.ChannelWeb
		if len(channelType) > 0 {
			t = channelType[0]
		}
		if !t.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidChannelType, t)
		}
		var agent string
		if agents := e.form.Names(SectionAgents); len(agents) > 0 {
			agent = agents[0]
		}
		kind, values := channelValues(config.NewChannel(t, agent))
		block = &Block{Section: section, Name: name, Kind: kind, Values: values}
	default:
		return fmt.Errorf("%w: cannot add to %q", ErrInvalidSection, section)
	}

	e.form.remove(section, name)
	e.form.insert(block)
	e.dirty = true
	logging.Debug("Editor", "Added %s %q", block.Kind, name)
	return nil
}

// Delete removes an entry after confirmation. The last agent and the last
// provider cannot be deleted; that is checked before asking. References to
// the deleted entry are left as they are.
func (e *Editor) Delete(section Section, name string, confirm Confirmer) error {
	var label string
	switch section {
	case SectionAgents:
		label = "Agent"
		if e.form.Count(section) <= 1 {
			return ErrLastAgent
		}
	case SectionProviders:
		label = "Provider"
		if e.form.Count(section) <= 1 {
			return ErrLastProvider
		}
	case SectionChannels:
		label = "Channel"
	default:
		return fmt.Errorf("%w: cannot delete from %q", ErrInvalidSection, section)
	}

	if _, ok := e.form.Block(section, name); !ok {
		return fmt.Errorf("%w: %s %q", ErrNotFound, strings.ToLower(label), name)
	}
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("确定要删除这个 %s 吗？(%s)", label, name)) {
		return ErrCancelled
	}

	e.form.remove(section, name)
	e.dirty = true
	logging.Debug("Editor", "Deleted %s %q", strings.ToLower(label), name)
	return nil
}

// Set assigns one field. The value is checked against the field's schema:
// numbers and booleans must parse, selects must name an option. For
// references, "none" or an empty value clears the field. Setting a
// channel's type switches its field set.
func (e *Editor) Set(section Section, name, field, value string) error {
	b, ok := e.form.Block(section, name)
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrNotFound, section, name)
	}
	if section == SectionChannels && field == "type" {
		return e.SetChannelType(name, config.ChannelType(value))
	}

	spec, ok := fieldSpec(b.Kind, field)
	if !ok {
		return fmt.Errorf("%w %q for %s (available: %s)", ErrUnknownField, field, b.Kind, strings.Join(fieldKeys(b.Kind), ", "))
	}

	switch spec.Type {
	case FieldNumber:
		v, err := parseNumber(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		if field == "temperature" && v < 0 {
			return fmt.Errorf("%s: must be a non-negative number", field)
		}
		value = formatFloat(v)
	case FieldBool:
		v, err := parseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		value = fmt.Sprint(v)
	case FieldSelect:
		if spec.Reference && (value == "" || value == NoneLabel) {
			value = ""
			break
		}
		options := e.form.Options(spec)
		if !slices.Contains(options, value) {
			return fmt.Errorf("%s: %q is not one of [%s]", field, value, strings.Join(options, ", "))
		}
	}

	b.Values[field] = value
	e.dirty = true
	return nil
}

// SetChannelType switches a channel to type t. The field set is re-derived
// from the new schema: fields of the previous type are dropped and fields of
// the new type start empty. Switching back does not restore earlier values.
func (e *Editor) SetChannelType(name string, t config.ChannelType) error {
	b, ok := e.form.Block(SectionChannels, name)
	if !ok {
		return fmt.Errorf("%w: channel %q", ErrNotFound, name)
	}
	if !t.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidChannelType, t)
	}
	if b.Values["type"] == string(t) {
		return nil
	}

	kind := KindForChannel(t)
	values := make(map[string]string)
	for _, spec := range SchemaFor(kind) {
		if _, common := fieldSpec(KindChannel, spec.Key); common {
			values[spec.Key] = b.Values[spec.Key]
		} else {
			values[spec.Key] = ""
		}
	}
	values["type"] = string(t)

	b.Kind = kind
	b.Values = values
	e.dirty = true
	return nil
}

// Build returns the document the form currently describes.
func (e *Editor) Build() (*config.Document, error) {
	return e.form.Build()
}

// Commit rebuilds the document from every block, validates it and saves it.
// Nothing is sent when validation fails. After a successful save the editor
// is clean; a failed reload after the save is still returned.
func (e *Editor) Commit(ctx context.Context, saver Saver) error {
	doc, err := e.form.Build()
	if err != nil {
		return err
	}
	if errs := config.Validate(doc); errs.HasErrors() {
		return errs
	}

	err = saver.Save(ctx, doc)
	var reloadErr *config.ReloadError
	if err == nil || errors.As(err, &reloadErr) {
		e.dirty = false
	}
	return err
}

func fieldKeys(kind Kind) []string {
	var keys []string
	for _, spec := range SchemaFor(kind) {
		keys = append(keys, spec.Key)
	}
	return keys
}
