package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/editor"
)

var configSubcommands = []string{"show", "add", "delete", "set", "type", "save", "reload", "diff"}

// ConfigCommand edits the runtime configuration through the session editor.
// Edits stay local until `config save`.
type ConfigCommand struct {
	*BaseCommand
}

// NewConfigCommand creates a new config command
func NewConfigCommand(session Session, output OutputLogger) *ConfigCommand {
	return &ConfigCommand{BaseCommand: NewBaseCommand(session, output)}
}

// Execute dispatches to the config subcommands.
func (c *ConfigCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.show(nil)
	}

	sub, rest := args[0], args[1:]
	if sub == "reload" {
		return c.reload(ctx)
	}

	ed, err := c.editor()
	if err != nil {
		return err
	}

	switch sub {
	case "show", "ls":
		return c.show(rest)
	case "add":
		return c.add(ed, rest)
	case "delete", "rm":
		return c.delete(ed, rest)
	case "set":
		return c.set(ed, rest)
	case "type":
		return c.setType(ed, rest)
	case "save":
		return c.save(ctx, ed)
	case "diff":
		return c.diff(ed)
	default:
		return fmt.Errorf("unknown config subcommand %q (expected one of: %s)", sub, strings.Join(configSubcommands, ", "))
	}
}

func (c *ConfigCommand) editor() (*editor.Editor, error) {
	ed := c.session.Editor()
	if ed == nil || !c.session.Store().Loaded() {
		return nil, fmt.Errorf("configuration not loaded, run 'config reload'")
	}
	return ed, nil
}

func (c *ConfigCommand) section(arg string) (editor.Section, error) {
	section, ok := editor.ParseSection(arg)
	if !ok {
		return "", fmt.Errorf("%w %q (expected agents, providers, channels or skill)", editor.ErrInvalidSection, arg)
	}
	return section, nil
}

func (c *ConfigCommand) show(args []string) error {
	ed, err := c.editor()
	if err != nil {
		return err
	}
	args, reveal := hasFlag(args, "--reveal")
	args, wide := hasFlag(args, "--wide")
	form := ed.Form()

	if len(args) == 0 {
		for i, section := range editor.Sections {
			if i > 0 {
				c.output.OutputLine("")
			}
			c.output.OutputLine(strings.ToUpper(string(section)))
			if err := c.printer(wide).Print(nil, cli.ConfigSectionTable(form, section, reveal)); err != nil {
				return err
			}
		}
		if ed.Dirty() {
			c.output.Warn("unsaved edits, run 'config save' to apply them")
		}
		return nil
	}

	section, err := c.section(args[0])
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return c.printer(wide).Print(nil, cli.ConfigSectionTable(form, section, reveal))
	}

	b, ok := form.Block(section, args[1])
	if !ok {
		return fmt.Errorf("%w: %s %q", editor.ErrNotFound, section, args[1])
	}
	cli.RenderDetails(c.output.Writer(), fmt.Sprintf("%s %s", b.Kind, b.Name), cli.BlockFields(form, b, reveal))
	return nil
}

func (c *ConfigCommand) add(ed *editor.Editor, args []string) error {
	if _, err := c.parseArgs(args, 2, "config add <section> <name> [web|feishu]"); err != nil {
		return err
	}
	section, err := c.section(args[0])
	if err != nil {
		return err
	}

	var types []config.ChannelType
	if len(args) > 2 {
		types = append(types, config.ChannelType(args[2]))
	}
	if err := ed.Add(section, args[1], types...); err != nil {
		return err
	}
	c.output.Success("added %s %q (unsaved)", section, args[1])
	return nil
}

func (c *ConfigCommand) delete(ed *editor.Editor, args []string) error {
	if _, err := c.parseArgs(args, 2, "config delete <section> <name>"); err != nil {
		return err
	}
	section, err := c.section(args[0])
	if err != nil {
		return err
	}

	if err := ed.Delete(section, args[1], c.session); err != nil {
		if errors.Is(err, editor.ErrCancelled) {
			c.output.Info("cancelled")
			return nil
		}
		return err
	}
	c.output.Success("deleted %s %q (unsaved)", section, args[1])
	return nil
}

func (c *ConfigCommand) set(ed *editor.Editor, args []string) error {
	if _, err := c.parseArgs(args, 3, "config set <section> [name] <field> <value>"); err != nil {
		return err
	}
	section, err := c.section(args[0])
	if err != nil {
		return err
	}

	// skill has a single block, so its name is optional
	var name, field, value string
	if section == editor.SectionSkill {
		if len(args) >= 4 && args[1] == "skill" {
			args = args[1:]
		}
		name, field, value = "", args[1], c.joinArgsFrom(args, 2)
	} else {
		if len(args) < 4 {
			return fmt.Errorf("usage: config set %s <name> <field> <value>", section)
		}
		name, field, value = args[1], args[2], c.joinArgsFrom(args, 3)
	}

	if err := ed.Set(section, name, field, value); err != nil {
		return err
	}
	c.output.Success("set %s (unsaved)", strings.TrimPrefix(strings.Join([]string{string(section), name, field}, "."), "."))
	return nil
}

func (c *ConfigCommand) setType(ed *editor.Editor, args []string) error {
	if _, err := c.parseArgs(args, 2, "config type <channel> <web|feishu>"); err != nil {
		return err
	}
	if err := ed.SetChannelType(args[0], config.ChannelType(args[1])); err != nil {
		return err
	}
	c.output.Success("channel %q is now %s (unsaved)", args[0], args[1])
	return nil
}

func (c *ConfigCommand) save(ctx context.Context, ed *editor.Editor) error {
	store := c.session.Store()

	var err error
	if !ed.Dirty() && store.Pending() != nil {
		if !c.session.Confirm("重新提交上次保存失败的配置？") {
			c.output.Info("cancelled")
			return nil
		}
		err = store.RetryPending(ctx)
	} else {
		err = ed.Commit(ctx, store)
	}
	var reloadErr *config.ReloadError
	var verrs config.ValidationErrors
	switch {
	case err == nil:
		ed.Reset(store.Snapshot())
		c.output.Success("配置已保存")
		return nil
	case errors.As(err, &reloadErr):
		ed.Reset(store.Snapshot())
		c.output.Warn("%v", reloadErr)
		return nil
	case errors.As(err, &verrs):
		for _, ve := range verrs {
			c.output.Error("%s", ve.Error())
		}
		return fmt.Errorf("configuration is invalid, nothing was saved")
	default:
		return fmt.Errorf("save failed, edits kept (run 'config save' to retry): %w", err)
	}
}

func (c *ConfigCommand) reload(ctx context.Context) error {
	ed := c.session.Editor()
	if ed != nil && ed.Dirty() && !c.session.Confirm("丢弃未保存的配置修改并重新加载？") {
		c.output.Info("cancelled")
		return nil
	}

	store := c.session.Store()
	if err := store.Load(ctx); err != nil {
		return cli.WrapAPIError(err, c.session.Endpoint())
	}
	if ed != nil {
		ed.Reset(store.Snapshot())
	}
	c.output.Success("configuration reloaded")
	return nil
}

func (c *ConfigCommand) diff(ed *editor.Editor) error {
	doc, err := ed.Build()
	if err != nil {
		return err
	}
	changes := config.Diff(c.session.Store().Snapshot(), doc)
	if len(changes) == 0 {
		c.output.Info("no unsaved changes")
		return nil
	}
	for _, ch := range changes {
		c.output.OutputLine(ch.String())
	}
	return nil
}

// Usage returns the usage string
func (c *ConfigCommand) Usage() string {
	return "config [show|add|delete|set|type|save|reload|diff] ..."
}

// Description returns the command description
func (c *ConfigCommand) Description() string {
	return "View and edit the runtime configuration"
}

// Completions returns possible completions
func (c *ConfigCommand) Completions(input string) []string {
	fields := strings.Fields(input)
	if strings.HasSuffix(input, " ") || len(fields) == 0 {
		fields = append(fields, "")
	}

	switch len(fields) {
	case 1:
		return filterPrefix(configSubcommands, fields[0])
	case 2:
		switch fields[0] {
		case "show", "add", "delete", "set":
			names := make([]string, 0, len(editor.Sections))
			for _, s := range editor.Sections {
				names = append(names, string(s))
			}
			return filterPrefix(names, fields[1])
		case "type":
			return filterPrefix(c.names(editor.SectionChannels), fields[1])
		}
	case 3:
		section, ok := editor.ParseSection(fields[1])
		if fields[0] == "type" {
			return filterPrefix([]string{string(config.ChannelWeb), string(config.ChannelFeishu)}, fields[2])
		}
		if ok && fields[0] != "add" {
			return filterPrefix(c.names(section), fields[2])
		}
	case 4:
		section, ok := editor.ParseSection(fields[1])
		if ok && fields[0] == "set" {
			return filterPrefix(c.fieldKeys(section, fields[2]), fields[3])
		}
	}
	return nil
}

func (c *ConfigCommand) names(section editor.Section) []string {
	ed := c.session.Editor()
	if ed == nil {
		return nil
	}
	return ed.Form().Names(section)
}

func (c *ConfigCommand) fieldKeys(section editor.Section, name string) []string {
	ed := c.session.Editor()
	if ed == nil {
		return nil
	}
	b, ok := ed.Form().Block(section, name)
	if !ok {
		return nil
	}
	var keys []string
	for _, spec := range b.Fields() {
		keys = append(keys, spec.Key)
	}
	return keys
}

// Aliases returns command aliases
func (c *ConfigCommand) Aliases() []string {
	return []string{"cfg"}
}
