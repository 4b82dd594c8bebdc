package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/editor"
)

// entryEdit holds the flags of one entry command group.
type entryEdit struct {
	section     editor.Section
	label       string
	channelType string
	yes         bool
}

func init() {
	configCmd.AddCommand(newEntryCmd(editor.SectionAgents, "agent", "Add, delete and edit agents"))
	configCmd.AddCommand(newEntryCmd(editor.SectionProviders, "provider", "Add, delete and edit model providers"))
	configCmd.AddCommand(newEntryCmd(editor.SectionChannels, "channel", "Add, delete and edit channels"))
	configCmd.AddCommand(newSkillCmd())
}

// newEntryCmd builds the add, delete and set commands of a named section.
func newEntryCmd(section editor.Section, label, short string) *cobra.Command {
	e := &entryEdit{section: section, label: label}

	group := &cobra.Command{
		Use:   label,
		Short: short,
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Add a %s with default values", label),
		Args:  cobra.ExactArgs(1),
		RunE:  e.runAdd,
	}
	add.Long = fmt.Sprintf(`Add a %s with default values. Adding a name that already exists
resets that %s to the defaults.`, label, label)
	if section == editor.SectionChannels {
		add.Flags().StringVar(&e.channelType, "type", string(config.ChannelWeb), "Channel type: web or feishu")
		add.Long = `Add a channel with the defaults of its type. The channel is bound to the
first agent and starts disabled. Channel names must be unique.`
	}

	del := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm", "remove"},
		Short:   fmt.Sprintf("Delete a %s", label),
		Long: fmt.Sprintf(`Delete a %s. The last agent and the last provider cannot be deleted.
References to the deleted entry are cleared when the configuration is saved.`, label),
		Args: cobra.ExactArgs(1),
		RunE: e.runDelete,
	}
	del.Flags().BoolVarP(&e.yes, "yes", "y", false, "Do not ask for confirmation")

	set := &cobra.Command{
		Use:   "set <name> <field> <value> [<field> <value>...]",
		Short: fmt.Sprintf("Set fields of a %s", label),
		Long:  fmt.Sprintf("Set one or more fields of a %s.\n\nFields: %s", label, fieldHelp(section)),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || len(args)%2 == 0 {
				return fmt.Errorf("expected <name> followed by field/value pairs")
			}
			return nil
		},
		RunE: e.runSet,
	}

	group.AddCommand(add, del, set)
	return group
}

func newSkillCmd() *cobra.Command {
	e := &entryEdit{section: editor.SectionSkill, label: "skill"}
	group := &cobra.Command{
		Use:     "skill",
		Aliases: []string{"skills"},
		Short:   "Edit the skill paths",
	}
	set := &cobra.Command{
		Use:   "set <field> <value> [<field> <value>...]",
		Short: "Set skill fields",
		Long:  "Set one or more skill fields.\n\nFields: " + fieldHelp(editor.SectionSkill),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 || len(args)%2 == 1 {
				return fmt.Errorf("expected field/value pairs")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runSet(cmd, append([]string{""}, args...))
		},
	}
	group.AddCommand(set)
	return group
}

// fieldHelp lists the editable fields of a section for help text.
func fieldHelp(section editor.Section) string {
	var kinds []editor.Kind
	switch section {
	case editor.SectionAgents:
		kinds = []editor.Kind{editor.KindAgent}
	case editor.SectionProviders:
		kinds = []editor.Kind{editor.KindProvider}
	case editor.SectionChannels:
		kinds = []editor.Kind{editor.KindWebChannel, editor.KindFeishuChannel}
	case editor.SectionSkill:
		kinds = []editor.Kind{editor.KindSkill}
	}

	var parts []string
	for _, kind := range kinds {
		var keys []string
		for _, spec := range editor.SchemaFor(kind) {
			keys = append(keys, spec.Key)
		}
		if len(kinds) > 1 {
			parts = append(parts, fmt.Sprintf("%s: %s", kind, strings.Join(keys, ", ")))
		} else {
			parts = append(parts, strings.Join(keys, ", "))
		}
	}
	return strings.Join(parts, "; ")
}

// edit loads the configuration, applies fn and commits the result.
func (e *entryEdit) edit(cmd *cobra.Command, success string, fn func(ed *editor.Editor) error) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	store, err := s.loadStore()
	if err != nil {
		return err
	}

	ed := editor.New(store.Snapshot())
	if err := fn(ed); err != nil {
		if errors.Is(err, editor.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
		return err
	}
	if !ed.Dirty() {
		s.printer.Success("Nothing changed")
		return nil
	}
	return s.commit(store, ed, success)
}

func (e *entryEdit) runAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	return e.edit(cmd, fmt.Sprintf("%s %q added", e.label, name), func(ed *editor.Editor) error {
		if e.section == editor.SectionChannels {
			return ed.Add(e.section, name, config.ChannelType(e.channelType))
		}
		return ed.Add(e.section, name)
	})
}

func (e *entryEdit) runDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	confirmer := editor.AlwaysConfirm
	if !e.yes {
		out := cmd.OutOrStdout()
		confirmer = editor.ConfirmFunc(func(prompt string) bool {
			return confirmAction(out, confirmInput, prompt)
		})
	}
	return e.edit(cmd, fmt.Sprintf("%s %q deleted", e.label, name), func(ed *editor.Editor) error {
		return ed.Delete(e.section, name, confirmer)
	})
}

func (e *entryEdit) runSet(cmd *cobra.Command, args []string) error {
	name, pairs := args[0], args[1:]
	target := fmt.Sprintf("%s %q", e.label, name)
	if e.section == editor.SectionSkill {
		target = "skill"
	}
	return e.edit(cmd, target+" updated", func(ed *editor.Editor) error {
		for i := 0; i < len(pairs); i += 2 {
			if err := ed.Set(e.section, name, pairs[i], pairs[i+1]); err != nil {
				return err
			}
		}
		return nil
	})
}
