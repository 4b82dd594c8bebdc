package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/editor"
)

var (
	configFormat string
	configReveal bool
	configForce  bool
	configDryRun bool
	configYes    bool
)

// configCmd represents the config command group
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg"},
	Short:   "Inspect and edit the runtime configuration",
	Long: `Inspect and edit the YoClaw runtime configuration held by the manager.

The configuration has four sections: agents, providers, channels and skill.
Every edit command loads the current document, applies one change,
validates the result and saves it; nothing is sent when validation fails.

Examples:
  yoctl config show                          # All sections
  yoctl config show providers --reveal       # Show secrets
  yoctl config get agents.default.model      # One value
  yoctl config export backup.yaml            # Save to a file
  yoctl config import backup.yaml --dry-run  # Show what would change
  yoctl config agent add writer
  yoctl config channel add web2 --type web
  yoctl config provider set myProvider api_key sk-...`,
}

var configShowCmd = &cobra.Command{
	Use:     "show [section] [name]",
	Aliases: []string{"ls", "list"},
	Short:   "Show the configuration",
	Long: `Show all sections, one section, or one entry.

Secrets (API keys, app secrets, tokens) are masked unless --reveal is given.
With -o json or -o yaml the document itself is printed.`,
	Args:              cobra.MaximumNArgs(2),
	ValidArgsFunction: completeSections,
	RunE:              runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <section.name.field>",
	Short: "Print one configuration value",
	Long: `Print the value of one field. Skill fields take no entry name.

Examples:
  yoctl config get agents.default.provider
  yoctl config get channels.webTest.token --reveal
  yoctl config get skill.global_path`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write the default configuration",
	Long: `Write the configuration a fresh manager starts with, to a file or to
stdout. Edit it and load it with 'yoctl config import'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a configuration file or the live configuration",
	Long: `Check a configuration against the schema and the reference rules:
every agent needs an existing provider, every channel an existing agent, and
names must be unique and non-empty.

Without a file the configuration held by the manager is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return err
	},
}

var configExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the live configuration",
	Long: `Write the configuration held by the manager to a file or stdout. The
format follows the file extension unless --format is given. Secrets are
included; the file is created readable by the owner only.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigExport,
}

var configImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the live configuration with a file",
	Long: `Validate a configuration file, show how it differs from the live
configuration and save it after confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigImport,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configSchemaCmd)
	configCmd.AddCommand(configExportCmd)
	configCmd.AddCommand(configImportCmd)

	configShowCmd.Flags().BoolVar(&configReveal, "reveal", false, "Show secrets in clear text")
	configGetCmd.Flags().BoolVar(&configReveal, "reveal", false, "Show secrets in clear text")

	for _, c := range []*cobra.Command{configInitCmd, configValidateCmd, configExportCmd, configImportCmd} {
		c.Flags().StringVarP(&configFormat, "format", "f", "", "File format: json, yaml or toml (default from the file extension, yaml for stdout)")
	}
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configExportCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configImportCmd.Flags().BoolVar(&configDryRun, "dry-run", false, "Only show the changes")
	configImportCmd.Flags().BoolVarP(&configYes, "yes", "y", false, "Do not ask for confirmation")
}

func completeSections(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	out := make([]string, 0, len(editor.Sections))
	for _, s := range editor.Sections {
		out = append(out, string(s))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// fileFormat returns the --format value, or the format implied by path.
func fileFormat(path string) (config.Format, error) {
	if configFormat != "" {
		return config.ParseFormat(configFormat)
	}
	if path == "" {
		return config.FormatYAML, nil
	}
	return config.FormatFromPath(path), nil
}

// readDocumentFile decodes a configuration file.
func readDocumentFile(path string) (*config.Document, error) {
	format, err := fileFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &config.ConfigurationError{
			FilePath:    path,
			ErrorType:   "io",
			Message:     "cannot read configuration file",
			Err:         err,
			Suggestions: []string{"Check that the file exists and is readable"},
		}
	}
	doc, err := config.Unmarshal(data, format)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.FilePath = path
			cfgErr.Suggestions = append(cfgErr.Suggestions, fmt.Sprintf("Check the %s syntax, or pass --format if the extension is misleading", format))
		}
		return nil, err
	}
	return doc, nil
}

// writeDocument encodes doc to path, or to out when path is empty.
func writeDocument(out io.Writer, path string, doc *config.Document) error {
	format, err := fileFormat(path)
	if err != nil {
		return err
	}
	data, err := config.Marshal(doc, format)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = out.Write(data)
		return err
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !configForce {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// checkDocument runs the schema and the reference validation.
func checkDocument(doc *config.Document) error {
	if err := config.ValidateSchema(doc); err != nil {
		return &cli.ValidationError{Reason: err}
	}
	if errs := config.Validate(doc); errs.HasErrors() {
		return &cli.ValidationError{Reason: errs}
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	store, err := s.loadStore()
	if err != nil {
		return err
	}
	doc := store.Snapshot()
	form := editor.New(doc).Form()

	var section editor.Section
	if len(args) > 0 {
		var ok bool
		if section, ok = editor.ParseSection(args[0]); !ok {
			return fmt.Errorf("%w %q (expected agents, providers, channels or skill)", editor.ErrInvalidSection, args[0])
		}
	}

	if s.printer.IsStructured() {
		if !configReveal {
			doc = doc.Redacted()
		}
		return s.printer.Print(sectionData(doc, section, args), nil)
	}

	out := cmd.OutOrStdout()
	switch {
	case len(args) == 2 || section == editor.SectionSkill:
		name := ""
		if len(args) == 2 {
			name = args[1]
		}
		b, ok := form.Block(section, name)
		if !ok {
			return fmt.Errorf("%w: %s %q", editor.ErrNotFound, section, name)
		}
		title := b.Kind.String()
		if section != editor.SectionSkill {
			title = fmt.Sprintf("%s %s", b.Kind, b.Name)
		}
		cli.RenderDetails(out, title, cli.BlockFields(form, b, configReveal))
		return nil
	case section != "":
		return s.printer.Print(nil, cli.ConfigSectionTable(form, section, configReveal))
	}

	for i, sec := range editor.Sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, strings.ToUpper(string(sec)))
		if err := s.printer.Print(nil, cli.ConfigSectionTable(form, sec, configReveal)); err != nil {
			return err
		}
	}
	return nil
}

// sectionData selects what structured output prints for the show arguments.
func sectionData(doc *config.Document, section editor.Section, args []string) any {
	var name string
	if len(args) == 2 {
		name = args[1]
	}
	switch section {
	case editor.SectionAgents:
		if name != "" {
			return doc.Agents[name]
		}
		return doc.Agents
	case editor.SectionProviders:
		if name != "" {
			return doc.Providers[name]
		}
		return doc.Providers
	case editor.SectionChannels:
		if name != "" {
			return doc.Channels[name]
		}
		return doc.Channels
	case editor.SectionSkill:
		return doc.Skill
	}
	return doc
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	parts := strings.Split(args[0], ".")
	section, ok := editor.ParseSection(parts[0])
	if !ok {
		return fmt.Errorf("%w %q", editor.ErrInvalidSection, parts[0])
	}

	var name, field string
	switch {
	case section == editor.SectionSkill && len(parts) == 2:
		field = parts[1]
	case section != editor.SectionSkill && len(parts) == 3:
		name, field = parts[1], parts[2]
	default:
		return fmt.Errorf("invalid path %q (expected section.name.field, or skill.field)", args[0])
	}

	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	store, err := s.loadStore()
	if err != nil {
		return err
	}
	form := editor.New(store.Snapshot()).Form()

	b, ok := form.Block(section, name)
	if !ok {
		return fmt.Errorf("%w: %s %q", editor.ErrNotFound, section, name)
	}
	for _, spec := range b.Fields() {
		if spec.Key == field {
			value := form.Value(b, spec)
			if spec.Type == editor.FieldSecret && !configReveal {
				value = form.Display(b, spec, false)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		}
	}
	return fmt.Errorf("%w %q for %s", editor.ErrUnknownField, field, b.Kind)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	if err := writeDocument(cmd.OutOrStdout(), path, config.Default()); err != nil {
		return err
	}
	if path != "" && !flags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", path)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	var doc *config.Document
	source := ""
	if len(args) == 1 {
		var err error
		if doc, err = readDocumentFile(args[0]); err != nil {
			return err
		}
		source = args[0]
	} else {
		s, err := newSession(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		store, err := s.loadStore()
		if err != nil {
			return err
		}
		doc = store.Snapshot()
		source = s.conn.Endpoint
	}

	if err := checkDocument(doc); err != nil {
		var errs config.ValidationErrors
		if errors.As(err, &errs) {
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(e))
			}
		}
		return err
	}
	if !flags.Quiet {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Configuration from %s is valid", source)))
	}
	return nil
}

func runConfigExport(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	store, err := s.loadStore()
	if err != nil {
		return err
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	}
	if err := writeDocument(cmd.OutOrStdout(), path, store.Snapshot()); err != nil {
		return err
	}
	if path != "" && !flags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration exported to %s\n", path)
	}
	return nil
}

func runConfigImport(cmd *cobra.Command, args []string) error {
	doc, err := readDocumentFile(args[0])
	if err != nil {
		return err
	}
	if err := checkDocument(doc); err != nil {
		return err
	}

	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	store, err := s.loadStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	changes := config.Diff(store.Snapshot(), doc)
	if len(changes) == 0 {
		if !flags.Quiet {
			fmt.Fprintln(out, "No changes.")
		}
		return nil
	}
	for _, c := range changes {
		fmt.Fprintln(out, c.String())
	}
	if configDryRun {
		return nil
	}
	if !configYes && !confirmAction(out, confirmInput, fmt.Sprintf("Apply %d change(s) to %s?", len(changes), s.conn.Endpoint)) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	return s.save(store, doc, "Configuration imported")
}
