package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/cli"
	yoctx "github.com/yockii/yoctl/internal/context"
)

var (
	contextAddSetCurrent bool
	contextDeleteForce   bool
	contextDefaultOutput string
	contextDefaultAgent  string
	contextClearToken    bool
)

// contextCmd represents the context command group
var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage yoctl contexts",
	Long: `Manage named contexts for different YoClaw managers.

A context stores a manager endpoint, its access token and per-context
defaults, so --endpoint and --token need not be repeated.

Examples:
  yoctl context                                   # List all contexts
  yoctl context current                           # Show current context
  yoctl context use home                          # Switch to context (alias: switch)
  yoctl context add home --endpoint <url> --token <token> --use
  yoctl context update home --default-agent writer    # (alias: set)
  yoctl context delete lab                        # Remove a context (alias: rm)
  yoctl context rename lab staging                # Rename a context
  yoctl context show home -o yaml                 # Show details (alias: describe)

Contexts are stored in ~/.config/yoctl/contexts.yaml

Precedence (highest to lowest):
  1. --endpoint / --token flags (or YOCTL_ENDPOINT / YOCTL_TOKEN)
  2. --context flag
  3. YOCTL_CONTEXT environment variable
  4. current-context from contexts.yaml
  5. Local fallback (` + cli.DefaultEndpoint + `)`,
	Args: cobra.NoArgs,
	RunE: runContextList,
}

var contextListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	Long: `List all configured contexts.

The current context is marked with an asterisk (*). Tokens are never printed.`,
	Args: cobra.NoArgs,
	RunE: runContextList,
}

var contextCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show current context name",
	Long: `Display the name of the currently active context.

Returns nothing if no context is set.`,
	Args: cobra.NoArgs,
	RunE: runContextCurrent,
}

var contextUseCmd = &cobra.Command{
	Use:     "use <name>",
	Aliases: []string{"switch"},
	Short:   "Switch to a different context",
	Long: `Set the current context to the specified name.

Running consoles that were not started with --endpoint or --context follow
the switch before their next command.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeContextNames,
	RunE:              runContextUse,
}

var contextAddCmd = &cobra.Command{
	Use:   "add <name> --endpoint <url> [--token <token>]",
	Short: "Add a new context",
	Long: `Add a new named context pointing to a YoClaw manager.

Context names must:
  - Be between 1 and 63 characters
  - Contain only lowercase letters, numbers, and hyphens
  - Start and end with an alphanumeric character

Examples:
  yoctl context add local --endpoint http://localhost:8080 --token dev-token
  yoctl context add home --endpoint https://yoclaw.example.com --token <token> --use`,
	Args: cobra.ExactArgs(1),
	RunE: runContextAdd,
}

var contextDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm", "remove"},
	Short:   "Delete a context",
	Long: `Remove a context by name.

If the deleted context was the current context, the current context will be cleared.
By default, this command asks for confirmation. Use --force to skip the prompt.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeContextNames,
	RunE:              runContextDelete,
}

var contextRenameCmd = &cobra.Command{
	Use:   "rename <old-name> <new-name>",
	Short: "Rename a context",
	Long: `Rename an existing context.

If the renamed context was the current context, the current context will be updated.`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return getContextNamesForCompletion(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runContextRename,
}

var contextShowCmd = &cobra.Command{
	Use:               "show <name>",
	Aliases:           []string{"describe", "get"},
	Short:             "Show context details",
	Long:              `Display detailed information about a specific context.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeContextNames,
	RunE:              runContextShow,
}

var contextUpdateCmd = &cobra.Command{
	Use:     "update <name>",
	Aliases: []string{"set"},
	Short:   "Update an existing context",
	Long: `Update the endpoint, token or defaults of an existing context.
Only the given flags change.

Examples:
  yoctl context update home --endpoint https://new.example.com
  yoctl context set home --token <token>
  yoctl context set home --default-output wide --default-agent writer`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeContextNames,
	RunE:              runContextUpdate,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextCurrentCmd)
	contextCmd.AddCommand(contextUseCmd)
	contextCmd.AddCommand(contextAddCmd)
	contextCmd.AddCommand(contextDeleteCmd)
	contextCmd.AddCommand(contextRenameCmd)
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextUpdateCmd)

	contextAddCmd.Flags().BoolVar(&contextAddSetCurrent, "use", false, "Set as current context after adding")
	for _, c := range []*cobra.Command{contextAddCmd, contextUpdateCmd} {
		c.Flags().StringVar(&contextDefaultOutput, "default-output", "", "Default output format for this context")
		c.Flags().StringVar(&contextDefaultAgent, "default-agent", "", "Default agent for this context")
	}
	contextUpdateCmd.Flags().BoolVar(&contextClearToken, "clear-token", false, "Remove the stored token")

	contextDeleteCmd.Flags().BoolVarP(&contextDeleteForce, "force", "f", false, "Skip confirmation prompt")
}

func completeContextNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return getContextNamesForCompletion(), cobra.ShellCompDirectiveNoFileComp
}

func getContextNamesForCompletion() []string {
	storage, err := newContextStorage()
	if err != nil {
		return nil
	}
	names, err := storage.GetContextNames()
	if err != nil {
		return nil
	}
	return names
}

func openContextStorage() (*yoctx.Storage, error) {
	storage, err := newContextStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize context storage: %w", err)
	}
	return storage, nil
}

func runContextList(cmd *cobra.Command, args []string) error {
	storage, err := openContextStorage()
	if err != nil {
		return err
	}
	cfg, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load contexts: %w", err)
	}

	printer, err := newPrinter(cli.Connection{}, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if len(cfg.Contexts) == 0 && !printer.IsStructured() {
		if !flags.Quiet {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "No contexts configured yet.")
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, "Get started by adding your first context:")
			fmt.Fprintf(out, "  yoctl context add local --endpoint %s --token <token>\n", cli.DefaultEndpoint)
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, "Then activate it:")
			fmt.Fprintln(out, "  yoctl context use local")
		}
		return nil
	}

	return printer.Print(contextList(cfg), cli.ContextsTable(cfg))
}

func runContextCurrent(cmd *cobra.Command, args []string) error {
	storage, err := openContextStorage()
	if err != nil {
		return err
	}
	name, err := storage.GetCurrentContextName()
	if err != nil {
		return fmt.Errorf("failed to get current context: %w", err)
	}
	if name != "" {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

func runContextUse(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage, err := openContextStorage()
	if err != nil {
		return err
	}

	if err := storage.SetCurrentContext(name); err != nil {
		var notFoundErr *yoctx.ContextNotFoundError
		if errors.As(err, &notFoundErr) {
			return fmt.Errorf("context %q not found. Use 'yoctl context list' to see available contexts", name)
		}
		return fmt.Errorf("failed to set current context: %w", err)
	}

	if !flags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q\n", name)
	}
	return nil
}

func contextSettingsFromFlags(cmd *cobra.Command, base *yoctx.ContextSettings) (*yoctx.ContextSettings, error) {
	settings := &yoctx.ContextSettings{}
	if base != nil {
		*settings = *base
	}
	if cmd.Flags().Changed("default-output") {
		if contextDefaultOutput != "" {
			if err := cli.ValidateOutputFormat(contextDefaultOutput); err != nil {
				return nil, err
			}
		}
		settings.Output = contextDefaultOutput
	}
	if cmd.Flags().Changed("default-agent") {
		settings.Agent = contextDefaultAgent
	}
	if settings.Output == "" && settings.Agent == "" {
		return nil, nil
	}
	return settings, nil
}

func runContextAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	if flags.Endpoint == "" {
		return fmt.Errorf("--endpoint (or %s) is required", cli.EndpointEnvVar)
	}

	storage, err := openContextStorage()
	if err != nil {
		return err
	}
	settings, err := contextSettingsFromFlags(cmd, nil)
	if err != nil {
		return err
	}

	ctx := yoctx.Context{Name: name, Endpoint: flags.Endpoint, Token: flags.Token, Settings: settings}
	if err := storage.AddContext(ctx); err != nil {
		return fmt.Errorf("failed to add context: %w", err)
	}

	out := cmd.OutOrStdout()
	if !flags.Quiet {
		fmt.Fprintf(out, "Context %q added.\n", name)
		if ctx.Token == "" {
			fmt.Fprintf(out, "Note: no token stored. Add one with 'yoctl context update %s --token <token>'.\n", name)
		}
	}

	if contextAddSetCurrent {
		if err := storage.SetCurrentContext(name); err != nil {
			return fmt.Errorf("failed to set current context: %w", err)
		}
		if !flags.Quiet {
			fmt.Fprintf(out, "Switched to context %q\n", name)
		}
	} else if !flags.Quiet {
		if currentName, _ := storage.GetCurrentContextName(); currentName == "" {
			fmt.Fprintf(out, "\nTo use this context, run:\n")
			fmt.Fprintf(out, "  yoctl context use %s\n", name)
		}
	}
	return nil
}

func runContextDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage, err := openContextStorage()
	if err != nil {
		return err
	}

	ctx, err := storage.GetContext(name)
	if err != nil {
		return fmt.Errorf("failed to check context: %w", err)
	}
	if ctx == nil {
		return fmt.Errorf("context %q not found", name)
	}

	currentName, _ := storage.GetCurrentContextName()
	wasCurrent := currentName == name
	out := cmd.OutOrStdout()

	if !contextDeleteForce {
		prompt := fmt.Sprintf("Delete context %q?", name)
		if wasCurrent {
			prompt = fmt.Sprintf("Delete context %q (current context)?", name)
		}
		if !confirmAction(out, confirmInput, prompt) {
			if !flags.Quiet {
				fmt.Fprintln(out, "Aborted.")
			}
			return nil
		}
	}

	if err := storage.DeleteContext(name); err != nil {
		return fmt.Errorf("failed to delete context: %w", err)
	}

	if !flags.Quiet {
		fmt.Fprintf(out, "Context %q deleted.\n", name)
		if wasCurrent {
			fmt.Fprintln(out, "Note: This was the current context. Current context is now unset.")
		}
	}
	return nil
}

func runContextRename(cmd *cobra.Command, args []string) error {
	oldName, newName := args[0], args[1]
	storage, err := openContextStorage()
	if err != nil {
		return err
	}

	if err := storage.RenameContext(oldName, newName); err != nil {
		return fmt.Errorf("failed to rename context: %w", err)
	}
	if !flags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Context %q renamed to %q.\n", oldName, newName)
	}
	return nil
}

// contextDetails is the structured form of a context. The token itself is
// never printed.
type contextDetails struct {
	Name     string                 `json:"name"`
	Endpoint string                 `json:"endpoint"`
	Current  bool                   `json:"current"`
	HasToken bool                   `json:"hasToken"`
	Settings *yoctx.ContextSettings `json:"settings,omitempty"`
}

func newContextDetails(ctx yoctx.Context, current string) contextDetails {
	return contextDetails{
		Name:     ctx.Name,
		Endpoint: ctx.Endpoint,
		Current:  ctx.Name == current,
		HasToken: ctx.Token != "",
		Settings: ctx.Settings,
	}
}

func contextList(cfg *yoctx.ContextConfig) []contextDetails {
	out := make([]contextDetails, 0, len(cfg.Contexts))
	for _, ctx := range cfg.Contexts {
		out = append(out, newContextDetails(ctx, cfg.CurrentContext))
	}
	return out
}

func runContextShow(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage, err := openContextStorage()
	if err != nil {
		return err
	}
	cfg, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load contexts: %w", err)
	}

	ctx := cfg.GetContext(name)
	if ctx == nil {
		return fmt.Errorf("context %q not found", name)
	}
	details := newContextDetails(*ctx, cfg.CurrentContext)

	printer, err := newPrinter(cli.Connection{}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if printer.IsStructured() {
		return printer.Print(details, nil)
	}

	token := "not set"
	if details.HasToken {
		token = "set"
	}
	fields := []cli.Field{
		{Key: "Name", Value: details.Name},
		{Key: "Endpoint", Value: details.Endpoint},
		{Key: "Current", Value: cli.FormatBool(details.Current)},
		{Key: "Token", Value: token},
	}
	if s := details.Settings; s != nil {
		fields = append(fields,
			cli.Field{Key: "Default output", Value: s.Output},
			cli.Field{Key: "Default agent", Value: s.Agent},
		)
	}
	cli.RenderDetails(cmd.OutOrStdout(), "Context", fields)
	return nil
}

func runContextUpdate(cmd *cobra.Command, args []string) error {
	name := args[0]
	storage, err := openContextStorage()
	if err != nil {
		return err
	}

	changed := false
	for _, f := range []string{"endpoint", "token", "default-output", "default-agent", "clear-token"} {
		changed = changed || cmd.Flags().Changed(f)
	}
	if !changed {
		return fmt.Errorf("nothing to update: give --endpoint, --token, --clear-token, --default-output or --default-agent")
	}

	var settingsErr error
	err = storage.UpdateContext(name, func(ctx *yoctx.Context) {
		if cmd.Flags().Changed("endpoint") {
			ctx.Endpoint = flags.Endpoint
		}
		if cmd.Flags().Changed("token") {
			ctx.Token = flags.Token
		}
		if contextClearToken {
			ctx.Token = ""
		}
		settings, err := contextSettingsFromFlags(cmd, ctx.Settings)
		if err != nil {
			settingsErr = err
			return
		}
		ctx.Settings = settings
	})
	if settingsErr != nil {
		return settingsErr
	}
	if err != nil {
		var notFoundErr *yoctx.ContextNotFoundError
		if errors.As(err, &notFoundErr) {
			return fmt.Errorf("context %q not found. Use 'yoctl context add' to create a new context", name)
		}
		return fmt.Errorf("failed to update context: %w", err)
	}

	if !flags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Context %q updated.\n", name)
	}
	return nil
}

// confirmAction prompts on out and reads one answer from in.
func confirmAction(out io.Writer, in io.Reader, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
