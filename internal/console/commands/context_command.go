package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/yockii/yoctl/internal/cli"
	yoctx "github.com/yockii/yoctl/internal/context"
)

// StorageProvider abstracts context storage operations for testability.
type StorageProvider interface {
	GetCurrentContextName() (string, error)
	Load() (*yoctx.ContextConfig, error)
	GetContext(name string) (*yoctx.Context, error)
	GetContextNames() ([]string, error)
	SetCurrentContext(name string) error
}

// SwitchFunc reconnects the console to the named context.
type SwitchFunc func(ctx context.Context, name string) error

// ContextCommand lists and switches contexts without leaving the console.
type ContextCommand struct {
	*BaseCommand
	storage  StorageProvider
	onSwitch SwitchFunc
}

// NewContextCommand creates a new context command. onSwitch is called after
// the current context has been persisted.
func NewContextCommand(session Session, output OutputLogger, storage StorageProvider, onSwitch SwitchFunc) *ContextCommand {
	return &ContextCommand{
		BaseCommand: NewBaseCommand(session, output),
		storage:     storage,
		onSwitch:    onSwitch,
	}
}

// knownSubcommands lists all valid subcommands for typo detection.
var knownSubcommands = []string{"list", "ls", "use", "switch"}

// Execute runs the context command with the given arguments.
// Subcommands:
//   - (no args): Show current context
//   - list/ls: List all available contexts
//   - use/switch <name>: Switch to a different context
func (c *ContextCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showCurrent()
	}

	subCmd := strings.ToLower(args[0])
	switch subCmd {
	case "list", "ls":
		return c.listContexts()
	case "use", "switch":
		if len(args) < 2 {
			return fmt.Errorf("usage: context use <name>")
		}
		return c.switchContext(ctx, args[1])
	default:
		if suggestion := c.findSimilarSubcommand(subCmd); suggestion != "" {
			return fmt.Errorf("unknown subcommand %q - did you mean %q? Use 'context use %s' to switch to a context named %q",
				subCmd, suggestion, subCmd, subCmd)
		}
		return c.switchContext(ctx, args[0])
	}
}

// findSimilarSubcommand returns the subcommand input is likely a typo of.
func (c *ContextCommand) findSimilarSubcommand(input string) string {
	for _, cmd := range knownSubcommands {
		if len(input) == len(cmd) && countDifferentChars(input, cmd) <= 2 {
			return cmd
		}
		if absDiff(len(input), len(cmd)) == 1 && hasCommonPrefix(input, cmd, 2) {
			return cmd
		}
	}
	return ""
}

func countDifferentChars(a, b string) int {
	diff := 0
	for i := 0; i < len(a); i++ {
		if a[i] != b[i] {
			diff++
		}
	}
	return diff
}

func hasCommonPrefix(a, b string, n int) bool {
	minLen := min(len(a), len(b))
	if minLen < n {
		return false
	}
	common := 0
	for i := 0; i < minLen && a[i] == b[i]; i++ {
		common++
	}
	return common >= n
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func (c *ContextCommand) showCurrent() error {
	name, err := c.storage.GetCurrentContextName()
	if err != nil {
		return fmt.Errorf("failed to get current context: %w", err)
	}

	if name == "" {
		c.output.OutputLine("No context set")
		c.output.OutputLine("")
		c.output.OutputLine("Use 'context list' to see available contexts")
		c.output.OutputLine("Use 'context use <name>' to switch context")
		return nil
	}
	c.output.OutputLine("Current context: %s", name)
	if active := c.session.ContextName(); active != "" && active != name {
		c.output.Warn("this console is connected through %q", active)
	}
	return nil
}

func (c *ContextCommand) listContexts() error {
	cfg, err := c.storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load contexts: %w", err)
	}

	if len(cfg.Contexts) == 0 {
		c.output.OutputLine("No contexts configured")
		c.output.OutputLine("")
		c.output.OutputLine("Add contexts with:")
		c.output.OutputLine("  yoctl context add <name> --endpoint <url>")
		return nil
	}
	return c.printer(false).Print(cfg, cli.ContextsTable(cfg))
}

func (c *ContextCommand) switchContext(ctx context.Context, name string) error {
	ctxConfig, err := c.storage.GetContext(name)
	if err != nil {
		return fmt.Errorf("failed to get context: %w", err)
	}
	if ctxConfig == nil {
		names, _ := c.storage.GetContextNames()
		if len(names) > 0 {
			return fmt.Errorf("context %q not found. Available: %s", name, strings.Join(names, ", "))
		}
		return fmt.Errorf("context %q not found. No contexts configured", name)
	}

	if err := c.storage.SetCurrentContext(name); err != nil {
		return fmt.Errorf("failed to switch context: %w", err)
	}
	c.output.Success("Switched to %s (%s)", name, ctxConfig.Endpoint)

	if c.onSwitch != nil {
		if err := c.onSwitch(ctx, name); err != nil {
			c.output.Error("Failed to reconnect: %v", err)
			c.output.OutputLine("Restart 'yoctl console' to connect with the new context.")
		}
	}
	return nil
}

// Usage returns the usage string
func (c *ContextCommand) Usage() string {
	return "context [list|use <name>]"
}

// Description returns the command description
func (c *ContextCommand) Description() string {
	return "Show, list or switch contexts"
}

// Completions returns possible completions
func (c *ContextCommand) Completions(input string) []string {
	fields := strings.Fields(input)
	if strings.HasSuffix(input, " ") || len(fields) == 0 {
		fields = append(fields, "")
	}
	switch len(fields) {
	case 1:
		names, _ := c.storage.GetContextNames()
		return filterPrefix(append([]string{"list", "use"}, names...), fields[0])
	case 2:
		if fields[0] == "use" || fields[0] == "switch" {
			names, _ := c.storage.GetContextNames()
			return filterPrefix(names, fields[1])
		}
	}
	return nil
}

// Aliases returns command aliases
func (c *ContextCommand) Aliases() []string {
	return []string{"ctx"}
}
