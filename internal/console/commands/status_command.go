package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/status"
)

// StatusCommand shows the connection and configuration summary.
type StatusCommand struct {
	*BaseCommand
}

// NewStatusCommand creates a new status command
func NewStatusCommand(session Session, output OutputLogger) *StatusCommand {
	return &StatusCommand{BaseCommand: NewBaseCommand(session, output)}
}

// Execute prints the status view.
func (s *StatusCommand) Execute(ctx context.Context, args []string) error {
	fields := []cli.Field{
		{Key: "Context", Value: s.session.ContextName()},
		{Key: "Endpoint", Value: s.session.Endpoint()},
	}

	if chat := s.session.Chat(); chat != nil {
		view := status.Observe(chat)
		fields = append(fields,
			cli.Field{Key: "Server", Value: colorIndicator(view.Server)},
			cli.Field{Key: "Runtime", Value: colorIndicator(view.Runtime)},
			cli.Field{Key: "Send", Value: cli.FormatBool(view.SendEnabled)},
			cli.Field{Key: "Connect attempts", Value: strconv.Itoa(chat.Attempts())},
		)
	}

	cfg := status.ProjectConfig(s.session.Store().Snapshot())
	if cfg.Loaded {
		fields = append(fields,
			cli.Field{Key: "Agents", Value: strconv.Itoa(cfg.Agents)},
			cli.Field{Key: "Providers", Value: strconv.Itoa(cfg.Providers)},
			cli.Field{Key: "Channels", Value: fmt.Sprintf("%d (%d enabled)", cfg.Channels, cfg.EnabledChannels)},
		)
		if len(cfg.Dangling) > 0 {
			fields = append(fields, cli.Field{Key: "Dangling refs", Value: strings.Join(cfg.Dangling, ", ")})
		}
	} else {
		fields = append(fields, cli.Field{Key: "Config", Value: "not loaded"})
	}
	if ed := s.session.Editor(); ed != nil && ed.Dirty() {
		fields = append(fields, cli.Field{Key: "Unsaved edits", Value: "yes (run 'config save')"})
	}
	if s.session.Store().Pending() != nil {
		fields = append(fields, cli.Field{Key: "Pending save", Value: "yes (last save failed)"})
	}
	fields = append(fields, cli.Field{Key: "Inbound messages", Value: strconv.Itoa(s.session.Messages().Len())})

	cli.RenderDetails(s.output.Writer(), "Status", fields)
	return nil
}

func colorIndicator(ind status.Indicator) string {
	switch ind.Class {
	case status.ClassConnected:
		return text.FgGreen.Sprint(ind.Text)
	case status.ClassConnecting:
		return text.FgYellow.Sprint(ind.Text)
	default:
		return text.FgRed.Sprint(ind.Text)
	}
}

// Usage returns the usage string
func (s *StatusCommand) Usage() string {
	return "status"
}

// Description returns the command description
func (s *StatusCommand) Description() string {
	return "Show connection and configuration status"
}

// Completions returns possible completions
func (s *StatusCommand) Completions(input string) []string {
	return nil
}

// Aliases returns command aliases
func (s *StatusCommand) Aliases() []string {
	return []string{"st"}
}
