package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yockii/yoctl/internal/cli"
)

const (
	defaultLogLines = 20

	// shortIDLength is how much of a message ID the listing shows. Any
	// unique prefix is accepted by 'log show'.
	shortIDLength = 8

	logLineWidth = 120
)

// LogCommand replays recent inbound messages.
type LogCommand struct {
	*BaseCommand
}

// NewLogCommand creates a new log command
func NewLogCommand(session Session, output OutputLogger) *LogCommand {
	return &LogCommand{BaseCommand: NewBaseCommand(session, output)}
}

// Execute prints the last n inbound messages, oldest first, or one message
// in full with 'log show <id>'.
func (l *LogCommand) Execute(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "show" {
		if len(args) != 2 {
			return fmt.Errorf("usage: log show <id>")
		}
		return l.show(args[1])
	}

	n := defaultLogLines
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		n = v
	}

	msgs := l.session.Messages().Recent(n)
	if len(msgs) == 0 {
		l.output.Info("no messages received yet")
		return nil
	}
	for _, m := range msgs {
		l.output.OutputLine("%s [%s] %s: %s", shortID(m.ID), cli.FormatTime(m.Received), m.Role, cli.Truncate(m.Content, logLineWidth))
	}
	return nil
}

// show prints the message whose ID starts with prefix.
func (l *LogCommand) show(prefix string) error {
	history := l.session.Messages()
	var found []InboundMessage
	for _, m := range history.Recent(history.Len()) {
		if strings.HasPrefix(m.ID, prefix) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return fmt.Errorf("no message with id %q", prefix)
	case 1:
	default:
		return fmt.Errorf("id %q is ambiguous (%d messages)", prefix, len(found))
	}

	m := found[0]
	l.output.OutputLine("ID:       %s", m.ID)
	l.output.OutputLine("Received: %s", cli.FormatTime(m.Received))
	l.output.OutputLine("Role:     %s", m.Role)
	l.output.OutputLine("")
	l.output.OutputLine("%s", m.Content)
	return nil
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

// Usage returns the usage string
func (l *LogCommand) Usage() string {
	return "log [n] | log show <id>"
}

// Description returns the command description
func (l *LogCommand) Description() string {
	return "Show recent messages from the runtime"
}

// Completions returns possible completions
func (l *LogCommand) Completions(input string) []string {
	return []string{"show"}
}

// Aliases returns command aliases
func (l *LogCommand) Aliases() []string {
	return []string{"history"}
}
