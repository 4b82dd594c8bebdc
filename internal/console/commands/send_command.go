package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/yockii/yoctl/internal/status"
	"github.com/yockii/yoctl/internal/transport"
)

// SendCommand sends a chat message to the runtime.
type SendCommand struct {
	*BaseCommand
}

// NewSendCommand creates a new send command
func NewSendCommand(session Session, output OutputLogger) *SendCommand {
	return &SendCommand{BaseCommand: NewBaseCommand(session, output)}
}

// Execute sends the joined arguments as one message.
func (s *SendCommand) Execute(ctx context.Context, args []string) error {
	if _, err := s.parseArgs(args, 1, s.Usage()); err != nil {
		return err
	}

	chat := s.session.Chat()
	if chat == nil {
		return transport.ErrUnavailable
	}

	err := chat.Send(s.joinArgsFrom(args, 0))
	switch {
	case err == nil:
		s.output.Debug("Message sent")
		return nil
	case errors.Is(err, transport.ErrUnavailable):
		view := status.Observe(chat)
		return fmt.Errorf("cannot send: %s, %s", view.Server.Text, view.Runtime.Text)
	default:
		return err
	}
}

// Usage returns the usage string
func (s *SendCommand) Usage() string {
	return "send <message>"
}

// Description returns the command description
func (s *SendCommand) Description() string {
	return "Send a chat message to the runtime"
}

// Completions returns possible completions
func (s *SendCommand) Completions(input string) []string {
	return nil
}

// Aliases returns command aliases
func (s *SendCommand) Aliases() []string {
	return []string{"say"}
}
