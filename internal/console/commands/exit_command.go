package commands

import (
	"context"
)

// ExitCommand handles console exit
type ExitCommand struct {
	*BaseCommand
}

// NewExitCommand creates a new exit command
func NewExitCommand(session Session, output OutputLogger) *ExitCommand {
	return &ExitCommand{
		BaseCommand: NewBaseCommand(session, output),
	}
}

// Execute asks before leaving with unsaved configuration edits.
func (e *ExitCommand) Execute(ctx context.Context, args []string) error {
	if ed := e.session.Editor(); ed != nil && ed.Dirty() {
		if !e.session.Confirm("有未保存的配置修改，确定退出吗？") {
			return nil
		}
	}
	return ErrExit
}

// Usage returns the usage string
func (e *ExitCommand) Usage() string {
	return "exit"
}

// Description returns the command description
func (e *ExitCommand) Description() string {
	return "Exit the console"
}

// Completions returns possible completions
func (e *ExitCommand) Completions(input string) []string {
	return []string{}
}

// Aliases returns command aliases
func (e *ExitCommand) Aliases() []string {
	return []string{"quit", "q"}
}
