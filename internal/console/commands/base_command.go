package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/editor"
	"github.com/yockii/yoctl/internal/transport"
)

// ManagerAPI is the subset of *api.Client the console uses.
type ManagerAPI interface {
	ListCronJobs(ctx context.Context, agent string) ([]api.CronJob, error)
	ListTasks(ctx context.Context, agent string) ([]api.Task, error)
	ListSessions(ctx context.Context, agent string) ([]api.Session, error)
	InstanceStatus(ctx context.Context) (*api.InstanceStatus, error)
	InstanceAction(ctx context.Context, action api.Action) (string, error)
}

// ChatChannel is the subset of *transport.Channel the console uses.
type ChatChannel interface {
	Send(content string) error
	Snapshot() (transport.State, bool)
	Attempts() int
}

// InboundMessage is one message received from the runtime.
type InboundMessage struct {
	ID       string    `json:"id"`
	Received time.Time `json:"received"`
	Role     string    `json:"role"`
	Content  string    `json:"content"`
}

// MessageHistory keeps recent inbound messages.
type MessageHistory interface {
	Recent(n int) []InboundMessage
	Len() int
}

// Session is the console state shared by all commands. The console swaps
// the underlying connection when the context changes, so commands must not
// cache what it returns.
type Session interface {
	editor.Confirmer

	Chat() ChatChannel
	// API returns an error when no access token is configured.
	API() (ManagerAPI, error)
	Store() *config.Store
	Editor() *editor.Editor
	Messages() MessageHistory

	Endpoint() string
	ContextName() string
	// DefaultAgent is the agent used when a command names none.
	DefaultAgent() string
}

// BaseCommand provides common functionality for all console commands.
type BaseCommand struct {
	session Session
	output  OutputLogger
}

// NewBaseCommand creates a new base command with the specified dependencies.
func NewBaseCommand(session Session, output OutputLogger) *BaseCommand {
	return &BaseCommand{
		session: session,
		output:  output,
	}
}

// parseArgs validates the minimum argument count.
func (b *BaseCommand) parseArgs(args []string, minArgs int, usage string) ([]string, error) {
	if len(args) < minArgs {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return args, nil
}

// joinArgsFrom joins arguments starting from index into a single string.
func (b *BaseCommand) joinArgsFrom(args []string, index int) string {
	if index >= len(args) {
		return ""
	}
	return strings.Join(args[index:], " ")
}

// printer renders tables to the command output.
func (b *BaseCommand) printer(wide bool) *cli.Printer {
	format := cli.OutputFormatTable
	if wide {
		format = cli.OutputFormatWide
	}
	return cli.NewPrinter(cli.PrinterOptions{Format: format}, b.output.Writer())
}

// managerAPI returns the manager client with connection errors translated.
func (b *BaseCommand) managerAPI() (ManagerAPI, error) {
	client, err := b.session.API()
	if err != nil {
		return nil, cli.WrapAPIError(err, b.session.Endpoint())
	}
	return client, nil
}

// agentArg returns the agent named in args[index], or the session default.
func (b *BaseCommand) agentArg(args []string, index int) (string, error) {
	if index < len(args) && args[index] != "" {
		return args[index], nil
	}
	if agent := b.session.DefaultAgent(); agent != "" {
		return agent, nil
	}
	return "", fmt.Errorf("no agent given and no default agent available")
}

// agentCompletions lists agent names from the loaded configuration.
func (b *BaseCommand) agentCompletions() []string {
	doc := b.session.Store().Snapshot()
	if doc == nil {
		return nil
	}
	return doc.AgentNames()
}

// hasFlag removes flag from args and reports whether it was present.
func hasFlag(args []string, flag string) ([]string, bool) {
	out := args[:0:0]
	found := false
	for _, a := range args {
		if a == flag {
			found = true
			continue
		}
		out = append(out, a)
	}
	return out, found
}

// filterPrefix returns the candidates starting with prefix.
func filterPrefix(candidates []string, prefix string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}
