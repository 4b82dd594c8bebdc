package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/cli"
)

// agentTargets resolves the agents a listing covers: every configured
// agent with --all, otherwise the named or default one.
func (b *BaseCommand) agentTargets(args []string) ([]string, bool, error) {
	args, all := hasFlag(args, "--all")
	args, wide := hasFlag(args, "--wide")
	if all {
		agents := b.agentCompletions()
		if len(agents) == 0 {
			return nil, wide, fmt.Errorf("configuration not loaded, cannot list all agents")
		}
		return agents, wide, nil
	}
	agent, err := b.agentArg(args, 0)
	if err != nil {
		return nil, wide, err
	}
	return []string{agent}, wide, nil
}

// CronCommand lists the scheduled jobs of an agent.
type CronCommand struct {
	*BaseCommand
	now func() time.Time
}

// NewCronCommand creates a new cron command
func NewCronCommand(session Session, output OutputLogger) *CronCommand {
	return &CronCommand{BaseCommand: NewBaseCommand(session, output), now: time.Now}
}

// Execute lists cron jobs.
func (c *CronCommand) Execute(ctx context.Context, args []string) error {
	agents, wide, err := c.agentTargets(args)
	if err != nil {
		return err
	}
	client, err := c.managerAPI()
	if err != nil {
		return err
	}

	groups := make([]cli.AgentCronJobs, 0, len(agents))
	for _, agent := range agents {
		jobs, err := client.ListCronJobs(ctx, agent)
		if err != nil {
			return fmt.Errorf("failed to list cron jobs of %s: %w", agent, cli.WrapAPIError(err, c.session.Endpoint()))
		}
		groups = append(groups, cli.AgentCronJobs{Agent: agent, Jobs: jobs})
	}
	if countCron(groups) == 0 {
		c.output.Info("no cron jobs")
		return nil
	}
	return c.printer(wide).Print(groups, cli.CronJobsTable(groups, c.now()))
}

func countCron(groups []cli.AgentCronJobs) int {
	n := 0
	for _, g := range groups {
		n += len(g.Jobs)
	}
	return n
}

// Usage returns the usage string
func (c *CronCommand) Usage() string {
	return "cron [agent] [--all] [--wide]"
}

// Description returns the command description
func (c *CronCommand) Description() string {
	return "List scheduled jobs of an agent"
}

// Completions returns possible completions
func (c *CronCommand) Completions(input string) []string {
	return filterPrefix(c.agentCompletions(), input)
}

// Aliases returns command aliases
func (c *CronCommand) Aliases() []string {
	return []string{"jobs"}
}

// TasksCommand lists the tasks of an agent.
type TasksCommand struct {
	*BaseCommand
}

// NewTasksCommand creates a new tasks command
func NewTasksCommand(session Session, output OutputLogger) *TasksCommand {
	return &TasksCommand{BaseCommand: NewBaseCommand(session, output)}
}

// Execute lists tasks.
func (t *TasksCommand) Execute(ctx context.Context, args []string) error {
	agents, wide, err := t.agentTargets(args)
	if err != nil {
		return err
	}
	client, err := t.managerAPI()
	if err != nil {
		return err
	}

	groups := make([]cli.AgentTasks, 0, len(agents))
	total := 0
	for _, agent := range agents {
		tasks, err := client.ListTasks(ctx, agent)
		if err != nil {
			return fmt.Errorf("failed to list tasks of %s: %w", agent, cli.WrapAPIError(err, t.session.Endpoint()))
		}
		total += len(tasks)
		groups = append(groups, cli.AgentTasks{Agent: agent, Tasks: tasks})
	}
	if total == 0 {
		t.output.Info("no tasks")
		return nil
	}
	return t.printer(wide).Print(groups, cli.TasksTable(groups))
}

// Usage returns the usage string
func (t *TasksCommand) Usage() string {
	return "tasks [agent] [--all] [--wide]"
}

// Description returns the command description
func (t *TasksCommand) Description() string {
	return "List tasks of an agent"
}

// Completions returns possible completions
func (t *TasksCommand) Completions(input string) []string {
	return filterPrefix(t.agentCompletions(), input)
}

// Aliases returns command aliases
func (t *TasksCommand) Aliases() []string {
	return nil
}

// SessionsCommand lists the chat sessions of an agent, or prints the
// transcript of one of them.
type SessionsCommand struct {
	*BaseCommand
	now func() time.Time
}

// NewSessionsCommand creates a new sessions command
func NewSessionsCommand(session Session, output OutputLogger) *SessionsCommand {
	return &SessionsCommand{BaseCommand: NewBaseCommand(session, output), now: time.Now}
}

// Execute lists sessions, or shows one when a chat ID is given.
func (s *SessionsCommand) Execute(ctx context.Context, args []string) error {
	rest, _ := hasFlag(args, "--wide")
	rest, all := hasFlag(rest, "--all")
	if !all && len(rest) >= 2 {
		return s.transcript(ctx, rest[0], rest[1])
	}

	agents, wide, err := s.agentTargets(args)
	if err != nil {
		return err
	}
	client, err := s.managerAPI()
	if err != nil {
		return err
	}

	groups := make([]cli.AgentSessions, 0, len(agents))
	total := 0
	for _, agent := range agents {
		sessions, err := client.ListSessions(ctx, agent)
		if err != nil {
			return fmt.Errorf("failed to list sessions of %s: %w", agent, cli.WrapAPIError(err, s.session.Endpoint()))
		}
		total += len(sessions)
		groups = append(groups, cli.AgentSessions{Agent: agent, Sessions: sessions})
	}
	if total == 0 {
		s.output.Info("no sessions")
		return nil
	}
	return s.printer(wide).Print(groups, cli.SessionsTable(groups, s.now()))
}

func (s *SessionsCommand) transcript(ctx context.Context, agent, chatID string) error {
	client, err := s.managerAPI()
	if err != nil {
		return err
	}
	sessions, err := client.ListSessions(ctx, agent)
	if err != nil {
		return cli.WrapAPIError(err, s.session.Endpoint())
	}

	var found *api.Session
	for i := range sessions {
		if sessions[i].ChatID == chatID {
			found = &sessions[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("session %q not found for agent %s", chatID, agent)
	}
	for _, line := range cli.SessionTranscript(*found) {
		s.output.OutputLine("%s", line)
	}
	return nil
}

// Usage returns the usage string
func (s *SessionsCommand) Usage() string {
	return "sessions [agent] [chat-id] [--all] [--wide]"
}

// Description returns the command description
func (s *SessionsCommand) Description() string {
	return "List chat sessions of an agent, or show one transcript"
}

// Completions returns possible completions
func (s *SessionsCommand) Completions(input string) []string {
	return filterPrefix(s.agentCompletions(), input)
}

// Aliases returns command aliases
func (s *SessionsCommand) Aliases() []string {
	return []string{"chats"}
}
