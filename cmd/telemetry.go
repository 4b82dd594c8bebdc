package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/cli"
)

// maxConcurrentFetches bounds the per-agent requests of --all-agents.
const maxConcurrentFetches = 4

var (
	telemetryAllAgents bool
	telemetryNow       = time.Now
)

var cronCmd = &cobra.Command{
	Use:     "cron",
	Aliases: []string{"jobs"},
	Short:   "Inspect scheduled jobs",
}

var cronListCmd = &cobra.Command{
	Use:     "list [agent...]",
	Aliases: []string{"ls"},
	Short:   "List the cron jobs of agents",
	Long: `List the cron jobs of the named agents, of every agent with
--all-agents, or of the default agent.

The next run is computed from the schedule when the manager does not report
one. Jobs that are not running have no next run.`,
	RunE: runCronList,
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect background tasks",
}

var tasksListCmd = &cobra.Command{
	Use:     "list [agent...]",
	Aliases: []string{"ls"},
	Short:   "List the background tasks of agents",
	RunE:    runTasksList,
}

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"chats"},
	Short:   "Inspect chat sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:     "list [agent...]",
	Aliases: []string{"ls"},
	Short:   "List the chat sessions of agents",
	RunE:    runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <agent> <chat-id>",
	Short: "Print the transcript of one session",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionsShow,
}

func init() {
	rootCmd.AddCommand(cronCmd, tasksCmd, sessionsCmd)
	cronCmd.AddCommand(cronListCmd)
	tasksCmd.AddCommand(tasksListCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd)

	for _, c := range []*cobra.Command{cronListCmd, tasksListCmd, sessionsListCmd} {
		c.Flags().BoolVarP(&telemetryAllAgents, "all-agents", "A", false, "List every configured agent")
	}
}

// targetAgents resolves the agents a listing covers.
func (s *session) targetAgents(args []string) ([]string, error) {
	if telemetryAllAgents {
		if len(args) > 0 {
			return nil, fmt.Errorf("--all-agents cannot be combined with agent names")
		}
		store, err := s.loadStore()
		if err != nil {
			return nil, err
		}
		agents := store.Snapshot().AgentNames()
		if len(agents) == 0 {
			return nil, fmt.Errorf("no agents configured")
		}
		return agents, nil
	}
	if len(args) > 0 {
		return args, nil
	}
	return []string{s.defaultAgent()}, nil
}

// fetchPerAgent runs fetch for every agent concurrently and returns the
// results in agent order. The first failure cancels the rest.
func fetchPerAgent[T any](ctx context.Context, agents []string, fetch func(context.Context, string) (T, error)) ([]T, error) {
	results := make([]T, len(agents))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i, agent := range agents {
		g.Go(func() error {
			res, err := fetch(gctx, agent)
			if err != nil {
				return fmt.Errorf("agent %s: %w", agent, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// listPerAgent is the shared body of the list commands.
func listPerAgent[T any](cmd *cobra.Command, args []string, what string, fetch func(*api.Client, context.Context, string) (T, error), count func([]T) int, render func(*session, []T) error) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	agents, err := s.targetAgents(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	stop := s.printer.StartSpinner(fmt.Sprintf("Fetching %s", what))
	results, err := fetchPerAgent(ctx, agents, func(ctx context.Context, agent string) (T, error) {
		return fetch(s.client, ctx, agent)
	})
	stop(err != nil, fmt.Sprintf("failed to fetch %s", what))
	if err != nil {
		return s.wrap(err)
	}

	if count(results) == 0 && !s.printer.IsStructured() {
		if !flags.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s found.\n", what)
		}
		return nil
	}
	return render(s, results)
}

func runCronList(cmd *cobra.Command, args []string) error {
	return listPerAgent(cmd, args, "cron jobs",
		func(c *api.Client, ctx context.Context, agent string) (cli.AgentCronJobs, error) {
			jobs, err := c.ListCronJobs(ctx, agent)
			return cli.AgentCronJobs{Agent: agent, Jobs: jobs}, err
		},
		func(groups []cli.AgentCronJobs) int {
			n := 0
			for _, g := range groups {
				n += len(g.Jobs)
			}
			return n
		},
		func(s *session, groups []cli.AgentCronJobs) error {
			return s.printer.Print(groups, cli.CronJobsTable(groups, telemetryNow()))
		})
}

func runTasksList(cmd *cobra.Command, args []string) error {
	return listPerAgent(cmd, args, "tasks",
		func(c *api.Client, ctx context.Context, agent string) (cli.AgentTasks, error) {
			tasks, err := c.ListTasks(ctx, agent)
			return cli.AgentTasks{Agent: agent, Tasks: tasks}, err
		},
		func(groups []cli.AgentTasks) int {
			n := 0
			for _, g := range groups {
				n += len(g.Tasks)
			}
			return n
		},
		func(s *session, groups []cli.AgentTasks) error {
			return s.printer.Print(groups, cli.TasksTable(groups))
		})
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	return listPerAgent(cmd, args, "sessions",
		func(c *api.Client, ctx context.Context, agent string) (cli.AgentSessions, error) {
			sessions, err := c.ListSessions(ctx, agent)
			return cli.AgentSessions{Agent: agent, Sessions: sessions}, err
		},
		func(groups []cli.AgentSessions) int {
			n := 0
			for _, g := range groups {
				n += len(g.Sessions)
			}
			return n
		},
		func(s *session, groups []cli.AgentSessions) error {
			return s.printer.Print(groups, cli.SessionsTable(groups, telemetryNow()))
		})
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	agent, chatID := args[0], args[1]
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()
	sessions, err := s.client.ListSessions(ctx, agent)
	if err != nil {
		return s.wrap(err)
	}

	for _, sess := range sessions {
		if sess.ChatID != chatID {
			continue
		}
		if s.printer.IsStructured() {
			return s.printer.Print(sess, nil)
		}
		out := cmd.OutOrStdout()
		for _, line := range cli.SessionTranscript(sess) {
			fmt.Fprintln(out, line)
		}
		return nil
	}
	return fmt.Errorf("session %q of agent %s not found", chatID, agent)
}
