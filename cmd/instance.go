package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/cli"
)

// instanceWatchInterval is the polling period of instance status --watch.
var instanceWatchInterval = 5 * time.Second

var (
	instanceWatch bool
	instanceYes   bool
)

var instanceCmd = &cobra.Command{
	Use:     "instance",
	Aliases: []string{"inst"},
	Short:   "Control the YoClaw runtime process",
	Long: `Show the state of the runtime process the manager supervises, and
start, stop or restart it.`,
}

var instanceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the runtime process state",
	Long: `Show whether the runtime is running, its PID and uptime.

With --watch the status is polled every 5 seconds until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runInstanceStatus,
}

func init() {
	rootCmd.AddCommand(instanceCmd)
	instanceCmd.AddCommand(instanceStatusCmd)
	instanceStatusCmd.Flags().BoolVarP(&instanceWatch, "watch", "w", false, "Poll the status until interrupted")

	for _, action := range []api.Action{api.ActionStart, api.ActionStop, api.ActionRestart} {
		c := &cobra.Command{
			Use:   string(action),
			Short: fmt.Sprintf("%s the runtime process", capitalize(string(action))),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInstanceAction(cmd, action)
			},
		}
		if action != api.ActionStart {
			c.Flags().BoolVarP(&instanceYes, "yes", "y", false, "Do not ask for confirmation")
		}
		instanceCmd.AddCommand(c)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func runInstanceStatus(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if !instanceWatch {
		return printInstanceStatus(cmd.Context(), s)
	}

	ticker := time.NewTicker(instanceWatchInterval)
	defer ticker.Stop()
	for {
		if err := printInstanceStatus(cmd.Context(), s); err != nil {
			s.printer.Warn("%v", err)
		}
		select {
		case <-cmd.Context().Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printInstanceStatus(ctx context.Context, s *session) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	st, err := s.client.InstanceStatus(ctx)
	if err != nil {
		return s.wrap(err)
	}
	if s.printer.IsStructured() {
		return s.printer.Print(st, nil)
	}
	cli.RenderDetails(s.printer.Out(), fmt.Sprintf("Instance (%s)", s.conn.Endpoint), cli.InstanceFields(st))
	return nil
}

func runInstanceAction(cmd *cobra.Command, action api.Action) error {
	if !action.IsValid() {
		return fmt.Errorf("invalid action %q", action)
	}
	s, err := newSession(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if action != api.ActionStart && !instanceYes {
		prompt := fmt.Sprintf("%s the runtime at %s?", capitalize(string(action)), s.conn.Endpoint)
		if !confirmAction(cmd.OutOrStdout(), confirmInput, prompt) {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}
	}

	ctx, cancel := requestContext()
	defer cancel()

	stop := s.printer.StartSpinner(fmt.Sprintf("Requesting %s", action))
	msg, err := s.client.InstanceAction(ctx, action)
	stop(err != nil, fmt.Sprintf("%s failed", action))
	if err != nil {
		return s.wrap(err)
	}
	if msg == "" {
		msg = fmt.Sprintf("instance %s requested", action)
	}
	s.printer.Success("%s", msg)
	return nil
}
