package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/cli"
)

// InstanceCommand shows and controls the runtime process.
type InstanceCommand struct {
	*BaseCommand
}

// NewInstanceCommand creates a new instance command
func NewInstanceCommand(session Session, output OutputLogger) *InstanceCommand {
	return &InstanceCommand{BaseCommand: NewBaseCommand(session, output)}
}

// Execute shows the instance status, or runs start, stop or restart.
func (i *InstanceCommand) Execute(ctx context.Context, args []string) error {
	client, err := i.managerAPI()
	if err != nil {
		return err
	}

	if len(args) == 0 || args[0] == "status" {
		st, err := client.InstanceStatus(ctx)
		if err != nil {
			return cli.WrapAPIError(err, i.session.Endpoint())
		}
		cli.RenderDetails(i.output.Writer(), "Instance", cli.InstanceFields(st))
		return nil
	}

	action := api.Action(strings.ToLower(args[0]))
	if !action.IsValid() {
		return fmt.Errorf("unknown instance action %q (expected status, start, stop or restart)", args[0])
	}
	if action != api.ActionStart && !i.session.Confirm(fmt.Sprintf("确定要%s运行实例吗？", actionVerb(action))) {
		i.output.Info("cancelled")
		return nil
	}

	msg, err := client.InstanceAction(ctx, action)
	if err != nil {
		return cli.WrapAPIError(err, i.session.Endpoint())
	}
	if msg == "" {
		msg = fmt.Sprintf("instance %s requested", action)
	}
	i.output.Success("%s", msg)
	return nil
}

func actionVerb(a api.Action) string {
	switch a {
	case api.ActionStop:
		return "停止"
	case api.ActionRestart:
		return "重启"
	default:
		return "启动"
	}
}

// Usage returns the usage string
func (i *InstanceCommand) Usage() string {
	return "instance [status|start|stop|restart]"
}

// Description returns the command description
func (i *InstanceCommand) Description() string {
	return "Show or control the runtime process"
}

// Completions returns possible completions
func (i *InstanceCommand) Completions(input string) []string {
	return filterPrefix([]string{"status", "start", "stop", "restart"}, input)
}

// Aliases returns command aliases
func (i *InstanceCommand) Aliases() []string {
	return []string{"inst"}
}
