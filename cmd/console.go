package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/console"
	yoctx "github.com/yockii/yoctl/internal/context"
	"github.com/yockii/yoctl/pkg/logging"
)

var (
	consoleVerbose        bool
	consoleReconnectDelay time.Duration
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"repl", "shell"},
	Short:   "Start an interactive console",
	Long: `Start an interactive console connected to a YoClaw manager.

The console keeps a chat channel open to the runtime and prints replies as
they arrive. Plain text starting with '>' is sent as a chat message; every
other line is a command. Type 'help' for the list of commands.

Edits made with 'config add|set|delete' are kept locally until 'config save'.

Unless --endpoint, --token or --context is given, the console follows
changes of the current context made with 'yoctl context use' in another
terminal.`,
	Args: cobra.NoArgs,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().BoolVarP(&consoleVerbose, "verbose", "v", false, "Show debug output")
	consoleCmd.Flags().DurationVar(&consoleReconnectDelay, "reconnect-delay", 0, "Delay between chat reconnect attempts (default 3s)")
}

func runConsole(cmd *cobra.Command, args []string) error {
	conn, storage, err := resolveConnection()
	if err != nil {
		return err
	}

	level := logging.LevelInfo
	if flags.Debug || consoleVerbose {
		level = logging.LevelDebug
	}

	c := console.New(console.Options{
		Storage:        storage,
		Connection:     conn,
		Pinned:         isPinned(),
		Verbose:        consoleVerbose || flags.Debug,
		LogLevel:       level,
		ReconnectDelay: consoleReconnectDelay,
	})
	return c.Run(cmd.Context())
}

// isPinned reports whether the connection was chosen explicitly, in which
// case the current context on disk does not move it.
func isPinned() bool {
	return flags.Endpoint != "" || flags.Token != "" || flags.Context != "" || os.Getenv(yoctx.ContextEnvVar) != ""
}
