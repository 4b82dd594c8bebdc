package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/pkg/logging"
)

// flags holds the persistent flag values shared by every command.
var flags cli.CommandFlags

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "yoctl",
	Short: "Manage and chat with a YoClaw runtime",
	Long: `yoctl talks to a YoClaw manager: it edits the runtime configuration
(agents, providers, channels and skills), chats with the runtime over its
websocket, and inspects cron jobs, tasks and chat sessions.

Run 'yoctl console' for an interactive session, or use the subcommands
for scripting. Connections are selected with --endpoint/--token or with
named contexts (see 'yoctl context').`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage:      true,
	PersistentPreRunE: setupCommand,
}

// setupCommand loads .env, applies environment defaults and configures
// logging before any subcommand runs.
func setupCommand(cmd *cobra.Command, args []string) error {
	// a missing .env is fine
	_ = godotenv.Load()
	flags.ApplyEnvDefaults()

	level := logging.LevelWarn
	if flags.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())
	return nil
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application. SIGINT and
// SIGTERM cancel the command's context. It exits with the code
// cli.ExitCode assigns to the returned error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "yoctl version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(cli.ExitCode(err))
	}
}

// printError adds the suggestions of a configuration file error to the
// message cobra already printed.
func printError(w io.Writer, err error) {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) && len(cfgErr.Suggestions) > 0 {
		fmt.Fprintln(w, cfgErr.DetailedError())
	}
}

func init() {
	cli.RegisterCommonFlags(rootCmd, &flags)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
