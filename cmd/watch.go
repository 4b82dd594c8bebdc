package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/status"
	"github.com/yockii/yoctl/pkg/logging"
)

const watchSubsystem = "Watch"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the chat stream without a terminal",
	Long: `Connect to the chat endpoint and print every message and connection
change until stopped. The connection is re-established after failures.

Under systemd (Type=notify) watch reports READY once the first connection
is open and STOPPING on shutdown.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// sdNotify is replaced in tests.
var sdNotify = daemon.SdNotify

func notifySystemd(state string) {
	sent, err := sdNotify(false, state)
	if err != nil {
		logging.Warn(watchSubsystem, "sd_notify %q failed: %v", state, err)
		return
	}
	if sent {
		logging.Debug(watchSubsystem, "sd_notify %q sent", state)
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	conn, _, err := resolveConnection()
	if err != nil {
		return err
	}
	printer, err := newPrinter(conn, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	chat, err := openChat(conn)
	if err != nil {
		return err
	}
	defer chat.Close()
	defer notifySystemd(daemon.SdNotifyStopping)

	logging.Info(watchSubsystem, "Watching %s", conn.Endpoint)
	return followChat(cmd.Context(), chat, printer, watchStateHandler(printer.IsStructured(), printer.Out()))
}

// watchStateHandler prints connection changes and sends READY on the first
// open connection.
func watchStateHandler(structured bool, out io.Writer) func(status.View) {
	notified := false
	return func(v status.View) {
		if !notified && v.Server.Class == status.ClassConnected {
			notified = true
			notifySystemd(daemon.SdNotifyReady)
		}
		if !structured {
			fmt.Fprintf(out, "[%s] %s  %s\n", time.Now().Format("15:04:05"), v.Server.Text, v.Runtime.Text)
		}
	}
}
