package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/status"
	"github.com/yockii/yoctl/internal/transport"
	"github.com/yockii/yoctl/pkg/logging"
)

const chatSubsystem = "Chat"

var (
	chatFollow  bool
	chatTimeout time.Duration
)

// errNoReply is returned when the runtime does not answer in time.
var errNoReply = errors.New("no reply from the runtime")

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a chat message to the runtime",
	Long: `Send one chat message to the YoClaw runtime and print its reply.

With --follow, chat keeps the connection open and prints every message
until interrupted. A message is optional with --follow.

Examples:
  yoctl chat "summarize today's tasks"
  yoctl chat --follow
  yoctl chat "hello" --follow -o json`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVarP(&chatFollow, "follow", "f", false, "Keep printing messages until interrupted")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 2*time.Minute, "How long to wait for the connection and for a reply")
}

// chatEntry is the structured form of one printed message.
type chatEntry struct {
	Time    time.Time `json:"time"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
}

// chatSession is an open chat channel with its inbound messages queued.
type chatSession struct {
	channel  *transport.Channel
	messages chan transport.Message
	changes  chan status.View
}

// openChat connects to the chat endpoint of conn. Messages and state
// changes are queued for the caller. When the caller falls behind, new
// messages are dropped with a warning and old state changes are discarded
// in favour of the latest one.
func openChat(conn cli.Connection) (*chatSession, error) {
	if conn.Token == "" {
		return nil, &cli.AuthRequiredError{Endpoint: conn.Endpoint}
	}
	url, err := transport.BuildURL(conn.Endpoint, conn.Token)
	if err != nil {
		return nil, err
	}

	s := &chatSession{
		channel:  transport.New(url),
		messages: make(chan transport.Message, 64),
		changes:  make(chan status.View, 16),
	}
	s.channel.OnMessage(func(msg transport.Message) {
		select {
		case s.messages <- msg:
		default:
			logging.Warn(chatSubsystem, "Dropping inbound message, output is too slow")
		}
	})
	s.channel.OnStateChange(func(state transport.State, ready bool) {
		pushLatest(s.changes, status.Project(status.Input{State: state, Ready: ready}))
	})
	s.channel.Connect()
	return s, nil
}

// pushLatest queues v, discarding the oldest queued views while the queue is
// full so the newest state is never lost.
func pushLatest(q chan status.View, v status.View) {
	for {
		select {
		case q <- v:
			return
		default:
		}
		select {
		case <-q:
		default:
		}
	}
}

// waitReady blocks until sending is possible.
func (s *chatSession) waitReady(ctx context.Context, timeout time.Duration) error {
	if status.Observe(s.channel).SendEnabled {
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			v := status.Observe(s.channel)
			if v.SendEnabled {
				return nil
			}
			return fmt.Errorf("%w (%s)", transport.ErrUnavailable, v.PromptTag())
		case v := <-s.changes:
			if v.SendEnabled {
				return nil
			}
		}
	}
}

func (s *chatSession) Close() {
	s.channel.Close()
}

func runChat(cmd *cobra.Command, args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" && !chatFollow {
		return fmt.Errorf("a message is required unless --follow is given")
	}

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

	ctx := cmd.Context()
	if message != "" {
		stop := printer.StartSpinner(fmt.Sprintf("Connecting to %s", conn.Endpoint))
		err := chat.waitReady(ctx, chatTimeout)
		stop(err != nil, "chat unavailable")
		if err != nil {
			return err
		}
		if err := chat.channel.Send(message); err != nil {
			return err
		}
	}

	if chatFollow {
		return followChat(ctx, chat, printer, nil)
	}
	return awaitReply(ctx, chat, printer, chatTimeout)
}

// awaitReply prints the first assistant reply. Messages relayed from other
// clients in the meantime are printed too.
func awaitReply(ctx context.Context, chat *chatSession, printer *cli.Printer, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("%w within %s", errNoReply, timeout)
		case v := <-chat.changes:
			if !v.SendEnabled && v.Server.Class != status.ClassConnecting {
				logging.Warn(chatSubsystem, "%s, %s", v.Server.Text, v.Runtime.Text)
			}
		case msg := <-chat.messages:
			done, err := printChatMessage(printer, msg)
			if err != nil || done {
				return err
			}
		}
	}
}

// followChat prints messages until ctx ends. onChange, if set, sees every
// connection change.
func followChat(ctx context.Context, chat *chatSession, printer *cli.Printer, onChange func(status.View)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-chat.changes:
			if onChange != nil {
				onChange(v)
			}
		case msg := <-chat.messages:
			if _, err := printChatMessage(printer, msg); err != nil {
				return err
			}
		}
	}
}

// printChatMessage prints msg and reports whether it was an assistant reply.
// Runtime status frames and unknown frames are only logged.
func printChatMessage(printer *cli.Printer, msg transport.Message) (bool, error) {
	var entry chatEntry
	switch m := msg.(type) {
	case transport.AssistantReply:
		entry = chatEntry{Role: "assistant", Content: m.Content}
	case transport.RelayedMessage:
		entry = chatEntry{Role: m.Role, Content: m.Content}
	case transport.RuntimeStatus:
		logging.Debug(chatSubsystem, "Runtime status: %s", m.Status)
		return false, nil
	default:
		logging.Debug(chatSubsystem, "Ignoring unrecognized frame")
		return false, nil
	}
	entry.Time = time.Now()

	if printer.IsStructured() {
		return entry.Role == "assistant", printer.Print(entry, nil)
	}
	writeChatLine(printer.Out(), entry)
	return entry.Role == "assistant", nil
}

func writeChatLine(w io.Writer, e chatEntry) {
	if e.Role == "assistant" {
		fmt.Fprintln(w, e.Content)
		return
	}
	fmt.Fprintf(w, "%s: %s\n", e.Role, e.Content)
}
