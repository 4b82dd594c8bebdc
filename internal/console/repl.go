package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/config"
	"github.com/yockii/yoctl/internal/console/commands"
	yoctx "github.com/yockii/yoctl/internal/context"
	"github.com/yockii/yoctl/internal/editor"
	"github.com/yockii/yoctl/internal/status"
	"github.com/yockii/yoctl/internal/transport"
	"github.com/yockii/yoctl/pkg/logging"
)

const (
	promptPrefixUnicode  = "𝘆"
	promptPrefixASCII    = "y"
	promptChevronUnicode = "»"
	promptChevronASCII   = ">"

	maxContextNameLength = 28

	// commandExecutionTimeout bounds one command, including confirmations.
	commandExecutionTimeout = 5 * time.Minute

	// loadTimeout bounds the configuration fetch done on (re)connect.
	loadTimeout = 15 * time.Second

	historyFileName = "console_history"
)

// Options configures a Console.
type Options struct {
	// Storage is the context store. It may be nil, in which case context
	// switching and watching are disabled.
	Storage *yoctx.Storage

	// Connection is the resolved initial connection.
	Connection cli.Connection

	// Pinned is set when the connection came from --endpoint, --token or
	// --context. A pinned console ignores changes of the current context.
	Pinned bool

	Verbose  bool
	LogLevel logging.LogLevel

	// ReconnectDelay overrides the chat reconnect delay. Zero keeps the
	// transport default.
	ReconnectDelay time.Duration
}

// Console is the interactive session: a chat channel, the configuration
// store and editor, and the command registry, bound to one connection at a
// time.
type Console struct {
	opts       Options
	logger     *Logger
	registry   *commands.Registry
	messages   *MessageLog
	confirmer  editor.Confirmer
	useUnicode bool

	rl    *readline.Instance
	outMu sync.Mutex

	pinned atomic.Bool
	// dirty mirrors the editor state for the prompt, which is also built
	// from the chat goroutine.
	dirty atomic.Bool

	mu        sync.RWMutex
	conn      cli.Connection
	client    *api.Client
	clientErr error
	chat      *transport.Channel
	store     *config.Store
	editor    *editor.Editor
	view      status.View
	unsub     func()

	// pendingSwitch is the context the console moves to before the next
	// command, set when the current context changes on disk.
	pendingSwitch *cli.Connection

	wg sync.WaitGroup
}

var _ commands.Session = (*Console)(nil)

// New creates a console. It does not connect until Run.
func New(opts Options) *Console {
	c := &Console{
		opts:       opts,
		logger:     NewLogger(opts.Verbose),
		registry:   commands.NewRegistry(),
		messages:   NewMessageLog(DefaultMessageLogSize),
		useUnicode: detectUnicodeSupport(),
		conn:       opts.Connection,
		store:      config.NewStore(unavailableRemote{err: errors.New("not connected")}),
		editor:     editor.New(nil),
		view:       status.Project(status.Input{State: transport.Idle}),
	}
	c.confirmer = editor.ConfirmFunc(func(string) bool { return false })
	c.pinned.Store(opts.Pinned)
	c.registerCommands()
	return c
}

func (c *Console) registerCommands() {
	r := c.registry
	r.Register("help", commands.NewHelpCommand(c, c.logger, r))
	r.Register("send", commands.NewSendCommand(c, c.logger))
	r.Register("status", commands.NewStatusCommand(c, c.logger))
	r.Register("config", commands.NewConfigCommand(c, c.logger))
	r.Register("cron", commands.NewCronCommand(c, c.logger))
	r.Register("tasks", commands.NewTasksCommand(c, c.logger))
	r.Register("sessions", commands.NewSessionsCommand(c, c.logger))
	r.Register("instance", commands.NewInstanceCommand(c, c.logger))
	r.Register("log", commands.NewLogCommand(c, c.logger))
	if c.opts.Storage != nil {
		r.Register("context", commands.NewContextCommand(c, c.logger, c.opts.Storage, c.switchContext))
	}
	r.Register("exit", commands.NewExitCommand(c, c.logger))
}

// detectUnicodeSupport checks if the terminal likely supports unicode.
func detectUnicodeSupport() bool {
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	for _, v := range []string{os.Getenv("LANG"), os.Getenv("LC_ALL")} {
		v = strings.ToLower(v)
		if strings.Contains(v, "utf-8") || strings.Contains(v, "utf8") {
			return true
		}
	}
	return !strings.Contains(strings.ToLower(term), "vt100")
}

// Session

func (c *Console) Confirm(prompt string) bool {
	return c.confirmer.Confirm(prompt)
}

func (c *Console) Chat() commands.ChatChannel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.chat == nil {
		return nil
	}
	return c.chat
}

func (c *Console) API() (commands.ManagerAPI, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.client == nil {
		if c.clientErr != nil {
			return nil, c.clientErr
		}
		return nil, api.ErrNoToken
	}
	return c.client, nil
}

func (c *Console) Store() *config.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

func (c *Console) Editor() *editor.Editor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.editor
}

func (c *Console) Messages() commands.MessageHistory {
	return c.messages
}

func (c *Console) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn.Endpoint
}

func (c *Console) ContextName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn.Context
}

// DefaultAgent prefers the context's agent setting, then the agent named
// "default", then the first configured agent.
func (c *Console) DefaultAgent() string {
	c.mu.RLock()
	settings := c.conn.Settings
	store := c.store
	c.mu.RUnlock()

	doc := store.Snapshot()
	if settings != nil && settings.Agent != "" {
		if doc == nil || doc.HasAgent(settings.Agent) {
			return settings.Agent
		}
	}
	if doc == nil {
		return config.DefaultAgentName
	}
	if doc.HasAgent(config.DefaultAgentName) {
		return config.DefaultAgentName
	}
	if names := doc.AgentNames(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// unavailableRemote backs the store when there is no usable API client.
type unavailableRemote struct {
	err error
}

func (u unavailableRemote) GetConfig(context.Context) (*config.Document, error) {
	return nil, u.err
}

func (u unavailableRemote) PutConfig(context.Context, *config.Document) error {
	return u.err
}

// connect replaces the current connection with conn: a new API client, a
// fresh store loaded from the server, and a new chat channel. Unsaved edits
// of the previous connection are dropped.
func (c *Console) connect(ctx context.Context, conn cli.Connection) {
	c.disconnect()

	client, clientErr := api.NewClient(conn.Endpoint, conn.Token)
	var remote config.Remote = unavailableRemote{err: cli.WrapAPIError(clientErr, conn.Endpoint)}
	if clientErr == nil {
		remote = client
	}
	store := config.NewStore(remote)
	ed := editor.New(nil)

	var chat *transport.Channel
	if clientErr == nil {
		wsURL, err := transport.BuildURL(conn.Endpoint, conn.Token)
		if err != nil {
			c.logger.Error("Chat disabled: %v", err)
		} else {
			var opts []transport.Option
			if c.opts.ReconnectDelay > 0 {
				opts = append(opts, transport.WithReconnectDelay(c.opts.ReconnectDelay))
			}
			chat = transport.New(wsURL, opts...)
			chat.OnMessage(c.handleMessage)
			chat.OnStateChange(c.handleStateChange)
		}
	} else {
		c.logger.Warn("%v", cli.WrapAPIError(clientErr, conn.Endpoint))
	}

	c.mu.Lock()
	c.conn = conn
	c.client = client
	c.clientErr = cli.WrapAPIError(clientErr, conn.Endpoint)
	c.store = store
	c.editor = ed
	c.chat = chat
	c.pendingSwitch = nil
	c.dirty.Store(false)
	c.unsub = store.Subscribe(func(doc *config.Document) {
		// Loads run on the console goroutine, so the editor is not in use.
		if !ed.Dirty() {
			ed.Reset(doc)
		}
	})
	c.mu.Unlock()

	c.updatePrompt()
	if chat != nil {
		chat.Connect()
	}

	if clientErr == nil {
		loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()
		if err := store.Load(loadCtx); err != nil {
			c.logger.Warn("Configuration not loaded: %v", cli.WrapAPIError(err, conn.Endpoint))
			c.logger.Info("Run 'config reload' to try again")
		}
	}
}

// disconnect closes the chat channel and detaches the store subscriber.
func (c *Console) disconnect() {
	c.mu.Lock()
	chat := c.chat
	unsub := c.unsub
	c.chat = nil
	c.unsub = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if chat != nil {
		chat.Close()
	}
}

// switchContext reconnects to the named context. It is the context
// command's callback.
func (c *Console) switchContext(ctx context.Context, name string) error {
	conn, err := cli.ResolveConnection(c.opts.Storage, "", "", name)
	if err != nil {
		return err
	}
	if ed := c.Editor(); ed != nil && ed.Dirty() {
		c.logger.Warn("Discarding unsaved configuration edits")
	}
	c.logger.Output("Connecting to %s...\n", conn.Endpoint)
	c.connect(ctx, conn)
	c.pinned.Store(false)
	return nil
}

// onContextFileChange runs on the watcher goroutine. The switch itself is
// deferred to the console goroutine.
func (c *Console) onContextFileChange(cfg *yoctx.ContextConfig) {
	if c.pinned.Load() || cfg == nil {
		return
	}
	conn, err := cli.ResolveConnection(c.opts.Storage, "", "", "")
	if err != nil {
		logging.Warn("Console", "Failed to resolve the current context: %v", err)
		return
	}

	c.mu.Lock()
	same := conn.Context == c.conn.Context && conn.Endpoint == c.conn.Endpoint && conn.Token == c.conn.Token
	if same {
		c.pendingSwitch = nil
	} else {
		c.pendingSwitch = &conn
	}
	c.mu.Unlock()

	if !same {
		name := conn.Context
		if name == "" {
			name = conn.Endpoint
		}
		c.printAbove(colorWarn.Sprintf("Current context changed to %s, the console switches before the next command", name))
	}
}

// applyPendingSwitch moves to the context picked up by the watcher.
func (c *Console) applyPendingSwitch(ctx context.Context) {
	c.mu.Lock()
	pending := c.pendingSwitch
	c.pendingSwitch = nil
	c.mu.Unlock()
	if pending == nil {
		return
	}

	if ed := c.Editor(); ed != nil && ed.Dirty() {
		c.logger.Warn("Discarding unsaved configuration edits")
	}
	c.logger.Info("Switching to %s (%s)", pending.Context, pending.Endpoint)
	c.connect(ctx, *pending)
}

func (c *Console) handleMessage(msg transport.Message) {
	now := time.Now()
	switch m := msg.(type) {
	case transport.AssistantReply:
		c.messages.Append("assistant", m.Content, now)
		c.printAbove(colorRole.Sprint("assistant") + ": " + m.Content)
	case transport.RelayedMessage:
		c.messages.Append(m.Role, m.Content, now)
		c.printAbove(colorRole.Sprint(m.Role) + ": " + m.Content)
	case transport.RuntimeStatus:
		// readiness arrives through the state handler
	case transport.Unknown:
		logging.Debug("Console", "Ignoring unknown frame (%d bytes)", len(m.Raw))
	}
}

func (c *Console) handleStateChange(state transport.State, ready bool) {
	view := status.Project(status.Input{State: state, Ready: ready})

	c.mu.Lock()
	prev := c.view
	c.view = view
	c.mu.Unlock()

	if prev.Server != view.Server {
		c.printAbove(colorIndicator(view.Server))
	}
	if prev.Runtime != view.Runtime {
		c.printAbove(colorIndicator(view.Runtime))
	}
	c.updatePrompt()
}

func colorIndicator(ind status.Indicator) string {
	switch ind.Class {
	case status.ClassConnected:
		return colorSuccess.Sprint(ind.Text)
	case status.ClassConnecting:
		return colorWarn.Sprint(ind.Text)
	default:
		return colorError.Sprint(ind.Text)
	}
}

// printAbove writes a line above the prompt without corrupting the input
// being edited.
func (c *Console) printAbove(line string) {
	c.outMu.Lock()
	defer c.outMu.Unlock()

	if c.rl == nil {
		fmt.Fprintln(c.logger.Writer(), line)
		return
	}
	w := c.rl.Stdout()
	fmt.Fprint(w, "\r\033[K")
	fmt.Fprintln(w, line)
	c.rl.Refresh()
}

// buildPrompt renders e.g. "𝘆 prod [OFFLINE] » ".
func (c *Console) buildPrompt() string {
	c.mu.RLock()
	name := c.conn.Context
	tag := c.view.PromptTag()
	c.mu.RUnlock()
	dirty := c.dirty.Load()

	prefix, chevron := promptPrefixASCII, promptChevronASCII
	if c.useUnicode {
		prefix, chevron = promptPrefixUnicode, promptChevronUnicode
	}

	parts := []string{prefix}
	if name != "" {
		parts = append(parts, truncateContextName(name))
	}
	if dirty {
		parts = append(parts, "*")
	}
	if tag != "" {
		parts = append(parts, tag)
	}
	parts = append(parts, chevron)
	return strings.Join(parts, " ") + " "
}

// truncateContextName keeps the start and end of long names.
func truncateContextName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxContextNameLength {
		return name
	}
	const ellipsis = "..."
	available := maxContextNameLength - len(ellipsis)
	startLen := (available * 3) / 5
	endLen := available - startLen
	return string(runes[:startLen]) + ellipsis + string(runes[len(runes)-endLen:])
}

func (c *Console) updatePrompt() {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	if c.rl != nil {
		c.rl.SetPrompt(c.buildPrompt())
		c.rl.Refresh()
	}
}

// executeCommand parses and runs one input line. A line starting with ">"
// is sent as a chat message.
func (c *Console) executeCommand(ctx context.Context, input string) error {
	if rest, ok := strings.CutPrefix(input, ">"); ok {
		input = "send " + rest
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command, exists := c.registry.Get(strings.ToLower(parts[0]))
	if !exists {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands, or '> message' to chat", parts[0])
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandExecutionTimeout)
	defer cancel()
	return command.Execute(cmdCtx, parts[1:])
}

// Run connects, starts the context watcher and processes input until exit,
// Ctrl+D or cancellation of ctx.
func (c *Console) Run(ctx context.Context) error {
	logs := logging.InitForREPL(c.opts.LogLevel)

	historyFile := filepath.Join(os.TempDir(), ".yoctl_"+historyFileName)
	if c.opts.Storage != nil {
		historyFile = filepath.Join(c.opts.Storage.Dir(), historyFileName)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:              c.buildPrompt(),
		HistoryFile:         historyFile,
		AutoComplete:        &registryCompleter{registry: c.registry},
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer func() {
		logging.CloseREPLChannel()
		c.wg.Wait()
	}()
	defer func() {
		c.outMu.Lock()
		c.rl = nil
		c.outMu.Unlock()
		c.logger.SetWriter(os.Stdout)
		rl.Close()
	}()
	c.rl = rl
	c.logger.SetWriter(rl.Stdout())
	c.confirmer = &lineConfirmer{rl: rl, prompt: c.buildPrompt}

	c.wg.Add(1)
	go c.forwardLogs(logs)

	c.connect(ctx, c.conn)
	defer c.disconnect()

	if c.opts.Storage != nil {
		watcher := yoctx.NewWatcher(c.opts.Storage, c.onContextFileChange)
		if err := watcher.Start(); err != nil {
			c.logger.Debug("Context watcher disabled: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()

	c.logger.Info("Console connected to %s. Type 'help' for commands, '> message' to chat. Use TAB for completion.", c.Endpoint())

	for {
		if ctx.Err() != nil {
			c.logger.Info("Console shutting down...")
			return nil
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			c.logger.Info("Goodbye!")
			return nil
		} else if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		c.applyPendingSwitch(ctx)
		if err := c.executeCommand(ctx, input); err != nil {
			if errors.Is(err, commands.ErrExit) {
				c.logger.Info("Goodbye!")
				return nil
			}
			c.logger.Error("Error: %v", err)
		}
		c.dirty.Store(c.Editor().Dirty())
		c.updatePrompt()
	}
}

// forwardLogs prints log entries above the prompt until the channel closes.
func (c *Console) forwardLogs(logs <-chan logging.LogEntry) {
	defer c.wg.Done()
	for entry := range logs {
		line := entry.Line()
		switch entry.Level {
		case logging.LevelError:
			line = colorError.Sprint(line)
		case logging.LevelWarn:
			line = colorWarn.Sprint(line)
		default:
			line = colorDebug.Sprint(line)
		}
		c.printAbove(line)
	}
}
