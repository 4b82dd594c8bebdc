package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yockii/yoctl/internal/api"
	"github.com/yockii/yoctl/internal/cli"
	"github.com/yockii/yoctl/internal/config"
	yoctx "github.com/yockii/yoctl/internal/context"
	"github.com/yockii/yoctl/internal/editor"
)

// requestTimeout bounds the calls one command makes to the manager.
const requestTimeout = 30 * time.Second

var (
	// newContextStorage is replaced in tests.
	newContextStorage = yoctx.NewStorage

	// confirmInput is where y/N answers are read from.
	confirmInput io.Reader = os.Stdin
)

// resolveConnection applies the flag, environment and context precedence.
// An unusable contexts directory only disables contexts.
func resolveConnection() (cli.Connection, *yoctx.Storage, error) {
	storage, err := newContextStorage()
	if err != nil {
		storage = nil
	}
	conn, err := cli.ResolveConnection(storage, flags.Endpoint, flags.Token, flags.Context)
	if err != nil {
		return cli.Connection{}, storage, err
	}
	return conn, storage, nil
}

// session is what a manager command needs: the resolved connection, a
// client for it and a printer honoring the output flags.
type session struct {
	conn    cli.Connection
	client  *api.Client
	printer *cli.Printer
}

// newSession resolves the connection and builds the client and printer.
func newSession(out io.Writer) (*session, error) {
	conn, _, err := resolveConnection()
	if err != nil {
		return nil, err
	}

	printer, err := newPrinter(conn, out)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(conn.Endpoint, conn.Token)
	if err != nil {
		return nil, cli.WrapAPIError(err, conn.Endpoint)
	}
	return &session{conn: conn, client: client, printer: printer}, nil
}

func newPrinter(conn cli.Connection, out io.Writer) (*cli.Printer, error) {
	var contextDefault string
	if conn.Settings != nil {
		contextDefault = conn.Settings.Output
	}
	opts, err := flags.PrinterOptions(contextDefault)
	if err != nil {
		return nil, err
	}
	return cli.NewPrinter(opts, out), nil
}

// wrap translates client errors for the session's endpoint.
func (s *session) wrap(err error) error {
	return cli.WrapAPIError(err, s.conn.Endpoint)
}

// defaultAgent is the agent a command uses when none is named.
func (s *session) defaultAgent() string {
	if s.conn.Settings != nil && s.conn.Settings.Agent != "" {
		return s.conn.Settings.Agent
	}
	return config.DefaultAgentName
}

// requestContext detaches from cmd's context so an in-flight write is not
// abandoned half way; it only bounds the call.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// loadStore fetches the configuration into a new store.
func (s *session) loadStore() (*config.Store, error) {
	store := config.NewStore(s.client)
	ctx, cancel := requestContext()
	defer cancel()

	stop := s.printer.StartSpinner(fmt.Sprintf("Loading configuration from %s", s.conn.Endpoint))
	err := store.Load(ctx)
	stop(err != nil, "failed to load configuration")
	if err != nil {
		return nil, s.wrap(err)
	}
	return store, nil
}

// save writes doc through store.
func (s *session) save(store *config.Store, doc *config.Document, success string) error {
	ctx, cancel := requestContext()
	defer cancel()

	stop := s.printer.StartSpinner("Saving configuration")
	return s.finishSave(stop, store.Save(ctx, doc), success)
}

// commit validates and saves the edits of ed.
func (s *session) commit(store *config.Store, ed *editor.Editor, success string) error {
	ctx, cancel := requestContext()
	defer cancel()

	stop := s.printer.StartSpinner("Saving configuration")
	return s.finishSave(stop, ed.Commit(ctx, store), success)
}

// finishSave reports the outcome of a save. A failed reload after a
// successful write is only a warning.
func (s *session) finishSave(stop func(bool, string), err error, success string) error {
	var reloadErr *config.ReloadError
	var errs config.ValidationErrors
	switch {
	case err == nil:
		stop(false, "")
		s.printer.Success("%s", success)
		return nil
	case errors.As(err, &reloadErr):
		stop(false, "")
		s.printer.Success("%s", success)
		s.printer.Warn("%v", err)
		return nil
	case errors.As(err, &errs):
		stop(true, "configuration is invalid")
		return &cli.ValidationError{Reason: errs}
	default:
		stop(true, "save failed")
		return s.wrap(err)
	}
}
