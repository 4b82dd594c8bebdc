package cli

import (
	"os"

	yoctx "github.com/yockii/yoctl/internal/context"
)

// DefaultEndpoint is used when nothing else names a manager.
const DefaultEndpoint = "http://localhost:8080"

// ContextEnvVar is the environment variable name for overriding the current context.
const ContextEnvVar = yoctx.ContextEnvVar

// Connection is a resolved manager endpoint and token.
type Connection struct {
	// Context is the name of the context that supplied the values, if any.
	Context  string
	Endpoint string
	Token    string
	Settings *yoctx.ContextSettings
}

// ResolveConnection resolves the endpoint and token using the precedence
// order:
//  1. explicit values (from --endpoint/--token or their env vars)
//  2. context name (from --context)
//  3. YOCTL_CONTEXT environment variable
//  4. current-context from contexts.yaml
//  5. DefaultEndpoint and no token
//
// Endpoint and token resolve independently, so an explicit endpoint can be
// combined with the token of the selected context. A named context that does
// not exist is an error; an unreadable contexts file is not.
func ResolveConnection(storage *yoctx.Storage, explicitEndpoint, explicitToken, contextName string) (Connection, error) {
	conn := Connection{Endpoint: explicitEndpoint, Token: explicitToken}

	ctx, err := selectContext(storage, contextName)
	if err != nil {
		return Connection{}, err
	}
	if ctx != nil {
		conn.Context = ctx.Name
		conn.Settings = ctx.Settings
		if conn.Endpoint == "" {
			conn.Endpoint = ctx.Endpoint
		}
		if conn.Token == "" {
			conn.Token = ctx.Token
		}
	}

	if conn.Endpoint == "" {
		conn.Endpoint = DefaultEndpoint
	}
	return conn, nil
}

func selectContext(storage *yoctx.Storage, contextName string) (*yoctx.Context, error) {
	name := contextName
	if name == "" {
		name = os.Getenv(ContextEnvVar)
	}

	if storage == nil {
		if name != "" {
			return nil, &yoctx.ContextNotFoundError{Name: name}
		}
		return nil, nil
	}

	if name != "" {
		ctx, err := storage.GetContext(name)
		if err != nil {
			return nil, err
		}
		if ctx == nil {
			return nil, &yoctx.ContextNotFoundError{Name: name}
		}
		return ctx, nil
	}

	// Failing to read the current context falls back to the default.
	ctx, err := storage.GetCurrentContext()
	if err != nil {
		return nil, nil
	}
	return ctx, nil
}
