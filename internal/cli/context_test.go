package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	yoctx "github.com/yockii/yoctl/internal/context"
)

func newTestStorage(t *testing.T) *yoctx.Storage {
	t.Helper()
	storage := yoctx.NewStorageWithPath(t.TempDir())
	require.NoError(t, storage.AddContext(yoctx.Context{Name: "home", Endpoint: "http://home:8080", Token: "home-token"}))
	require.NoError(t, storage.AddContext(yoctx.Context{
		Name:     "lab",
		Endpoint: "https://lab.example.com",
		Token:    "lab-token",
		Settings: &yoctx.ContextSettings{Output: "json"},
	}))
	require.NoError(t, storage.SetCurrentContext("home"))
	return storage
}

func TestResolveConnection(t *testing.T) {
	storage := newTestStorage(t)

	tests := []struct {
		name         string
		endpoint     string
		token        string
		contextName  string
		envContext   string
		wantEndpoint string
		wantToken    string
		wantContext  string
	}{
		{
			name:         "current context",
			wantEndpoint: "http://home:8080",
			wantToken:    "home-token",
			wantContext:  "home",
		},
		{
			name:         "explicit values win",
			endpoint:     "http://flag:9000",
			token:        "flag-token",
			wantEndpoint: "http://flag:9000",
			wantToken:    "flag-token",
			wantContext:  "home",
		},
		{
			name:         "explicit endpoint keeps context token",
			endpoint:     "http://flag:9000",
			wantEndpoint: "http://flag:9000",
			wantToken:    "home-token",
			wantContext:  "home",
		},
		{
			name:         "context flag beats env",
			contextName:  "lab",
			envContext:   "home",
			wantEndpoint: "https://lab.example.com",
			wantToken:    "lab-token",
			wantContext:  "lab",
		},
		{
			name:         "env beats current",
			envContext:   "lab",
			wantEndpoint: "https://lab.example.com",
			wantToken:    "lab-token",
			wantContext:  "lab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ContextEnvVar, tt.envContext)

			conn, err := ResolveConnection(storage, tt.endpoint, tt.token, tt.contextName)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEndpoint, conn.Endpoint)
			assert.Equal(t, tt.wantToken, conn.Token)
			assert.Equal(t, tt.wantContext, conn.Context)
		})
	}
}

func TestResolveConnection_Settings(t *testing.T) {
	t.Setenv(ContextEnvVar, "")
	conn, err := ResolveConnection(newTestStorage(t), "", "", "lab")
	require.NoError(t, err)
	require.NotNil(t, conn.Settings)
	assert.Equal(t, "json", conn.Settings.Output)
}

func TestResolveConnection_Defaults(t *testing.T) {
	t.Setenv(ContextEnvVar, "")

	conn, err := ResolveConnection(yoctx.NewStorageWithPath(t.TempDir()), "", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, conn.Endpoint)
	assert.Empty(t, conn.Token)
	assert.Empty(t, conn.Context)

	conn, err = ResolveConnection(nil, "", "tok", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultEndpoint, conn.Endpoint)
	assert.Equal(t, "tok", conn.Token)
}

func TestResolveConnection_UnknownContext(t *testing.T) {
	t.Setenv(ContextEnvVar, "")

	_, err := ResolveConnection(newTestStorage(t), "", "", "missing")
	var notFound *yoctx.ContextNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)

	t.Setenv(ContextEnvVar, "ghost")
	_, err = ResolveConnection(newTestStorage(t), "", "", "")
	assert.ErrorAs(t, err, &notFound)
}
