// Package testserver runs the full HTTP stack over a temporary data
// directory for tests.
package testserver

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/fairy/internal/domain/project"
	"github.com/ganot/fairy/internal/jsonstore"
	"github.com/ganot/fairy/internal/mcp"
	"github.com/ganot/fairy/internal/transport"
	"github.com/ganot/fairy/internal/web"
)

type TestServer struct {
	Server   *httptest.Server
	Store    *jsonstore.Store
	Projects *project.Service
}

// Options tune the stack under test.
type Options struct {
	MaxUploadBytes int64
}

func New(t *testing.T) *TestServer {
	return NewWithOptions(t, Options{})
}

func NewWithOptions(t *testing.T, opts Options) *TestServer {
	t.Helper()

	store, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)

	projectSvc := project.NewService(store, nil)

	ui, err := web.NewHandler(web.Config{
		Projects:       projectSvc,
		Sessions:       web.NewCookieStore("test-session-secret-0123456789abcdef"),
		MaxUploadBytes: opts.MaxUploadBytes,
	})
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{Projects: projectSvc, TransportMode: "http", MaxCSVBytes: opts.MaxUploadBytes})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(transport.Config{UI: ui, MCP: mcpHandler}))
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		Store:    store,
		Projects: projectSvc,
	}
}

// Client returns an HTTP client that keeps the UI session cookie and follows
// redirects, like a browser.
func (ts *TestServer) Client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// URL joins path onto the server base URL.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}
