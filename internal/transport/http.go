package transport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UI registers browser routes.
type UI interface {
	Routes(r chi.Router)
}

// Config wires the HTTP surfaces together.
type Config struct {
	UI     UI
	MCP    http.Handler
	Logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))

	r.Get("/health", handleHealth)
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}
	if cfg.UI != nil {
		cfg.UI.Routes(r)
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
