package mcp

import (
	"context"
	"io"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/fairy/internal/domain/project"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context) ([]project.Summary, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	UpdateOverview(ctx context.Context, req project.OverviewRequest) (*project.Project, error)
	AddInventoryItem(ctx context.Context, req project.InventoryRequest) (*project.Project, error)
	SetPermissions(ctx context.Context, req project.PermissionsRequest) (*project.Project, error)
	SetDeidentification(ctx context.Context, req project.DeidentificationRequest) (*project.Project, error)
	ImportSamples(ctx context.Context, id string, csv io.Reader) (*project.Project, error)
	SetRepository(ctx context.Context, req project.RepositoryRequest) (*project.Project, error)
	GenerateExport(ctx context.Context, id string) (*project.Project, error)
}

// Config contains server configuration.
type Config struct {
	Projects      ProjectService
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger

	// MaxCSVBytes caps the csv text accepted by import_samples_csv.
	// Defaults to 10 MiB.
	MaxCSVBytes int64
}

const defaultMaxCSVBytes = 10 << 20

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	maxCSV := cfg.MaxCSVBytes
	if maxCSV <= 0 {
		maxCSV = defaultMaxCSVBytes
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "fairy",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, cfg.TransportMode, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, cfg.TransportMode, "outbound"))

	registerTools(server, cfg.Projects, maxCSV)

	return server
}
