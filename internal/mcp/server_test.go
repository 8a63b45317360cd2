package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/ganot/fairy/internal/domain/project"
	"github.com/ganot/fairy/internal/jsonstore"
)

func connect(t *testing.T) *sdkmcp.ClientSession {
	return connectWithLimit(t, 0)
}

func connectWithLimit(t *testing.T, maxCSVBytes int64) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	store, err := jsonstore.New(t.TempDir())
	require.NoError(t, err)
	server := NewServer(Config{
		Projects:      project.NewService(store, nil),
		TransportMode: "stdio",
		MaxCSVBytes:   maxCSVBytes,
	})

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = session.Close()
		_ = serverSession.Wait()
	})
	return session
}

func call(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (json.RawMessage, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return json.RawMessage(text.Text), res.IsError
}

func mustCall(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	raw, isErr := call(t, session, name, args)
	require.False(t, isErr, "tool error: %s", raw)
	require.NoError(t, json.Unmarshal(raw, out))
}

func callError(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) APIError {
	t.Helper()
	raw, isErr := call(t, session, name, args)
	require.True(t, isErr, "expected tool error, got %s", raw)
	var apiErr APIError
	require.NoError(t, json.Unmarshal(raw, &apiErr))
	return apiErr
}

func TestTools_Listed(t *testing.T) {
	session := connect(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"list_projects", "get_project", "create_project", "update_overview",
		"add_inventory_item", "set_permissions", "set_deidentification",
		"import_samples_csv", "set_repository", "generate_export",
	}, names)
}

func TestTools_ProjectWorkflow(t *testing.T) {
	session := connect(t)

	var created project.Project
	mustCall(t, session, "create_project", map[string]any{"title": "RNA-seq", "description": "Liver study"}, &created)
	require.Equal(t, "RNA-seq", created.Title)
	require.Equal(t, project.DefaultStatus, created.Status)
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	var list ListProjectsResponse
	mustCall(t, session, "list_projects", nil, &list)
	require.Len(t, list.Projects, 1)
	require.Equal(t, created.ID, list.Projects[0].ID)

	var proj project.Project
	mustCall(t, session, "add_inventory_item", map[string]any{"id": created.ID, "name": "FASTQ", "path": "s3://bucket/run1"}, &proj)
	require.Len(t, proj.DataInventory, 1)
	require.True(t, proj.UpdatedAt.After(created.UpdatedAt))

	mustCall(t, session, "set_permissions", map[string]any{"id": created.ID, "contains_human_data": "yes", "irb_required": "unknown"}, &proj)
	require.NotNil(t, proj.Permissions.ContainsHumanData)
	require.True(t, *proj.Permissions.ContainsHumanData)
	require.Nil(t, proj.Permissions.IRBRequired)

	mustCall(t, session, "set_deidentification", map[string]any{"id": created.ID, "strategy": "drop names"}, &proj)
	require.Equal(t, "drop names", proj.Deid.Strategy)

	var imported ImportSamplesResponse
	mustCall(t, session, "import_samples_csv", map[string]any{"id": created.ID, "csv": "sample,reads\nS1,10\nS2,20\n"}, &imported)
	require.Equal(t, 2, imported.Rows)
	require.Equal(t, []string{"sample", "reads"}, imported.Columns)

	mustCall(t, session, "set_repository", map[string]any{"id": created.ID, "choice": "zenodo"}, &proj)
	require.NotNil(t, proj.Repository.Choice)
	require.Equal(t, "Zenodo", *proj.Repository.Choice)

	var export GenerateExportResponse
	mustCall(t, session, "generate_export", map[string]any{"id": created.ID}, &export)
	require.Equal(t, 1, export.Total)
	require.Equal(t, project.PlaceholderExportSummary, export.Export.Summary)

	mustCall(t, session, "update_overview", map[string]any{"id": created.ID, "title": "RNA-seq v2", "description": "Liver and kidney"}, &proj)
	require.Equal(t, "RNA-seq v2", proj.Title)

	mustCall(t, session, "get_project", map[string]any{"id": created.ID}, &proj)
	require.Equal(t, "RNA-seq v2", proj.Title)
	require.Len(t, proj.Metadata.Samples, 2)
	require.Len(t, proj.Exports, 1)
}

func TestTools_Errors(t *testing.T) {
	session := connect(t)

	apiErr := callError(t, session, "get_project", map[string]any{"id": "prj_missing"})
	require.Equal(t, CodeProjectNotFound, apiErr.Code)

	apiErr = callError(t, session, "create_project", map[string]any{"title": "  ", "description": "x"})
	require.Equal(t, CodeInvalidInput, apiErr.Code)

	var created project.Project
	mustCall(t, session, "create_project", map[string]any{"title": "T", "description": "D"}, &created)

	apiErr = callError(t, session, "import_samples_csv", map[string]any{"id": created.ID, "csv": "a,b\n1,2,3\n"})
	require.Equal(t, CodeInvalidCSV, apiErr.Code)

	apiErr = callError(t, session, "set_repository", map[string]any{"id": created.ID, "choice": "Dropbox"})
	require.Equal(t, CodeInvalidRepository, apiErr.Code)

	apiErr = callError(t, session, "set_permissions", map[string]any{"id": created.ID, "contains_human_data": "maybe"})
	require.Equal(t, CodeInvalidInput, apiErr.Code)

	var proj project.Project
	mustCall(t, session, "get_project", map[string]any{"id": created.ID}, &proj)
	require.Empty(t, proj.Metadata.Samples)
	require.Nil(t, proj.Repository.Choice)
	require.Equal(t, created.UpdatedAt, proj.UpdatedAt)
}

func TestTools_ImportSamplesCSVTooLarge(t *testing.T) {
	session := connectWithLimit(t, 16)

	var created project.Project
	mustCall(t, session, "create_project", map[string]any{"title": "T", "description": "D"}, &created)

	var imported ImportSamplesResponse
	mustCall(t, session, "import_samples_csv", map[string]any{"id": created.ID, "csv": "id\nS1\n"}, &imported)
	require.Equal(t, 1, imported.Rows)

	apiErr := callError(t, session, "import_samples_csv", map[string]any{"id": created.ID, "csv": "id,tissue\nS1,liver\nS2,heart\n"})
	require.Equal(t, CodeInvalidCSV, apiErr.Code)
	require.Contains(t, apiErr.Message, "limit is 16")

	var proj project.Project
	mustCall(t, session, "get_project", map[string]any{"id": created.ID}, &proj)
	require.Len(t, proj.Metadata.Samples, 1)
}

func TestDocsResource(t *testing.T) {
	session := connect(t)

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "fairy://docs/index"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Equal(t, "text/markdown", res.Contents[0].MIMEType)
	require.Contains(t, res.Contents[0].Text, "import_samples_csv")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(context.Canceled))
	require.Equal(t, CodeProjectNotFound, MapError(project.ErrProjectNotFound).Code)
}
