package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/fairy/internal/domain/project"
)

func registerTools(server *sdkmcp.Server, projects ProjectService, maxCSVBytes int64) {
	t := &tools{projects: projects, maxCSVBytes: maxCSVBytes}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List all projects, newest first (id, title, status, updated_at)",
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get the full project record: overview, inventory, permissions, de-identification, metadata, repository and exports",
	}, t.getProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Create a new project; title and description are required",
	}, t.createProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_overview",
		Description: "Overwrite a project's title and description",
	}, t.updateOverview)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_inventory_item",
		Description: "Append a data location to the project's inventory; name and path are required",
	}, t.addInventoryItem)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_permissions",
		Description: "Answer the ethics questions (unknown/no/yes) and replace the permissions notes",
	}, t.setPermissions)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_deidentification",
		Description: "Replace the de-identification strategy and notes",
	}, t.setDeidentification)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "import_samples_csv",
		Description: "Replace the project's sample table with the rows of a CSV document",
	}, t.importSamplesCSV)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_repository",
		Description: "Choose the target repository (GEO, SRA, ENA, Zenodo, dbGaP) or clear it",
	}, t.setRepository)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "generate_export",
		Description: "Append a placeholder export record to the project",
	}, t.generateExport)
}

type tools struct {
	projects    ProjectService
	maxCSVBytes int64
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ListProjectsParams) (*sdkmcp.CallToolResult, any, error) {
	summaries, err := t.projects.List(ctx)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(ListProjectsResponse{Projects: summaries})
}

func (t *tools) getProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProjectParams) (*sdkmcp.CallToolResult, any, error) {
	return projectResult(t.projects.Get(ctx, in.ID))
}

func (t *tools) createProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateProjectParams) (*sdkmcp.CallToolResult, any, error) {
	return projectResult(t.projects.Create(ctx, project.CreateRequest{
		Title:       in.Title,
		Description: in.Description,
	}))
}

func (t *tools) updateOverview(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateOverviewParams) (*sdkmcp.CallToolResult, any, error) {
	return projectResult(t.projects.UpdateOverview(ctx, project.OverviewRequest{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
	}))
}

func (t *tools) addInventoryItem(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddInventoryItemParams) (*sdkmcp.CallToolResult, any, error) {
	return projectResult(t.projects.AddInventoryItem(ctx, project.InventoryRequest{
		ID:    in.ID,
		Name:  in.Name,
		Path:  in.Path,
		Notes: in.Notes,
	}))
}

func (t *tools) setPermissions(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetPermissionsParams) (*sdkmcp.CallToolResult, any, error) {
	return projectResult(t.projects.SetPermissions(ctx, project.PermissionsRequest{
		ID:                in.ID,
		ContainsHumanData: in.ContainsHumanData,
		IRBRequired:       in.IRBRequired,
		Notes:             in.Notes,
	}))
}

func (t *tools) setDeidentification(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetDeidentificationParams) (*sdkmcp.CallToolResult, any, error) {
	return projectResult(t.projects.SetDeidentification(ctx, project.DeidentificationRequest{
		ID:       in.ID,
		Strategy: in.Strategy,
		Notes:    in.Notes,
	}))
}

func (t *tools) importSamplesCSV(ctx context.Context, _ *sdkmcp.CallToolRequest, in ImportSamplesCSVParams) (*sdkmcp.CallToolResult, any, error) {
	if int64(len(in.CSV)) > t.maxCSVBytes {
		return errorResult(fmt.Errorf("%w: csv text is %d bytes, limit is %d", project.ErrInvalidCSV, len(in.CSV), t.maxCSVBytes))
	}
	proj, err := t.projects.ImportSamples(ctx, in.ID, strings.NewReader(in.CSV))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(ImportSamplesResponse{
		ProjectID: proj.ID,
		Rows:      len(proj.Metadata.Samples),
		Columns:   sampleColumns(proj.Metadata.Samples),
	})
}

func (t *tools) setRepository(ctx context.Context, _ *sdkmcp.CallToolRequest, in SetRepositoryParams) (*sdkmcp.CallToolResult, any, error) {
	return projectResult(t.projects.SetRepository(ctx, project.RepositoryRequest{
		ID:     in.ID,
		Choice: in.Choice,
		Notes:  in.Notes,
	}))
}

func (t *tools) generateExport(ctx context.Context, _ *sdkmcp.CallToolRequest, in GenerateExportParams) (*sdkmcp.CallToolResult, any, error) {
	proj, err := t.projects.GenerateExport(ctx, in.ID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(GenerateExportResponse{
		ProjectID: proj.ID,
		Export:    proj.Exports[len(proj.Exports)-1],
		Total:     len(proj.Exports),
	})
}

func projectResult(proj *project.Project, err error) (*sdkmcp.CallToolResult, any, error) {
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(proj)
}

func sampleColumns(samples []project.Sample) []string {
	seen := make(map[string]struct{})
	columns := []string{}
	for _, row := range samples {
		for _, key := range row.Keys() {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}
	return columns
}
