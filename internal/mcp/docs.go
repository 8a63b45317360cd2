package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `fairy keeps research dataset-preparation projects. Each project walks through
seven sections: overview, data inventory, permissions & ethics,
de-identification, metadata (sample table), repository choice, export.

Rules of engagement:
1) Orient: list_projects, then get_project(id) for the full record.
2) Create: create_project(title, description); both are required.
3) Edit one section per call: update_overview, add_inventory_item,
   set_permissions, set_deidentification, import_samples_csv, set_repository.
   Every successful edit advances updated_at.
4) generate_export only records a placeholder; no files are produced.

Errors come back as tool errors with a JSON body {code, message}; codes are
PROJECT_NOT_FOUND, INVALID_INPUT, INVALID_CSV, INVALID_REPOSITORY.

Docs: fairy://docs/index
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "fairy://docs/index",
		Name:        "docs_index",
		Title:       "fairy docs index",
		Description: "Project sections, field semantics and tool workflow.",
		Content: `# fairy: Agent Docs Index

## Sections of a project

| Section | Tool | Semantics |
|---|---|---|
| Overview | ` + "`update_overview`" + ` | overwrites title and description |
| Data Inventory | ` + "`add_inventory_item`" + ` | append-only list of {name, path, notes}; records locations, never uploads data |
| Permissions & Ethics | ` + "`set_permissions`" + ` | ` + "`unknown`" + ` is stored as null, ` + "`no`" + ` as false, ` + "`yes`" + ` as true |
| De-identification | ` + "`set_deidentification`" + ` | free text strategy and notes |
| Metadata | ` + "`import_samples_csv`" + ` | replaces the whole sample table |
| Repository | ` + "`set_repository`" + ` | one of GEO, SRA, ENA, Zenodo, dbGaP, or empty to clear |
| Export & Validate | ` + "`generate_export`" + ` | appends a placeholder export record |

## CSV import rules

- The first row is the header. Blank header cells become ` + "`Unnamed: <index>`" + `; repeated names get ` + "`.1`" + `, ` + "`.2`" + ` suffixes.
- Empty cells become null, numbers stay numbers, ` + "`true`/`false`" + ` become booleans, everything else is text.
- A row with more cells than the header is an error; the previous sample table is kept.

## Limitations

- Exports are placeholders; repository submission is not implemented.
- Concurrent writers in different processes are last-write-wins.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
