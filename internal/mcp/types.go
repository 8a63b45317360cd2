package mcp

import "github.com/ganot/fairy/internal/domain/project"

type ListProjectsParams struct{}

type GetProjectParams struct {
	ID string `json:"id" jsonschema:"project id, e.g. prj_..."`
}

type CreateProjectParams struct {
	Title       string `json:"title" jsonschema:"project title, required"`
	Description string `json:"description" jsonschema:"one or two lines about the dataset and study, required"`
}

type UpdateOverviewParams struct {
	ID          string `json:"id" jsonschema:"project id"`
	Title       string `json:"title" jsonschema:"new title"`
	Description string `json:"description" jsonschema:"new description"`
}

type AddInventoryItemParams struct {
	ID    string `json:"id" jsonschema:"project id"`
	Name  string `json:"name" jsonschema:"item name, e.g. FASTQ files (batch A)"`
	Path  string `json:"path" jsonschema:"path or URL where the data lives, e.g. s3://bucket/run1/*.fastq.gz"`
	Notes string `json:"notes,omitempty" jsonschema:"optional notes"`
}

type SetPermissionsParams struct {
	ID                string `json:"id" jsonschema:"project id"`
	ContainsHumanData string `json:"contains_human_data,omitempty" jsonschema:"unknown, no or yes; omitted means unknown"`
	IRBRequired       string `json:"irb_required,omitempty" jsonschema:"unknown, no or yes; omitted means unknown"`
	Notes             string `json:"notes,omitempty" jsonschema:"free-text notes"`
}

type SetDeidentificationParams struct {
	ID       string `json:"id" jsonschema:"project id"`
	Strategy string `json:"strategy,omitempty" jsonschema:"de-identification strategy or approach"`
	Notes    string `json:"notes,omitempty" jsonschema:"free-text notes"`
}

type ImportSamplesCSVParams struct {
	ID  string `json:"id" jsonschema:"project id"`
	CSV string `json:"csv" jsonschema:"samples table as CSV text; the first row is the header"`
}

type SetRepositoryParams struct {
	ID     string `json:"id" jsonschema:"project id"`
	Choice string `json:"choice,omitempty" jsonschema:"GEO, SRA, ENA, Zenodo or dbGaP; empty clears the choice"`
	Notes  string `json:"notes,omitempty" jsonschema:"free-text notes"`
}

type GenerateExportParams struct {
	ID string `json:"id" jsonschema:"project id"`
}

type ListProjectsResponse struct {
	Projects []project.Summary `json:"projects"`
}

type ImportSamplesResponse struct {
	ProjectID string   `json:"project_id"`
	Rows      int      `json:"rows"`
	Columns   []string `json:"columns"`
}

type GenerateExportResponse struct {
	ProjectID string               `json:"project_id"`
	Export    project.ExportRecord `json:"export"`
	Total     int                  `json:"total"`
}
