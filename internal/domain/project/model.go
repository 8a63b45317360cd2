package project

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultStatus is the label every project starts with.
const DefaultStatus = "In Progress"

// PlaceholderExportSummary is recorded on every generated export.
const PlaceholderExportSummary = "Placeholder export generated (implement real exporters next)."

// Project is a dataset-preparation workflow record.
type Project struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Status        string           `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DataInventory []InventoryItem  `json:"data_inventory"`
	Permissions   Permissions      `json:"permissions"`
	Deid          Deidentification `json:"deid"`
	Metadata      Metadata         `json:"metadata"`
	Repository    RepositoryChoice `json:"repository"`
	Exports       []ExportRecord   `json:"exports"`
}

// InventoryItem records where a piece of raw data lives.
type InventoryItem struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Notes string `json:"notes"`
}

// Permissions holds the ethics questionnaire. A nil answer means Unknown.
type Permissions struct {
	ContainsHumanData *bool  `json:"contains_human_data"`
	IRBRequired       *bool  `json:"irb_required"`
	Notes             string `json:"notes"`
}

// Deidentification holds free-text de-identification notes.
type Deidentification struct {
	Strategy string `json:"strategy"`
	Notes    string `json:"notes"`
}

// Metadata groups project-level and per-sample metadata.
type Metadata struct {
	Project map[string]any `json:"project"`
	Samples []Sample       `json:"samples"`
}

// RepositoryChoice is the target repository selection.
type RepositoryChoice struct {
	Choice *string `json:"choice"`
	Notes  string  `json:"notes"`
}

// ExportRecord is a placeholder export entry.
type ExportRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Summary   string    `json:"summary"`
}

// Summary is the row shown in the project list.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repositories lists the accepted repository choices in display order.
var Repositories = []string{"GEO", "SRA", "ENA", "Zenodo", "dbGaP"}

// New builds a project with generated id, matching timestamps and empty sections.
func New(title, description string, now time.Time) (*Project, error) {
	id, err := newID("prj")
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Project{
		ID:            id,
		Title:         title,
		Description:   description,
		Status:        DefaultStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
		DataInventory: []InventoryItem{},
		Permissions:   Permissions{},
		Deid:          Deidentification{},
		Metadata:      Metadata{Project: map[string]any{}, Samples: []Sample{}},
		Repository:    RepositoryChoice{},
		Exports:       []ExportRecord{},
	}, nil
}

// Summarize returns the list row for p.
func (p *Project) Summarize() Summary {
	return Summary{ID: p.ID, Title: p.Title, Status: p.Status, UpdatedAt: p.UpdatedAt}
}

// Touch stamps UpdatedAt, keeping it strictly increasing even if the clock
// has not moved since the previous save.
func (p *Project) Touch(now time.Time) {
	now = now.UTC()
	if !now.After(p.UpdatedAt) {
		now = p.UpdatedAt.Add(time.Microsecond)
	}
	p.UpdatedAt = now
}

// normalize fills sections that older files may have left null.
func (p *Project) normalize() {
	if p.DataInventory == nil {
		p.DataInventory = []InventoryItem{}
	}
	if p.Metadata.Project == nil {
		p.Metadata.Project = map[string]any{}
	}
	if p.Metadata.Samples == nil {
		p.Metadata.Samples = []Sample{}
	}
	if p.Exports == nil {
		p.Exports = []ExportRecord{}
	}
}

// IDChange records a project renamed by DedupeIDs.
type IDChange struct {
	Old string
	New string
}

// DedupeIDs renames projects whose id repeats an earlier one in the list,
// appending "-2", "-3", ... until the id is free. The first occurrence keeps
// its id. Renaming is deterministic, so repeated loads of the same file agree.
func DedupeIDs(projects []Project) []IDChange {
	taken := make(map[string]bool, len(projects))
	for i := range projects {
		taken[projects[i].ID] = true
	}

	var changes []IDChange
	kept := make(map[string]bool, len(projects))
	for i := range projects {
		id := projects[i].ID
		if !kept[id] {
			kept[id] = true
			continue
		}
		n := 2
		candidate := fmt.Sprintf("%s-%d", id, n)
		for taken[candidate] {
			n++
			candidate = fmt.Sprintf("%s-%d", id, n)
		}
		taken[candidate] = true
		kept[candidate] = true
		projects[i].ID = candidate
		changes = append(changes, IDChange{Old: id, New: candidate})
	}
	return changes
}

// newID returns "<prefix>_<uuidv7>"; the UUIDv7 embeds the creation timestamp.
func newID(prefix string) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating %s id: %w", prefix, err)
	}
	return prefix + "_" + id.String(), nil
}
