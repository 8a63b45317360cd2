package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Service handles project operations. Each mutation reloads the full list,
// changes one project and writes the full list back.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time

	// mu serializes load-mutate-save cycles within this process.
	mu sync.Mutex
}

// NewService creates a new project service.
func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Title       string
	Description string
}

// OverviewRequest edits the project title and description.
type OverviewRequest struct {
	ID          string
	Title       string
	Description string
}

// InventoryRequest appends a data inventory entry.
type InventoryRequest struct {
	ID    string
	Name  string
	Path  string
	Notes string
}

// PermissionsRequest answers the ethics questions with unknown/no/yes labels.
type PermissionsRequest struct {
	ID                string
	ContainsHumanData string
	IRBRequired       string
	Notes             string
}

// DeidentificationRequest stores de-identification notes.
type DeidentificationRequest struct {
	ID       string
	Strategy string
	Notes    string
}

// RepositoryRequest selects the target repository; an empty choice unsets it.
type RepositoryRequest struct {
	ID     string
	Choice string
	Notes  string
}

// Create creates a new project and puts it at the front of the list.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if err := ValidateCreateInput(req.Title, req.Description); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	proj, err := New(strings.TrimSpace(req.Title), strings.TrimSpace(req.Description), s.now())
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if indexOf(projects, proj.ID) >= 0 {
		return nil, fmt.Errorf("creating project: duplicate id %s", proj.ID)
	}

	projects = append([]Project{*proj}, projects...)
	if err := s.repo.Save(ctx, projects); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	s.logger.Info("project created", "project_id", proj.ID)
	return proj, nil
}

// List returns project summaries, newest first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(projects))
	for i := range projects {
		summaries = append(summaries, projects[i].Summarize())
	}
	return summaries, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	projects, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(projects, id)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}
	proj := projects[idx]
	return &proj, nil
}

// UpdateOverview overwrites title and description.
func (s *Service) UpdateOverview(ctx context.Context, req OverviewRequest) (*Project, error) {
	return s.mutate(ctx, req.ID, "overview", func(p *Project) error {
		p.Title = strings.TrimSpace(req.Title)
		p.Description = strings.TrimSpace(req.Description)
		return nil
	})
}

// AddInventoryItem appends one entry to the data inventory.
func (s *Service) AddInventoryItem(ctx context.Context, req InventoryRequest) (*Project, error) {
	if err := ValidateInventoryInput(req.Name, req.Path); err != nil {
		return nil, err
	}
	return s.mutate(ctx, req.ID, "inventory", func(p *Project) error {
		p.DataInventory = append(p.DataInventory, InventoryItem{
			Name:  strings.TrimSpace(req.Name),
			Path:  strings.TrimSpace(req.Path),
			Notes: strings.TrimSpace(req.Notes),
		})
		return nil
	})
}

// SetPermissions replaces the permissions answers.
func (s *Service) SetPermissions(ctx context.Context, req PermissionsRequest) (*Project, error) {
	containsHuman, err := ParseAnswer(req.ContainsHumanData)
	if err != nil {
		return nil, err
	}
	irb, err := ParseAnswer(req.IRBRequired)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, req.ID, "permissions", func(p *Project) error {
		p.Permissions = Permissions{
			ContainsHumanData: containsHuman,
			IRBRequired:       irb,
			Notes:             strings.TrimSpace(req.Notes),
		}
		return nil
	})
}

// SetDeidentification replaces the de-identification notes.
func (s *Service) SetDeidentification(ctx context.Context, req DeidentificationRequest) (*Project, error) {
	return s.mutate(ctx, req.ID, "deid", func(p *Project) error {
		p.Deid = Deidentification{
			Strategy: strings.TrimSpace(req.Strategy),
			Notes:    strings.TrimSpace(req.Notes),
		}
		return nil
	})
}

// ImportSamples parses a samples CSV and replaces the project's samples with
// its rows. Parse failures return ErrInvalidCSV and leave the project untouched.
func (s *Service) ImportSamples(ctx context.Context, id string, csv io.Reader) (*Project, error) {
	samples, err := ParseSamplesCSV(csv)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, "metadata", func(p *Project) error {
		p.Metadata.Samples = samples
		return nil
	})
}

// SetRepository replaces the repository choice and notes.
func (s *Service) SetRepository(ctx context.Context, req RepositoryRequest) (*Project, error) {
	choice, err := ParseRepository(req.Choice)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, req.ID, "repository", func(p *Project) error {
		p.Repository = RepositoryChoice{
			Choice: choice,
			Notes:  strings.TrimSpace(req.Notes),
		}
		return nil
	})
}

// GenerateExport appends a placeholder export record.
func (s *Service) GenerateExport(ctx context.Context, id string) (*Project, error) {
	return s.mutate(ctx, id, "export", func(p *Project) error {
		exportID, err := newID("exp")
		if err != nil {
			return err
		}
		p.Exports = append(p.Exports, ExportRecord{
			ID:        exportID,
			CreatedAt: s.now().UTC(),
			Summary:   PlaceholderExportSummary,
		})
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, id, section string, apply func(*Project) error) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := indexOf(projects, id)
	if idx < 0 {
		return nil, ErrProjectNotFound
	}

	proj := &projects[idx]
	if err := apply(proj); err != nil {
		return nil, fmt.Errorf("updating %s: %w", section, err)
	}
	proj.Touch(s.now())

	if err := s.repo.Save(ctx, projects); err != nil {
		return nil, fmt.Errorf("saving projects: %w", err)
	}

	s.logger.Info("project updated", "project_id", id, "section", section)
	updated := *proj
	return &updated, nil
}

func (s *Service) load(ctx context.Context) ([]Project, error) {
	projects, err := s.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	for i := range projects {
		projects[i].normalize()
	}
	DedupeIDs(projects)
	return projects, nil
}

func indexOf(projects []Project, id string) int {
	if id == "" {
		return -1
	}
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}

// IsUserError reports whether err is a validation failure the caller can fix
// by changing its input, as opposed to a storage failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidCSV) ||
		errors.Is(err, ErrInvalidRepository) ||
		errors.Is(err, ErrInvalidAnswer)
}
