package repository

import (
	"context"

	"github.com/ganot/fairy/internal/domain/project"
)

// ProjectStore persists the whole project list as one document.
type ProjectStore interface {
	// Load returns every project, in stored order. A store that has never
	// been written returns an empty list.
	Load(ctx context.Context) ([]project.Project, error)
	// Save replaces the stored list.
	Save(ctx context.Context, projects []project.Project) error
	// Close releases resources held by the store.
	Close() error
}
