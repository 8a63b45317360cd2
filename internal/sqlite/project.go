package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/fairy/internal/domain/project"
	"github.com/ganot/fairy/internal/repository"
)

var _ repository.ProjectStore = (*ProjectStore)(nil)

// ProjectStore implements repository.ProjectStore for SQLite. The list is
// stored as ordered JSON documents and replaced wholesale in one transaction.
type ProjectStore struct {
	db *DB
}

// NewProjectStore creates a new ProjectStore
func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Load returns all projects in list order
func (r *ProjectStore) Load(ctx context.Context) ([]project.Project, error) {
	query := `
		SELECT id, body
		FROM project_documents
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	defer rows.Close()

	projects := []project.Project{}
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}

		dec := json.NewDecoder(bytes.NewReader(repository.ReplaceNonFinite([]byte(body))))
		dec.UseNumber()
		var proj project.Project
		if err := dec.Decode(&proj); err != nil {
			return nil, fmt.Errorf("%w: project %s: %v", repository.ErrCorrupt, id, err)
		}
		projects = append(projects, proj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// Save replaces every stored project with projects
func (r *ProjectStore) Save(ctx context.Context, projects []project.Project) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_documents`); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}

	insert := `
		INSERT INTO project_documents (id, position, body, updated_at)
		VALUES (?, ?, ?, ?)
	`
	for i := range projects {
		proj := &projects[i]
		body, err := json.Marshal(proj)
		if err != nil {
			return fmt.Errorf("failed to encode project %s: %w", proj.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insert, proj.ID, i, string(body), proj.UpdatedAt); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", repository.ErrDuplicateID, proj.ID)
			}
			return fmt.Errorf("failed to save project %s: %w", proj.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the underlying database
func (r *ProjectStore) Close() error {
	return r.db.Close()
}
