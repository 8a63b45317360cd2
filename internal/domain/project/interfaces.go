package project

import "context"

// Repository persists the whole project list. Every mutation loads the list,
// changes one record and saves the list back.
type Repository interface {
	Load(ctx context.Context) ([]Project, error)
	Save(ctx context.Context, projects []Project) error
}
