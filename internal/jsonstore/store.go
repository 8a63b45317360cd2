// Package jsonstore keeps the project list in a single JSON file.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/ganot/fairy/internal/domain/project"
	"github.com/ganot/fairy/internal/repository"
)

// FileName is the name of the project list inside the data directory.
const FileName = "projects.json"

var _ repository.ProjectStore = (*Store)(nil)

// Store implements repository.ProjectStore on top of one JSON file.
type Store struct {
	path string
	mu   sync.RWMutex
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonstore: mkdir %s: %w", dir, err)
	}
	return &Store{path: filepath.Join(dir, FileName)}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the project list. A missing file is an empty list.
func (s *Store) Load(_ context.Context) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []project.Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonstore: read %s: %w", s.path, err)
	}
	return Decode(data)
}

// Save replaces the file contents with projects.
func (s *Store) Save(_ context.Context, projects []project.Project) error {
	data, err := Encode(projects)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return WriteFileAtomic(s.path, data, 0o644)
}

// Close is a no-op; the file is only open during Load and Save.
func (s *Store) Close() error {
	return nil
}

// Decode parses a serialized project list. Numbers are kept as json.Number so
// re-encoding reproduces them exactly. Bare NaN and Infinity values decode as
// null.
func Decode(data []byte) ([]project.Project, error) {
	dec := json.NewDecoder(bytes.NewReader(repository.ReplaceNonFinite(data)))
	dec.UseNumber()

	var projects []project.Project
	if err := dec.Decode(&projects); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrCorrupt, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after project list", repository.ErrCorrupt)
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return projects, nil
}

// Encode serializes a project list with two-space indentation after checking
// that IDs are unique.
func Encode(projects []project.Project) ([]byte, error) {
	seen := make(map[string]struct{}, len(projects))
	for i := range projects {
		id := projects[i].ID
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", repository.ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	if projects == nil {
		projects = []project.Project{}
	}

	data, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("jsonstore: encode: %w", err)
	}
	return append(data, '\n'), nil
}
