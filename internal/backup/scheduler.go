// Package backup writes periodic snapshots of the project list.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ganot/fairy/internal/domain/project"
	"github.com/ganot/fairy/internal/jsonstore"
)

const (
	filePrefix = "projects-"
	fileSuffix = ".json"
	// Fixed-width UTC timestamp so lexical order is chronological order.
	timeLayout = "20060102T150405.000000000Z"
)

// Loader reads the current project list.
type Loader interface {
	Load(ctx context.Context) ([]project.Project, error)
}

// Scheduler runs Snapshot on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	store  Loader
	spec   string
	dir    string
	keep   int
	logger *slog.Logger
	now    func() time.Time
}

// New creates a scheduler; it does nothing until Start is called.
func New(spec, dir string, keep int, store Loader, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		cron:   cron.New(),
		store:  store,
		spec:   spec,
		dir:    dir,
		keep:   keep,
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the snapshot job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		path, err := s.Snapshot(context.Background())
		if err != nil {
			s.logger.Error("backup failed", "error", err)
			return
		}
		s.logger.Info("backup written", "path", path)
	})
	if err != nil {
		return fmt.Errorf("backup: invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("backup scheduler started", "schedule", s.spec, "dir", s.dir, "keep", s.keep)
	return nil
}

// Stop stops the cron loop and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Snapshot writes the current project list to a new file in the backup
// directory and prunes old snapshots. It returns the path written.
func (s *Scheduler) Snapshot(ctx context.Context) (string, error) {
	projects, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("backup: load: %w", err)
	}
	project.DedupeIDs(projects)
	data, err := jsonstore.Encode(projects)
	if err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	name := filePrefix + s.now().UTC().Format(timeLayout) + fileSuffix
	path := filepath.Join(s.dir, name)
	if err := jsonstore.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("backup: %w", err)
	}

	if err := s.prune(); err != nil {
		return path, fmt.Errorf("backup: prune: %w", err)
	}
	return path, nil
}

func (s *Scheduler) prune() error {
	if s.keep <= 0 {
		return nil
	}
	snapshots, err := List(s.dir)
	if err != nil {
		return err
	}
	if len(snapshots) <= s.keep {
		return nil
	}
	for _, name := range snapshots[:len(snapshots)-s.keep] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// List returns snapshot file names in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
