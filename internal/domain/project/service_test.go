package project_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ganot/fairy/internal/domain/project"
	"github.com/ganot/fairy/internal/jsonstore"
	"github.com/ganot/fairy/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memStore round-trips through JSON so tests see what a real store would return.
type memStore struct {
	data  []byte
	saves int
}

func (m *memStore) Load(_ context.Context) ([]project.Project, error) {
	if m.data == nil {
		return []project.Project{}, nil
	}
	var projects []project.Project
	dec := json.NewDecoder(strings.NewReader(string(m.data)))
	dec.UseNumber()
	if err := dec.Decode(&projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (m *memStore) Save(_ context.Context, projects []project.Project) error {
	data, err := json.Marshal(projects)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

func fixedClock(start time.Time) func() time.Time {
	return func() time.Time { return start }
}

func newService(t *testing.T) (*project.Service, *memStore) {
	t.Helper()
	store := &memStore{}
	return project.NewService(store, nil), store
}

func TestProjectService_Create(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	proj, err := svc.Create(ctx, project.CreateRequest{Title: "  RNA-seq study ", Description: "Liver samples"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(proj.ID, "prj_"))
	require.Equal(t, "RNA-seq study", proj.Title)
	require.Equal(t, project.DefaultStatus, proj.Status)
	require.Equal(t, proj.CreatedAt, proj.UpdatedAt)
	require.Empty(t, proj.DataInventory)
	require.Empty(t, proj.Exports)
	require.Empty(t, proj.Metadata.Samples)
	require.Nil(t, proj.Permissions.ContainsHumanData)
	require.Nil(t, proj.Repository.Choice)
	require.Equal(t, 1, store.saves)
}

func TestProjectService_CreateUniqueIDsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := project.NewService(store, nil, project.WithClock(fixedClock(now)))

	first, err := svc.Create(ctx, project.CreateRequest{Title: "A", Description: "a"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, project.CreateRequest{Title: "B", Description: "b"})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)
}

func TestProjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectStore{}
	svc := project.NewService(repo, nil)

	_, err := svc.Create(ctx, project.CreateRequest{Title: "  ", Description: "desc"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	_, err = svc.Create(ctx, project.CreateRequest{Title: "title", Description: ""})
	require.ErrorIs(t, err, project.ErrInvalidInput)

	repo.AssertNotCalled(t, "Load", mock.Anything)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProjectService_LoadError(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectStore{}
	repo.On("Load", ctx).Return(nil, errors.New("disk gone"))

	svc := project.NewService(repo, nil)
	_, err := svc.List(ctx)
	require.ErrorContains(t, err, "disk gone")
	_, err = svc.GenerateExport(ctx, "prj_1")
	require.ErrorContains(t, err, "loading projects")
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProjectService_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectStore{}
	repo.On("Load", ctx).Return([]project.Project{}, nil)

	svc := project.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	_, err = svc.UpdateOverview(ctx, project.OverviewRequest{ID: "missing", Title: "x"})
	require.ErrorIs(t, err, project.ErrProjectNotFound)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProjectService_SaveError(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProjectStore{}
	repo.On("Load", ctx).Return([]project.Project{}, nil)
	repo.On("Save", ctx, mock.Anything).Return(errors.New("read-only"))

	svc := project.NewService(repo, nil)
	_, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.ErrorContains(t, err, "saving projects")
}

func TestProjectService_EverySaveAdvancesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	// A frozen clock still has to produce strictly increasing timestamps.
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := project.NewService(store, nil, project.WithClock(fixedClock(now)))

	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)
	last := proj.UpdatedAt

	steps := []func() (*project.Project, error){
		func() (*project.Project, error) {
			return svc.UpdateOverview(ctx, project.OverviewRequest{ID: proj.ID, Title: "t2", Description: "d2"})
		},
		func() (*project.Project, error) {
			return svc.AddInventoryItem(ctx, project.InventoryRequest{ID: proj.ID, Name: "FASTQ", Path: "s3://bucket/run1"})
		},
		func() (*project.Project, error) {
			return svc.SetPermissions(ctx, project.PermissionsRequest{ID: proj.ID, ContainsHumanData: "yes"})
		},
		func() (*project.Project, error) {
			return svc.SetDeidentification(ctx, project.DeidentificationRequest{ID: proj.ID, Strategy: "k-anonymity"})
		},
		func() (*project.Project, error) {
			return svc.ImportSamples(ctx, proj.ID, strings.NewReader("id\n1\n"))
		},
		func() (*project.Project, error) {
			return svc.SetRepository(ctx, project.RepositoryRequest{ID: proj.ID, Choice: "GEO"})
		},
		func() (*project.Project, error) {
			return svc.GenerateExport(ctx, proj.ID)
		},
	}
	for _, step := range steps {
		updated, err := step()
		require.NoError(t, err)
		require.True(t, updated.UpdatedAt.After(last), "updated_at must advance")
		require.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
		last = updated.UpdatedAt
	}

	stored, err := svc.Get(ctx, proj.ID)
	require.NoError(t, err)
	require.True(t, stored.UpdatedAt.Equal(last))
}

func TestProjectService_UpdateOverview(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)

	updated, err := svc.UpdateOverview(ctx, project.OverviewRequest{ID: proj.ID, Title: " New ", Description: " Desc "})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, "Desc", updated.Description)
	require.Equal(t, proj.CreatedAt, updated.CreatedAt)
}

func TestProjectService_InventoryAppendOnly(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)

	first, err := svc.AddInventoryItem(ctx, project.InventoryRequest{ID: proj.ID, Name: "FASTQ A", Path: "s3://a/*.fastq.gz", Notes: "batch A"})
	require.NoError(t, err)
	require.Len(t, first.DataInventory, 1)

	second, err := svc.AddInventoryItem(ctx, project.InventoryRequest{ID: proj.ID, Name: "FASTQ A", Path: "s3://a/*.fastq.gz"})
	require.NoError(t, err)
	require.Len(t, second.DataInventory, 2)
	require.Equal(t, first.DataInventory[0], second.DataInventory[0])
	require.Equal(t, project.InventoryItem{Name: "FASTQ A", Path: "s3://a/*.fastq.gz"}, second.DataInventory[1])

	saves := store.saves
	_, err = svc.AddInventoryItem(ctx, project.InventoryRequest{ID: proj.ID, Name: "no path"})
	require.ErrorIs(t, err, project.ErrInvalidInput)
	require.Equal(t, saves, store.saves)
}

func TestProjectService_PermissionsUnknownIsNull(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)

	updated, err := svc.SetPermissions(ctx, project.PermissionsRequest{
		ID:                proj.ID,
		ContainsHumanData: "no",
		IRBRequired:       "Unknown",
		Notes:             " pending ",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Permissions.ContainsHumanData)
	require.False(t, *updated.Permissions.ContainsHumanData)
	require.Nil(t, updated.Permissions.IRBRequired)
	require.Equal(t, "pending", updated.Permissions.Notes)
	require.Contains(t, string(store.data), `"irb_required":null`)
	require.Contains(t, string(store.data), `"contains_human_data":false`)

	_, err = svc.SetPermissions(ctx, project.PermissionsRequest{ID: proj.ID, ContainsHumanData: "maybe"})
	require.ErrorIs(t, err, project.ErrInvalidAnswer)
}

func TestProjectService_ImportSamplesReplaces(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)

	first, err := svc.ImportSamples(ctx, proj.ID, strings.NewReader("sample,tissue\nS1,liver\nS2,heart\n"))
	require.NoError(t, err)
	require.Len(t, first.Metadata.Samples, 2)

	second, err := svc.ImportSamples(ctx, proj.ID, strings.NewReader("id\nX\n"))
	require.NoError(t, err)
	require.Equal(t, []project.Sample{{{Key: "id", Value: "X"}}}, second.Metadata.Samples)
}

func TestProjectService_ImportSamplesMalformedLeavesState(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)
	_, err = svc.ImportSamples(ctx, proj.ID, strings.NewReader("id\nS1\n"))
	require.NoError(t, err)

	before := string(store.data)
	_, err = svc.ImportSamples(ctx, proj.ID, strings.NewReader("a,b\n1,2,3\n"))
	require.ErrorIs(t, err, project.ErrInvalidCSV)
	require.True(t, project.IsUserError(err))
	require.Equal(t, before, string(store.data))
}

func TestProjectService_SetRepository(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)

	updated, err := svc.SetRepository(ctx, project.RepositoryRequest{ID: proj.ID, Choice: "zenodo", Notes: "open access"})
	require.NoError(t, err)
	require.NotNil(t, updated.Repository.Choice)
	require.Equal(t, "Zenodo", *updated.Repository.Choice)

	cleared, err := svc.SetRepository(ctx, project.RepositoryRequest{ID: proj.ID, Choice: ""})
	require.NoError(t, err)
	require.Nil(t, cleared.Repository.Choice)

	_, err = svc.SetRepository(ctx, project.RepositoryRequest{ID: proj.ID, Choice: "Dropbox"})
	require.ErrorIs(t, err, project.ErrInvalidRepository)
}

func TestProjectService_GenerateExportAppendOnly(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	proj, err := svc.Create(ctx, project.CreateRequest{Title: "t", Description: "d"})
	require.NoError(t, err)

	first, err := svc.GenerateExport(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, first.Exports, 1)
	require.True(t, strings.HasPrefix(first.Exports[0].ID, "exp_"))
	require.Equal(t, project.PlaceholderExportSummary, first.Exports[0].Summary)

	second, err := svc.GenerateExport(ctx, proj.ID)
	require.NoError(t, err)
	require.Len(t, second.Exports, 2)
	require.Equal(t, first.Exports[0], second.Exports[0])
	require.NotEqual(t, second.Exports[0].ID, second.Exports[1].ID)
}

func TestProjectService_DuplicateIDsInStoredFile(t *testing.T) {
	ctx := context.Background()
	legacy := func(id, title string) string {
		return `{"id":"` + id + `","title":"` + title + `","description":"","status":"In Progress",` +
			`"created_at":"2024-05-31T16:08:37Z","updated_at":"2024-05-31T16:08:37Z"}`
	}
	data := "[" + legacy("prj_1717171717", "first") + "," +
		legacy("prj_1717171717-2", "second") + "," +
		legacy("prj_1717171717", "third") + "]"

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, jsonstore.FileName), []byte(data), 0o644))
	store, err := jsonstore.New(dir)
	require.NoError(t, err)
	svc := project.NewService(store, nil)

	third, err := svc.Get(ctx, "prj_1717171717-3")
	require.NoError(t, err)
	require.Equal(t, "third", third.Title)

	_, err = svc.UpdateOverview(ctx, project.OverviewRequest{ID: third.ID, Title: "renamed", Description: "d"})
	require.NoError(t, err)

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	var ids []string
	for _, p := range saved {
		ids = append(ids, p.ID)
	}
	require.Equal(t, []string{"prj_1717171717", "prj_1717171717-2", "prj_1717171717-3"}, ids)
	require.Equal(t, "renamed", saved[2].Title)
	require.Equal(t, "first", saved[0].Title)
}

func TestDedupeIDs(t *testing.T) {
	projects := []project.Project{{ID: "a"}, {ID: "b"}, {ID: "a"}, {ID: "a-2"}, {ID: "a"}}
	changes := project.DedupeIDs(projects)

	require.Equal(t, []project.IDChange{
		{Old: "a", New: "a-3"},
		{Old: "a", New: "a-4"},
	}, changes)
	require.Equal(t, "a", projects[0].ID)
	require.Equal(t, "a-3", projects[2].ID)
	require.Equal(t, "a-2", projects[3].ID)
	require.Equal(t, "a-4", projects[4].ID)

	require.Empty(t, project.DedupeIDs(projects))
}
