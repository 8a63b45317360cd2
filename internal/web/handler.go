// Package web serves the browser UI: a home page to create and open projects
// and a tabbed page per project.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/ganot/fairy/internal/domain/project"
)

// ProjectService defines project operations needed by the UI.
type ProjectService interface {
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	List(ctx context.Context) ([]project.Summary, error)
	Get(ctx context.Context, id string) (*project.Project, error)
	UpdateOverview(ctx context.Context, req project.OverviewRequest) (*project.Project, error)
	AddInventoryItem(ctx context.Context, req project.InventoryRequest) (*project.Project, error)
	SetPermissions(ctx context.Context, req project.PermissionsRequest) (*project.Project, error)
	SetDeidentification(ctx context.Context, req project.DeidentificationRequest) (*project.Project, error)
	ImportSamples(ctx context.Context, id string, csv io.Reader) (*project.Project, error)
	SetRepository(ctx context.Context, req project.RepositoryRequest) (*project.Project, error)
	GenerateExport(ctx context.Context, id string) (*project.Project, error)
}

// Config contains UI configuration.
type Config struct {
	Projects       ProjectService
	Sessions       sessions.Store
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Handler renders pages and applies form submissions.
type Handler struct {
	projects  ProjectService
	sessions  sessions.Store
	maxUpload int64
	logger    *slog.Logger
	pages     *renderer
}

// NewHandler creates the UI handler. Templates are parsed up front so a
// broken template fails at startup.
func NewHandler(cfg Config) (*Handler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		projects:  cfg.Projects,
		sessions:  cfg.Sessions,
		maxUpload: maxUpload,
		logger:    logger,
		pages:     pages,
	}, nil
}

// Routes registers the UI routes on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Post("/projects", h.handleCreate)
	r.Post("/select", h.handleSelect)
	r.Post("/home", h.handleBackHome)
	r.Get("/project", h.handleSelected)

	r.Route("/projects/{id}", func(r chi.Router) {
		r.Get("/", h.handleProject)
		r.Post("/overview", h.handleOverview)
		r.Post("/inventory", h.handleInventory)
		r.Post("/permissions", h.handlePermissions)
		r.Post("/deid", h.handleDeid)
		r.Post("/metadata", h.handleMetadata)
		r.Post("/repository", h.handleRepository)
		r.Post("/exports", h.handleExport)
	})
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	sess := h.session(r)
	data := homeData{
		layoutData: layoutData{
			PageTitle:  "Home",
			Nav:        "home",
			SelectedID: selectedID(sess),
			Flashes:    takeFlashes(sess),
		},
		Projects: projects,
	}
	h.save(w, r, sess)
	h.render(w, r, http.StatusOK, "home", data)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	proj, err := h.projects.Create(r.Context(), project.CreateRequest{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	})
	if err != nil {
		if project.IsUserError(err) {
			h.addFlash(w, r, flashErrorKey, "Project title and short description are both required.")
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.addFlash(w, r, flashNoticeKey, fmt.Sprintf("Created project %q.", proj.Title))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := r.PostFormValue("id")
	if id == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	sess := h.session(r)
	sess.Values[selectedKey] = id
	h.save(w, r, sess)
	http.Redirect(w, r, projectURL(id, ""), http.StatusSeeOther)
}

func (h *Handler) handleBackHome(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	delete(sess.Values, selectedKey)
	h.save(w, r, sess)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleSelected(w http.ResponseWriter, r *http.Request) {
	sess := h.session(r)
	id := selectedID(sess)
	if id != "" {
		_, err := h.projects.Get(r.Context(), id)
		switch {
		case err == nil:
			http.Redirect(w, r, projectURL(id, ""), http.StatusSeeOther)
			return
		case errors.Is(err, project.ErrProjectNotFound):
			delete(sess.Values, selectedKey)
		default:
			h.serverError(w, r, err)
			return
		}
	}

	data := messageData{
		layoutData: layoutData{
			PageTitle: "Project",
			Nav:       "project",
			Flashes:   takeFlashes(sess),
		},
		Kind:    "warning",
		Message: "No project selected. Go to Home and choose a project, or create a new one.",
	}
	h.save(w, r, sess)
	h.render(w, r, http.StatusOK, "message", data)
}

func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	proj, err := h.projects.Get(r.Context(), id)
	if err != nil {
		h.projectError(w, r, err)
		return
	}

	sess := h.session(r)
	sess.Values[selectedKey] = proj.ID

	tab := normalizeTab(r.URL.Query().Get("tab"))
	data := projectData{
		layoutData: layoutData{
			PageTitle:  proj.Title,
			Nav:        "project",
			SelectedID: proj.ID,
			Flashes:    takeFlashes(sess),
		},
		Project:      proj,
		Tab:          tab,
		Tabs:         tabLinks(tab),
		Answers:      answers,
		Repositories: project.Repositories,
		Samples:      buildSampleTable(proj.Metadata.Samples),
	}
	h.save(w, r, sess)
	h.render(w, r, http.StatusOK, "project", data)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.projects.UpdateOverview(r.Context(), project.OverviewRequest{
		ID:          id,
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	})
	h.afterMutation(w, r, id, "overview", "Overview saved.", err)
}

func (h *Handler) handleInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.projects.AddInventoryItem(r.Context(), project.InventoryRequest{
		ID:    id,
		Name:  r.PostFormValue("name"),
		Path:  r.PostFormValue("path"),
		Notes: r.PostFormValue("notes"),
	})
	if errors.Is(err, project.ErrInvalidInput) {
		h.addFlash(w, r, flashErrorKey, "Item name and path are both required.")
		http.Redirect(w, r, projectURL(id, "inventory"), http.StatusSeeOther)
		return
	}
	h.afterMutation(w, r, id, "inventory", "Added to inventory.", err)
}

func (h *Handler) handlePermissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.projects.SetPermissions(r.Context(), project.PermissionsRequest{
		ID:                id,
		ContainsHumanData: r.PostFormValue("contains_human_data"),
		IRBRequired:       r.PostFormValue("irb_required"),
		Notes:             r.PostFormValue("notes"),
	})
	h.afterMutation(w, r, id, "permissions", "Permissions saved.", err)
}

func (h *Handler) handleDeid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.projects.SetDeidentification(r.Context(), project.DeidentificationRequest{
		ID:       id,
		Strategy: r.PostFormValue("strategy"),
		Notes:    r.PostFormValue("notes"),
	})
	h.afterMutation(w, r, id, "deid", "De-identification saved.", err)
}

func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := projectURL(id, "metadata")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, _, err := r.FormFile("samples")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.addFlash(w, r, flashErrorKey, "Choose a CSV file to upload.")
		} else {
			h.addFlash(w, r, flashErrorKey, "Failed to read CSV: "+err.Error())
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	defer file.Close()

	_, err = h.projects.ImportSamples(r.Context(), id, file)
	if errors.Is(err, project.ErrInvalidCSV) {
		h.addFlash(w, r, flashErrorKey, "Failed to read CSV: "+err.Error())
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	h.afterMutation(w, r, id, "metadata", "Samples imported.", err)
}

func (h *Handler) handleRepository(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.projects.SetRepository(r.Context(), project.RepositoryRequest{
		ID:     id,
		Choice: r.PostFormValue("choice"),
		Notes:  r.PostFormValue("notes"),
	})
	h.afterMutation(w, r, id, "repository", "Repository choice saved.", err)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := h.projects.GenerateExport(r.Context(), id)
	h.afterMutation(w, r, id, "export", "Placeholder export generated.", err)
}

// afterMutation redirects back to the tab with a flash message, or renders an
// error page when the project is gone or storage failed.
func (h *Handler) afterMutation(w http.ResponseWriter, r *http.Request, id, tab, success string, err error) {
	switch {
	case err == nil:
		h.addFlash(w, r, flashNoticeKey, success)
	case errors.Is(err, project.ErrProjectNotFound):
		h.notFound(w, r)
		return
	case project.IsUserError(err):
		h.addFlash(w, r, flashErrorKey, err.Error())
	default:
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, projectURL(id, tab), http.StatusSeeOther)
}

func (h *Handler) projectError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, project.ErrProjectNotFound) {
		h.notFound(w, r)
		return
	}
	h.serverError(w, r, err)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "message", messageData{
		layoutData: layoutData{PageTitle: "Not found", Nav: "project"},
		Kind:       "error",
		Message:    "Project not found.",
	})
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	h.render(w, r, http.StatusInternalServerError, "message", messageData{
		layoutData: layoutData{PageTitle: "Error"},
		Kind:       "error",
		Message:    "Something went wrong while saving or loading projects. Check the server log.",
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if err := h.pages.render(w, status, page, data); err != nil {
		h.logger.Error("render failed", "page", page, "path", r.URL.Path, "error", err)
	}
}

func projectURL(id, tab string) string {
	u := "/projects/" + url.PathEscape(id)
	if tab != "" {
		u += "?tab=" + url.QueryEscape(tab)
	}
	return u
}
