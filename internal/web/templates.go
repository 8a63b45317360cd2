package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/ganot/fairy/internal/domain/project"
)

//go:embed templates/*.html
var templateFS embed.FS

// timestampLayout matches the ISO strings shown for stored timestamps.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

var funcs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.UTC().Format(timestampLayout)
	},
	"answer": project.AnswerLabel,
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{"home", "project", "message"} {
		tmpl, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

func (r *renderer) render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type flash struct {
	Kind    string
	Message string
}

type layoutData struct {
	PageTitle  string
	Nav        string
	SelectedID string
	Flashes    []flash
}

type homeData struct {
	layoutData
	Projects []project.Summary
}

type messageData struct {
	layoutData
	Kind    string
	Message string
}

type tabLink struct {
	Key    string
	Label  string
	Active bool
}

type answerOption struct {
	Value string
	Label string
}

type sampleTable struct {
	Columns []string
	Rows    [][]string
}

type projectData struct {
	layoutData
	Project      *project.Project
	Tab          string
	Tabs         []tabLink
	Answers      []answerOption
	Repositories []string
	Samples      sampleTable
}

// Tab keys in display order.
var tabs = []struct {
	Key   string
	Label string
}{
	{"overview", "Overview"},
	{"inventory", "Data Inventory"},
	{"permissions", "Permissions & Ethics"},
	{"deid", "De-identification"},
	{"metadata", "Metadata"},
	{"repository", "Repository"},
	{"export", "Export & Validate"},
}

var answers = []answerOption{
	{Value: project.AnswerUnknown, Label: "Unknown"},
	{Value: project.AnswerNo, Label: "No"},
	{Value: project.AnswerYes, Label: "Yes"},
}

func normalizeTab(tab string) string {
	for _, t := range tabs {
		if t.Key == tab {
			return tab
		}
	}
	return tabs[0].Key
}

func tabLinks(active string) []tabLink {
	links := make([]tabLink, 0, len(tabs))
	for _, t := range tabs {
		links = append(links, tabLink{Key: t.Key, Label: t.Label, Active: t.Key == active})
	}
	return links
}

// buildSampleTable lays samples out as a grid. Columns are the union of all
// row keys in first-seen order.
func buildSampleTable(samples []project.Sample) sampleTable {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range samples {
		for _, key := range row.Keys() {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}

	rows := make([][]string, 0, len(samples))
	for _, row := range samples {
		cells := make([]string, len(columns))
		for i, col := range columns {
			v, _ := row.Get(col)
			cells[i] = cellText(v)
		}
		rows = append(rows, cells)
	}
	return sampleTable{Columns: columns, Rows: rows}
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
