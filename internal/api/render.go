package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"siteinspector.com/console/internal/backend"
	"siteinspector.com/console/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const baseTemplate = "base.html"

// Renderer holds every page parsed together with the base layout.
type Renderer struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
}

func NewRenderer() (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, path := range names {
		name := strings.TrimPrefix(path, "templates/")
		if name == baseTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(templateFuncs).ParseFS(templateFS, "templates/"+baseTemplate, path)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes a page into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// Page is the data every template receives.
type Page struct {
	Title       string
	Active      string
	User        *session.User
	Projects    []backend.Project
	ProjectID   int64
	ProjectName string
	Flash       session.Flash
	Content     any
}

// Path is the console page the data belongs to.
func (p *Page) Path() string {
	if p.Active == "" || p.Active == "dashboard" {
		return "/"
	}
	return "/" + p.Active
}

func (p *Page) addError(msg string) { p.Flash.Error = append(p.Flash.Error, msg) }

func (h *APIHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, page *Page) {
	if err := h.renderer.Render(w, status, name, page); err != nil {
		slog.ErrorContext(r.Context(), "failed to render page", "template", name, "err", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}
