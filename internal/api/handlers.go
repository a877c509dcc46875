package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"siteinspector.com/console/internal/auth"
	"siteinspector.com/console/internal/backend"
	"siteinspector.com/console/internal/core"
	"siteinspector.com/console/internal/session"
	"siteinspector.com/console/internal/upload"
)

const (
	createProjectOption = "__create"
	sessionExpiredMsg   = "Your session has expired, please log in again."
)

// Backend is the part of the REST client the handlers use; *backend.Client satisfies it.
type Backend interface {
	Login(ctx context.Context, username, password string) (*backend.LoginResult, error)

	ListProjects(ctx context.Context, token string) ([]backend.Project, error)
	CreateProject(ctx context.Context, token, name string) (*backend.Project, error)
	DeleteProject(ctx context.Context, token string, id int64) error

	ListUsers(ctx context.Context, token string) ([]backend.User, error)
	CreateUser(ctx context.Context, token string, u backend.NewUser) error
	DeleteUser(ctx context.Context, token string, id int64) error

	ListDocuments(ctx context.Context, token string, projectID int64) ([]backend.Document, error)
	UploadDocument(ctx context.Context, token string, up backend.DocumentUpload) (*backend.Document, error)

	ListMedia(ctx context.Context, token string, projectID int64) ([]backend.MediaItem, error)
	UploadMedia(ctx context.Context, token string, up backend.MediaUpload) (*backend.MediaItem, error)

	ListMessages(ctx context.Context, token string, projectID int64) ([]backend.ChatMessage, error)
	SendMessage(ctx context.Context, token, message string, projectID int64, sender string) (*backend.ChatMessage, error)

	ListReports(ctx context.Context, token string, projectID int64) ([]backend.Report, error)
	GenerateReport(ctx context.Context, token, reportName, createdBy string, projectID int64) (*backend.Report, error)
	DeleteReport(ctx context.Context, token string, id int64) error
}

type APIHandler struct {
	backend   Backend
	chats     *core.ChatService
	renderer  *Renderer
	maxUpload int64
	now       func() time.Time
}

func NewAPIHandler(b Backend, chats *core.ChatService, renderer *Renderer, maxUpload int64) *APIHandler {
	return &APIHandler{
		backend:   b,
		chats:     chats,
		renderer:  renderer,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// RequireLogin sends anonymous sessions and sessions holding an expired
// token to the login page.
func (h *APIHandler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := session.MustFromContext(r.Context())
		if !st.Authenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if auth.Expired(st.Token, h.now()) {
			h.signOut(w, r, st, sessionExpiredMsg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin sends every session without an admin user back to the dashboard.
func (h *APIHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := session.MustFromContext(r.Context())
		if st.Token == "" || !st.User.IsAdmin() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) signOut(w http.ResponseWriter, r *http.Request, st *session.State, msg string) {
	h.endSession(r, st)
	if msg != "" {
		st.AddFlash(w, r, msg, true)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// unauthorized ends the session when the backend rejected its token. It
// reports whether it wrote the redirect to the login page.
func (h *APIHandler) unauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, backend.ErrUnauthorized) {
		return false
	}
	h.signOut(w, r, session.MustFromContext(r.Context()), sessionExpiredMsg)
	return true
}

// userMessage is the text shown for err: the operation message of a backend
// failure, the text of a validation error, or fallback.
func userMessage(err error, fallback string) string {
	var se *backend.StatusError
	switch {
	case errors.As(err, &se):
		return se.Message
	case errors.Is(err, upload.ErrNoFile),
		errors.Is(err, upload.ErrPDFOnly),
		errors.Is(err, upload.ErrUnsupportedType),
		errors.Is(err, core.ErrEmptyMessage):
		return err.Error()
	default:
		return fallback
	}
}

func (h *APIHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, to, msg string, isError bool) {
	session.MustFromContext(r.Context()).AddFlash(w, r, msg, isError)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// actionFailed reports a failed backend action as prefix plus the failure
// message and sends the browser back to the page it came from.
func (h *APIHandler) actionFailed(w http.ResponseWriter, r *http.Request, to string, err error, prefix string) {
	if h.unauthorized(w, r, err) {
		return
	}
	slog.WarnContext(r.Context(), "action failed", "path", r.URL.Path, "err", err)
	h.redirectWithFlash(w, r, to, prefix+userMessage(err, "unexpected error"), true)
}

// newPage builds the common page data: user, flashes and the project
// selector. The first project becomes the selection when none is stored. It
// returns false when the backend ended the session.
func (h *APIHandler) newPage(w http.ResponseWriter, r *http.Request, title, active string) (*Page, bool) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	page := &Page{
		Title:     title,
		Active:    active,
		User:      st.User,
		ProjectID: st.ProjectID,
		Flash:     st.Flash,
	}

	projects, err := h.backend.ListProjects(ctx, st.Token)
	if err != nil {
		if h.unauthorized(w, r, err) {
			return nil, false
		}
		slog.WarnContext(ctx, "failed to load projects", "err", err)
		page.addError(userMessage(err, "Failed to load projects"))
		return page, true
	}
	page.Projects = projects

	if st.ProjectID == 0 && len(projects) > 0 {
		if err := st.SetProject(ctx, projects[0].ID); err != nil {
			slog.ErrorContext(ctx, "failed to store project selection", "err", err)
		}
		page.ProjectID = st.ProjectID
	}
	for _, p := range projects {
		if p.ID == page.ProjectID {
			page.ProjectName = p.Name
			break
		}
	}
	return page, true
}

// backTo returns the console page a form came from, defaulting to the dashboard.
func backTo(r *http.Request) string {
	next := r.FormValue("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

func (h *APIHandler) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	st := session.MustFromContext(r.Context())
	if st.Authenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login.html", &Page{Title: "Login", Flash: st.Flash})
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	page := &Page{Title: "Login", Content: username}
	if username == "" || password == "" {
		page.addError("Username and password are required")
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", page)
		return
	}

	res, err := h.backend.Login(ctx, username, password)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, backend.ErrUnauthorized) {
			status = http.StatusUnauthorized
		}
		slog.WarnContext(ctx, "login failed", "username", username, "err", err)
		page.addError(userMessage(err, "Login failed, please try again."))
		h.render(w, r, status, "login.html", page)
		return
	}

	role := res.Role
	if role == "" {
		role = auth.RoleFromToken(res.Token, backend.RoleUser)
	}
	if err := st.SignIn(ctx, res.Token, session.User{Username: res.Username, Role: role}); err != nil {
		slog.ErrorContext(ctx, "failed to store login", "username", username, "err", err)
		page.addError("Login failed, please try again.")
		h.render(w, r, http.StatusInternalServerError, "login.html", page)
		return
	}
	h.chats.Forget(st.ID)
	slog.InfoContext(ctx, "user logged in", "username", res.Username, "role", role)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.signOut(w, r, session.MustFromContext(r.Context()), "")
}

func (h *APIHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := h.newPage(w, r, "Dashboard", "dashboard")
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "dashboard.html", page)
}

// SelectProjectHandler stores the chosen project, or creates one when the
// create option is picked with a name.
func (h *APIHandler) SelectProjectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	to := backTo(r)
	choice := r.FormValue("project_id")

	if choice == createProjectOption {
		name := strings.TrimSpace(r.FormValue("project_name"))
		if name == "" {
			h.redirectWithFlash(w, r, to, "Please enter a project name", true)
			return
		}
		project, err := h.backend.CreateProject(ctx, st.Token, name)
		if err != nil {
			h.actionFailed(w, r, to, err, "Failed to create project: ")
			return
		}
		if err := st.SetProject(ctx, project.ID); err != nil {
			h.actionFailed(w, r, to, err, "Failed to select project: ")
			return
		}
		h.redirectWithFlash(w, r, to, "Project "+project.Name+" created", false)
		return
	}

	id, err := strconv.ParseInt(choice, 10, 64)
	if err != nil || id < 0 {
		h.redirectWithFlash(w, r, to, "Invalid project", true)
		return
	}
	if err := st.SetProject(ctx, id); err != nil {
		h.actionFailed(w, r, to, err, "Failed to select project: ")
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
