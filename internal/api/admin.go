package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"siteinspector.com/console/internal/backend"
	"siteinspector.com/console/internal/session"
	"siteinspector.com/console/internal/utils"
)

const (
	tabUsers    = "users"
	tabProjects = "projects"
)

type adminView struct {
	Tab        string
	Query      string
	Users      []backend.User
	TotalUsers int
	UserCount  int
	AdminCount int
	Projects   []backend.Project
}

func (h *APIHandler) AdminPageHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := h.newPage(w, r, "Admin Dashboard", "admin")
	if !ok {
		return
	}
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	q := r.URL.Query()
	view := &adminView{Tab: tabUsers, Query: q.Get("q"), Projects: page.Projects}
	if q.Get("tab") == tabProjects {
		view.Tab = tabProjects
	}
	page.Content = view

	if view.Tab == tabUsers {
		users, err := h.backend.ListUsers(ctx, st.Token)
		if err != nil {
			if h.unauthorized(w, r, err) {
				return
			}
			slog.WarnContext(ctx, "failed to fetch users", "err", err)
			page.addError(userMessage(err, "Error fetching users!"))
		}
		counts := utils.CountBy(users, func(u backend.User) string { return u.Role })
		view.TotalUsers = len(users)
		view.UserCount = counts[backend.RoleUser]
		view.AdminCount = counts[backend.RoleAdmin]
		view.Users = utils.Filter(users, view.Query, func(u backend.User) string { return u.Username })
	}
	h.render(w, r, http.StatusOK, "admin.html", page)
}

func adminTab(tab string) string {
	return "/admin?" + url.Values{"tab": {tab}}.Encode()
}

// CreateUserHandler creates a user attached to the selected project.
func (h *APIHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	to := adminTab(tabUsers)

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := r.FormValue("role")
	if role != backend.RoleAdmin {
		role = backend.RoleUser
	}
	if username == "" || password == "" {
		h.redirectWithFlash(w, r, to, "Please fill in all fields!", true)
		return
	}
	if st.ProjectID == 0 {
		h.redirectWithFlash(w, r, to, "Please select a project first!", true)
		return
	}

	err := h.backend.CreateUser(ctx, st.Token, backend.NewUser{
		Username:  username,
		Password:  password,
		Role:      role,
		ProjectID: st.ProjectID,
	})
	if err != nil {
		h.actionFailed(w, r, to, err, "Failed to create user: ")
		return
	}
	slog.InfoContext(ctx, "user created", "username", username, "role", role, "project_id", st.ProjectID)
	h.redirectWithFlash(w, r, to, "User created successfully!", false)
}

func (h *APIHandler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	to := adminTab(tabUsers)
	id, ok := parseID(chi.URLParam(r, "userID"))
	if !ok {
		h.redirectWithFlash(w, r, to, "Invalid user", true)
		return
	}
	if err := h.backend.DeleteUser(ctx, st.Token, id); err != nil {
		h.actionFailed(w, r, to, err, "Failed to delete user: ")
		return
	}
	slog.InfoContext(ctx, "user deleted", "user_id", id)
	h.redirectWithFlash(w, r, to, "User deleted successfully!", false)
}

// DeleteProjectHandler deletes a project and drops it from the selection when
// it was the selected one.
func (h *APIHandler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	to := adminTab(tabProjects)
	id, ok := parseID(chi.URLParam(r, "projectID"))
	if !ok {
		h.redirectWithFlash(w, r, to, "Invalid project", true)
		return
	}
	if err := h.backend.DeleteProject(ctx, st.Token, id); err != nil {
		h.actionFailed(w, r, to, err, "Failed to delete project: ")
		return
	}
	if st.ProjectID == id {
		if err := st.SetProject(ctx, 0); err != nil {
			slog.ErrorContext(ctx, "failed to clear project selection", "err", err)
		}
	}
	slog.InfoContext(ctx, "project deleted", "project_id", id)
	h.redirectWithFlash(w, r, to, "Project deleted successfully!", false)
}
