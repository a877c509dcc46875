package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"siteinspector.com/console/internal/session"
)

func NewRouter(apiHandler *APIHandler, sessions *session.Manager) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	r.Get("/healthz", HealthHandler)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)

		// Public routes
		r.Get("/login", apiHandler.LoginPageHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Post("/logout", apiHandler.LogoutHandler)

		// Signed-in routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.RequireLogin)

			r.Get("/", apiHandler.DashboardHandler)
			r.Post("/projects/select", apiHandler.SelectProjectHandler)

			r.Get("/chat", apiHandler.ChatPageHandler)
			r.Post("/chat", apiHandler.SendMessageHandler)
			r.Get("/chat/stream", apiHandler.ChatStreamHandler)

			r.Get("/documents", apiHandler.DocumentsPageHandler)
			r.Post("/documents", apiHandler.UploadDocumentHandler)
			r.Post("/reports", apiHandler.GenerateReportHandler)
			r.Post("/reports/{reportID}/delete", apiHandler.DeleteReportHandler)

			r.Get("/media", apiHandler.MediaPageHandler)
			r.Post("/media", apiHandler.UploadMediaHandler)

			r.Get("/reports", apiHandler.ReportsPageHandler)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(apiHandler.RequireAdmin)
			r.Use(apiHandler.RequireLogin)

			r.Get("/", apiHandler.AdminPageHandler)
			r.Post("/users", apiHandler.CreateUserHandler)
			r.Post("/users/{userID}/delete", apiHandler.DeleteUserHandler)
			r.Post("/projects/{projectID}/delete", apiHandler.DeleteProjectHandler)
		})
	})

	return r
}
