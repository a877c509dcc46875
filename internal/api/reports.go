package api

import (
	"net/http"

	"siteinspector.com/console/internal/core"
	"siteinspector.com/console/internal/session"
)

var reportTypes = []string{"summary", "detailed", "analytics"}

type reportsView struct {
	Type  string
	Types []string
	Stats core.ProjectStats
}

// ReportsPageHandler shows the quick stats of the selected project. A count
// that could not be fetched is shown as unavailable.
func (h *APIHandler) ReportsPageHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := h.newPage(w, r, "View Reports", "reports")
	if !ok {
		return
	}
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	view := &reportsView{Type: reportTypes[0], Types: reportTypes}
	for _, t := range reportTypes {
		if r.URL.Query().Get("type") == t {
			view.Type = t
		}
	}
	page.Content = view

	if page.ProjectID != 0 {
		view.Stats = core.CollectStats(ctx, h.backend, st.Token, page.ProjectID)
		if view.Stats.Unauthorized() {
			h.signOut(w, r, st, sessionExpiredMsg)
			return
		}
	}
	h.render(w, r, http.StatusOK, "reports.html", page)
}
