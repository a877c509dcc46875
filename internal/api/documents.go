package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"siteinspector.com/console/internal/backend"
	"siteinspector.com/console/internal/session"
	"siteinspector.com/console/internal/upload"
	"siteinspector.com/console/internal/utils"
)

const (
	tabDocuments = "documents"
	tabReports   = "reports"
)

type documentsView struct {
	Tab       string
	Query     string
	Documents []backend.Document
	Total     int
	Reports   []backend.Report
	Uploader  string
}

func (h *APIHandler) DocumentsPageHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := h.newPage(w, r, "Documentation", "documents")
	if !ok {
		return
	}
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	q := r.URL.Query()
	view := &documentsView{Tab: tabDocuments, Query: q.Get("q"), Uploader: username(st)}
	if q.Get("tab") == tabReports {
		view.Tab = tabReports
	}
	page.Content = view
	if page.ProjectID == 0 {
		h.render(w, r, http.StatusOK, "documents.html", page)
		return
	}

	switch view.Tab {
	case tabReports:
		reports, err := h.backend.ListReports(ctx, st.Token, page.ProjectID)
		if err != nil {
			if h.unauthorized(w, r, err) {
				return
			}
			slog.WarnContext(ctx, "failed to fetch reports", "project_id", page.ProjectID, "err", err)
			page.addError(userMessage(err, "Failed to fetch reports!"))
		}
		view.Reports = reports
	default:
		docs, err := h.backend.ListDocuments(ctx, st.Token, page.ProjectID)
		if err != nil {
			if h.unauthorized(w, r, err) {
				return
			}
			slog.WarnContext(ctx, "failed to fetch documents", "project_id", page.ProjectID, "err", err)
			page.addError("Failed to load documents")
		}
		view.Total = len(docs)
		view.Documents = utils.Filter(docs, view.Query, func(d backend.Document) string { return d.FileName })
	}
	h.render(w, r, http.StatusOK, "documents.html", page)
}

// readUpload parses a multipart upload form capped at the configured size and
// returns the inspected file. The caller closes the returned closer.
func (h *APIHandler) readUpload(w http.ResponseWriter, r *http.Request) (upload.File, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return upload.File{}, nil, errUploadTooLarge
		}
		return upload.File{}, nil, err
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return upload.File{}, nil, upload.ErrNoFile
		}
		return upload.File{}, nil, err
	}
	file, err := upload.Inspect(hdr.Filename, hdr.Header.Get("Content-Type"), f)
	if err != nil {
		f.Close()
		return upload.File{}, nil, err
	}
	return file, func() { f.Close() }, nil
}

var errUploadTooLarge = errors.New("The file is too large!")

// uploadProblem is the message for a form that never reached the backend.
func uploadProblem(err error) string {
	if errors.Is(err, errUploadTooLarge) {
		return err.Error()
	}
	return userMessage(err, "Could not read the uploaded file!")
}

func (h *APIHandler) UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	if st.ProjectID == 0 {
		h.redirectWithFlash(w, r, "/documents", "Please select a project first!", true)
		return
	}

	file, done, err := h.readUpload(w, r)
	if err != nil {
		slog.WarnContext(ctx, "rejected document upload", "err", err)
		h.redirectWithFlash(w, r, "/documents", uploadProblem(err), true)
		return
	}
	defer done()

	fileName := strings.TrimSpace(r.FormValue("file_name"))
	uploader := strings.TrimSpace(r.FormValue("uploader_username"))
	if fileName == "" || uploader == "" {
		h.redirectWithFlash(w, r, "/documents", "Please fill in all fields!", true)
		return
	}
	if err := upload.ForDocument(file); err != nil {
		h.redirectWithFlash(w, r, "/documents", err.Error(), true)
		return
	}

	_, err = h.backend.UploadDocument(ctx, st.Token, backend.DocumentUpload{
		File:             backend.FilePart{Name: file.Name, ContentType: file.ContentType, Content: file.Content},
		FileName:         fileName,
		UploaderUsername: uploader,
		ProjectID:        st.ProjectID,
	})
	if err != nil {
		h.actionFailed(w, r, "/documents", err, "Upload failed: ")
		return
	}
	slog.InfoContext(ctx, "document uploaded", "project_id", st.ProjectID, "file_name", fileName)
	h.redirectWithFlash(w, r, "/documents", "Document uploaded successfully!", false)
}

func reportsTab() string {
	return "/documents?" + url.Values{"tab": {tabReports}}.Encode()
}

func (h *APIHandler) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	to := reportsTab()
	if st.ProjectID == 0 {
		h.redirectWithFlash(w, r, to, "Please select a project first!", true)
		return
	}

	name := strings.TrimSpace(r.FormValue("report_name"))
	createdBy := strings.TrimSpace(r.FormValue("created_by"))
	if name == "" || createdBy == "" {
		h.redirectWithFlash(w, r, to, "Please fill in all fields!", true)
		return
	}
	if _, err := h.backend.GenerateReport(ctx, st.Token, name, createdBy, st.ProjectID); err != nil {
		h.actionFailed(w, r, to, err, "Report generation failed: ")
		return
	}
	h.redirectWithFlash(w, r, to, "Report generated successfully!", false)
}

func (h *APIHandler) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	to := reportsTab()
	id, ok := parseID(chi.URLParam(r, "reportID"))
	if !ok {
		h.redirectWithFlash(w, r, to, "Invalid report", true)
		return
	}
	if err := h.backend.DeleteReport(ctx, st.Token, id); err != nil {
		h.actionFailed(w, r, to, err, "Delete failed: ")
		return
	}
	h.redirectWithFlash(w, r, to, "Report deleted successfully!", false)
}
