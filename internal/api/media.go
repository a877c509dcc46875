package api

import (
	"log/slog"
	"net/http"
	"strings"

	"siteinspector.com/console/internal/backend"
	"siteinspector.com/console/internal/session"
	"siteinspector.com/console/internal/upload"
)

type mediaView struct {
	Items    []backend.MediaItem
	Uploader string
}

func (h *APIHandler) MediaPageHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := h.newPage(w, r, "Media", "media")
	if !ok {
		return
	}
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	view := &mediaView{Uploader: username(st)}
	page.Content = view
	if page.ProjectID != 0 {
		items, err := h.backend.ListMedia(ctx, st.Token, page.ProjectID)
		if err != nil {
			if h.unauthorized(w, r, err) {
				return
			}
			slog.WarnContext(ctx, "failed to fetch media", "project_id", page.ProjectID, "err", err)
			page.addError(userMessage(err, "Failed to fetch media!"))
		}
		view.Items = items
	}
	h.render(w, r, http.StatusOK, "media.html", page)
}

// UploadMediaHandler sends images and videos to the media endpoint and PDFs
// to the documentation endpoint. The title falls back to the file's name.
func (h *APIHandler) UploadMediaHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	if st.ProjectID == 0 {
		h.redirectWithFlash(w, r, "/media", "Please select a project before uploading!", true)
		return
	}

	file, done, err := h.readUpload(w, r)
	if err != nil {
		slog.WarnContext(ctx, "rejected media upload", "err", err)
		h.redirectWithFlash(w, r, "/media", uploadProblem(err), true)
		return
	}
	defer done()

	fileName := upload.DisplayName(r.FormValue("file_name"), file.Name)
	uploader := strings.TrimSpace(r.FormValue("uploader"))
	if fileName == "" || uploader == "" {
		h.redirectWithFlash(w, r, "/media", "Please fill in all fields!", true)
		return
	}
	kind, err := upload.ForMedia(file)
	if err != nil {
		h.redirectWithFlash(w, r, "/media", err.Error(), true)
		return
	}

	part := backend.FilePart{Name: file.Name, ContentType: file.ContentType, Content: file.Content}
	var fileURL string
	switch kind {
	case upload.Document:
		doc, err := h.backend.UploadDocument(ctx, st.Token, backend.DocumentUpload{
			File:             part,
			FileName:         fileName,
			UploaderUsername: uploader,
			ProjectID:        st.ProjectID,
		})
		if err != nil {
			h.actionFailed(w, r, "/media", err, "Upload failed: ")
			return
		}
		if doc != nil {
			fileURL = doc.FileURL
		}
	default:
		item, err := h.backend.UploadMedia(ctx, st.Token, backend.MediaUpload{
			File:      part,
			FileName:  fileName,
			Uploader:  uploader,
			ProjectID: st.ProjectID,
		})
		if err != nil {
			h.actionFailed(w, r, "/media", err, "Upload failed: ")
			return
		}
		if item != nil {
			fileURL = item.FileURL
		}
	}

	slog.InfoContext(ctx, "media uploaded", "project_id", st.ProjectID, "kind", kind, "file_name", fileName)
	msg := "Upload successful!"
	if fileURL != "" {
		msg += " File URL: " + fileURL
	}
	h.redirectWithFlash(w, r, "/media", msg, false)
}
