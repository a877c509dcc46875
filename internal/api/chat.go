package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"siteinspector.com/console/internal/backend"
	"siteinspector.com/console/internal/session"
)

type chatLine struct {
	ID     int64  `json:"id"`
	Text   string `json:"message"`
	Sender string `json:"sender_username"`
	Time   string `json:"time"`
	Mine   bool   `json:"mine"`
}

type chatView struct {
	Lines       []chatLine
	PollSeconds int
}

func toChatLines(msgs []backend.ChatMessage, username string) []chatLine {
	lines := make([]chatLine, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, chatLine{
			ID:     m.ID,
			Text:   m.Message,
			Sender: m.SenderUsername,
			Time:   m.Timestamp.String(),
			Mine:   username != "" && m.SenderUsername == username,
		})
	}
	return lines
}

func username(st *session.State) string {
	if st.User == nil {
		return ""
	}
	return st.User.Username
}

// ChatPageHandler shows the chat of the selected project. History is fetched
// when the session opens a new feed, or on demand via ?poll=1 for browsers
// that cannot follow the event stream.
func (h *APIHandler) ChatPageHandler(w http.ResponseWriter, r *http.Request) {
	page, ok := h.newPage(w, r, "Communication", "chat")
	if !ok {
		return
	}
	view := &chatView{PollSeconds: max(int(h.chats.PollInterval()/time.Second), 1)}
	page.Content = view
	if page.ProjectID == 0 {
		h.render(w, r, http.StatusOK, "chat.html", page)
		return
	}

	ctx := r.Context()
	st := session.MustFromContext(ctx)
	feed, fresh := h.chats.Feed(st.ID, page.ProjectID)
	if fresh || r.URL.Query().Get("poll") != "" {
		if err := feed.Refresh(ctx, st.Token); err != nil {
			if h.unauthorized(w, r, err) {
				return
			}
			slog.WarnContext(ctx, "failed to fetch messages", "project_id", page.ProjectID, "err", err)
			page.addError(userMessage(err, "Failed to fetch messages!"))
		}
	}
	msgs, _ := feed.Snapshot()
	view.Lines = toChatLines(msgs, username(st))
	h.render(w, r, http.StatusOK, "chat.html", page)
}

// SendMessageHandler posts a message and appends it to the session's feed.
// Script clients asking for JSON get the stored line back instead of a redirect.
func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	wantsJSON := strings.Contains(r.Header.Get("Accept"), "application/json")

	if st.ProjectID == 0 {
		if wantsJSON {
			http.Error(w, "Please select a project first!", http.StatusConflict)
			return
		}
		h.redirectWithFlash(w, r, "/chat", "Please select a project first!", true)
		return
	}

	feed, _ := h.chats.Feed(st.ID, st.ProjectID)
	stored, err := feed.Send(ctx, st.Token, r.FormValue("message"), username(st))
	if err != nil {
		if !wantsJSON {
			h.actionFailed(w, r, "/chat", err, "")
			return
		}
		if errors.Is(err, backend.ErrUnauthorized) {
			h.endSession(r, st)
			http.Error(w, sessionExpiredMsg, http.StatusUnauthorized)
			return
		}
		status := http.StatusBadGateway
		var se *backend.StatusError
		if !errors.As(err, &se) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, userMessage(err, "Failed to send message!"), status)
		return
	}

	if wantsJSON {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(toChatLines([]backend.ChatMessage{*stored}, username(st))[0])
		return
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// ChatStreamHandler polls the backend for the selected project and pushes
// every changed history to the browser as a server-sent event.
func (h *APIHandler) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.MustFromContext(ctx)
	if st.ProjectID == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.WarnContext(ctx, "failed to clear write deadline", "err", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	me := username(st)
	feed, _ := h.chats.Feed(st.ID, st.ProjectID)
	err := feed.Poll(ctx, st.Token, h.chats.PollInterval(), func(msgs []backend.ChatMessage) error {
		if err := writeEvent(w, "messages", toChatLines(msgs, me)); err != nil {
			return err
		}
		return rc.Flush()
	})
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		h.endSession(r, st)
		if werr := writeEvent(w, "logout", "/login"); werr == nil {
			_ = rc.Flush()
		}
	case err != nil && ctx.Err() == nil:
		slog.WarnContext(ctx, "chat stream ended", "project_id", st.ProjectID, "err", err)
	}
}

// endSession clears the session without writing a response.
func (h *APIHandler) endSession(r *http.Request, st *session.State) {
	if err := st.SignOut(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "failed to clear session", "session", st.ID, "err", err)
	}
	h.chats.Forget(st.ID)
}

func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
