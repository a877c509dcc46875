// Package session carries the per-browser console state: the backend token,
// the signed-in user and the selected project. The state lives in the local
// store and is found again through a signed cookie that only holds the
// session id and pending flash messages.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/sessions"
	"siteinspector.com/console/internal/store"
)

// Fixed storage keys, the same ones the browser client used in local storage.
const (
	KeyToken           = "token"
	KeyUser            = "user"
	KeySelectedProject = "selectedProjectId"
)

const (
	cookieName = "site_inspector"
	sidKey     = "sid"
	flashError = "_flash_error"
	flashOK    = "_flash_ok"
)

// Backing is the persistence the manager needs; *store.SQLiteStore satisfies it.
type Backing interface {
	CreateSession(ctx context.Context) (*store.Session, error)
	TouchSession(ctx context.Context, id string) error
	DeleteSession(ctx context.Context, id string) error
	GetValue(ctx context.Context, sessionID, key string) ([]byte, error)
	SetValue(ctx context.Context, sessionID, key string, value []byte) error
	DeleteValue(ctx context.Context, sessionID, key string) error
	Values(ctx context.Context, sessionID string) (map[string][]byte, error)
}

type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == "admin" }

type Flash struct {
	Error   []string
	Success []string
}

// State is the session of the current request. Setters write through to the
// store immediately.
type State struct {
	ID        string
	Token     string
	User      *User
	ProjectID int64
	Flash     Flash

	backing Backing
	cookie  *sessions.Session
}

func (s *State) Authenticated() bool { return s.Token != "" && s.User != nil }

// SetProject stores the selected project; zero removes the selection.
func (s *State) SetProject(ctx context.Context, id int64) error {
	if id > 0 {
		if err := s.backing.SetValue(ctx, s.ID, KeySelectedProject, []byte(strconv.FormatInt(id, 10))); err != nil {
			return err
		}
	} else if err := s.backing.DeleteValue(ctx, s.ID, KeySelectedProject); err != nil {
		return err
	}
	s.ProjectID = max(id, 0)
	return nil
}

// SignIn stores the token and the user profile.
func (s *State) SignIn(ctx context.Context, token string, user User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.backing.SetValue(ctx, s.ID, KeyToken, []byte(token)); err != nil {
		return err
	}
	if err := s.backing.SetValue(ctx, s.ID, KeyUser, data); err != nil {
		return err
	}
	s.Token = token
	s.User = &user
	return nil
}

// SignOut clears token, user and project selection.
func (s *State) SignOut(ctx context.Context) error {
	for _, key := range []string{KeyToken, KeyUser, KeySelectedProject} {
		if err := s.backing.DeleteValue(ctx, s.ID, key); err != nil {
			return err
		}
	}
	s.Token = ""
	s.User = nil
	s.ProjectID = 0
	return nil
}

// AddFlash queues a message for the next rendered page. It must be called
// before the response is written.
func (s *State) AddFlash(w http.ResponseWriter, r *http.Request, msg string, isError bool) {
	key := flashOK
	if isError {
		key = flashError
	}
	s.cookie.AddFlash(msg, key)
	if err := s.cookie.Save(r, w); err != nil {
		slog.ErrorContext(r.Context(), "failed to save flash", "err", err)
	}
}

type contextKey struct{}

func FromContext(ctx context.Context) (*State, bool) {
	st, ok := ctx.Value(contextKey{}).(*State)
	return st, ok && st != nil
}

// MustFromContext is for handlers mounted behind Manager.Middleware.
func MustFromContext(ctx context.Context) *State {
	st, ok := FromContext(ctx)
	if !ok {
		panic("session: state used outside session middleware")
	}
	return st
}

func WithState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, contextKey{}, st)
}

type Manager struct {
	backing Backing
	cookies *sessions.CookieStore
}

func NewManager(backing Backing, secret []byte, secure bool) *Manager {
	cs := sessions.NewCookieStore(secret)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{backing: backing, cookies: cs}
}

// Middleware resolves or creates the session of every request and puts its
// State on the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := m.load(w, r)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load session", "err", err)
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), st)))
	})
}

func (m *Manager) load(w http.ResponseWriter, r *http.Request) (*State, error) {
	ctx := r.Context()
	// A tampered or stale cookie yields a fresh session alongside the error.
	cookie, err := m.cookies.Get(r, cookieName)
	if err != nil {
		slog.WarnContext(ctx, "discarding unreadable session cookie", "err", err)
	}

	dirty := false
	sid, _ := cookie.Values[sidKey].(string)
	if sid != "" {
		if err := m.backing.TouchSession(ctx, sid); err != nil {
			if !errors.Is(err, store.ErrSessionNotFound) {
				return nil, err
			}
			sid = ""
		}
	}
	if sid == "" {
		sess, err := m.backing.CreateSession(ctx)
		if err != nil {
			return nil, err
		}
		sid = sess.ID
		cookie.Values[sidKey] = sid
		dirty = true
	}

	st := &State{ID: sid, backing: m.backing, cookie: cookie}
	if err := st.hydrate(ctx); err != nil {
		return nil, err
	}
	for _, f := range cookie.Flashes(flashError) {
		if msg, ok := f.(string); ok {
			st.Flash.Error = append(st.Flash.Error, msg)
			dirty = true
		}
	}
	for _, f := range cookie.Flashes(flashOK) {
		if msg, ok := f.(string); ok {
			st.Flash.Success = append(st.Flash.Success, msg)
			dirty = true
		}
	}
	if dirty {
		if err := cookie.Save(r, w); err != nil {
			return nil, fmt.Errorf("failed to save session cookie: %w", err)
		}
	}
	return st, nil
}

func (s *State) hydrate(ctx context.Context) error {
	values, err := s.backing.Values(ctx, s.ID)
	if err != nil {
		return err
	}
	s.Token = string(values[KeyToken])
	if raw := values[KeyUser]; len(raw) > 0 {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			slog.WarnContext(ctx, "dropping unreadable stored user", "session", s.ID, "err", err)
		} else {
			s.User = &u
		}
	}
	if raw := values[KeySelectedProject]; len(raw) > 0 {
		if id, err := strconv.ParseInt(string(raw), 10, 64); err == nil && id > 0 {
			s.ProjectID = id
		}
	}
	return nil
}
