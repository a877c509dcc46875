package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"siteinspector.com/console/internal/store"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) (*Manager, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewManager(st, []byte(testSecret), false), st
}

// serve runs one request through the middleware and returns the recorder and
// the state the handler saw.
func serve(t *testing.T, m *Manager, cookies []*http.Cookie, fn func(w http.ResponseWriter, r *http.Request, st *State)) (*httptest.ResponseRecorder, *State) {
	t.Helper()
	var seen *State
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = MustFromContext(r.Context())
		if fn != nil {
			fn(w, r, seen)
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, seen
}

// latestCookie keeps the last Set-Cookie for the session cookie; a request
// that saves twice emits two headers and the browser keeps the later one.
func latestCookie(rr *httptest.ResponseRecorder) []*http.Cookie {
	var last *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == cookieName {
			last = c
		}
	}
	if last == nil {
		return nil
	}
	return []*http.Cookie{last}
}

func TestMiddleware_CreatesSessionAndCookie(t *testing.T) {
	m, _ := newTestManager(t)

	rr, st := serve(t, m, nil, nil)
	require.NotNil(t, st)
	assert.NotEmpty(t, st.ID)
	assert.False(t, st.Authenticated())
	assert.Zero(t, st.ProjectID)

	cookies := latestCookie(rr)
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSelectedProject_RoundTrip(t *testing.T) {
	m, _ := newTestManager(t)

	rr, first := serve(t, m, nil, func(w http.ResponseWriter, r *http.Request, st *State) {
		require.NoError(t, st.SetProject(r.Context(), 42))
	})
	cookies := latestCookie(rr)

	_, second := serve(t, m, cookies, nil)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(42), second.ProjectID)

	serve(t, m, cookies, func(w http.ResponseWriter, r *http.Request, st *State) {
		require.NoError(t, st.SetProject(r.Context(), 0))
		assert.Zero(t, st.ProjectID)
	})
	_, third := serve(t, m, cookies, nil)
	assert.Zero(t, third.ProjectID)
}

func TestSetProject_ZeroRemovesStoredKey(t *testing.T) {
	m, backing := newTestManager(t)
	ctx := context.Background()

	_, st := serve(t, m, nil, nil)
	require.NoError(t, st.SetProject(ctx, 7))
	v, err := backing.GetValue(ctx, st.ID, KeySelectedProject)
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), v)

	require.NoError(t, st.SetProject(ctx, 0))
	v, err = backing.GetValue(ctx, st.ID, KeySelectedProject)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSignInAndSignOut(t *testing.T) {
	m, _ := newTestManager(t)

	rr, _ := serve(t, m, nil, func(w http.ResponseWriter, r *http.Request, st *State) {
		require.NoError(t, st.SignIn(r.Context(), "tok", User{Username: "ana", Role: "admin"}))
		require.NoError(t, st.SetProject(r.Context(), 3))
	})
	cookies := latestCookie(rr)

	_, st := serve(t, m, cookies, nil)
	require.True(t, st.Authenticated())
	assert.Equal(t, "tok", st.Token)
	assert.Equal(t, "ana", st.User.Username)
	assert.True(t, st.User.IsAdmin())

	serve(t, m, cookies, func(w http.ResponseWriter, r *http.Request, st *State) {
		require.NoError(t, st.SignOut(r.Context()))
	})
	_, st = serve(t, m, cookies, nil)
	assert.False(t, st.Authenticated())
	assert.Zero(t, st.ProjectID)
}

func TestFlash_ShownOnce(t *testing.T) {
	m, _ := newTestManager(t)

	rr, _ := serve(t, m, nil, func(w http.ResponseWriter, r *http.Request, st *State) {
		st.AddFlash(w, r, "Document uploaded successfully!", false)
		st.AddFlash(w, r, "Only PDF files are allowed!", true)
	})
	cookies := latestCookie(rr)

	rr, st := serve(t, m, cookies, nil)
	assert.Equal(t, []string{"Document uploaded successfully!"}, st.Flash.Success)
	assert.Equal(t, []string{"Only PDF files are allowed!"}, st.Flash.Error)

	_, st = serve(t, m, latestCookie(rr), nil)
	assert.Empty(t, st.Flash.Success)
	assert.Empty(t, st.Flash.Error)
}

func TestTamperedCookie_StartsFreshSession(t *testing.T) {
	m, _ := newTestManager(t)

	rr, first := serve(t, m, nil, nil)
	c := latestCookie(rr)[0]
	c.Value = strings.ToUpper(c.Value)

	_, second := serve(t, m, []*http.Cookie{c}, nil)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestMustFromContext_PanicsOutsideMiddleware(t *testing.T) {
	assert.PanicsWithValue(t, "session: state used outside session middleware", func() {
		MustFromContext(context.Background())
	})
}
