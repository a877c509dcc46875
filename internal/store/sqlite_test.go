package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCreateAndGetSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	got, err := s.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	_, err = s.GetSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestValues_SetGetOverwriteDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess, err := s.CreateSession(ctx)
	require.NoError(t, err)

	v, err := s.GetValue(ctx, sess.ID, "selectedProjectId")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.SetValue(ctx, sess.ID, "selectedProjectId", []byte("4")))
	require.NoError(t, s.SetValue(ctx, sess.ID, "selectedProjectId", []byte("9")))
	v, err = s.GetValue(ctx, sess.ID, "selectedProjectId")
	require.NoError(t, err)
	assert.Equal(t, []byte("9"), v)

	require.NoError(t, s.SetValue(ctx, sess.ID, "token", []byte("tok")))
	all, err := s.Values(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"selectedProjectId": []byte("9"), "token": []byte("tok")}, all)

	require.NoError(t, s.DeleteValue(ctx, sess.ID, "selectedProjectId"))
	require.NoError(t, s.DeleteValue(ctx, sess.ID, "selectedProjectId"))
	v, err = s.GetValue(ctx, sess.ID, "selectedProjectId")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestValues_AreScopedToSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, _ := s.CreateSession(ctx)
	b, _ := s.CreateSession(ctx)

	require.NoError(t, s.SetValue(ctx, a.ID, "token", []byte("a")))
	v, err := s.GetValue(ctx, b.ID, "token")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDeleteSession_CascadesValues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx)
	require.NoError(t, s.SetValue(ctx, sess.ID, "token", []byte("tok")))

	require.NoError(t, s.DeleteSession(ctx, sess.ID))

	all, err := s.Values(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.ErrorIs(t, s.TouchSession(ctx, sess.ID), ErrSessionNotFound)
}

func TestPurgeIdleSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	old, _ := s.CreateSession(ctx)

	s.now = func() time.Time { return base.Add(2 * time.Hour) }
	fresh, _ := s.CreateSession(ctx)

	n, err := s.PurgeIdleSessions(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.GetSession(ctx, old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.GetSession(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestClosedStoreWrapsErrors(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.GetValue(context.Background(), "id", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get value[token]")
}
