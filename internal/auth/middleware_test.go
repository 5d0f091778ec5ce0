package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passage-app/passage/internal/auth"
	"github.com/passage-app/passage/internal/shared"
)

func loadSession(t *testing.T) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return sess
}

func TestRequireUserRedirectsAnonymous(t *testing.T) {
	sess := loadSession(t)
	called := false
	guarded := auth.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	res := httptest.NewRecorder()
	guarded.ServeHTTP(res, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/users/login", res.Header().Get("Location"))
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, auth.MsgLoginRequired, flash.Message)
}

func TestRequireUserPassesIdentified(t *testing.T) {
	called := false
	guarded := auth.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req = req.WithContext(shared.ContextWithIdentity(req.Context(), &shared.Identity{ID: "u-1"}))
	guarded.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

func TestIdentify(t *testing.T) {
	t.Run("resolves session user", func(t *testing.T) {
		sess := loadSession(t)
		sess.SetUser("u-1")
		var identity *shared.Identity
		var name string
		h := auth.Identify(seededStore(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity = shared.IdentityFromContext(r.Context())
			if u := auth.UserFromContext(r.Context()); u != nil {
				name = u.Name
			}
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.ServeHTTP(httptest.NewRecorder(), req.WithContext(shared.ContextWithSession(req.Context(), sess)))

		require.NotNil(t, identity)
		assert.Equal(t, "ada@example.com", identity.Email)
		assert.Equal(t, "Ada", name)
	})

	t.Run("clears vanished user", func(t *testing.T) {
		sess := loadSession(t)
		sess.SetUser("deleted-user")
		var identity *shared.Identity
		h := auth.Identify(seededStore(t), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity = shared.IdentityFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.ServeHTTP(httptest.NewRecorder(), req.WithContext(shared.ContextWithSession(req.Context(), sess)))

		assert.Nil(t, identity)
		assert.Empty(t, sess.User())
	})

	t.Run("store failure stays anonymous", func(t *testing.T) {
		sess := loadSession(t)
		sess.SetUser("u-1")
		store := seededStore(t)
		store.Err = errors.New("connection refused")
		var identity *shared.Identity
		h := auth.Identify(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity = shared.IdentityFromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.ServeHTTP(httptest.NewRecorder(), req.WithContext(shared.ContextWithSession(req.Context(), sess)))

		assert.Nil(t, identity)
		assert.Equal(t, "u-1", sess.User())
	})
}
