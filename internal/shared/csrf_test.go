package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passage-app/passage/internal/shared"
)

func TestEnsureTokenIsStable(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")

	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	first, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	second, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	csrf.Rotate(sess)
	third, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestVerifyToken(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, csrf.VerifyToken(context.Background(), sess, "x"), shared.ErrCSRFTokenMissing)

	token, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.NoError(t, csrf.VerifyToken(context.Background(), sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(context.Background(), sess, token+"x"), shared.ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(context.Background(), nil, token), shared.ErrCSRFTokenMissing)
}

func TestProtectMiddleware(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	token, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)

	handler := csrf.Protect(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	post := func(form url.Values, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			req.Header.Set(shared.CSRFHeader, header)
		}
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res.Code
	}

	assert.Equal(t, http.StatusForbidden, post(url.Values{}, ""))
	assert.Equal(t, http.StatusForbidden, post(url.Values{shared.CSRFFormField: {"forged"}}, ""))
	assert.Equal(t, http.StatusNoContent, post(url.Values{shared.CSRFFormField: {token}}, ""))
	assert.Equal(t, http.StatusNoContent, post(url.Values{}, token))

	get := httptest.NewRecorder()
	handler.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/submit", nil))
	assert.Equal(t, http.StatusNoContent, get.Code)
}
