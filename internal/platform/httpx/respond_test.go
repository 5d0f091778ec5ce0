package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	res := httptest.NewRecorder()
	JSON(res, http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, res.Body.String())
}

func TestProblem(t *testing.T) {
	res := httptest.NewRecorder()
	Problem(res, http.StatusServiceUnavailable, "queue unavailable")

	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, "application/problem+json", res.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"title":"Service Unavailable","status":503,"detail":"queue unavailable"}`, res.Body.String())
}
