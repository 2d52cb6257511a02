package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/github"
	"github.com/sakif/repo-explainer/internal/handler"
)

func getPage(t *testing.T, env *testEnv, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func TestPageHandler_Home(t *testing.T) {
	env := newTestEnv(t)

	rr := getPage(t, env, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), `action="/explain"`)
}

func TestPageHandler_ExplainRendersTintedSections(t *testing.T) {
	env := newTestEnv(t)

	rr := getPage(t, env, "/explain?repo=https://github.com/foo/bar", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	body := rr.Body.String()
	assert.Contains(t, body, `class="explanation bg-yellow-900/30"`)
	assert.Contains(t, body, `class="explanation bg-green-900/30"`)
	assert.Contains(t, body, "<strong>TL;DR</strong>")
	assert.Contains(t, body, "Demo repository")
	assert.Contains(t, body, "foo/bar")
}

func TestPageHandler_ExplainWithoutHeadingsRendersWhole(t *testing.T) {
	env := newTestEnv(t)
	env.generator.Text = "Just a paragraph."

	rr := getPage(t, env, "/explain?repo=https://github.com/foo/bar", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<p>Just a paragraph.</p>")
	assert.NotContains(t, rr.Body.String(), "data-tone")
}

func TestPageHandler_ExplainError(t *testing.T) {
	env := newTestEnv(t)
	env.fetcher.MetaErr = github.ErrRepoNotFound

	rr := getPage(t, env, "/explain?repo=https://github.com/foo/gone", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Repository not found or it&#39;s private.")
}

func TestPageHandler_SignedInShowsHistory(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.session(t, "a@example.com")

	rr := getPage(t, env, "/explain?repo=https://github.com/foo/bar", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "a@example.com")
	assert.Contains(t, body, "Recent searches")
}

// =========================================================================
// HEALTH
// =========================================================================

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{name: "healthy", wantStatus: http.StatusOK, wantBody: `{"status":"ok"}`},
		{name: "database down", pingErr: errors.New("connection refused"), wantStatus: http.StatusServiceUnavailable, wantBody: `{"status":"unavailable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(stubPinger{err: tt.pingErr}, zap.NewNop())
			rr := httptest.NewRecorder()
			h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}
