package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sakif/repo-explainer/internal/config"
	"github.com/sakif/repo-explainer/internal/repository/sqlite"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:            8080,
		LogLevel:        "info",
		Env:             "development",
		LLMBaseURL:      config.DefaultLLMBaseURL,
		LLMModel:        "test-model",
		LLMMaxWords:     300,
		ContentBudget:   5000,
		ExplainTimeout:  5 * time.Second,
		PublicBaseURL:   "http://localhost:8080",
		RazorpayBaseURL: config.DefaultRazorpayBaseURL,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	s, err := New(cfg, store, zap.NewNop())
	require.NoError(t, err)
	return s.Handler()
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_WithoutSessionSecret(t *testing.T) {
	h := newTestServer(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"home page", http.MethodGet, "/", "", http.StatusOK},
		{"stylesheet", http.MethodGet, "/static/style.css", "", http.StatusOK},
		{"explain validates first", http.MethodPost, "/api/explain", `{"repoUrl":"not a url"}`, http.StatusBadRequest},
		{"history not mounted", http.MethodGet, "/api/search-history", "", http.StatusNotFound},
		{"register not mounted", http.MethodPost, "/api/auth/register", `{}`, http.StatusNotFound},
		{"payment unconfigured", http.MethodPost, "/api/razorpay/order", `{}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestRoutes_WithSessionSecret(t *testing.T) {
	cfg := testConfig()
	cfg.SessionSecret = "server-test-secret-0123456789"
	cfg.GitHubClientID = "cid"
	cfg.GitHubClientSecret = "csecret"
	h := newTestServer(t, cfg)

	rr := serve(h, http.MethodGet, "/api/search-history", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, http.MethodPost, "/api/auth/register", `{"email":"a@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = serve(h, http.MethodGet, "/auth/github/login", "")
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "github.com/login/oauth/authorize")

	rr = serve(h, http.MethodGet, "/auth/google/login", "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "google is not configured")

	rr = serve(h, http.MethodGet, "/", "")
	assert.Contains(t, rr.Body.String(), "/auth/github/login")
}
