package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/di"
	"agent-chat-relay/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.New()
	require.NoError(t, err)
	cfg.Security.RateLimit = 1000
	cfg.Security.RateLimitBurst = 1000

	container := di.New(cfg, logger.New(logger.DefaultConfig()))
	r := New(container)
	r.SetupRoutes()
	return r
}

func TestHealthzRoute(t *testing.T) {
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMetricsRoute(t *testing.T) {
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRequestIDHeader(t *testing.T) {
	r := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
