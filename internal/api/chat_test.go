package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agent-chat-relay/backend/internal/agent"
	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/errors"
	"agent-chat-relay/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	result *agent.TurnResult
	err    error
	calls  int
}

func (s *stubClient) SendMessage(ctx context.Context, content, threadID string) (*agent.TurnResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func configuredConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Agent = config.AgentConfig{
		Endpoint:     "https://agents.example.com",
		Project:      "demo-project",
		AgentID:      "asst_1",
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "s3cret",
	}
	return cfg
}

func newTestRouter(client AgentClient, cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryWithLogger())

	controller := NewChatController(client, cfg, logger.New(logger.DefaultConfig()))
	controller.RegisterRoutes(r)
	return r
}

func doChat(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChatSuccess(t *testing.T) {
	stub := &stubClient{result: &agent.TurnResult{
		ThreadID: "thread_1",
		Messages: []agent.Message{
			{ID: "msg_1", Role: "user", Content: "hi", CreatedAt: time.Now()},
			{ID: "msg_2", Role: "assistant", Content: "hello!", CreatedAt: time.Now()},
		},
		Run: agent.Run{ID: "run_1", Status: agent.RunStatusCompleted},
	}}
	r := newTestRouter(stub, configuredConfig())

	w := doChat(r, `{"message":"hi"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"threadId":"thread_1"`)
	assert.Contains(t, w.Body.String(), "hello!")
	assert.Equal(t, 1, stub.calls)
}

func TestChatUnconfiguredReturns503(t *testing.T) {
	stub := &stubClient{}
	r := newTestRouter(stub, &config.Config{})

	for _, body := range []string{`{"message":"hi"}`, `{"message":""}`, `not json`} {
		w := doChat(r, body)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, "body %s", body)
	}
	assert.Equal(t, 0, stub.calls, "unconfigured relay must not call the remote API")
}

func TestChatValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing message", `{}`, "message"},
		{"empty message", `{"message":""}`, "message"},
		{"whitespace message", `{"message":"   \n\t"}`, "message"},
		{"blank thread id", `{"message":"hi","threadId":"   "}`, "threadId"},
		{"malformed json", `{"message":`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClient{}
			r := newTestRouter(stub, configuredConfig())

			w := doChat(r, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.field)
			assert.Equal(t, 0, stub.calls)
		})
	}
}

func TestChatUpstreamFailureReturns502(t *testing.T) {
	stub := &stubClient{err: errors.NewRemoteAPIError("start run", 500, `{"error":"boom"}`)}
	r := newTestRouter(stub, configuredConfig())

	w := doChat(r, `{"message":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "start run failed with status 500")
}

func TestChatTimeoutReturns502(t *testing.T) {
	stub := &stubClient{err: errors.NewTimeoutError("run run_1 still in_progress after 2m0s")}
	r := newTestRouter(stub, configuredConfig())

	w := doChat(r, `{"message":"hi"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "in_progress")
}

func TestChatUnexpectedFailureReturns500(t *testing.T) {
	stub := &stubClient{err: assert.AnError}
	r := newTestRouter(stub, configuredConfig())

	w := doChat(r, `{"message":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error(), "internal detail must not leak")
}

func TestDescribe(t *testing.T) {
	r := newTestRouter(&stubClient{}, configuredConfig())

	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agent-chat-relay")
	assert.Contains(t, w.Body.String(), `"agentConfigured":true`)
	assert.Contains(t, w.Body.String(), "/api/chat")
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&stubClient{}, &config.Config{})

	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"agentConfigured":false`)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
