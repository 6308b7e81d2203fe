package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/errors"
	"agent-chat-relay/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAgentConfig() config.AgentConfig {
	return config.AgentConfig{
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "s3cret",
	}
}

func TestAcquireToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "https://ai.azure.com/.default", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-abc","expires_in":3600}`))
	}))
	defer srv.Close()

	p := NewClientCredentials(testAgentConfig(), logger.New(logger.DefaultConfig()))
	p.TokenURL = srv.URL

	token, err := p.AcquireToken(context.Background(), "https://ai.azure.com/.default")
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestAcquireTokenRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	p := NewClientCredentials(testAgentConfig(), logger.New(logger.DefaultConfig()))
	p.TokenURL = srv.URL

	_, err := p.AcquireToken(context.Background(), "scope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NewAuthError("")), "expected an auth error, got %v", err)
}

func TestAcquireTokenNetworkFailure(t *testing.T) {
	p := NewClientCredentials(testAgentConfig(), logger.New(logger.DefaultConfig()))
	p.TokenURL = "http://127.0.0.1:1/token"

	_, err := p.AcquireToken(context.Background(), "scope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NewAuthError("")))
}

func TestCachingProviderReusesFreshTokens(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"tok-cached","expires_in":3600}`))
	}))
	defer srv.Close()

	inner := NewClientCredentials(testAgentConfig(), logger.New(logger.DefaultConfig()))
	inner.TokenURL = srv.URL
	p := NewCachingProvider(inner)

	for i := 0; i < 3; i++ {
		token, err := p.AcquireToken(context.Background(), "scope")
		require.NoError(t, err)
		assert.Equal(t, "tok-cached", token)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestCachingProviderSkipsShortLivedTokens(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"access_token":"tok-short","expires_in":30}`))
	}))
	defer srv.Close()

	inner := NewClientCredentials(testAgentConfig(), logger.New(logger.DefaultConfig()))
	inner.TokenURL = srv.URL
	p := NewCachingProvider(inner)

	for i := 0; i < 2; i++ {
		_, err := p.AcquireToken(context.Background(), "scope")
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), calls.Load(), "tokens inside the expiry skew must not be cached")
}
