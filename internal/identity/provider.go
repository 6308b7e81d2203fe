// Package identity exchanges service-principal credentials for bearer
// tokens used on every call to the remote agent platform.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agent-chat-relay/backend/pkg/config"
	"agent-chat-relay/backend/pkg/errors"
	"agent-chat-relay/backend/pkg/logger"
)

// TokenProvider produces a bearer token valid for the given resource scope.
type TokenProvider interface {
	AcquireToken(ctx context.Context, scope string) (string, error)
}

// Token is a bearer token together with its acquired lifetime.
type Token struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// ClientCredentials implements the OAuth2 client-credentials grant against
// the platform tenant's token endpoint.
type ClientCredentials struct {
	// TokenURL is the full token endpoint. Overridable for tests.
	TokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client
	log          *logger.Logger
}

// NewClientCredentials builds a provider from the agent credential group.
func NewClientCredentials(cfg config.AgentConfig, log *logger.Logger) *ClientCredentials {
	return &ClientCredentials{
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		client:       &http.Client{Timeout: 30 * time.Second},
		log:          log,
	}
}

// AcquireToken requests a fresh bearer token for the given scope.
func (p *ClientCredentials) AcquireToken(ctx context.Context, scope string) (string, error) {
	tok, err := p.acquire(ctx, scope)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func (p *ClientCredentials) acquire(ctx context.Context, scope string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("scope", scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewAuthError(fmt.Sprintf("building token request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.LogError(err, "Token request failed")
		return nil, errors.NewAuthError(fmt.Sprintf("token request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.log.Error("Identity provider rejected credentials",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return nil, errors.NewAuthError(fmt.Sprintf("identity provider returned status %d", resp.StatusCode))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.NewAuthError(fmt.Sprintf("decoding token response: %v", err))
	}
	if payload.AccessToken == "" {
		return nil, errors.NewAuthError("token response missing access_token")
	}

	return &Token{
		AccessToken: payload.AccessToken,
		ExpiresIn:   time.Duration(payload.ExpiresIn) * time.Second,
	}, nil
}
