package identity

import (
	"context"
	"time"

	"agent-chat-relay/backend/pkg/cache"
)

// expirySkew is subtracted from a token's lifetime before caching so a
// token is never handed out within a minute of expiring.
const expirySkew = time.Minute

// CachingProvider wraps a ClientCredentials provider with an in-memory
// cache keyed by scope. Tokens are cached for their reported lifetime
// minus a safety skew; short-lived tokens are never cached.
type CachingProvider struct {
	inner *ClientCredentials
	store *cache.Cache
}

// NewCachingProvider wraps the given provider.
func NewCachingProvider(inner *ClientCredentials) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		store: cache.New(0, 5*time.Minute, 16),
	}
}

// AcquireToken returns a cached token for the scope when one is still
// fresh, acquiring a new one otherwise.
func (p *CachingProvider) AcquireToken(ctx context.Context, scope string) (string, error) {
	if v, ok := p.store.Get(scope); ok {
		if token, ok := v.(string); ok {
			return token, nil
		}
	}

	tok, err := p.inner.acquire(ctx, scope)
	if err != nil {
		return "", err
	}

	if ttl := tok.ExpiresIn - expirySkew; ttl > 0 {
		p.store.SetWithExpiration(scope, tok.AccessToken, ttl)
	}
	return tok.AccessToken, nil
}
