package usecase

import (
	"sync"
	"time"

	"github.com/riskcompass/riskcompass/pkg/domain/model/auth"
)

const (
	authCacheTTL = 5 * time.Minute
)

type cachedPrincipal struct {
	principal *auth.Principal
	expiresAt time.Time
}

type authCache struct {
	cache sync.Map
}

func newAuthCache() *authCache {
	return &authCache{}
}

func (c *authCache) get(token string) (*auth.Principal, bool) {
	val, ok := c.cache.Load(token)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedPrincipal)
	if time.Now().After(cached.expiresAt) {
		c.cache.Delete(token)
		return nil, false
	}

	return cached.principal, true
}

// set caches principal until the token expires or the TTL passes, whichever
// comes first
func (c *authCache) set(token string, principal *auth.Principal, tokenExp time.Time) {
	expiresAt := time.Now().Add(authCacheTTL)
	if !tokenExp.IsZero() && tokenExp.Before(expiresAt) {
		expiresAt = tokenExp
	}
	c.cache.Store(token, &cachedPrincipal{
		principal: principal,
		expiresAt: expiresAt,
	})
}
