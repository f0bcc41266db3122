package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

// jwksCacheTTL bounds how long a fetched keyset is trusted before a refetch
// is forced — long enough to avoid a round trip per request, short enough
// that a provider's key rotation is picked up without a restart.
const jwksCacheTTL = 10 * time.Minute

const jwksCacheKey = "jwks"

// jwksCache fetches and caches the JSON Web Key Set served at uri. A single
// entry is kept behind an expirable LRU rather than a bare field so the TTL
// eviction logic doesn't have to be hand-rolled.
type jwksCache struct {
	uri    string
	client *http.Client
	cache  *expirable.LRU[string, *jose.JSONWebKeySet]
}

func newJWKSCache(uri string) *jwksCache {
	return &jwksCache{
		uri:    uri,
		client: &http.Client{Timeout: 10 * time.Second},
		cache:  expirable.NewLRU[string, *jose.JSONWebKeySet](1, nil, jwksCacheTTL),
	}
}

// Get returns the cached keyset, fetching a fresh copy on a cache miss.
func (c *jwksCache) Get(ctx context.Context) (*jose.JSONWebKeySet, error) {
	if keySet, ok := c.cache.Get(jwksCacheKey); ok {
		return keySet, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.uri, nil)
	if err != nil {
		return nil, fmt.Errorf("building jwks request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.UnreachableProvider(err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.UnreachableProvider(fmt.Sprintf("jwks endpoint returned %d", resp.StatusCode))
	}

	var keySet jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&keySet); err != nil {
		return nil, apperr.UnparsableJWKS(err.Error())
	}

	c.cache.Add(jwksCacheKey, &keySet)
	return &keySet, nil
}
