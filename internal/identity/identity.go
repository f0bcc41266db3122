// Package identity binds a bearer credential presented at the gRPC edge to
// an authz.Principal: a human User authenticated via an OIDC-issued JWT, or
// a non-human ServiceAccount authenticated via a static bearer key.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

// claims is the subset of an ID token's claims identity cares about.
type claims struct {
	Email string `json:"email"`
}

// accounts is the lookup surface Authenticator depends on. *store.Queries
// satisfies it against Postgres; tests supply a fake.
type accounts interface {
	FindUserByEmail(ctx context.Context, email string) (store.User, error)
	FindServiceAccountByKey(ctx context.Context, key string) (store.ServiceAccount, error)
}

// keySource resolves the JWKS an OIDC-issued JWT is validated against.
type keySource interface {
	Get(ctx context.Context) (*jose.JSONWebKeySet, error)
}

// Authenticator validates bearer credentials and resolves them to a
// Principal. It is safe for concurrent use.
type Authenticator struct {
	accounts accounts
	keys     keySource
}

// NewAuthenticator performs OIDC discovery against issuerURL to locate the
// provider's JWKS endpoint, then builds an Authenticator backed by st for
// User/ServiceAccount lookups. Discovery makes a single network call; the
// keyset itself is fetched lazily and cached with a TTL so a running
// process doesn't refetch it on every request. An empty issuerURL disables
// JWT validation entirely — only ServiceAccount bearer keys will resolve.
func NewAuthenticator(ctx context.Context, issuerURL string, st *store.Store) (*Authenticator, error) {
	a := &Authenticator{accounts: store.New(st.Pool)}
	if issuerURL == "" {
		return a, nil
	}

	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering OIDC provider %s: %w", issuerURL, err)
	}
	var meta struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, apperr.UnparsableMetadata(err.Error())
	}
	if meta.JWKSURI == "" {
		return nil, apperr.UnparsableMetadata("discovery document is missing jwks_uri")
	}

	a.keys = newJWKSCache(meta.JWKSURI)
	return a, nil
}

// Authenticate resolves rawToken — the value of a Bearer authorization
// header, already stripped of the "Bearer " prefix — to a Principal.
//
// A token containing two '.' separators is treated as a JWT and validated
// against the cached JWKS; its email claim is then resolved to a local
// User. Anything else is treated as a ServiceAccount's static bearer key.
func (a *Authenticator) Authenticate(ctx context.Context, rawToken string) (authz.Principal, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return authz.Principal{}, apperr.MissingAuthorizationHeader()
	}

	if strings.Count(rawToken, ".") == 2 {
		return a.authenticateUser(ctx, rawToken)
	}
	return a.authenticateServiceAccount(ctx, rawToken)
}

func (a *Authenticator) authenticateUser(ctx context.Context, rawToken string) (authz.Principal, error) {
	if a.keys == nil {
		return authz.Principal{}, apperr.MalformedBearerToken("OIDC is not configured")
	}

	tok, err := jwt.ParseSigned(rawToken, []jwt.SignatureAlgorithm{jwt.RS256, jwt.ES256})
	if err != nil {
		return authz.Principal{}, apperr.MalformedBearerToken(err.Error())
	}

	keySet, err := a.keys.Get(ctx)
	if err != nil {
		return authz.Principal{}, err
	}

	var c claims
	var verified bool
	for _, header := range tok.Headers {
		for _, key := range keySet.Key(header.KeyID) {
			if err := tok.Claims(key.Key, &c); err == nil {
				verified = true
				break
			}
		}
		if verified {
			break
		}
	}
	if !verified {
		return authz.Principal{}, apperr.MalformedBearerToken("token signature does not match any known key")
	}
	if c.Email == "" {
		return authz.Principal{}, apperr.MalformedBearerToken("token is missing an email claim")
	}

	u, err := a.accounts.FindUserByEmail(ctx, c.Email)
	if err != nil {
		if apperrErr, ok := apperr.As(err); ok && apperrErr.Kind == apperr.KindNotFound {
			return authz.Principal{}, apperr.UserNotRegistered(c.Email)
		}
		return authz.Principal{}, err
	}
	return authz.Principal{Type: "user", ID: u.ID.String()}, nil
}

func (a *Authenticator) authenticateServiceAccount(ctx context.Context, key string) (authz.Principal, error) {
	sa, err := a.accounts.FindServiceAccountByKey(ctx, key)
	if err != nil {
		if apperrErr, ok := apperr.As(err); ok && apperrErr.Kind == apperr.KindNotFound {
			return authz.Principal{}, apperr.Unauthenticated("no service account matches the presented key")
		}
		return authz.Principal{}, err
	}
	return authz.Principal{Type: "service_account", ID: sa.ID.String()}, nil
}
