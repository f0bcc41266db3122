package identity

import (
	"context"
	"testing"

	"github.com/go-jose/go-jose/v4"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/idgen"
	"github.com/France-Nuage/plateforme-sub000/internal/store"
)

type fakeAccounts struct {
	userByEmail  map[string]store.User
	accountByKey map[string]store.ServiceAccount
}

func (f *fakeAccounts) FindUserByEmail(ctx context.Context, email string) (store.User, error) {
	if u, ok := f.userByEmail[email]; ok {
		return u, nil
	}
	return store.User{}, apperr.NotFound("user")
}

func (f *fakeAccounts) FindServiceAccountByKey(ctx context.Context, key string) (store.ServiceAccount, error) {
	if sa, ok := f.accountByKey[key]; ok {
		return sa, nil
	}
	return store.ServiceAccount{}, apperr.NotFound("service account")
}

func TestAuthenticateRejectsEmptyToken(t *testing.T) {
	a := &Authenticator{accounts: &fakeAccounts{}}
	if _, err := a.Authenticate(context.Background(), ""); err == nil {
		t.Fatal("expected an error for an empty token")
	}
}

func TestAuthenticateResolvesServiceAccountByStaticKey(t *testing.T) {
	id := idgen.New()
	a := &Authenticator{accounts: &fakeAccounts{
		accountByKey: map[string]store.ServiceAccount{"root-key": {ID: id, Name: "root"}},
	}}

	p, err := a.Authenticate(context.Background(), "root-key")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.Type != "service_account" || p.ID != id.String() {
		t.Fatalf("got principal %+v, want service_account/%s", p, id)
	}
}

func TestAuthenticateRejectsUnknownServiceAccountKey(t *testing.T) {
	a := &Authenticator{accounts: &fakeAccounts{}}
	if _, err := a.Authenticate(context.Background(), "no-such-key"); err == nil {
		t.Fatal("expected an error for an unregistered key")
	}
}

func TestAuthenticateRejectsJWTWithoutOIDCConfigured(t *testing.T) {
	a := &Authenticator{accounts: &fakeAccounts{}}
	// Three dot-separated segments look like a JWT; keys is nil because no
	// issuer was configured.
	if _, err := a.Authenticate(context.Background(), "a.b.c"); err == nil {
		t.Fatal("expected an error when OIDC is not configured")
	}
}

// staticKeySource always serves keySet, standing in for the TTL-cached
// JWKS fetch in tests that don't want a live HTTP endpoint.
type staticKeySource struct{ keySet *jose.JSONWebKeySet }

func (s staticKeySource) Get(ctx context.Context) (*jose.JSONWebKeySet, error) {
	return s.keySet, nil
}

func TestAuthenticateRejectsTokenSignedByUnknownKey(t *testing.T) {
	a := &Authenticator{
		accounts: &fakeAccounts{},
		keys:     staticKeySource{keySet: &jose.JSONWebKeySet{}},
	}
	// A syntactically valid but unsigned-by-anything-we-know JWT.
	const fakeJWT = "eyJhbGciOiJSUzI1NiIsImtpZCI6IngifQ.eyJlbWFpbCI6ImFAYi5jIn0.c2ln"
	if _, err := a.Authenticate(context.Background(), fakeJWT); err == nil {
		t.Fatal("expected an error for a token matching no known key")
	}
}
