package rpc

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/France-Nuage/plateforme-sub000/internal/authz"
)

type fakeAuthenticator struct {
	principal authz.Principal
	err       error
}

func (f fakeAuthenticator) Authenticate(ctx context.Context, rawToken string) (authz.Principal, error) {
	return f.principal, f.err
}

func TestAuthInterceptorRejectsMissingMetadata(t *testing.T) {
	interceptor := authInterceptor(fakeAuthenticator{})
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not run without metadata")
		return nil, nil
	})
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestAuthInterceptorBindsPrincipalFromBearerToken(t *testing.T) {
	want := authz.Principal{Type: "user", ID: "u1"}
	interceptor := authInterceptor(fakeAuthenticator{principal: want})

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer some-token"))

	var gotPrincipal authz.Principal
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, func(ctx context.Context, req any) (any, error) {
		p, pErr := principalFromContext(ctx)
		if pErr != nil {
			t.Fatalf("principalFromContext: %v", pErr)
		}
		gotPrincipal = p
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if gotPrincipal != want {
		t.Fatalf("principal = %+v, want %+v", gotPrincipal, want)
	}
}

func TestPrincipalFromContextRejectsUnboundContext(t *testing.T) {
	if _, err := principalFromContext(context.Background()); err == nil {
		t.Fatal("expected an error for a context with no bound principal")
	}
}
