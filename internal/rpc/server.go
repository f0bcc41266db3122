package rpc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
	"github.com/France-Nuage/plateforme-sub000/internal/authz"
	"github.com/France-Nuage/plateforme-sub000/internal/compute"
	"github.com/France-Nuage/plateforme-sub000/internal/identity"
	"github.com/France-Nuage/plateforme-sub000/internal/telemetry"
)

// authenticator is the identity.Authenticator surface the interceptor
// depends on.
type authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (authz.Principal, error)
}

type principalKey struct{}

func principalFromContext(ctx context.Context) (authz.Principal, error) {
	p, ok := ctx.Value(principalKey{}).(authz.Principal)
	if !ok {
		return authz.Principal{}, apperr.Unauthenticated("no principal bound to this call")
	}
	return p, nil
}

// authInterceptor extracts the "authorization" metadata entry from every
// unary call, resolves it to a Principal via auth, and binds it to the
// context handlers read it back from via principalFromContext.
func authInterceptor(auth authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, toStatus(apperr.MissingAuthorizationHeader())
		}
		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, toStatus(apperr.MissingAuthorizationHeader())
		}
		token := strings.TrimPrefix(values[0], "Bearer ")
		token = strings.TrimPrefix(token, "bearer ")

		principal, err := auth.Authenticate(ctx, token)
		if err != nil {
			return nil, toStatus(err)
		}
		return handler(context.WithValue(ctx, principalKey{}, principal), req)
	}
}

// metricsInterceptor records every call's latency and outcome onto
// telemetry.GRPCRequestDuration.
func metricsInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		telemetry.GRPCRequestDuration.WithLabelValues(info.FullMethod, code.String()).Observe(time.Since(start).Seconds())
		return resp, err
	}
}

// recoveryInterceptor turns a panicking handler into an Internal status
// instead of taking the whole server down with it.
func recoveryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("rpc handler panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// NewServer builds the gRPC server exposing the ControlPlane service:
// recovery, metrics and principal-binding auth run as a unary interceptor
// chain in front of every method, and reflection is registered so
// grpcurl/grpc-web-aware clients can discover the service without a
// checked-in descriptor set.
func NewServer(computeService *compute.Service, auth *identity.Authenticator, logger *slog.Logger) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(logger),
			metricsInterceptor(),
			authInterceptor(auth),
		),
	)
	srv.RegisterService(&ServiceDesc, &controlPlaneServer{compute: computeService})
	reflection.Register(srv)
	return srv
}
