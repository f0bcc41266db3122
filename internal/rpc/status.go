package rpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/France-Nuage/plateforme-sub000/internal/apperr"
)

// toStatus translates an apperr.Error (or any other error) into a gRPC
// status, the boundary apperr's own doc comment names internal/rpc as
// responsible for.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	appErr, ok := apperr.As(err)
	if !ok {
		return status.Error(codes.Internal, err.Error())
	}

	code := codes.Internal
	switch appErr.Kind {
	case apperr.KindInput:
		code = codes.InvalidArgument
	case apperr.KindUnauthenticated:
		code = codes.Unauthenticated
	case apperr.KindForbidden:
		code = codes.PermissionDenied
	case apperr.KindNotFound:
		code = codes.NotFound
	case apperr.KindConflict:
		code = codes.AlreadyExists
	case apperr.KindExternal:
		code = codes.Unavailable
	case apperr.KindInternal, apperr.KindUnknown:
		code = codes.Internal
	}
	return status.Error(code, appErr.Error())
}
