// Package apperr defines the control plane's error taxonomy. Every variant
// carries contextual fields; callers at the gRPC boundary (internal/rpc)
// translate these to status codes, everyone else propagates them with
// fmt.Errorf("...: %w", err).
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for gRPC status translation.
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindExternal
	KindInternal
)

// Error is the concrete type behind every apperr.New* constructor.
type Error struct {
	Kind    Kind
	Code    string // stable machine-readable code, e.g. "SlugAlreadyExists"
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.cause }

func new_(kind Kind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, cause: cause}
}

// Input errors.
func MalformedID(msg string) *Error { return new_(KindInput, "MalformedId", msg, nil) }
func InvalidCIDR(msg string) *Error { return new_(KindInput, "InvalidCidr", msg, nil) }
func SlugAlreadyExists(slug string) *Error {
	return new_(KindConflict, "SlugAlreadyExists", fmt.Sprintf("slug %q is already in use", slug), nil)
}
func IPAlreadyInUse(addr string) *Error {
	return new_(KindConflict, "IpAlreadyInUse", fmt.Sprintf("address %s is already in use", addr), nil)
}
func IPNotInRange(addr string) *Error {
	return new_(KindInput, "IpNotInRange", fmt.Sprintf("address %s is not in the vnet subnet", addr), nil)
}
func NoAvailableIPs() *Error {
	return new_(KindConflict, "NoAvailableIps", "no reserved addresses left in pool", nil)
}

// Auth errors.
func Unauthenticated(msg string) *Error {
	return new_(KindUnauthenticated, "Unauthenticated", msg, nil)
}
func MissingAuthorizationHeader() *Error {
	return new_(KindUnauthenticated, "MissingAuthorizationHeader", "authorization header is required", nil)
}
func MalformedBearerToken(msg string) *Error {
	return new_(KindUnauthenticated, "MalformedBearerToken", msg, nil)
}
func UserNotRegistered(email string) *Error {
	return new_(KindUnauthenticated, "UserNotRegistered", fmt.Sprintf("no user registered for %q", email), nil)
}
func Forbidden(action, resource string) *Error {
	return new_(KindForbidden, "Forbidden", fmt.Sprintf("not authorized to %s %s", action, resource), nil)
}

// Resource errors.
func NotFound(name string) *Error { return new_(KindNotFound, "NotFound", name, nil) }
func VPCHasVNets() *Error {
	return new_(KindConflict, "VpcHasVnets", "vpc still has vnets attached", nil)
}
func VNetHasAddresses() *Error {
	return new_(KindConflict, "VnetHasAddresses", "vnet still has allocated addresses", nil)
}
func NetworkHasAttachedInstances() *Error {
	return new_(KindConflict, "NetworkHasAttachedInstances", "network still has attached instances", nil)
}

// External errors.
func UnreachableProvider(msg string) *Error {
	return new_(KindExternal, "UnreachableProvider", msg, nil)
}
func UnparsableMetadata(msg string) *Error { return new_(KindExternal, "UnparsableMetadata", msg, nil) }
func UnparsableJWKS(msg string) *Error     { return new_(KindExternal, "UnparsableJwks", msg, nil) }
func AuthorizationServerError(msg string) *Error {
	return new_(KindExternal, "AuthorizationServerError", msg, nil)
}
func HypervisorGuardedByIDP() *Error {
	return new_(KindExternal, "HypervisorGuardedByIdp", "hypervisor redirected to identity provider", nil)
}
func HypervisorUnexpectedRedirect(url string) *Error {
	return new_(KindExternal, "HypervisorUnexpectedRedirect", fmt.Sprintf("unexpected redirect to %s", url), nil)
}
func HypervisorUnauthorized() *Error {
	return new_(KindExternal, "HypervisorUnauthorized", "hypervisor rejected credentials", nil)
}
func HypervisorInvalidRequest(msg string) *Error {
	return new_(KindExternal, "HypervisorInvalidRequest", msg, nil)
}
func HypervisorInternal(msg string) *Error {
	return new_(KindExternal, "HypervisorInternal", msg, nil)
}
func MissingAgent() *Error {
	return new_(KindExternal, "MissingAgent", "no QEMU guest agent configured", nil)
}
func VMNotFound(id string) *Error {
	return new_(KindNotFound, "VmNotFound", fmt.Sprintf("vm %s not found on hypervisor", id), nil)
}
func VMNotRunning(id string) *Error {
	return new_(KindConflict, "VmNotRunning", fmt.Sprintf("vm %s is not running", id), nil)
}

// Internal errors.
func Database(cause error) *Error { return new_(KindInternal, "Database", cause.Error(), cause) }
func Other(msg string) *Error     { return new_(KindInternal, "Other", msg, nil) }
func Internal(msg string) *Error  { return new_(KindInternal, "Internal", msg, nil) }

// As extracts an *Error from err, the way callers at the gRPC boundary do.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
