package authz

import "context"

// Principal identifies the caller a check is performed on behalf of.
type Principal struct {
	Type string
	ID   string
}

// withPrincipal, withPermission and withResource are distinct builder
// stages so that Dispatch is only reachable once every field is set — a
// check built out of order fails to compile rather than panicking at
// runtime on a zero-value subject or resource.
type withPrincipal struct {
	checker Checker
}

type withPermission struct {
	checker   Checker
	principal Principal
}

type withResource struct {
	checker    Checker
	principal  Principal
	permission string
}

// NewCheck starts a fluent permission check against checker.
func NewCheck(checker Checker) *withPrincipal {
	return &withPrincipal{checker: checker}
}

func (b *withPrincipal) For(principal Principal) *withPermission {
	return &withPermission{checker: b.checker, principal: principal}
}

func (b *withPermission) Can(permission string) *withResource {
	return &withResource{checker: b.checker, principal: b.principal, permission: permission}
}

// On completes the check with the named resource; call Dispatch on the
// result to perform it.
func (b *withResource) On(resourceType, resourceID string) Check {
	return Check{
		checker:      b.checker,
		principal:    b.principal,
		permission:   b.permission,
		resourceType: resourceType,
		resourceID:   resourceID,
	}
}

// Check is a fully-formed, ready-to-dispatch permission check.
type Check struct {
	checker      Checker
	principal    Principal
	permission   string
	resourceType string
	resourceID   string
}

// Dispatch performs the check and reports whether the principal holds the
// permission.
func (c Check) Dispatch(ctx context.Context) (bool, error) {
	return c.checker.Check(ctx, c.principal.Type, c.principal.ID, c.permission, c.resourceType, c.resourceID)
}
