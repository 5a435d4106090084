package domain

import "context"

// Role gates which dashboard views a principal may see.
type Role string

// Dashboard roles, lowest privilege first.
const (
	RoleViewer  Role = "viewer"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleManager:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// ParseRole maps a claim value to a Role. Unknown values become RoleViewer.
func ParseRole(s string) Role {
	r := Role(s)
	if r.rank() == 0 {
		return RoleViewer
	}
	return r
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r.rank() >= min.rank()
}

type principalKey struct{}

// ContextPrincipal is the session identity carried through request context.
type ContextPrincipal struct {
	Name string
	Role Role
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}

// RequireRole returns an AccessDeniedError unless the context carries a
// principal with at least the given role.
func RequireRole(ctx context.Context, min Role) (ContextPrincipal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ContextPrincipal{}, ErrUnauthenticated("authentication required")
	}
	if !p.Role.AtLeast(min) {
		return p, ErrAccessDenied("principal %q with role %s lacks %s access", p.Name, p.Role, min)
	}
	return p, nil
}
