package security

import "context"

// Context carries the resolved identity of one request: the subject and the
// role set derived from the verified credential. It lives only for the
// lifetime of that request and is passed explicitly through context.Context,
// never held in process wide state.
type Context struct {
	Subject string
	Roles   []Role
}

// Anonymous reports whether the request carries no identity.
func (c *Context) Anonymous() bool {
	return c == nil || c.Subject == ""
}

// Holds reports whether the context carries a role satisfying required
// under the given hierarchy.
func (c *Context) Holds(h *Hierarchy, required Role) bool {
	if c.Anonymous() {
		return false
	}
	for _, role := range c.Roles {
		if h.Implies(role, required) {
			return true
		}
	}
	return false
}

type securityContextKey struct{}

// Attach stores the security context in ctx.
func Attach(ctx context.Context, sec *Context) context.Context {
	return context.WithValue(ctx, securityContextKey{}, sec)
}

// FromContext extracts the security context from ctx, nil when absent.
func FromContext(ctx context.Context) *Context {
	sec, _ := ctx.Value(securityContextKey{}).(*Context)
	return sec
}
