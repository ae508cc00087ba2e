package security

import (
	"fmt"
	"strings"
)

// Decision is the outcome of evaluating a permission expression.
type Decision int

const (
	// Deny is the default decision, applied to anonymous contexts.
	Deny Decision = iota
	// Allow grants access.
	Allow
)

// Expression is a declarative access requirement attached to a route.
// Expressions are plain values, inspectable at registration time and
// evaluated by the Engine at request time.
type Expression interface {
	satisfied(sec *Context, h *Hierarchy) bool
	String() string
}

type authenticated struct{}

func (authenticated) satisfied(sec *Context, _ *Hierarchy) bool {
	return !sec.Anonymous()
}

func (authenticated) String() string { return "authenticated" }

// Authenticated requires any non anonymous subject.
func Authenticated() Expression { return authenticated{} }

type hasRole struct {
	role Role
}

func (e hasRole) satisfied(sec *Context, h *Hierarchy) bool {
	return sec.Holds(h, e.role)
}

func (e hasRole) String() string { return fmt.Sprintf("hasRole(%s)", e.role) }

// HasRole requires a role satisfying role under the hierarchy, so a caller
// holding a more senior role passes as well.
func HasRole(role Role) Expression { return hasRole{role: role} }

type and struct {
	exprs []Expression
}

func (e and) satisfied(sec *Context, h *Hierarchy) bool {
	for _, expr := range e.exprs {
		if !expr.satisfied(sec, h) {
			return false
		}
	}
	return true
}

func (e and) String() string { return combine("and", e.exprs) }

// And requires every given expression, evaluated left to right with
// short circuiting.
func And(exprs ...Expression) Expression { return and{exprs: exprs} }

type or struct {
	exprs []Expression
}

func (e or) satisfied(sec *Context, h *Hierarchy) bool {
	for _, expr := range e.exprs {
		if expr.satisfied(sec, h) {
			return true
		}
	}
	return false
}

func (e or) String() string { return combine("or", e.exprs) }

// Or requires at least one of the given expressions, evaluated left to
// right with short circuiting.
func Or(exprs ...Expression) Expression { return or{exprs: exprs} }

func combine(op string, exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return op + "(" + strings.Join(parts, ", ") + ")"
}

// Engine evaluates permission expressions against a security context. Pure
// over its inputs and the immutable hierarchy.
type Engine struct {
	hierarchy *Hierarchy
}

// NewEngine constructs an Engine over the given hierarchy.
func NewEngine(h *Hierarchy) *Engine {
	return &Engine{hierarchy: h}
}

// Decide returns Allow iff the requirement is satisfied by sec. An
// anonymous context is always denied.
func (e *Engine) Decide(sec *Context, requirement Expression) Decision {
	if sec.Anonymous() {
		return Deny
	}
	if requirement == nil {
		return Allow
	}
	if requirement.satisfied(sec, e.hierarchy) {
		return Allow
	}
	return Deny
}
