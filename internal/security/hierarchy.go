// Package security implements role based authorization: the role hierarchy,
// the per request security context and the permission decision engine.
package security

import "fmt"

// Role is an opaque role identifier.
type Role string

const (
	// RoleUser is the baseline role every account holds.
	RoleUser Role = "USER"
	// RoleAdmin implies every permission granted to RoleUser.
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes a raw claim value into a Role.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleUser:
		return RoleUser, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Hierarchy records which roles imply which. Immutable after construction;
// safe for unlimited concurrent reads.
type Hierarchy struct {
	// implied[holder] holds every role reachable from holder, holder included.
	implied map[Role]map[Role]struct{}
}

// NewHierarchy builds a Hierarchy from (senior, junior) pairs where the
// senior role implies every permission of the junior one. A cycle in the
// declaration is a construction error; callers are expected to abort
// startup on it rather than surface it per request.
func NewHierarchy(pairs [][2]Role) (*Hierarchy, error) {
	edges := make(map[Role][]Role)
	nodes := make(map[Role]struct{})
	for _, p := range pairs {
		senior, junior := p[0], p[1]
		edges[senior] = append(edges[senior], junior)
		nodes[senior] = struct{}{}
		nodes[junior] = struct{}{}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Role]int, len(nodes))
	var visit func(Role) error
	visit = func(r Role) error {
		switch state[r] {
		case visiting:
			return fmt.Errorf("security: role hierarchy contains a cycle through %s", r)
		case done:
			return nil
		}
		state[r] = visiting
		for _, next := range edges[r] {
			if err := visit(next); err != nil {
				return err
			}
		}
		state[r] = done
		return nil
	}
	for r := range nodes {
		if err := visit(r); err != nil {
			return nil, err
		}
	}

	implied := make(map[Role]map[Role]struct{}, len(nodes))
	var collect func(Role, map[Role]struct{})
	collect = func(r Role, into map[Role]struct{}) {
		if _, ok := into[r]; ok {
			return
		}
		into[r] = struct{}{}
		for _, next := range edges[r] {
			collect(next, into)
		}
	}
	for r := range nodes {
		set := make(map[Role]struct{})
		collect(r, set)
		implied[r] = set
	}

	return &Hierarchy{implied: implied}, nil
}

// DefaultHierarchy declares the built in ordering: ADMIN implies USER.
func DefaultHierarchy() (*Hierarchy, error) {
	return NewHierarchy([][2]Role{
		{RoleAdmin, RoleUser},
	})
}

// Implies reports whether holder is required or transitively implies it.
func (h *Hierarchy) Implies(holder, required Role) bool {
	if holder == required {
		return true
	}
	set, ok := h.implied[holder]
	if !ok {
		return false
	}
	_, ok = set[required]
	return ok
}
