package security

import "testing"

func TestHierarchyImplies(t *testing.T) {
	h, err := DefaultHierarchy()
	if err != nil {
		t.Fatalf("DefaultHierarchy returned error: %v", err)
	}
	if !h.Implies(RoleAdmin, RoleUser) {
		t.Fatalf("ADMIN should imply USER")
	}
	if !h.Implies(RoleAdmin, RoleAdmin) {
		t.Fatalf("a role should imply itself")
	}
	if h.Implies(RoleUser, RoleAdmin) {
		t.Fatalf("USER must not imply ADMIN")
	}
}

func TestHierarchyTransitive(t *testing.T) {
	h, err := NewHierarchy([][2]Role{
		{"ROOT", "ADMIN"},
		{"ADMIN", "USER"},
		{"USER", "GUEST"},
	})
	if err != nil {
		t.Fatalf("NewHierarchy returned error: %v", err)
	}
	if !h.Implies("ROOT", "GUEST") {
		t.Fatalf("implication should be transitive")
	}
	if !h.Implies("ADMIN", "GUEST") {
		t.Fatalf("ADMIN should reach GUEST through USER")
	}
	if h.Implies("GUEST", "USER") {
		t.Fatalf("implication must not run upward")
	}
	if h.Implies("ROOT", "UNRELATED") {
		t.Fatalf("unknown role must not be implied")
	}
}

func TestHierarchyCycleDetected(t *testing.T) {
	_, err := NewHierarchy([][2]Role{
		{"A", "B"},
		{"B", "C"},
		{"C", "A"},
	})
	if err == nil {
		t.Fatalf("expected cycle to fail construction")
	}
}

func TestHierarchySelfCycleDetected(t *testing.T) {
	_, err := NewHierarchy([][2]Role{{"A", "A"}})
	if err == nil {
		t.Fatalf("expected self edge to fail construction")
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole("ADMIN"); !ok || role != RoleAdmin {
		t.Fatalf("expected ADMIN to parse")
	}
	if _, ok := ParseRole("SUPERVISOR"); ok {
		t.Fatalf("unknown role must not parse")
	}
}
