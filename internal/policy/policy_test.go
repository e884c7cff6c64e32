package policy

import (
	"errors"
	"slices"
	"testing"

	"ontoserve.org/internal/registry"
)

// newTestPolicy builds the canonical fixture: users u1..u3, projects p1..p2,
// operations op1..op3, role r1 = {p1: op1, op2}, role r2 = {p1: op3},
// assignment u1 -> {r1, r2}.
func newTestPolicy(t *testing.T) *Policy {
	t.Helper()

	var users []registry.User
	for _, spec := range []struct{ id, name, email string }{
		{"u1", "Alice", "alice@example.com"},
		{"u2", "Bob", "bob@example.com"},
		{"u3", "Carol", "carol@example.com"},
	} {
		u, err := registry.NewUser(registry.UserID(spec.id), spec.name, spec.email)
		if err != nil {
			t.Fatalf("NewUser(%s): %v", spec.id, err)
		}
		users = append(users, u)
	}
	userReg, err := registry.NewUserRegistry(users...)
	if err != nil {
		t.Fatalf("NewUserRegistry: %v", err)
	}

	var projects []registry.Project
	for _, id := range []registry.ProjectID{"p1", "p2"} {
		p, err := registry.NewProject(id, string(id), "", "projects/"+string(id), "u1")
		if err != nil {
			t.Fatalf("NewProject(%s): %v", id, err)
		}
		projects = append(projects, p)
	}
	projectReg, err := registry.NewProjectRegistry(projects...)
	if err != nil {
		t.Fatalf("NewProjectRegistry: %v", err)
	}

	var operations []registry.Operation
	for _, id := range []registry.OperationID{"op1", "op2", "op3"} {
		op, err := registry.NewOperation(id, string(id), "", registry.OperationWrite)
		if err != nil {
			t.Fatalf("NewOperation(%s): %v", id, err)
		}
		operations = append(operations, op)
	}
	operationReg, err := registry.NewOperationRegistry(operations...)
	if err != nil {
		t.Fatalf("NewOperationRegistry: %v", err)
	}

	r1, err := registry.NewRole("r1", "editor", "", []registry.ProjectID{"p1"}, []registry.OperationID{"op1", "op2"})
	if err != nil {
		t.Fatalf("NewRole(r1): %v", err)
	}
	r2, err := registry.NewRole("r2", "reviewer", "", []registry.ProjectID{"p1"}, []registry.OperationID{"op3"})
	if err != nil {
		t.Fatalf("NewRole(r2): %v", err)
	}
	roleReg, err := registry.NewRoleRegistry(r1, r2)
	if err != nil {
		t.Fatalf("NewRoleRegistry: %v", err)
	}

	p, err := New(userReg, projectReg, operationReg, roleReg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p.Assign("u1", "r1", "r2")
	return p
}

func TestRoundTripScenario(t *testing.T) {
	p := newTestPolicy(t)

	projects, err := p.UserProjects("u1")
	if err != nil {
		t.Fatalf("UserProjects: %v", err)
	}
	if !slices.Equal(projects, []registry.ProjectID{"p1"}) {
		t.Fatalf("unexpected projects: %v", projects)
	}

	ops, err := p.OperationsInProject("u1", "p1")
	if err != nil {
		t.Fatalf("OperationsInProject: %v", err)
	}
	if !slices.Equal(ops, []registry.OperationID{"op1", "op2", "op3"}) {
		t.Fatalf("unexpected operations: %v", ops)
	}

	if !p.IsOperationAllowed("op1", "p1", "u1") {
		t.Fatalf("op1 on p1 must be allowed for u1")
	}
	if p.IsOperationAllowed("op1", "p2", "u1") {
		t.Fatalf("no role of u1 is scoped to p2")
	}
	if p.IsOperationAllowed("op1", "p1", "u2") {
		t.Fatalf("u2 has no assignment")
	}
}

func TestDecisionTotality(t *testing.T) {
	p := newTestPolicy(t)
	// entirely unknown ids must produce false, never a panic or error
	cases := []struct {
		op   registry.OperationID
		prj  registry.ProjectID
		user registry.UserID
	}{
		{"ghost-op", "ghost-prj", "ghost-user"},
		{"op1", "p1", "ghost-user"},
		{"op1", "ghost-prj", "u1"},
		{"ghost-op", "p1", "u1"},
		{"", "", ""},
	}
	for _, c := range cases {
		if p.IsOperationAllowed(c.op, c.prj, c.user) {
			t.Fatalf("expected deny for (%s, %s, %s)", c.op, c.prj, c.user)
		}
	}
}

func TestDecisionTracksRoleMutations(t *testing.T) {
	p := newTestPolicy(t)

	if err := p.Roles().RemoveOperation("r1", "op1"); err != nil {
		t.Fatalf("RemoveOperation: %v", err)
	}
	if p.IsOperationAllowed("op1", "p1", "u1") {
		t.Fatalf("op1 was revoked from r1")
	}
	if !p.IsOperationAllowed("op2", "p1", "u1") {
		t.Fatalf("op2 is still granted through r1")
	}

	if err := p.Roles().RemoveProject("r1", "p1"); err != nil {
		t.Fatalf("RemoveProject: %v", err)
	}
	if p.IsOperationAllowed("op2", "p1", "u1") {
		t.Fatalf("r1 no longer covers p1")
	}
	// r2 still covers p1
	if !p.IsOperationAllowed("op3", "p1", "u1") {
		t.Fatalf("op3 is still granted through r2")
	}

	p.Revoke("u1", "r2")
	if p.IsOperationAllowed("op3", "p1", "u1") {
		t.Fatalf("r2 was unassigned from u1")
	}
}

func TestStrictReadsOnMissingUser(t *testing.T) {
	p := newTestPolicy(t)

	if _, err := p.HasRole("u2", "r1"); !errors.Is(err, ErrUserNotInPolicy) {
		t.Fatalf("expected ErrUserNotInPolicy, got %v", err)
	}
	if _, err := p.UserRoles("u2"); !errors.Is(err, ErrUserNotInPolicy) {
		t.Fatalf("expected ErrUserNotInPolicy, got %v", err)
	}
	if _, err := p.UserProjects("u2"); !errors.Is(err, ErrUserNotInPolicy) {
		t.Fatalf("expected ErrUserNotInPolicy, got %v", err)
	}
	if _, err := p.OperationsInProject("u2", "p1"); !errors.Is(err, ErrUserNotInPolicy) {
		t.Fatalf("expected ErrUserNotInPolicy, got %v", err)
	}
	// user in policy, but no role covering the project
	if _, err := p.OperationsInProject("u1", "p2"); !errors.Is(err, ErrProjectNotInPolicy) {
		t.Fatalf("expected ErrProjectNotInPolicy, got %v", err)
	}
}

func TestRemoveLastRoleKeepsEntry(t *testing.T) {
	p := newTestPolicy(t)
	p.Revoke("u1", "r1")
	p.Revoke("u1", "r2")

	// the entry survives as an empty set: u1 stays in policy
	if !p.InPolicy("u1") {
		t.Fatalf("u1 must stay in policy after losing its last role")
	}
	roles, err := p.UserRoles("u1")
	if err != nil {
		t.Fatalf("UserRoles: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected empty role set, got %v", roles)
	}
	has, err := p.HasRole("u1", "r1")
	if err != nil || has {
		t.Fatalf("HasRole = (%v, %v), want (false, nil)", has, err)
	}
	if p.IsOperationAllowed("op1", "p1", "u1") {
		t.Fatalf("zero roles must decide to deny")
	}
}

func TestAssignUnionsAndRevokeIsIdempotent(t *testing.T) {
	p := newTestPolicy(t)
	p.Assign("u1", "r1") // already assigned
	p.Assign("u2", "r2")
	p.Assign("u2", "r1")

	roles, err := p.UserRoles("u2")
	if err != nil {
		t.Fatalf("UserRoles: %v", err)
	}
	if !slices.Equal(roles, []registry.RoleID{"r1", "r2"}) {
		t.Fatalf("unexpected roles: %v", roles)
	}

	p.Revoke("u2", "ghost") // no-op
	p.Revoke("u3", "r1")    // no entry, still a no-op
	if p.InPolicy("u3") {
		t.Fatalf("revoke must not create entries")
	}
}

func TestValidateReportsDanglingRoles(t *testing.T) {
	p := newTestPolicy(t)
	if dangling := p.Validate(); len(dangling) != 0 {
		t.Fatalf("fixture must be consistent, got %v", dangling)
	}
	p.Assign("u2", "ghost-role")
	p.Assign("u3", "ghost-role", "r1")
	dangling := p.Validate()
	if !slices.Equal(dangling, []registry.RoleID{"ghost-role"}) {
		t.Fatalf("unexpected dangling roles: %v", dangling)
	}
	// dangling assignments never grant anything
	if p.IsOperationAllowed("op1", "p1", "u2") {
		t.Fatalf("dangling role must decide to deny")
	}
}

func TestPreAuthorizedUserBecomesEffectiveOnRoleCreation(t *testing.T) {
	p := newTestPolicy(t)
	p.Assign("u3", "r-later")
	if p.IsOperationAllowed("op1", "p1", "u3") {
		t.Fatalf("role does not exist yet")
	}
	role, err := registry.NewRole("r-later", "late binding", "", []registry.ProjectID{"p1"}, []registry.OperationID{"op1"})
	if err != nil {
		t.Fatalf("NewRole: %v", err)
	}
	if err := p.Roles().Add(role); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !p.IsOperationAllowed("op1", "p1", "u3") {
		t.Fatalf("pre-authorized assignment must take effect once the role exists")
	}
}

func TestAssignedUsersAreSorted(t *testing.T) {
	p := newTestPolicy(t)
	p.Assign("u3", "r1")
	p.Assign("u2", "r2")
	got := p.AssignedUsers()
	want := []registry.UserID{"u1", "u2", "u3"}
	if !slices.Equal(got, want) {
		t.Fatalf("AssignedUsers() = %v, want %v", got, want)
	}
}
