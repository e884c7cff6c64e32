// Package policy implements the role-based authorization core: a user→role
// assignment map over the four entity registries, strict read accessors, and
// a total allow/deny decision predicate.
//
// The model is flat, additive RBAC: a decision is a plain OR over the user's
// roles that cover the project. There is no explicit deny, no precedence, and
// no role hierarchy.
package policy

import (
	"errors"
	"fmt"
	"slices"

	"ontoserve.org/internal/registry"
)

// Policy is the access-control aggregate. It is not safe for concurrent use;
// callers hold one coarse lock around the whole aggregate (see httpapi).
type Policy struct {
	users      *registry.UserRegistry
	projects   *registry.ProjectRegistry
	operations *registry.OperationRegistry
	roles      *registry.RoleRegistry

	assignments map[registry.UserID]map[registry.RoleID]struct{}
}

// New builds a policy over the given registries. All four are required.
func New(users *registry.UserRegistry, projects *registry.ProjectRegistry, operations *registry.OperationRegistry, roles *registry.RoleRegistry) (*Policy, error) {
	if users == nil || projects == nil || operations == nil || roles == nil {
		return nil, errors.New("policy: all four registries are required")
	}
	return &Policy{
		users:       users,
		projects:    projects,
		operations:  operations,
		roles:       roles,
		assignments: make(map[registry.UserID]map[registry.RoleID]struct{}),
	}, nil
}

// Users returns the user registry backing this policy.
func (p *Policy) Users() *registry.UserRegistry { return p.users }

// Projects returns the project registry backing this policy.
func (p *Policy) Projects() *registry.ProjectRegistry { return p.projects }

// Operations returns the operation registry backing this policy.
func (p *Policy) Operations() *registry.OperationRegistry { return p.operations }

// Roles returns the role registry backing this policy.
func (p *Policy) Roles() *registry.RoleRegistry { return p.roles }

// Assign unions the given roles into the user's assignment set, creating the
// entry when absent. The write path is deliberately permissive: users may be
// pre-authorized before they exist in the user registry, and role ids are not
// checked against the role registry (role creation is a separate workflow).
// Unknown role ids simply resolve to nothing during decisions; Validate
// surfaces them.
func (p *Policy) Assign(user registry.UserID, roles ...registry.RoleID) {
	set, ok := p.assignments[user]
	if !ok {
		set = make(map[registry.RoleID]struct{}, len(roles))
		p.assignments[user] = set
	}
	for _, r := range roles {
		set[r] = struct{}{}
	}
}

// Revoke removes the role from the user's assignment set. Revoking an
// unassigned role is a no-op. Removing the last role keeps the entry as an
// empty set: the user stays "in policy" with zero roles, so strict reads keep
// working and HasRole answers false instead of failing.
func (p *Policy) Revoke(user registry.UserID, role registry.RoleID) {
	if set, ok := p.assignments[user]; ok {
		delete(set, role)
	}
}

// InPolicy reports whether the user has an assignment entry at all.
func (p *Policy) InPolicy(user registry.UserID) bool {
	_, ok := p.assignments[user]
	return ok
}

// HasRole reports whether the role is assigned to the user. It fails when the
// user has no assignment entry at all.
func (p *Policy) HasRole(user registry.UserID, role registry.RoleID) (bool, error) {
	set, ok := p.assignments[user]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUserNotInPolicy, user)
	}
	_, has := set[role]
	return has, nil
}

// UserRoles returns the user's assigned role ids in sorted order. It fails
// when the user has no assignment entry.
func (p *Policy) UserRoles(user registry.UserID) ([]registry.RoleID, error) {
	set, ok := p.assignments[user]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotInPolicy, user)
	}
	out := make([]registry.RoleID, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	slices.Sort(out)
	return out, nil
}

// UserProjects returns the union of project scopes across the user's roles,
// in sorted order. Role ids the role registry cannot resolve contribute
// nothing.
func (p *Policy) UserProjects(user registry.UserID) ([]registry.ProjectID, error) {
	roleIDs, err := p.UserRoles(user)
	if err != nil {
		return nil, err
	}
	set := make(map[registry.ProjectID]struct{})
	for _, id := range roleIDs {
		role, err := p.roles.Get(id)
		if err != nil {
			continue
		}
		for _, prj := range role.Projects {
			set[prj] = struct{}{}
		}
	}
	out := make([]registry.ProjectID, 0, len(set))
	for prj := range set {
		out = append(out, prj)
	}
	slices.Sort(out)
	return out, nil
}

// OperationsInProject returns the union of operations the user's roles grant
// within the project, in sorted order. It fails with ErrUserNotInPolicy when
// the user has no entry and with ErrProjectNotInPolicy when none of the
// user's roles cover the project.
func (p *Policy) OperationsInProject(user registry.UserID, project registry.ProjectID) ([]registry.OperationID, error) {
	roleIDs, err := p.UserRoles(user)
	if err != nil {
		return nil, err
	}
	covered := false
	set := make(map[registry.OperationID]struct{})
	for _, id := range roleIDs {
		role, err := p.roles.Get(id)
		if err != nil || !role.Covers(project) {
			continue
		}
		covered = true
		for _, op := range role.Operations {
			set[op] = struct{}{}
		}
	}
	if !covered {
		return nil, fmt.Errorf("%w: user %s, project %s", ErrProjectNotInPolicy, user, project)
	}
	out := make([]registry.OperationID, 0, len(set))
	for op := range set {
		out = append(out, op)
	}
	slices.Sort(out)
	return out, nil
}

// IsOperationAllowed decides whether the user may perform the operation
// against the project. It is total: every failure mode (user not in policy,
// no covering role, operation not granted, dangling role id) collapses to
// false. A security decision must degrade to deny, never to an error a
// caller could mishandle as allow.
func (p *Policy) IsOperationAllowed(operation registry.OperationID, project registry.ProjectID, user registry.UserID) bool {
	set, ok := p.assignments[user]
	if !ok {
		return false
	}
	for id := range set {
		role, err := p.roles.Get(id)
		if err != nil {
			continue
		}
		if role.Covers(project) && role.Grants(operation) {
			return true
		}
	}
	return false
}

// Validate reports assigned role ids that do not exist in the role registry.
// Such ids are legal on the write path but make decisions involving them
// silently negative, so snapshots should be audited before persisting.
func (p *Policy) Validate() []registry.RoleID {
	seen := make(map[registry.RoleID]struct{})
	for _, set := range p.assignments {
		for id := range set {
			if _, dup := seen[id]; dup {
				continue
			}
			if !p.roles.Contains(id) {
				seen[id] = struct{}{}
			}
		}
	}
	out := make([]registry.RoleID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Equal reports structural equality of the registries and the assignment map.
func (p *Policy) Equal(o *Policy) bool {
	if !p.users.Equal(o.users) || !p.projects.Equal(o.projects) ||
		!p.operations.Equal(o.operations) || !p.roles.Equal(o.roles) {
		return false
	}
	if len(p.assignments) != len(o.assignments) {
		return false
	}
	for user, set := range p.assignments {
		oset, ok := o.assignments[user]
		if !ok || len(oset) != len(set) {
			return false
		}
		for r := range set {
			if _, ok := oset[r]; !ok {
				return false
			}
		}
	}
	return true
}

// AssignedUsers returns every user id with an assignment entry, sorted.
func (p *Policy) AssignedUsers() []registry.UserID {
	out := make([]registry.UserID, 0, len(p.assignments))
	for user := range p.assignments {
		out = append(out, user)
	}
	slices.Sort(out)
	return out
}
