package policy

import (
	"fmt"

	"ontoserve.org/internal/registry"
)

// Snapshot is the serializable value form of a policy. Every collection is
// id-sorted so that structurally equal policies marshal to identical bytes.
type Snapshot struct {
	Users       []registry.User      `json:"users"`
	Projects    []registry.Project   `json:"projects"`
	Operations  []registry.Operation `json:"operations"`
	Roles       []registry.Role      `json:"roles"`
	Assignments []Assignment         `json:"assignments"`
}

// Assignment is one user's role set within a snapshot. An empty Roles slice
// is meaningful: the user is in policy with zero roles.
type Assignment struct {
	User  registry.UserID   `json:"user"`
	Roles []registry.RoleID `json:"roles"`
}

// Snapshot captures the current state as a pure value safe to persist.
func (p *Policy) Snapshot() Snapshot {
	s := Snapshot{
		Users:      p.users.All(),
		Projects:   p.projects.All(),
		Operations: p.operations.All(),
		Roles:      p.roles.All(),
	}
	for _, user := range p.AssignedUsers() {
		roles, _ := p.UserRoles(user)
		if roles == nil {
			roles = []registry.RoleID{}
		}
		s.Assignments = append(s.Assignments, Assignment{User: user, Roles: roles})
	}
	if s.Assignments == nil {
		s.Assignments = []Assignment{}
	}
	return s
}

// FromSnapshot reconstructs a policy equivalent to the one the snapshot was
// taken from.
func FromSnapshot(s Snapshot) (*Policy, error) {
	users, err := registry.NewUserRegistry(s.Users...)
	if err != nil {
		return nil, fmt.Errorf("restore users: %w", err)
	}
	projects, err := registry.NewProjectRegistry(s.Projects...)
	if err != nil {
		return nil, fmt.Errorf("restore projects: %w", err)
	}
	operations, err := registry.NewOperationRegistry(s.Operations...)
	if err != nil {
		return nil, fmt.Errorf("restore operations: %w", err)
	}
	roles, err := registry.NewRoleRegistry(s.Roles...)
	if err != nil {
		return nil, fmt.Errorf("restore roles: %w", err)
	}
	p, err := New(users, projects, operations, roles)
	if err != nil {
		return nil, err
	}
	for _, a := range s.Assignments {
		p.Assign(a.User, a.Roles...)
	}
	return p, nil
}
