package registry

import (
	"fmt"
	"slices"
	"strings"
)

// RoleRegistry owns the set of roles, keyed by id.
type RoleRegistry struct {
	roles map[RoleID]Role
}

// NewRoleRegistry builds a registry seeded with the given roles.
func NewRoleRegistry(roles ...Role) (*RoleRegistry, error) {
	r := &RoleRegistry{roles: make(map[RoleID]Role, len(roles))}
	for _, role := range roles {
		if err := r.Add(role); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// All returns every role in id order.
func (r *RoleRegistry) All() []Role {
	out := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role)
	}
	slices.SortFunc(out, func(a, b Role) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// Get returns the role with the given id.
func (r *RoleRegistry) Get(id RoleID) (Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return Role{}, fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	return role, nil
}

// Add registers a new role under an unused id.
func (r *RoleRegistry) Add(role Role) error {
	if _, ok := r.roles[role.ID]; ok {
		return fmt.Errorf("%w: role %s", ErrIDInUse, role.ID)
	}
	r.roles[role.ID] = role
	return nil
}

// Remove deletes the role with the given id.
func (r *RoleRegistry) Remove(id RoleID) error {
	if _, ok := r.roles[id]; !ok {
		return fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	delete(r.roles, id)
	return nil
}

// Contains reports whether a role with the given id is registered.
func (r *RoleRegistry) Contains(id RoleID) bool {
	_, ok := r.roles[id]
	return ok
}

func (r *RoleRegistry) update(id RoleID, change func(Role) Role) error {
	role, ok := r.roles[id]
	if !ok {
		return fmt.Errorf("%w: role %s", ErrNotFound, id)
	}
	r.roles[id] = change(role)
	return nil
}

// ChangeName replaces the role value with a copy carrying the new name.
func (r *RoleRegistry) ChangeName(id RoleID, name string) error {
	return r.update(id, func(role Role) Role {
		role.Name = strings.TrimSpace(name)
		return role
	})
}

// ChangeDescription replaces the role's description.
func (r *RoleRegistry) ChangeDescription(id RoleID, description string) error {
	return r.update(id, func(role Role) Role {
		role.Description = strings.TrimSpace(description)
		return role
	})
}

// AddProject scopes the role to one more project.
func (r *RoleRegistry) AddProject(id RoleID, project ProjectID) error {
	return r.update(id, func(role Role) Role {
		role.Projects = insertID(role.Projects, project)
		return role
	})
}

// RemoveProject drops a project from the role's scope; no-op when absent.
func (r *RoleRegistry) RemoveProject(id RoleID, project ProjectID) error {
	return r.update(id, func(role Role) Role {
		role.Projects = removeID(role.Projects, project)
		return role
	})
}

// AddOperation grants one more operation through the role.
func (r *RoleRegistry) AddOperation(id RoleID, operation OperationID) error {
	return r.update(id, func(role Role) Role {
		role.Operations = insertID(role.Operations, operation)
		return role
	})
}

// RemoveOperation revokes an operation from the role; no-op when absent.
func (r *RoleRegistry) RemoveOperation(id RoleID, operation OperationID) error {
	return r.update(id, func(role Role) Role {
		role.Operations = removeID(role.Operations, operation)
		return role
	})
}

// Equal reports structural equality of the full entity sets.
func (r *RoleRegistry) Equal(o *RoleRegistry) bool {
	if len(r.roles) != len(o.roles) {
		return false
	}
	for id, role := range r.roles {
		if orole, ok := o.roles[id]; !ok || !orole.Equal(role) {
			return false
		}
	}
	return true
}
