package registry

import (
	"fmt"
	"slices"
	"strings"
)

// ProjectRegistry owns the set of projects, keyed by id.
type ProjectRegistry struct {
	projects map[ProjectID]Project
}

// NewProjectRegistry builds a registry seeded with the given projects.
func NewProjectRegistry(projects ...Project) (*ProjectRegistry, error) {
	r := &ProjectRegistry{projects: make(map[ProjectID]Project, len(projects))}
	for _, p := range projects {
		if err := r.Add(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// All returns every project in id order.
func (r *ProjectRegistry) All() []Project {
	out := make([]Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Project) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// Get returns the project with the given id.
func (r *ProjectRegistry) Get(id ProjectID) (Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	return p, nil
}

// Add registers a new project under an unused id.
func (r *ProjectRegistry) Add(p Project) error {
	if _, ok := r.projects[p.ID]; ok {
		return fmt.Errorf("%w: project %s", ErrIDInUse, p.ID)
	}
	r.projects[p.ID] = p
	return nil
}

// Remove deletes the project with the given id.
func (r *ProjectRegistry) Remove(id ProjectID) error {
	if _, ok := r.projects[id]; !ok {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	delete(r.projects, id)
	return nil
}

// Contains reports whether a project with the given id is registered.
func (r *ProjectRegistry) Contains(id ProjectID) bool {
	_, ok := r.projects[id]
	return ok
}

func (r *ProjectRegistry) update(id ProjectID, change func(Project) Project) error {
	p, ok := r.projects[id]
	if !ok {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	r.projects[id] = change(p)
	return nil
}

// ChangeName replaces the project value with a copy carrying the new name.
func (r *ProjectRegistry) ChangeName(id ProjectID, name string) error {
	return r.update(id, func(p Project) Project {
		p.Name = strings.TrimSpace(name)
		return p
	})
}

// ChangeDescription replaces the project's description.
func (r *ProjectRegistry) ChangeDescription(id ProjectID, description string) error {
	return r.update(id, func(p Project) Project {
		p.Description = strings.TrimSpace(description)
		return p
	})
}

// ChangeAddress replaces the project's storage address.
func (r *ProjectRegistry) ChangeAddress(id ProjectID, address string) error {
	return r.update(id, func(p Project) Project {
		p.Address = strings.TrimSpace(address)
		return p
	})
}

// ChangeOwner transfers ownership. The previous owner keeps whatever
// administrator status it had; ownership and administration are independent.
func (r *ProjectRegistry) ChangeOwner(id ProjectID, owner UserID) error {
	if strings.TrimSpace(string(owner)) == "" {
		return fmt.Errorf("%w: project owner is required", ErrInvalidInput)
	}
	return r.update(id, func(p Project) Project {
		p.Owner = owner
		return p
	})
}

// AddAdministrator adds the user to the project's administrator set.
func (r *ProjectRegistry) AddAdministrator(id ProjectID, user UserID) error {
	return r.update(id, func(p Project) Project {
		p.Administrators = insertID(p.Administrators, user)
		return p
	})
}

// RemoveAdministrator drops the user from the project's administrator set.
// Removing a user that is not an administrator is a no-op.
func (r *ProjectRegistry) RemoveAdministrator(id ProjectID, user UserID) error {
	return r.update(id, func(p Project) Project {
		p.Administrators = removeID(p.Administrators, user)
		return p
	})
}

// Equal reports structural equality of the full entity sets.
func (r *ProjectRegistry) Equal(o *ProjectRegistry) bool {
	if len(r.projects) != len(o.projects) {
		return false
	}
	for id, p := range r.projects {
		if op, ok := o.projects[id]; !ok || !op.Equal(p) {
			return false
		}
	}
	return true
}
