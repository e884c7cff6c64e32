package registry

import (
	"fmt"
	"slices"
	"strings"
)

// Role is an immutable capability bundle: a set of operations scoped to a set
// of projects. Roles never reference users; assignment lives in the policy.
type Role struct {
	ID          RoleID        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Projects    []ProjectID   `json:"projects,omitempty"`
	Operations  []OperationID `json:"operations,omitempty"`
}

// NewRole validates and constructs a Role. Project and operation sets are
// deduplicated and kept sorted.
func NewRole(id RoleID, name, description string, projects []ProjectID, operations []OperationID) (Role, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Role{}, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return Role{
		ID:          id,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Projects:    sortedIDs(projects),
		Operations:  sortedIDs(operations),
	}, nil
}

// Covers reports whether the role is scoped to the project.
func (r Role) Covers(project ProjectID) bool {
	return containsID(r.Projects, project)
}

// Grants reports whether the role's operation set contains the operation.
func (r Role) Grants(operation OperationID) bool {
	return containsID(r.Operations, operation)
}

// Equal compares two roles structurally.
func (r Role) Equal(o Role) bool {
	return r.ID == o.ID &&
		r.Name == o.Name &&
		r.Description == o.Description &&
		slices.Equal(r.Projects, o.Projects) &&
		slices.Equal(r.Operations, o.Operations)
}
