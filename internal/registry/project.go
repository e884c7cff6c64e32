package registry

import (
	"fmt"
	"slices"
	"strings"
)

// Project is an immutable project value. Owner and Administrators are
// independent: the owner is not implicitly an administrator.
type Project struct {
	ID             ProjectID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	Address        string    `json:"address"`
	Owner          UserID    `json:"owner"`
	Administrators []UserID  `json:"administrators,omitempty"`
}

// NewProject validates and constructs a Project. Administrators are
// deduplicated and kept sorted.
func NewProject(id ProjectID, name, description, address string, owner UserID, administrators ...UserID) (Project, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Project{}, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(string(owner)) == "" {
		return Project{}, fmt.Errorf("%w: project owner is required", ErrInvalidInput)
	}
	return Project{
		ID:             id,
		Name:           strings.TrimSpace(name),
		Description:    strings.TrimSpace(description),
		Address:        strings.TrimSpace(address),
		Owner:          owner,
		Administrators: sortedIDs(administrators),
	}, nil
}

// HasAdministrator reports whether the user is listed as an administrator.
func (p Project) HasAdministrator(user UserID) bool {
	return containsID(p.Administrators, user)
}

// Equal compares two projects structurally.
func (p Project) Equal(o Project) bool {
	return p.ID == o.ID &&
		p.Name == o.Name &&
		p.Description == o.Description &&
		p.Address == o.Address &&
		p.Owner == o.Owner &&
		slices.Equal(p.Administrators, o.Administrators)
}
