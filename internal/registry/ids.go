package registry

// Identifier kinds are distinct named types so a ProjectID can never be passed
// where a UserID is expected. Equality is value equality on the underlying string.

// UserID identifies a user account.
type UserID string

// ProjectID identifies a collaboration project.
type ProjectID string

// OperationID identifies a named operation users may be granted.
type OperationID string

// RoleID identifies a capability bundle.
type RoleID string

func (id UserID) String() string      { return string(id) }
func (id ProjectID) String() string   { return string(id) }
func (id OperationID) String() string { return string(id) }
func (id RoleID) String() string      { return string(id) }
