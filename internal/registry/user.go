package registry

import (
	"fmt"
	"strings"
)

// User is an immutable account value. Registries replace whole values on
// change; nothing ever mutates a User held by a caller.
type User struct {
	ID    UserID `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GuestID is reserved; the guest user is obtainable from any UserRegistry
// without being part of its entity set.
const GuestID = UserID("guest")

// Guest returns the reserved guest user.
func Guest() User {
	return User{ID: GuestID, Name: "guest", Email: "guest@ontoserve.org"}
}

// NewUser validates and constructs a User.
func NewUser(id UserID, name, email string) (User, error) {
	if strings.TrimSpace(string(id)) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if id == GuestID {
		return User{}, fmt.Errorf("%w: user id %q is reserved", ErrInvalidInput, GuestID)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	return User{ID: id, Name: strings.TrimSpace(name), Email: email}, nil
}
