package registry

import (
	"fmt"
	"slices"
	"strings"
)

// UserRegistry owns the set of user accounts, keyed by id. It guards id and
// email uniqueness on add. It is not safe for concurrent use; callers hold a
// coarse lock around the whole access-control aggregate.
type UserRegistry struct {
	users map[UserID]User
}

// NewUserRegistry builds a registry seeded with the given users.
func NewUserRegistry(users ...User) (*UserRegistry, error) {
	r := &UserRegistry{users: make(map[UserID]User, len(users))}
	for _, u := range users {
		if err := r.Add(u); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// All returns every registered user in id order. The guest user is not part of
// the entity set.
func (r *UserRegistry) All() []User {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b User) int { return strings.Compare(string(a.ID), string(b.ID)) })
	return out
}

// Get returns the user with the given id.
func (r *UserRegistry) Get(id UserID) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return u, nil
}

// Guest returns the reserved guest user, which is always obtainable.
func (r *UserRegistry) Guest() User { return Guest() }

// Add registers a new user. The id and the email must both be unused.
func (r *UserRegistry) Add(u User) error {
	if _, ok := r.users[u.ID]; ok {
		return fmt.Errorf("%w: user %s", ErrIDInUse, u.ID)
	}
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: %s", ErrEmailInUse, u.Email)
		}
	}
	r.users[u.ID] = u
	return nil
}

// Remove deletes the user with the given id.
func (r *UserRegistry) Remove(id UserID) error {
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	delete(r.users, id)
	return nil
}

// Contains reports whether a user with the given id is registered.
func (r *UserRegistry) Contains(id UserID) bool {
	_, ok := r.users[id]
	return ok
}

// ChangeName replaces the user value with a copy carrying the new name.
func (r *UserRegistry) ChangeName(id UserID, name string) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	u.Name = strings.TrimSpace(name)
	r.users[id] = u
	return nil
}

// ChangeEmail replaces the user value with a copy carrying the new email,
// which must not be in use by another user.
func (r *UserRegistry) ChangeEmail(id UserID, email string) error {
	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	for other, existing := range r.users {
		if other != id && existing.Email == email {
			return fmt.Errorf("%w: %s", ErrEmailInUse, email)
		}
	}
	u.Email = email
	r.users[id] = u
	return nil
}

// Equal reports structural equality of the full entity sets.
func (r *UserRegistry) Equal(o *UserRegistry) bool {
	if len(r.users) != len(o.users) {
		return false
	}
	for id, u := range r.users {
		if ou, ok := o.users[id]; !ok || ou != u {
			return false
		}
	}
	return true
}
