package registry

import "errors"

var (
	ErrNotFound     = errors.New("registry: not found")
	ErrIDInUse      = errors.New("registry: id already in use")
	ErrEmailInUse   = errors.New("registry: email already in use")
	ErrInvalidInput = errors.New("registry: invalid input")
)
