package policy

import "errors"

// Policy-state errors are distinct from registry lookup errors: "user exists
// but has no policy entry" is a common, meaningful state, not a data bug.
var (
	ErrUserNotInPolicy    = errors.New("policy: user not in policy")
	ErrProjectNotInPolicy = errors.New("policy: project not in policy")
)
