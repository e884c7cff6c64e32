// Package ids mints fresh identifiers for access-control entities created
// through the API. ULIDs keep ids lexicographically sortable by creation
// time; the kind prefix makes an id readable in logs and keeps ids of
// different kinds visually distinct.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"ontoserve.org/internal/registry"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// NewUser mints a user id.
func NewUser() registry.UserID { return registry.UserID("usr_" + newULID()) }

// NewProject mints a project id.
func NewProject() registry.ProjectID { return registry.ProjectID("prj_" + newULID()) }

// NewOperation mints an operation id.
func NewOperation() registry.OperationID { return registry.OperationID("op_" + newULID()) }

// NewRole mints a role id.
func NewRole() registry.RoleID { return registry.RoleID("role_" + newULID()) }
