package ids

import (
	"strings"
	"testing"
)

func TestKindPrefixes(t *testing.T) {
	if !strings.HasPrefix(string(NewUser()), "usr_") {
		t.Fatalf("user id missing prefix")
	}
	if !strings.HasPrefix(string(NewProject()), "prj_") {
		t.Fatalf("project id missing prefix")
	}
	if !strings.HasPrefix(string(NewOperation()), "op_") {
		t.Fatalf("operation id missing prefix")
	}
	if !strings.HasPrefix(string(NewRole()), "role_") {
		t.Fatalf("role id missing prefix")
	}
}

func TestIDsAreUniqueAndSortable(t *testing.T) {
	prev := ""
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := string(NewUser())
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id after %d draws", i)
		}
		seen[id] = struct{}{}
		if id <= prev {
			t.Fatalf("ids not monotonically sortable: %s then %s", prev, id)
		}
		prev = id
	}
}
