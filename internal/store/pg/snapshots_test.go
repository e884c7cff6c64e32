package pg

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"ontoserve.org/internal/credentials"
	"ontoserve.org/internal/policy"
	"ontoserve.org/internal/registry"
)

func testSnapshot(t *testing.T) policy.Snapshot {
	t.Helper()
	u, err := registry.NewUser("u1", "Alice", "alice@example.com")
	if err != nil {
		t.Fatalf("NewUser: %v", err)
	}
	users, _ := registry.NewUserRegistry(u)
	projects, _ := registry.NewProjectRegistry()
	operations, _ := registry.NewOperationRegistry()
	roles, _ := registry.NewRoleRegistry()
	p, err := policy.New(users, projects, operations, roles)
	if err != nil {
		t.Fatalf("policy.New: %v", err)
	}
	p.Assign("u1", "r1")
	return p.Snapshot()
}

func TestSavePolicy(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	snap := testSnapshot(t)
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectQuery("insert into access_snapshots").
		WithArgs(raw).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(3)))

	store := New(db)
	version, err := store.SavePolicy(context.Background(), snap)
	if err != nil {
		t.Fatalf("SavePolicy: %v", err)
	}
	if version != 3 {
		t.Fatalf("unexpected version: %d", version)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadPolicyRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	snap := testSnapshot(t)
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	mock.ExpectQuery("select version, payload.*from access_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"version", "payload"}).AddRow(int64(7), raw))

	store := New(db)
	loaded, version, err := store.LoadPolicy(context.Background())
	if err != nil {
		t.Fatalf("LoadPolicy: %v", err)
	}
	if version != 7 {
		t.Fatalf("unexpected version: %d", version)
	}
	restored, err := policy.FromSnapshot(loaded)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if !restored.InPolicy("u1") {
		t.Fatalf("loaded snapshot lost the assignment")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadPolicyEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select version, payload.*from access_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"version", "payload"}))

	store := New(db)
	if _, _, err := store.LoadPolicy(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("expected ErrNoSnapshot, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hasher := credentials.Hasher{Iterations: 1000}
	reg := credentials.NewRegistry(hasher)
	salt, err := credentials.SaltGenerator{}.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := reg.Add("u1", hasher.Hash("pw", salt)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	creds := reg.Snapshot()
	raw, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectQuery("insert into credential_snapshots").
		WithArgs(raw).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(int64(1)))
	mock.ExpectQuery("select version, payload.*from credential_snapshots").
		WillReturnRows(sqlmock.NewRows([]string{"version", "payload"}).AddRow(int64(1), raw))

	store := New(db)
	if _, err := store.SaveCredentials(context.Background(), creds); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
	loaded, _, err := store.LoadCredentials(context.Background())
	if err != nil {
		t.Fatalf("LoadCredentials: %v", err)
	}
	restored, err := credentials.FromSnapshot(hasher, loaded)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if ok, err := restored.Valid("u1", "pw"); err != nil || !ok {
		t.Fatalf("restored credentials do not verify: (%v, %v)", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
