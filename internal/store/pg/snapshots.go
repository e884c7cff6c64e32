// Package pg persists the access-control snapshots in PostgreSQL. Snapshots
// are append-only versioned JSONB rows; loading returns the newest version.
// The in-memory aggregate stays the source of truth while the process runs.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"ontoserve.org/internal/credentials"
	"ontoserve.org/internal/iri"
	"ontoserve.org/internal/policy"
)

// ErrNoSnapshot is returned when nothing has been persisted yet.
var ErrNoSnapshot = errors.New("pg: no snapshot")

type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL with pool settings suited to the snapshot
// workload (rare, small writes).
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing connection, mainly for tests.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// EnsureSchema creates the snapshot tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, table := range []string{"access_snapshots", "credential_snapshots", "iri_snapshots"} {
		_, err := s.db.ExecContext(ctx, `
			create table if not exists `+table+` (
				version  bigint generated always as identity primary key,
				taken_at timestamptz not null,
				payload  jsonb not null
			)
		`)
		if err != nil {
			return fmt.Errorf("ensure %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) save(ctx context.Context, table string, payload any) (int64, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal snapshot: %w", err)
	}
	var version int64
	row := s.db.QueryRowContext(ctx, `
		insert into `+table+` (taken_at, payload)
		values (now(), $1)
		returning version
	`, raw)
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	return version, nil
}

func (s *Store) load(ctx context.Context, table string, dst any) (int64, error) {
	var (
		version int64
		raw     []byte
	)
	row := s.db.QueryRowContext(ctx, `
		select version, payload
		from `+table+`
		order by version desc
		limit 1
	`)
	if err := row.Scan(&version, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoSnapshot
		}
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	return version, nil
}

// SavePolicy persists a policy snapshot and returns its version.
func (s *Store) SavePolicy(ctx context.Context, snap policy.Snapshot) (int64, error) {
	return s.save(ctx, "access_snapshots", snap)
}

// LoadPolicy returns the newest policy snapshot.
func (s *Store) LoadPolicy(ctx context.Context) (policy.Snapshot, int64, error) {
	var snap policy.Snapshot
	version, err := s.load(ctx, "access_snapshots", &snap)
	if err != nil {
		return policy.Snapshot{}, 0, err
	}
	return snap, version, nil
}

// SaveCredentials persists the credential list and returns its version.
func (s *Store) SaveCredentials(ctx context.Context, creds []credentials.Credential) (int64, error) {
	return s.save(ctx, "credential_snapshots", creds)
}

// LoadCredentials returns the newest credential list.
func (s *Store) LoadCredentials(ctx context.Context) ([]credentials.Credential, int64, error) {
	var creds []credentials.Credential
	version, err := s.load(ctx, "credential_snapshots", &creds)
	if err != nil {
		return nil, 0, err
	}
	return creds, version, nil
}

// SaveIRIStatus persists the entity-IRI generator state.
func (s *Store) SaveIRIStatus(ctx context.Context, st iri.Status) (int64, error) {
	return s.save(ctx, "iri_snapshots", st)
}

// LoadIRIStatus returns the newest generator state.
func (s *Store) LoadIRIStatus(ctx context.Context) (iri.Status, int64, error) {
	var st iri.Status
	version, err := s.load(ctx, "iri_snapshots", &st)
	if err != nil {
		return iri.Status{}, 0, err
	}
	return st, version, nil
}
