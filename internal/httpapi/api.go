// Package httpapi is the enforcement-point transport over the in-memory
// access-control core. The core components carry no locking of their own;
// this layer owns the one coarse lock around the whole aggregate, so every
// read-modify-write sequence (check-then-add and friends) is atomic from the
// point of view of concurrent HTTP callers.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"ontoserve.org/internal/credentials"
	"ontoserve.org/internal/iri"
	"ontoserve.org/internal/obs"
	"ontoserve.org/internal/policy"
	"ontoserve.org/internal/stream"
	"ontoserve.org/internal/token"
)

// ReadyProbe reports readiness, pinging the snapshot database when present.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the collaborators the API serves.
type Config struct {
	Version    string
	Tokens     *token.Service
	Hasher     credentials.Hasher
	Salts      credentials.SaltGenerator
	Generator  iri.Generator
	ReadyProbe ReadyProbe
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	version    string
	readyProbe ReadyProbe

	tokens    *token.Service
	hasher    credentials.Hasher
	salts     credentials.SaltGenerator
	decisions *stream.Stream

	mu     sync.RWMutex
	policy *policy.Policy
	creds  *credentials.Registry
	gen    iri.Generator
}

// New builds the API around a policy aggregate and a credential registry.
func New(p *policy.Policy, creds *credentials.Registry, cfg Config) *API {
	gen := cfg.Generator
	if gen == nil {
		gen = iri.NewSequential()
	}
	a := &API{
		mux:        http.NewServeMux(),
		version:    cfg.Version,
		readyProbe: cfg.ReadyProbe,
		tokens:     cfg.Tokens,
		hasher:     cfg.Hasher,
		salts:      cfg.Salts,
		decisions:  stream.New(),
		policy:     p,
		creds:      creds,
		gen:        gen,
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/login", a.handleLogin)
	a.mux.HandleFunc("/v1/access", a.handleAccess)

	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserScoped)
	a.mux.HandleFunc("/v1/projects", a.handleProjects)
	a.mux.HandleFunc("/v1/projects/", a.handleProjectScoped)
	a.mux.HandleFunc("/v1/operations", a.handleOperations)
	a.mux.HandleFunc("/v1/operations/", a.handleOperationScoped)
	a.mux.HandleFunc("/v1/roles", a.handleRoles)
	a.mux.HandleFunc("/v1/roles/", a.handleRoleScoped)

	a.mux.HandleFunc("/v1/policy/", a.handlePolicyScoped)

	a.mux.HandleFunc("/v1/stream/decisions", a.handleDecisionStream)

	a.mux.HandleFunc("/v1/iri/status", a.handleIRIStatus)
	a.mux.HandleFunc("/v1/iri/", a.handleIRINext)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 50, 25)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

// Snapshot captures the aggregate state under the read lock, for persistence.
func (a *API) Snapshot() (policy.Snapshot, []credentials.Credential, iri.Status) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy.Snapshot(), a.creds.Snapshot(), a.gen.Status()
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "ontoserve-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "ontoserve-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
