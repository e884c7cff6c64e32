package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ontoserve.org/internal/credentials"
	"ontoserve.org/internal/httpapi"
	"ontoserve.org/internal/iri"
	"ontoserve.org/internal/obs"
	"ontoserve.org/internal/policy"
	"ontoserve.org/internal/registry"
	"ontoserve.org/internal/store/pg"
	"ontoserve.org/internal/token"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("ONTOSERVE_COMMIT"))

	addr := os.Getenv("ONTOSERVE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	hasher := credentials.Hasher{}
	salts := credentials.SaltGenerator{}

	tokens, err := token.NewService(token.WithSecret(os.Getenv("ONTOSERVE_TOKEN_SECRET")))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	// Snapshot store is optional; without a DSN the server runs purely
	// in memory and loses state on restart.
	var store *pg.Store
	if dsn := os.Getenv("ONTOSERVE_PG_DSN"); dsn != "" {
		store, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open snapshot store: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := store.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatalf("ensure schema: %v", err)
		}
		cancel()
	}

	pol, creds, gen, err := restoreState(store, hasher)
	if err != nil {
		log.Fatalf("restore state: %v", err)
	}

	cfg := httpapi.Config{
		Version:   version,
		Tokens:    tokens,
		Hasher:    hasher,
		Salts:     salts,
		Generator: gen,
	}
	if store != nil {
		cfg.ReadyProbe = httpapi.ReadyProbe{DB: store.DB()}
	}
	api := httpapi.New(pol, creds, cfg)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting ontoserve-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if store != nil {
		if err := persistState(ctx, store, api); err != nil {
			log.Printf("persist state: %v", err)
		}
		_ = store.Close()
	}
	log.Println("Stopped")
}

// restoreState loads the newest snapshots, falling back to an empty aggregate
// when the store is absent or holds nothing yet.
func restoreState(store *pg.Store, hasher credentials.Hasher) (*policy.Policy, *credentials.Registry, iri.Generator, error) {
	pol, err := emptyPolicy()
	if err != nil {
		return nil, nil, nil, err
	}
	creds := credentials.NewRegistry(hasher)
	var gen iri.Generator = iri.NewSequential(iri.WithIRIPrefix(os.Getenv("ONTOSERVE_IRI_PREFIX")))
	if store == nil {
		return pol, creds, gen, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	snap, ver, err := store.LoadPolicy(ctx)
	switch {
	case err == nil:
		pol, err = policy.FromSnapshot(snap)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("restored policy snapshot v%d", ver)
	case errors.Is(err, pg.ErrNoSnapshot):
	default:
		return nil, nil, nil, err
	}

	credSnap, ver, err := store.LoadCredentials(ctx)
	switch {
	case err == nil:
		creds, err = credentials.FromSnapshot(hasher, credSnap)
		if err != nil {
			return nil, nil, nil, err
		}
		log.Printf("restored credential snapshot v%d", ver)
	case errors.Is(err, pg.ErrNoSnapshot):
	default:
		return nil, nil, nil, err
	}

	st, ver, err := store.LoadIRIStatus(ctx)
	switch {
	case err == nil:
		gen = iri.FromStatus(st)
		log.Printf("restored IRI generator snapshot v%d", ver)
	case errors.Is(err, pg.ErrNoSnapshot):
	default:
		return nil, nil, nil, err
	}

	return pol, creds, gen, nil
}

func persistState(ctx context.Context, store *pg.Store, api *httpapi.API) error {
	polSnap, credSnap, iriStatus := api.Snapshot()
	if _, err := store.SavePolicy(ctx, polSnap); err != nil {
		return err
	}
	if _, err := store.SaveCredentials(ctx, credSnap); err != nil {
		return err
	}
	_, err := store.SaveIRIStatus(ctx, iriStatus)
	return err
}

func emptyPolicy() (*policy.Policy, error) {
	users, err := registry.NewUserRegistry()
	if err != nil {
		return nil, err
	}
	projects, err := registry.NewProjectRegistry()
	if err != nil {
		return nil, err
	}
	operations, err := registry.NewOperationRegistry()
	if err != nil {
		return nil, err
	}
	roles, err := registry.NewRoleRegistry()
	if err != nil {
		return nil, err
	}
	return policy.New(users, projects, operations, roles)
}
