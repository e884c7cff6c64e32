package httpapi

import (
	"net/http"

	"ontoserve.org/internal/iri"
	"ontoserve.org/internal/obs"
)

func (a *API) handleIRIStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	a.mu.RLock()
	st := a.gen.Status()
	a.mu.RUnlock()
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleIRINext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	parts := pathParts(r.URL.Path, "/v1/iri/")
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	kind := iri.Kind(parts[0])
	valid := false
	for _, k := range iri.Kinds() {
		if k == kind {
			valid = true
			break
		}
	}
	if !valid {
		writeError(w, r, http.StatusBadRequest, "unknown term kind: "+parts[0])
		return
	}

	a.mu.RLock()
	next := a.gen.Next(kind)
	a.mu.RUnlock()

	obs.ObserveIRIGenerated(string(kind))
	writeJSON(w, http.StatusOK, map[string]any{"kind": kind, "iri": next})
}
