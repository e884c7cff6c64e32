package httpapi

import (
	"net/http"
	"strings"
	"time"

	"ontoserve.org/internal/audit"
	"ontoserve.org/internal/obs"
	"ontoserve.org/internal/registry"
	"ontoserve.org/internal/stream"
)

type accessResponse struct {
	Allowed bool `json:"allowed"`
}

// handleAccess is the enforcement-point endpoint. It mirrors the decision
// predicate's totality: unknown users, projects, and operations all answer
// 200 {"allowed": false}; only a malformed query is an error.
func (a *API) handleAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	q := r.URL.Query()
	user := registry.UserID(strings.TrimSpace(q.Get("user")))
	project := registry.ProjectID(strings.TrimSpace(q.Get("project")))
	operation := registry.OperationID(strings.TrimSpace(q.Get("operation")))
	if user == "" || project == "" || operation == "" {
		writeError(w, r, http.StatusBadRequest, "user, project and operation are required")
		return
	}

	a.mu.RLock()
	allowed := a.policy.IsOperationAllowed(operation, project, user)
	a.mu.RUnlock()

	obs.ObserveDecision(allowed)
	a.decisions.Publish(stream.DecisionEvent{
		User:      user,
		Project:   project,
		Operation: operation,
		Allowed:   allowed,
		Timestamp: time.Now().UTC(),
	})
	writeJSON(w, http.StatusOK, accessResponse{Allowed: allowed})
}

type assignRolesRequest struct {
	Roles []registry.RoleID `json:"roles"`
}

// handlePolicyScoped routes /v1/policy/{user}/... paths:
//
//	GET    /v1/policy/{user}/roles
//	POST   /v1/policy/{user}/roles
//	DELETE /v1/policy/{user}/roles/{role}
//	GET    /v1/policy/{user}/projects
//	GET    /v1/policy/{user}/projects/{project}/operations
func (a *API) handlePolicyScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/policy/")
	if len(parts) < 2 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	user := registry.UserID(parts[0])
	switch {
	case parts[1] == "roles" && len(parts) == 2:
		a.handleUserRoles(w, r, user)
	case parts[1] == "roles" && len(parts) == 3:
		a.handleUserRole(w, r, user, registry.RoleID(parts[2]))
	case parts[1] == "projects" && len(parts) == 2:
		a.handleUserProjects(w, r, user)
	case parts[1] == "projects" && len(parts) == 4 && parts[3] == "operations":
		a.handleUserProjectOperations(w, r, user, registry.ProjectID(parts[2]))
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUserRoles(w http.ResponseWriter, r *http.Request, user registry.UserID) {
	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		roles, err := a.policy.UserRoles(user)
		a.mu.RUnlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": user, "roles": roles})
	case http.MethodPost:
		var req assignRolesRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if len(req.Roles) == 0 {
			writeError(w, r, http.StatusBadRequest, "roles are required")
			return
		}
		a.mu.Lock()
		a.policy.Assign(user, req.Roles...)
		dangling := a.policy.Validate()
		a.mu.Unlock()
		a.auditEvent(r, "policy.assign", map[string]any{"user": user, "roles": req.Roles})
		resp := map[string]any{"user": user, "roles": req.Roles}
		if len(dangling) > 0 {
			// accepted, but the caller should know some roles do not exist yet
			resp["dangling_roles"] = dangling
		}
		writeJSON(w, http.StatusOK, resp)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserRole(w http.ResponseWriter, r *http.Request, user registry.UserID, role registry.RoleID) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	a.mu.Lock()
	a.policy.Revoke(user, role)
	a.mu.Unlock()
	a.auditEvent(r, "policy.revoke", map[string]any{"user": user, "role": role})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleUserProjects(w http.ResponseWriter, r *http.Request, user registry.UserID) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	a.mu.RLock()
	projects, err := a.policy.UserProjects(user)
	a.mu.RUnlock()
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "projects": projects})
}

func (a *API) handleUserProjectOperations(w http.ResponseWriter, r *http.Request, user registry.UserID, project registry.ProjectID) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	a.mu.RLock()
	ops, err := a.policy.OperationsInProject(user, project)
	a.mu.RUnlock()
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "project": project, "operations": ops})
}

func (a *API) auditEvent(r *http.Request, event string, fields map[string]any) {
	entry := audit.Entry{
		Event:     event,
		RequestID: RequestIDFromContext(r.Context()),
		Fields:    fields,
	}
	if caller, ok := CallerFromContext(r.Context()); ok {
		entry.Actor = caller
	}
	_ = audit.Log(entry)
}
