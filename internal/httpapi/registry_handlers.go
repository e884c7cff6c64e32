package httpapi

import (
	"errors"
	"net/http"

	"ontoserve.org/internal/credentials"
	"ontoserve.org/internal/ids"
	"ontoserve.org/internal/registry"
)

type createUserRequest struct {
	ID       registry.UserID `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
}

type patchUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		users := a.policy.Users().All()
		a.mu.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	case http.MethodPost:
		var req createUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		id := req.ID
		if id == "" {
			id = ids.NewUser()
		}
		u, err := registry.NewUser(id, req.Name, req.Email)
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		var digest credentials.Digest
		if req.Password != "" {
			salt, err := a.salts.Generate()
			if err != nil {
				writeError(w, r, http.StatusInternalServerError, "internal error")
				return
			}
			digest = a.hasher.Hash(req.Password, salt)
		}
		a.mu.Lock()
		err = a.policy.Users().Add(u)
		if err == nil && req.Password != "" {
			err = a.creds.Add(u.ID, digest)
			if err != nil {
				// roll the user back so the aggregate stays consistent
				_ = a.policy.Users().Remove(u.ID)
			}
		}
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "users.create", map[string]any{"user": u.ID})
		writeJSON(w, http.StatusCreated, u)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/users/")
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id := registry.UserID(parts[0])

	if len(parts) == 2 && parts[1] == "password" {
		a.handleUserPassword(w, r, id)
		return
	}
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		u, err := a.policy.Users().Get(id)
		a.mu.RUnlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	case http.MethodPatch:
		var req patchUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		a.mu.Lock()
		var err error
		if req.Name != nil {
			err = a.policy.Users().ChangeName(id, *req.Name)
		}
		if err == nil && req.Email != nil {
			err = a.policy.Users().ChangeEmail(id, *req.Email)
		}
		var u registry.User
		if err == nil {
			u, err = a.policy.Users().Get(id)
		}
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "users.update", map[string]any{"user": id})
		writeJSON(w, http.StatusOK, u)
	case http.MethodDelete:
		a.mu.Lock()
		err := a.policy.Users().Remove(id)
		if err == nil {
			if cerr := a.creds.Remove(id); cerr != nil && !errors.Is(cerr, credentials.ErrNotRegistered) {
				err = cerr
			}
		}
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "users.delete", map[string]any{"user": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleUserPassword(w http.ResponseWriter, r *http.Request, id registry.UserID) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "password is required")
		return
	}
	salt, err := a.salts.Generate()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	digest := a.hasher.Hash(req.Password, salt)

	a.mu.Lock()
	if !a.policy.Users().Contains(id) {
		a.mu.Unlock()
		writeError(w, r, http.StatusNotFound, "user not found: "+id.String())
		return
	}
	if a.creds.Contains(id) {
		err = a.creds.ChangePassword(id, digest)
	} else {
		err = a.creds.Add(id, digest)
	}
	a.mu.Unlock()
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	a.auditEvent(r, "users.password", map[string]any{"user": id})
	w.WriteHeader(http.StatusNoContent)
}

type createProjectRequest struct {
	ID             registry.ProjectID `json:"id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	Address        string             `json:"address"`
	Owner          registry.UserID    `json:"owner"`
	Administrators []registry.UserID  `json:"administrators"`
}

type patchProjectRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Address     *string          `json:"address"`
	Owner       *registry.UserID `json:"owner"`
}

func (a *API) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		projects := a.policy.Projects().All()
		a.mu.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	case http.MethodPost:
		var req createProjectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		id := req.ID
		if id == "" {
			id = ids.NewProject()
		}
		p, err := registry.NewProject(id, req.Name, req.Description, req.Address, req.Owner, req.Administrators...)
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.mu.Lock()
		err = a.policy.Projects().Add(p)
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "projects.create", map[string]any{"project": p.ID})
		writeJSON(w, http.StatusCreated, p)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleProjectScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/projects/")
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id := registry.ProjectID(parts[0])

	if len(parts) == 3 && parts[1] == "administrators" {
		a.handleProjectAdministrator(w, r, id, registry.UserID(parts[2]))
		return
	}
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		p, err := a.policy.Projects().Get(id)
		a.mu.RUnlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPatch:
		var req patchProjectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		a.mu.Lock()
		var err error
		if req.Name != nil {
			err = a.policy.Projects().ChangeName(id, *req.Name)
		}
		if err == nil && req.Description != nil {
			err = a.policy.Projects().ChangeDescription(id, *req.Description)
		}
		if err == nil && req.Address != nil {
			err = a.policy.Projects().ChangeAddress(id, *req.Address)
		}
		if err == nil && req.Owner != nil {
			err = a.policy.Projects().ChangeOwner(id, *req.Owner)
		}
		var p registry.Project
		if err == nil {
			p, err = a.policy.Projects().Get(id)
		}
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "projects.update", map[string]any{"project": id})
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		a.mu.Lock()
		err := a.policy.Projects().Remove(id)
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "projects.delete", map[string]any{"project": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleProjectAdministrator(w http.ResponseWriter, r *http.Request, id registry.ProjectID, user registry.UserID) {
	var err error
	var event string
	switch r.Method {
	case http.MethodPut:
		a.mu.Lock()
		err = a.policy.Projects().AddAdministrator(id, user)
		a.mu.Unlock()
		event = "projects.administrator_add"
	case http.MethodDelete:
		a.mu.Lock()
		err = a.policy.Projects().RemoveAdministrator(id, user)
		a.mu.Unlock()
		event = "projects.administrator_remove"
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
		return
	}
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	a.auditEvent(r, event, map[string]any{"project": id, "user": user})
	w.WriteHeader(http.StatusNoContent)
}

type prerequisitePayload struct {
	Target   string                        `json:"target"`
	Modifier registry.PrerequisiteModifier `json:"modifier"`
}

type createOperationRequest struct {
	ID            registry.OperationID   `json:"id"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Type          registry.OperationType `json:"type"`
	Prerequisites []prerequisitePayload  `json:"prerequisites"`
}

type patchOperationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (a *API) handleOperations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		ops := a.policy.Operations().All()
		a.mu.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"operations": ops})
	case http.MethodPost:
		var req createOperationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		id := req.ID
		if id == "" {
			id = ids.NewOperation()
		}
		prereqs := make([]registry.Prerequisite, 0, len(req.Prerequisites))
		for _, p := range req.Prerequisites {
			prereqs = append(prereqs, registry.Prerequisite{Target: p.Target, Modifier: p.Modifier})
		}
		op, err := registry.NewOperation(id, req.Name, req.Description, req.Type, prereqs...)
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.mu.Lock()
		err = a.policy.Operations().Add(op)
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "operations.create", map[string]any{"operation": op.ID})
		writeJSON(w, http.StatusCreated, op)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleOperationScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/operations/")
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id := registry.OperationID(parts[0])

	if len(parts) == 2 && parts[1] == "prerequisites" {
		a.handleOperationPrerequisites(w, r, id)
		return
	}
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		op, err := a.policy.Operations().Get(id)
		a.mu.RUnlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, op)
	case http.MethodPatch:
		var req patchOperationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		a.mu.Lock()
		var err error
		if req.Name != nil {
			err = a.policy.Operations().ChangeName(id, *req.Name)
		}
		if err == nil && req.Description != nil {
			err = a.policy.Operations().ChangeDescription(id, *req.Description)
		}
		var op registry.Operation
		if err == nil {
			op, err = a.policy.Operations().Get(id)
		}
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "operations.update", map[string]any{"operation": id})
		writeJSON(w, http.StatusOK, op)
	case http.MethodDelete:
		a.mu.Lock()
		err := a.policy.Operations().Remove(id)
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "operations.delete", map[string]any{"operation": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleOperationPrerequisites(w http.ResponseWriter, r *http.Request, id registry.OperationID) {
	switch r.Method {
	case http.MethodPost:
		var req prerequisitePayload
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		a.mu.Lock()
		err := a.policy.Operations().AddPrerequisite(id, registry.Prerequisite{Target: req.Target, Modifier: req.Modifier})
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "operations.prerequisite_add", map[string]any{"operation": id, "target": req.Target})
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		q := r.URL.Query()
		prereq := registry.Prerequisite{
			Target:   q.Get("target"),
			Modifier: registry.PrerequisiteModifier(q.Get("modifier")),
		}
		if prereq.Target == "" || prereq.Modifier == "" {
			writeError(w, r, http.StatusBadRequest, "target and modifier are required")
			return
		}
		a.mu.Lock()
		err := a.policy.Operations().RemovePrerequisite(id, prereq)
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "operations.prerequisite_remove", map[string]any{"operation": id, "target": prereq.Target})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
	}
}

type createRoleRequest struct {
	ID          registry.RoleID        `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Projects    []registry.ProjectID   `json:"projects"`
	Operations  []registry.OperationID `json:"operations"`
}

type patchRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		roles := a.policy.Roles().All()
		a.mu.RUnlock()
		writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
	case http.MethodPost:
		var req createRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		id := req.ID
		if id == "" {
			id = ids.NewRole()
		}
		role, err := registry.NewRole(id, req.Name, req.Description, req.Projects, req.Operations)
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.mu.Lock()
		err = a.policy.Roles().Add(role)
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "roles.create", map[string]any{"role": role.ID})
		writeJSON(w, http.StatusCreated, role)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRoleScoped(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/v1/roles/")
	if len(parts) == 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id := registry.RoleID(parts[0])

	if len(parts) == 3 {
		switch parts[1] {
		case "projects":
			a.handleRoleProject(w, r, id, registry.ProjectID(parts[2]))
			return
		case "operations":
			a.handleRoleOperation(w, r, id, registry.OperationID(parts[2]))
			return
		}
	}
	if len(parts) != 1 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.mu.RLock()
		role, err := a.policy.Roles().Get(id)
		a.mu.RUnlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, role)
	case http.MethodPatch:
		var req patchRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		a.mu.Lock()
		var err error
		if req.Name != nil {
			err = a.policy.Roles().ChangeName(id, *req.Name)
		}
		if err == nil && req.Description != nil {
			err = a.policy.Roles().ChangeDescription(id, *req.Description)
		}
		var role registry.Role
		if err == nil {
			role, err = a.policy.Roles().Get(id)
		}
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "roles.update", map[string]any{"role": id})
		writeJSON(w, http.StatusOK, role)
	case http.MethodDelete:
		a.mu.Lock()
		err := a.policy.Roles().Remove(id)
		a.mu.Unlock()
		if err != nil {
			handleCoreError(w, r, err)
			return
		}
		a.auditEvent(r, "roles.delete", map[string]any{"role": id})
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) handleRoleProject(w http.ResponseWriter, r *http.Request, id registry.RoleID, project registry.ProjectID) {
	var err error
	var event string
	switch r.Method {
	case http.MethodPut:
		a.mu.Lock()
		err = a.policy.Roles().AddProject(id, project)
		a.mu.Unlock()
		event = "roles.project_add"
	case http.MethodDelete:
		a.mu.Lock()
		err = a.policy.Roles().RemoveProject(id, project)
		a.mu.Unlock()
		event = "roles.project_remove"
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
		return
	}
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	a.auditEvent(r, event, map[string]any{"role": id, "project": project})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleRoleOperation(w http.ResponseWriter, r *http.Request, id registry.RoleID, operation registry.OperationID) {
	var err error
	var event string
	switch r.Method {
	case http.MethodPut:
		a.mu.Lock()
		err = a.policy.Roles().AddOperation(id, operation)
		a.mu.Unlock()
		event = "roles.operation_add"
	case http.MethodDelete:
		a.mu.Lock()
		err = a.policy.Roles().RemoveOperation(id, operation)
		a.mu.Unlock()
		event = "roles.operation_remove"
	default:
		methodNotAllowed(w, r, http.MethodPut, http.MethodDelete)
		return
	}
	if err != nil {
		handleCoreError(w, r, err)
		return
	}
	a.auditEvent(r, event, map[string]any{"role": id, "operation": operation})
	w.WriteHeader(http.StatusNoContent)
}
