package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"ontoserve.org/internal/credentials"
	"ontoserve.org/internal/policy"
	"ontoserve.org/internal/registry"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleCoreError maps core errors onto status codes. Policy-state errors get
// a distinct code field: "user exists but has no policy entry" is a common
// state callers branch on, not a data bug.
func handleCoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrIDInUse), errors.Is(err, registry.ErrEmailInUse),
		errors.Is(err, credentials.ErrAlreadyRegistered):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, credentials.ErrNotRegistered):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, policy.ErrUserNotInPolicy):
		writePolicyStateError(w, r, "user_not_in_policy", err)
	case errors.Is(err, policy.ErrProjectNotInPolicy):
		writePolicyStateError(w, r, "project_not_in_policy", err)
	default:
		writeError(w, r, http.StatusInternalServerError, "operation failed")
	}
}

func writePolicyStateError(w http.ResponseWriter, r *http.Request, code string, err error) {
	payload := map[string]any{
		"error": err.Error(),
		"code":  code,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, http.StatusNotFound, payload)
}

// pathParts splits the request path below a prefix, dropping empty segments.
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
