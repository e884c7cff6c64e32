package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"ontoserve.org/internal/credentials"
	"ontoserve.org/internal/obs"
	"ontoserve.org/internal/registry"
)

type loginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.tokens == nil {
		writeError(w, r, http.StatusServiceUnavailable, "login unavailable")
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user := registry.UserID(strings.TrimSpace(req.User))
	if user == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "user and password are required")
		return
	}

	a.mu.RLock()
	ok, err := a.creds.Valid(user, req.Password)
	a.mu.RUnlock()
	if err != nil {
		if errors.Is(err, credentials.ErrNotRegistered) {
			obs.ObserveLogin("unknown_user")
			// same response as a bad password, to avoid user enumeration
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "login failed")
		return
	}
	if !ok {
		obs.ObserveLogin("bad_credentials")
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	signed, expiresAt, err := a.tokens.Issue(user)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	obs.ObserveLogin("ok")
	obs.LogEvent(map[string]any{
		"level": "info",
		"msg":   "login",
		"user":  user.String(),
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: signed, ExpiresAt: expiresAt})
}
