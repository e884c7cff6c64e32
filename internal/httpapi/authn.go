package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ontoserve.org/internal/registry"
	"ontoserve.org/internal/token"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

type callerKey struct{}

// CallerFromContext returns the authenticated user id, when one was attached.
func CallerFromContext(ctx context.Context) (registry.UserID, bool) {
	if ctx == nil {
		return "", false
	}
	v, ok := ctx.Value(callerKey{}).(registry.UserID)
	return v, ok && v != ""
}

// withAuth requires a valid session token on mutating requests. Reads stay
// open: enforcement points query /v1/access without a session, and the
// decision endpoint must never turn an authentication hiccup into an allow.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if r.URL.Path == "/v1/login" {
			next.ServeHTTP(w, r)
			return
		}

		raw, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		user, err := a.tokens.Verify(raw)
		if err != nil {
			if errors.Is(err, token.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	tokenValue := strings.TrimSpace(header[len(bearer):])
	if tokenValue == "" {
		return "", errors.New("missing bearer token")
	}
	return tokenValue, nil
}
