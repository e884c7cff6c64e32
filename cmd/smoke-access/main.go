// Command smoke-access drives a running ontoserve-api through a full
// grant-check-revoke cycle. It signs its own session token, so it needs the
// same ONTOSERVE_TOKEN_SECRET the server was started with.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"ontoserve.org/internal/token"
)

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body any, dst any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil && err != io.EOF {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func main() {
	base := os.Getenv("ONTOSERVE_API_ADDR")
	if base == "" {
		base = "http://localhost:8080"
	}
	secret := os.Getenv("ONTOSERVE_TOKEN_SECRET")
	if secret == "" {
		log.Fatal("ONTOSERVE_TOKEN_SECRET must be set to the server's secret")
	}
	tokens, err := token.NewService(token.WithSecret(secret))
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	session, _, err := tokens.Issue("smoke-access")
	if err != nil {
		log.Fatalf("issue session token: %v", err)
	}

	c := &client{base: base, token: session, http: &http.Client{Timeout: 5 * time.Second}}

	if code, err := c.do(http.MethodGet, "/healthz", nil, nil); err != nil || code != http.StatusOK {
		log.Fatalf("healthz: code=%d err=%v", code, err)
	}

	suffix := time.Now().UnixNano()
	userID := fmt.Sprintf("smoke-user-%d", suffix)
	projectID := fmt.Sprintf("smoke-project-%d", suffix)
	operationID := fmt.Sprintf("smoke-op-%d", suffix)
	roleID := fmt.Sprintf("smoke-role-%d", suffix)

	code, err := c.do(http.MethodPost, "/v1/users", map[string]any{
		"id":       userID,
		"name":     "Smoke User",
		"email":    fmt.Sprintf("smoke-%d@example.org", suffix),
		"password": "smoke-pass",
	}, nil)
	if err != nil || code != http.StatusCreated {
		log.Fatalf("create user: code=%d err=%v", code, err)
	}
	code, err = c.do(http.MethodPost, "/v1/projects", map[string]any{
		"id": projectID, "name": "Smoke Project", "owner": userID,
	}, nil)
	if err != nil || code != http.StatusCreated {
		log.Fatalf("create project: code=%d err=%v", code, err)
	}
	code, err = c.do(http.MethodPost, "/v1/operations", map[string]any{
		"id": operationID, "name": "Smoke Operation", "type": "read",
	}, nil)
	if err != nil || code != http.StatusCreated {
		log.Fatalf("create operation: code=%d err=%v", code, err)
	}
	code, err = c.do(http.MethodPost, "/v1/roles", map[string]any{
		"id": roleID, "name": "Smoke Role",
		"projects": []string{projectID}, "operations": []string{operationID},
	}, nil)
	if err != nil || code != http.StatusCreated {
		log.Fatalf("create role: code=%d err=%v", code, err)
	}
	code, err = c.do(http.MethodPost, "/v1/policy/"+userID+"/roles", map[string]any{
		"roles": []string{roleID},
	}, nil)
	if err != nil || code != http.StatusOK {
		log.Fatalf("assign role: code=%d err=%v", code, err)
	}

	accessPath := fmt.Sprintf("/v1/access?user=%s&project=%s&operation=%s", userID, projectID, operationID)
	var decision struct {
		Allowed bool `json:"allowed"`
	}
	if code, err = c.do(http.MethodGet, accessPath, nil, &decision); err != nil || code != http.StatusOK {
		log.Fatalf("access check: code=%d err=%v", code, err)
	}
	if !decision.Allowed {
		log.Fatal("granted operation was denied")
	}

	var login struct {
		Token string `json:"token"`
	}
	code, err = c.do(http.MethodPost, "/v1/login", map[string]any{
		"user": userID, "password": "smoke-pass",
	}, &login)
	if err != nil || code != http.StatusOK || login.Token == "" {
		log.Fatalf("login: code=%d err=%v", code, err)
	}

	var first, second struct {
		IRI string `json:"iri"`
	}
	if code, err = c.do(http.MethodPost, "/v1/iri/class", nil, &first); err != nil || code != http.StatusOK {
		log.Fatalf("iri draw: code=%d err=%v", code, err)
	}
	if code, err = c.do(http.MethodPost, "/v1/iri/class", nil, &second); err != nil || code != http.StatusOK {
		log.Fatalf("iri draw: code=%d err=%v", code, err)
	}
	if first.IRI == second.IRI {
		log.Fatalf("generator repeated an IRI: %q", first.IRI)
	}

	if code, err = c.do(http.MethodDelete, "/v1/policy/"+userID+"/roles/"+roleID, nil, nil); err != nil || code != http.StatusNoContent {
		log.Fatalf("revoke role: code=%d err=%v", code, err)
	}
	if code, err = c.do(http.MethodGet, accessPath, nil, &decision); err != nil || code != http.StatusOK {
		log.Fatalf("access check after revoke: code=%d err=%v", code, err)
	}
	if decision.Allowed {
		log.Fatal("revoked operation is still allowed")
	}

	for _, path := range []string{
		"/v1/roles/" + roleID,
		"/v1/operations/" + operationID,
		"/v1/projects/" + projectID,
		"/v1/users/" + userID,
	} {
		if code, err = c.do(http.MethodDelete, path, nil, nil); err != nil || code != http.StatusNoContent {
			log.Fatalf("cleanup %s: code=%d err=%v", path, code, err)
		}
	}

	fmt.Printf("✅ access smoke test passed: user=%s role=%s\n", userID, roleID)
}
