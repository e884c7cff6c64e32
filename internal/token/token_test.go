package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	svc, err := NewService(WithSecret("unit-test-secret"), WithIssuer("test-issuer"), WithTTL(30*time.Minute))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	raw, expiresAt, err := svc.Issue("usr_42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiration, got %v", expiresAt)
	}

	user, err := svc.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if user != "usr_42" {
		t.Fatalf("unexpected subject: %s", user)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	a, _ := NewService(WithSecret("secret-a"))
	b, _ := NewService(WithSecret("secret-b"))
	raw, _, err := a.Issue("usr_1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	current := time.Now()
	svc, err := NewService(
		WithSecret("secret"),
		WithTTL(time.Minute),
		WithNow(func() time.Time { return current }),
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	raw, _, err := svc.Issue("usr_1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	current = current.Add(2 * time.Minute)
	if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc, _ := NewService(WithSecret("secret"))
	if _, err := svc.Verify("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRandomSecretsDiffer(t *testing.T) {
	a, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	b, err := NewService()
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	raw, _, err := a.Issue("usr_1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(raw); err == nil {
		t.Fatalf("independent services must not share secrets")
	}
}
