package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/akarpov/Mingle/internal/core"
)

func TestGatewayRequiresSecret(t *testing.T) {
	t.Parallel()
	if _, err := NewGateway("", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("NewGateway(\"\"): got %v, want ErrNoSecret", err)
	}
}

func TestGatewayIssueVerifyRoundTrip(t *testing.T) {
	t.Parallel()
	gw, err := NewGateway("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	tok, err := gw.Issue("alice", 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	id, err := gw.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != "alice" {
		t.Errorf("subject: got %q, want alice", id)
	}
}

func TestGatewayRejectsTamperedToken(t *testing.T) {
	t.Parallel()
	gw, _ := NewGateway("test-secret", time.Hour)
	tok, _ := gw.Issue("alice", 0)

	if _, err := gw.Verify(tok + "x"); !errors.Is(err, core.ErrAuthInvalid) {
		t.Errorf("tampered token: got %v, want ErrAuthInvalid", err)
	}
	if _, err := gw.Verify("not-a-token"); !errors.Is(err, core.ErrAuthInvalid) {
		t.Errorf("garbage token: got %v, want ErrAuthInvalid", err)
	}
}

func TestGatewayRejectsForeignSecret(t *testing.T) {
	t.Parallel()
	issuer, _ := NewGateway("secret-one", time.Hour)
	verifier, _ := NewGateway("secret-two", time.Hour)
	tok, _ := issuer.Issue("alice", 0)

	if _, err := verifier.Verify(tok); !errors.Is(err, core.ErrAuthInvalid) {
		t.Errorf("token signed with another secret: got %v, want ErrAuthInvalid", err)
	}
}

func TestGatewayRejectsExpiredToken(t *testing.T) {
	t.Parallel()
	gw, _ := NewGateway("test-secret", time.Hour)

	// A nanosecond TTL truncates to the issuing second; verification is
	// strictly later, so the exp claim has already passed.
	tok, err := gw.Issue("alice", time.Nanosecond)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := gw.Verify(tok); !errors.Is(err, core.ErrAuthExpired) {
		t.Errorf("expired token: got %v, want ErrAuthExpired", err)
	}
}

func TestGatewayRejectsInvalidSubject(t *testing.T) {
	t.Parallel()
	gw, _ := NewGateway("test-secret", time.Hour)

	if _, err := gw.Issue("", 0); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty subject: got %v, want ErrValidation", err)
	}
}
