package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	resp, err := issuer.Issue("user-1", "alice", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := issuer.Verify(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" || claims.Login != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	resp, err := issuer.Issue("user-1", "alice", time.Nanosecond)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := issuer.Verify(resp.AccessToken); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a := NewIssuer("secret-a", time.Hour)
	b := NewIssuer("secret-b", time.Hour)
	resp, err := a.Issue("user-1", "alice", 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := b.Verify(resp.AccessToken); err == nil {
		t.Fatal("expected verification with the wrong secret to fail")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("expected mismatched password to fail")
	}
}
