package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct-horse-battery-staple") {
		t.Fatal("expected matching password to check out")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("expected mismatched password to fail")
	}
}
