package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "" || hash == "correct-horse-battery-staple" {
		t.Fatalf("unexpected hash: %q", hash)
	}
	if err := CheckPassword(hash, "correct-horse-battery-staple"); err != nil {
		t.Fatalf("CheckPassword with correct password: %v", err)
	}
	if err := CheckPassword(hash, "wrong-password"); err == nil {
		t.Fatalf("expected CheckPassword to reject a wrong password")
	}
}
