package services

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(bcrypt.MinCost)

	hash, err := svc.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("hash equals plaintext")
	}

	if !svc.CheckPassword("s3cret-pass", hash) {
		t.Fatalf("expected matching password to verify")
	}
	if svc.CheckPassword("wrong-pass", hash) {
		t.Fatalf("expected mismatching password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(bcrypt.MinCost)
	if _, err := svc.HashPassword("   "); err == nil {
		t.Fatalf("expected error for blank password")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	svc := NewAuthService(bcrypt.MinCost)
	if svc.CheckPassword("whatever", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}

func TestNewAuthServiceClampsCost(t *testing.T) {
	t.Parallel()

	// out-of-range cost falls back to the bcrypt default
	svc := NewAuthService(99)
	hash, err := svc.HashPassword("p@ssword1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost error: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", cost)
	}
}
