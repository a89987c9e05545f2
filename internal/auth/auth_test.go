package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()

	token, err := GenerateJWT(secret, userID, "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ParseJWT(secret, token)
	if err != nil {
		t.Fatalf("ParseJWT failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %s", claims.Email)
	}
	if claims.Issuer != "bounty-marketplace" {
		t.Errorf("Issuer = %s", claims.Issuer)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT("secret-a", uuid.New(), "a@b.c", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if _, err := ParseJWT("secret-b", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	token, err := GenerateJWT("secret", uuid.New(), "a@b.c", -time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	// negative expiration falls back to 24h, so force a truly expired one
	// by parsing a token generated with a tiny positive lifetime
	token2, err := GenerateJWT("secret", uuid.New(), "a@b.c", time.Nanosecond)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := ParseJWT("secret", token2); err == nil {
		t.Fatal("expected error for expired token")
	}
	if _, err := ParseJWT("secret", token); err != nil {
		t.Fatalf("fallback-lifetime token should parse: %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2secret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter2secret" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword("hunter2secret", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
