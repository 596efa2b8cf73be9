package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/Racej255/CrosslandApocalypse/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidate_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("anon", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ValidateToken(tok, secret)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if claims.Role != "anon" {
		t.Fatalf("role mismatch: got %q want %q", claims.Role, "anon")
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected an expiry")
	}
}

func TestGenerateToken_ZeroValidityNeverExpires(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("service", secret, 0)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ValidateToken(tok, secret)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("expected no expiry, got %v", claims.ExpiresAt)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	tok, err := GenerateToken("anon", secret, -1*time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ValidateToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("anon", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ValidateToken(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Role: "anon"}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	_, err = ValidateToken(tok, []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestValidateToken_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ValidateToken("not.a.jwt", []byte("k"))
	if err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
