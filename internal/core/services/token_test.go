package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "payesh-backend")
	token, err := svc.GenerateToken("42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	subject, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if subject != "42" {
		t.Errorf("subject = %q, want 42", subject)
	}
}

func TestTokenService_WrongSecretRejected(t *testing.T) {
	minter := NewTokenService("secret-a", "payesh-backend")
	verifier := NewTokenService("secret-b", "payesh-backend")
	token, err := minter.GenerateToken("42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	_, err = verifier.VerifyToken(token)
	if err == nil {
		t.Fatal("token signed with a different secret should not verify")
	}
	if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Errorf("err = %v, want wrapped ErrTokenSignatureInvalid", err)
	}
}

func TestTokenService_ExpiredRejected(t *testing.T) {
	svc := NewTokenService("test-secret", "payesh-backend")
	token, err := svc.GenerateToken("42", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	_, err = svc.VerifyToken(token)
	if err == nil {
		t.Fatal("expired token should not verify")
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("err = %v, want wrapped ErrTokenExpired", err)
	}
}

func TestTokenService_GarbageRejected(t *testing.T) {
	svc := NewTokenService("test-secret", "payesh-backend")
	if _, err := svc.VerifyToken("not.a.jwt"); err == nil {
		t.Error("garbage token should not verify")
	}
}
