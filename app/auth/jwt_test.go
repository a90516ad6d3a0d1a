package auth

import (
	"testing"

	"kling-studio/app/config"
)

func testConfig(secret string, hours int) *config.Config {
	return &config.Config{JWT: config.JWTConfig{Secret: secret, ExpireTime: hours, Issuer: "kling-studio"}}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService(testConfig("test-secret", 24))

	token, err := svc.GenerateToken(7, "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != 7 || claims.Username != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	token, err := NewJWTService(testConfig("secret-a", 24)).GenerateToken(1, "admin")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := NewJWTService(testConfig("secret-b", 24)).ValidateToken(token); err == nil {
		t.Fatal("ValidateToken() error = nil, want signature error")
	}
}

func TestRefreshToken(t *testing.T) {
	longLived := NewJWTService(testConfig("s", 24))
	token, _ := longLived.GenerateToken(1, "admin")
	if _, err := longLived.RefreshToken(token); err == nil {
		t.Fatal("RefreshToken() should refuse a token far from expiry")
	}

	shortLived := NewJWTService(testConfig("s", 1))
	token, _ = shortLived.GenerateToken(1, "admin")
	refreshed, err := shortLived.RefreshToken(token)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if _, err := shortLived.ValidateToken(refreshed); err != nil {
		t.Fatalf("refreshed token invalid: %v", err)
	}
}
