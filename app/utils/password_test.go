package utils

import (
	"errors"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("HashPassword() returned plaintext")
	}
	if !VerifyPassword("s3cret", hash) {
		t.Fatal("VerifyPassword() = false for matching password")
	}
	if VerifyPassword("wrong", hash) {
		t.Fatal("VerifyPassword() = true for wrong password")
	}
}

func TestEmptyPasswordRejected(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("HashPassword(\"\") error = %v, want ErrEmptyPassword", err)
	}

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	tests := []struct {
		name     string
		password string
		hash     string
	}{
		{name: "empty password", password: "", hash: hash},
		{name: "empty hash", password: "s3cret", hash: ""},
		{name: "plaintext stored", password: "s3cret", hash: "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword(tt.password, tt.hash) {
				t.Fatal("VerifyPassword() = true, want false")
			}
		})
	}
}
