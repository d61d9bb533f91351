package authutil

import (
	"strings"
	"testing"
)

func TestValidateGroupPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "team-rocket", nil},
		{"minimum length", "abcd", nil},
		{"maximum length", strings.Repeat("a", 72), nil},
		{"empty", "", ErrGroupPasswordRequired},
		{"whitespace", "   ", ErrGroupPasswordRequired},
		{"too short", "abc", ErrGroupPasswordTooShort},
		{"too long", strings.Repeat("a", 73), ErrGroupPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateGroupPassword(tt.password); err != tt.wantErr {
				t.Errorf("ValidateGroupPassword(%q) = %v, want %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashSecret_RoundTrip(t *testing.T) {
	secret := "ctk_0123456789abcdef"

	hash, err := HashSecret(secret)
	if err != nil {
		t.Fatalf("HashSecret() error = %v", err)
	}
	if hash == "" || hash == secret {
		t.Fatal("HashSecret() must return a hash distinct from the secret")
	}
	if !CheckSecret(secret, hash) {
		t.Error("CheckSecret() rejected the original secret")
	}
	if CheckSecret(secret+"x", hash) {
		t.Error("CheckSecret() accepted a different secret")
	}

	again, _ := HashSecret(secret)
	if again == hash {
		t.Error("HashSecret() should salt each hash")
	}
}

func TestCheckSecret_EmptyInputs(t *testing.T) {
	hash, _ := HashSecret("secret")

	tests := []struct {
		name   string
		secret string
		hash   string
	}{
		{"empty hash", "secret", ""},
		{"empty secret", "", hash},
		{"garbage hash", "secret", "not-a-bcrypt-hash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if CheckSecret(tt.secret, tt.hash) {
				t.Errorf("CheckSecret(%q, %q) = true, want false", tt.secret, tt.hash)
			}
		})
	}
}
