// internal/app/system/authutil/secret.go
// Package authutil hashes and checks the secrets CodeTrackr stores:
// API keys and private group passwords. Neither is ever stored in clear.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Group password limits. bcrypt ignores input past 72 bytes.
const (
	MinGroupPasswordLength = 4
	MaxGroupPasswordLength = 72
	BcryptCost             = bcrypt.DefaultCost
)

// Group password validation errors
var (
	ErrGroupPasswordRequired = errors.New("Password is required for private groups")
	ErrGroupPasswordTooShort = errors.New("Group password must be at least 4 characters.")
	ErrGroupPasswordTooLong  = errors.New("Group password must be at most 72 characters.")
)

// ValidateGroupPassword checks a private group's password.
func ValidateGroupPassword(password string) error {
	switch {
	case strings.TrimSpace(password) == "":
		return ErrGroupPasswordRequired
	case len(password) < MinGroupPasswordLength:
		return ErrGroupPasswordTooShort
	case len(password) > MaxGroupPasswordLength:
		return ErrGroupPasswordTooLong
	}
	return nil
}

// HashSecret hashes an API key or group password with bcrypt.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckSecret compares a plain-text secret with a bcrypt hash.
func CheckSecret(secret, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
