// Package auth implements password hashing and the JWT token lifecycle.
package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/bitpredict/trading-platform/internal/errors"
)

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.InvalidInput("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Internal(err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
func VerifyPassword(plaintext, hash string) (bool, error) {
	if plaintext == "" || hash == "" {
		return false, errors.InvalidInput("password and hash are required")
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil, nil
}
