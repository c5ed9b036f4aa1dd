package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var (
	// ErrPasswordTooShort indicates the supplied password does not meet the minimum length.
	ErrPasswordTooShort = errors.New("auth: password must be at least 8 characters")
	// ErrPasswordMismatch indicates the supplied password does not match the stored hash.
	ErrPasswordMismatch = errors.New("auth: password mismatch")
)

// HashPassword derives a bcrypt hash from the supplied password.
func HashPassword(password string) (string, error) {
	if len(strings.TrimSpace(password)) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares the stored bcrypt hash against the supplied password.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}
