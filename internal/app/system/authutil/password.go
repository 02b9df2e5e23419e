// Package authutil holds the password rules shared by registration, login
// and the operator CLI.
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]struct{}{
	"123456": {}, "1234567": {}, "12345678": {}, "123456789": {}, "password": {},
	"qwerty": {}, "abc123": {}, "iloveyou": {}, "letmein": {}, "football": {},
	"welcome": {}, "monkey": {}, "dragon": {}, "111111": {}, "000000": {},
	"password1": {}, "sunshine": {}, "princess": {}, "admin123": {}, "donor123": {},
}

// ValidatePassword checks length and rejects well-known passwords
// (case-insensitive).
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(pw) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, ok := commonPasswords[strings.ToLower(pw)]; ok {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules describes ValidatePassword for form hints.
func PasswordRules() string {
	return fmt.Sprintf("At least %d characters. Avoid common passwords.", MinPasswordLength)
}

// HashPassword returns a bcrypt hash at the default cost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash. Malformed hashes never match.
func CheckPassword(pw, hash string) bool {
	if pw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
