package utils

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PolicyError reports why a candidate password failed the complexity
// policy.  It is a distinct type so callers can separate policy
// failures from infrastructure errors.
type PolicyError struct{ Reason string }

func (e *PolicyError) Error() string { return fmt.Sprintf("password policy: %s", e.Reason) }

// trivialPasswords lists well-known passwords that are rejected even
// when they satisfy the character-class rules.  Comparison is
// case-insensitive.
var trivialPasswords = map[string]struct{}{
	"password":   {},
	"password1!": {},
	"p@ssw0rd":   {},
	"qwerty123!": {},
	"12345678":   {},
	"admin123!":  {},
	"letmein123": {},
}

// ValidatePassword enforces the password complexity policy: at least
// 8 characters with one uppercase letter, one lowercase letter, one
// digit and one special character, and not a known trivial password.
// It returns a *PolicyError describing the first violation found.
// The check runs before hashing on every password set or change.
func ValidatePassword(plain string) error {
	if len(plain) < 8 {
		return &PolicyError{Reason: "must be at least 8 characters long"}
	}
	if _, bad := trivialPasswords[strings.ToLower(plain)]; bad {
		return &PolicyError{Reason: "is too common"}
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	switch {
	case !hasUpper:
		return &PolicyError{Reason: "must contain an uppercase letter"}
	case !hasLower:
		return &PolicyError{Reason: "must contain a lowercase letter"}
	case !hasDigit:
		return &PolicyError{Reason: "must contain a digit"}
	case !hasSpecial:
		return &PolicyError{Reason: "must contain a special character"}
	}
	return nil
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
