// Package account holds the credential handling shared by citizen and
// lawyer accounts: password rules, token issuance, session invalidation
// and OTP-based password resets.
package account

import (
	"fmt"
	"regexp"
	"strings"

	"lexconnect/utils"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", utils.ErrUnauthorized)
	ErrEmailTaken         = fmt.Errorf("an account with this email already exists: %w", utils.ErrConflict)
	ErrSuspended          = fmt.Errorf("account is suspended: %w", utils.ErrForbidden)
	ErrInvalidOTP         = fmt.Errorf("invalid or expired code: %w", utils.ErrInvalid)
)

var (
	upperRe  = regexp.MustCompile(`[A-Z]`)
	lowerRe  = regexp.MustCompile(`[a-z]`)
	numberRe = regexp.MustCompile(`[0-9]`)
	symbolRe = regexp.MustCompile(`[\W_]`)
)

// VerifyPasswordComplexity checks that the password contains at least one
// lowercase letter, one uppercase letter, one digit and one symbol.
func VerifyPasswordComplexity(pw string) error {
	switch {
	case len(pw) < 8:
		return fmt.Errorf("password must be at least 8 characters long: %w", utils.ErrInvalid)
	case !upperRe.MatchString(pw):
		return fmt.Errorf("password must include at least one uppercase letter: %w", utils.ErrInvalid)
	case !lowerRe.MatchString(pw):
		return fmt.Errorf("password must include at least one lowercase letter: %w", utils.ErrInvalid)
	case !numberRe.MatchString(pw):
		return fmt.Errorf("password must include at least one number: %w", utils.ErrInvalid)
	case !symbolRe.MatchString(pw):
		return fmt.Errorf("password must include at least one symbol: %w", utils.ErrInvalid)
	}
	return nil
}

// HashPassword validates and hashes a new password.
func HashPassword(pw string) (string, error) {
	if err := VerifyPasswordComplexity(pw); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, pw string) bool {
	return hash != "" && bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
