package utils

import (
	"errors"
	"regexp"
	"strings"
)

// PasswordPolicyError carries the human-readable reason a candidate
// password was rejected. Callers map it to a client error.
type PasswordPolicyError string

func (e PasswordPolicyError) Error() string { return string(e) }

func IsPasswordPolicyError(err error) bool {
	var p PasswordPolicyError
	return errors.As(err, &p)
}

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}

	const emailRegexPattern = `^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`
	emailRegex := regexp.MustCompile(emailRegexPattern)

	return emailRegex.MatchString(email)
}

func ValidatePassword(password string) (bool, error) {
	// Length check
	if len(password) < 8 {
		return false, PasswordPolicyError("password must be at least 8 characters long")
	}
	if len(password) > 100 {
		return false, PasswordPolicyError("password must not exceed 100 characters")
	}

	// Must contain at least one uppercase letter
	upper := regexp.MustCompile(`[A-Z]`)
	if !upper.MatchString(password) {
		return false, PasswordPolicyError("password must include at least one uppercase letter")
	}

	// Must contain at least one lowercase letter
	lower := regexp.MustCompile(`[a-z]`)
	if !lower.MatchString(password) {
		return false, PasswordPolicyError("password must include at least one lowercase letter")
	}

	// Must contain at least one digit
	digit := regexp.MustCompile(`[0-9]`)
	if !digit.MatchString(password) {
		return false, PasswordPolicyError("password must include at least one digit")
	}

	// Must contain at least one special character
	special := regexp.MustCompile(`[!@#\$%\^&\*\(\)_\+\-=\[\]\{\}\\|;:'",.<>\/?]`)
	if !special.MatchString(password) {
		return false, PasswordPolicyError("password must include at least one special character")
	}

	return true, nil
}
