package common

import (
	"regexp"
	"strings"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	MinDisplayNameLen = 3
	MinSecretLen      = 6
)

// ValidateEmail checks the address shape only.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewValidationError("email", "required")
	}
	if !emailRe.MatchString(email) {
		return NewValidationError("email", "invalid format")
	}
	return nil
}

// ValidateDisplayName requires at least MinDisplayNameLen characters.
func ValidateDisplayName(name string) error {
	if len([]rune(strings.TrimSpace(name))) < MinDisplayNameLen {
		return NewValidationError("username", "must be at least 3 characters")
	}
	return nil
}

// CheckAccountSecret enforces the account password policy: at least
// MinSecretLen characters with an uppercase letter and a digit.
// An empty secret is a validation error, a non-empty one failing the
// policy is ErrWeakSecret.
func CheckAccountSecret(secret string) error {
	if secret == "" {
		return NewValidationError("password", "required")
	}
	var upper, digit bool
	for _, r := range secret {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if len([]rune(secret)) < MinSecretLen || !upper || !digit {
		return ErrWeakSecret
	}
	return nil
}

// RequireNonEmpty returns a ValidationError for the first empty value.
// fields alternates name, value.
func RequireNonEmpty(fields ...string) error {
	for i := 0; i+1 < len(fields); i += 2 {
		if fields[i+1] == "" {
			return NewValidationError(fields[i], "required")
		}
	}
	return nil
}

// Strength scores secret from 0 to 5: one point each for length >= 8,
// length >= 12, an uppercase letter, a lowercase letter, a digit and a symbol.
func Strength(secret string) int {
	score := 0
	n := len([]rune(secret))
	if n >= 8 {
		score++
	}
	if n >= 12 {
		score++
	}
	var upper, lower, digit, symbol bool
	for _, r := range secret {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			score++
		}
	}
	if score > 5 {
		score = 5
	}
	return score
}

var strengthLabels = []string{"Very Weak", "Weak", "Moderate", "Strong", "Very Strong", "Excellent"}

// StrengthLabel names a Strength score.
func StrengthLabel(score int) string {
	if score < 0 {
		score = 0
	}
	if score >= len(strengthLabels) {
		score = len(strengthLabels) - 1
	}
	return strengthLabels[score]
}
