// Package validator provides the pure input checks that run before any call
// to the auth backend or the database.
package validator

import (
	"errors"
	"regexp"
	"unicode"

	platformvalidator "konduktv_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidEmailFormat is returned when an email fails the format check.
	ErrInvalidEmailFormat = errors.New("invalid email format")
	// ErrWeakPassword is returned when a password fails the strength policy.
	ErrWeakPassword = errors.New("password too weak")
)

// PasswordPolicy describes the password requirements for API error messages.
const PasswordPolicy = "Password must be at least 8 characters and include: uppercase letter, lowercase letter, number, and special character"

// EmailRequirement describes the email format for API error messages.
const EmailRequirement = "Email must be a valid email address with a proper domain"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks the local@domain.tld shape. Pure, no side effects.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmailFormat
	}
	return nil
}

// ValidatePasswordStrength enforces the strength policy: at least 8
// characters with one uppercase letter, one lowercase letter, one digit, and
// one symbol. Pure, no side effects.
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}

	var (
		hasUpper   bool
		hasLower   bool
		hasDigit   bool
		hasSpecial bool
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !(hasUpper && hasLower && hasDigit && hasSpecial) {
		return ErrWeakPassword
	}
	return nil
}

// Register adds the account-specific rules to a shared validator instance so
// transport DTOs can use them in struct tags.
func Register(val *platformvalidator.Validator) error {
	return val.RegisterValidation("strongpassword", func(fl govalidator.FieldLevel) bool {
		return ValidatePasswordStrength(fl.Field().String()) == nil
	})
}
