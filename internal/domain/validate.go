package domain

import (
	"regexp"
	"strings"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// Validation messages, worded the way the web client displays them.
const (
	MsgEmailBlank           = "Email can't be blank"
	MsgEmailInvalid         = "Email is invalid"
	MsgEmailTaken           = "Email has already been taken"
	MsgPasswordBlank        = "Password can't be blank"
	MsgPasswordTooShort     = "Password is too short (minimum is 6 characters)"
	MsgPasswordConfirmation = "Password confirmation doesn't match Password"
)

// ValidationErrors is an ordered list of field-rule violations, one
// human-readable message per violated rule. It carries no session or
// store side effects.
type ValidationErrors []string

func (e ValidationErrors) Error() string {
	return strings.Join(e, ", ")
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail checks presence and rough syntax. Uniqueness is the
// store's job.
func ValidateEmail(email string) ValidationErrors {
	if email == "" {
		return ValidationErrors{MsgEmailBlank}
	}
	if !emailPattern.MatchString(email) {
		return ValidationErrors{MsgEmailInvalid}
	}
	return nil
}

// ValidatePassword checks presence, length, and that the confirmation
// matches. Used both at registration and when changing a password.
func ValidatePassword(password, confirmation string) ValidationErrors {
	var errs ValidationErrors
	if password == "" {
		errs = append(errs, MsgPasswordBlank)
	} else if len(password) < MinPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}
	if password != confirmation {
		errs = append(errs, MsgPasswordConfirmation)
	}
	return errs
}
