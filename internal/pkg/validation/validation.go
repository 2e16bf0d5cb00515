package validation

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Same shape check as the signup form: /^[^\s@]+@[^\s@]+\.[^\s@]+$/
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Names: letters (any script), spaces, dots, hyphens, apostrophes.
var nameRe = regexp.MustCompile(`^[\p{L}\s.\-']+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func IsValidName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && nameRe.MatchString(name)
}

// NormalizeEmail trims and lower-cases an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const minPasswordLength = 8

// PasswordProblem returns the message for the first password rule that fails, or "" when the
// password is acceptable. Rules run in order: required, length, lowercase, uppercase, digit.
func PasswordProblem(password string) string {
	if password == "" {
		return "Password is required"
	}
	if len([]rune(password)) < minPasswordLength {
		return "Password must be at least 8 characters long"
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower {
		return "Password must contain at least one lowercase letter"
	}
	if !hasUpper {
		return "Password must contain at least one uppercase letter"
	}
	if !hasDigit {
		return "Password must contain at least one digit"
	}
	return ""
}

func IsValidPassword(password string) bool {
	return PasswordProblem(password) == ""
}

// Errors maps a form field to its validation message. It is returned as an error by services
// and rendered by handlers as the details of a 400 response.
type Errors map[string]string

func (e Errors) Error() string {
	if len(e) == 0 {
		return "Validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "Validation failed: " + strings.Join(fields, ", ")
}

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// OrNil returns nil when no field failed, so callers can return it directly as an error.
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
