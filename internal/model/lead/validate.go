package lead

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/devcoregroup/lox/backend/internal/i18n"
)

// emailPattern is intentionally loose: anything@anything.anything.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// IsEmail reports whether text passes the loose email check.
func IsEmail(text string) bool {
	return emailPattern.MatchString(text)
}

// ErrorKind enumerates the lead form failures.
type ErrorKind string

const (
	MissingName          ErrorKind = "missing_name"
	MissingContactMethod ErrorKind = "missing_contact_method"
	MissingContactInfo   ErrorKind = "missing_contact_info"
	InvalidEmail         ErrorKind = "invalid_email"
)

// MessageKey maps the kind to its localized message.
func (k ErrorKind) MessageKey() i18n.Key {
	switch k {
	case MissingName:
		return i18n.ErrorNameMissing
	case MissingContactMethod:
		return i18n.ErrorContactMethodMissing
	case MissingContactInfo:
		return i18n.ErrorContactInfoMissing
	case InvalidEmail:
		return i18n.ErrorInvalidEmail
	default:
		return ""
	}
}

// ValidationError reports the first failing lead form check.
type ValidationError struct {
	Kind ErrorKind
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid lead: %s", e.Kind)
}

// Validate checks name, then method, then info, then email format, stopping at
// the first failure.
func Validate(name string, method ContactMethod, info string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Kind: MissingName}
	}
	if method == "" {
		return &ValidationError{Kind: MissingContactMethod}
	}
	if strings.TrimSpace(info) == "" {
		return &ValidationError{Kind: MissingContactInfo}
	}
	if method == Email && !IsEmail(info) {
		return &ValidationError{Kind: InvalidEmail}
	}
	return nil
}
