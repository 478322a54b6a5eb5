package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"taskline/internal/timezone"
)

const (
	// MaxTaskTextLength is the maximum length for task text, in runes
	MaxTaskTextLength = 1000
	// MinTaskTextLength is the minimum length for task text after trimming
	MinTaskTextLength = 1
)

// Validate is a shared validator instance
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	// Custom rule for IANA timezone identifiers, used on config structs
	if err := Validate.RegisterValidation("iana_tz", validateIANATimezone); err != nil {
		panic(fmt.Sprintf("failed to register iana_tz validator: %v", err))
	}
}

func validateIANATimezone(fl validator.FieldLevel) bool {
	return timezone.IsValid(fl.Field().String())
}

// Error is a recoverable input validation failure. Handlers re-prompt the
// user instead of aborting the current flow when they see one.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Reason
}

// IsValidationError reports whether err is an input validation failure.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// SanitizeText trims whitespace and removes control characters except
// newline and tab.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return strings.TrimSpace(sanitized.String())
}

// TaskText sanitizes and validates task text, returning the cleaned value.
// An empty result or one longer than MaxTaskTextLength runes yields *Error.
func TaskText(text string) (string, error) {
	cleaned := SanitizeText(text)

	if cleaned == "" {
		return "", &Error{Field: "text", Reason: "task text must not be empty"}
	}
	if utf8.RuneCountInString(cleaned) > MaxTaskTextLength {
		return "", &Error{
			Field:  "text",
			Reason: fmt.Sprintf("task text exceeds %d characters", MaxTaskTextLength),
		}
	}

	return cleaned, nil
}

// TimezoneName validates a user-supplied IANA zone identifier.
func TimezoneName(tz string) (string, error) {
	cleaned := strings.TrimSpace(tz)
	if cleaned == "" || !timezone.IsValid(cleaned) {
		return "", &Error{Field: "timezone", Reason: "unknown timezone identifier"}
	}
	return cleaned, nil
}
