// Package validate provides input validation for request parameters and
// configured endpoints.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String validation errors
var (
	ErrEmpty             = errors.New("string is empty")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrInvalidEncoding   = errors.New("string is not valid UTF-8")
)

// MaxPromptLength is the longest ranking prompt accepted, in characters.
const MaxPromptLength = 1000

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MaxLength     int  // Maximum length in runes (0 = no maximum)
	AllowEmpty    bool // Whether empty strings are allowed
	TrimSpace     bool // Whether to trim whitespace before validation
	RejectControl bool // Reject control characters other than newline and tab
}

// String validates s against c and returns the (optionally trimmed) value.
func String(s string, c StringConstraints) (string, error) {
	if c.TrimSpace {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		if !c.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidEncoding
	}

	if n := utf8.RuneCountInString(s); c.MaxLength > 0 && n > c.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, n, c.MaxLength)
	}

	if c.RejectControl {
		for _, r := range s {
			if unicode.IsControl(r) && r != '\n' && r != '\t' {
				return "", fmt.Errorf("%w: control character %U", ErrInvalidCharacters, r)
			}
		}
	}
	return s, nil
}

// Prompt validates a free-text ranking prompt. An empty prompt is valid and
// means "no prompt".
func Prompt(s string) (string, error) {
	return String(s, StringConstraints{
		MaxLength:     MaxPromptLength,
		AllowEmpty:    true,
		TrimSpace:     true,
		RejectControl: true,
	})
}
