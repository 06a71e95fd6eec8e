// Package phone normalizes subscriber identifiers to E.164.
package phone

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultCountryCode is prefixed to numbers written without a leading '+'.
const DefaultCountryCode = "+91"

// ErrInvalidNumber is returned when an identifier cannot be normalized.
var ErrInvalidNumber = errors.New("invalid phone number")

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Normalize strips formatting, applies countryCode when the number has no
// leading '+', and validates the result as E.164.
func Normalize(raw, countryCode string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNumber)
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	if !strings.HasPrefix(countryCode, "+") {
		countryCode = "+" + countryCode
	}

	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if !strings.HasPrefix(out, "+") {
		out = countryCode + out
	}
	if !e164.MatchString(out) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return out, nil
}
