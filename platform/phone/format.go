// Package phone provides phone number display utilities.
// This is part of the platform layer and contains no business logic.
//
// These helpers are for presentation (PDFs, emails) and profile validation
// only. Client resolution matches raw values by exact string equality and
// must never pass through this package.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "IN"

// FormatDisplay renders a phone number in international format for display.
// If the input cannot be parsed as a valid number, it is returned unchanged.
func FormatDisplay(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return input
	}

	if !phonenumbers.IsValidNumber(number) {
		return input
	}

	return phonenumbers.Format(number, phonenumbers.INTERNATIONAL)
}

// IsPlausible reports whether the input parses as a valid phone number.
// Used for agent profile validation, not for lead submissions.
func IsPlausible(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return false
	}

	return phonenumbers.IsValidNumber(number)
}
