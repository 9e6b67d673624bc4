package phonenumber

import (
	"regexp"
	"strings"

	"ev-tracker/internal/apperr"
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{6,14}$`)

// Normalize strips common formatting characters ("(", ")", "-", ".", spaces).
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

// Validate checks that number is E.164 and carries the migration's country calling code.
// It returns the normalized form.
func Validate(number, countryCode string) (string, error) {
	n := Normalize(number)
	if !e164.MatchString(n) {
		return "", apperr.BadRequest("phone number %q is not in E.164 format", number)
	}
	cc := strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	if cc != "" && !strings.HasPrefix(n, "+"+cc) {
		return "", apperr.BadRequest("phone number %q does not match country code +%s", number, cc)
	}
	return n, nil
}
