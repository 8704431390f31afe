// Package identity validates and normalizes the subject keys that tie
// messages to onboarding sessions.
package identity

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidSubjectKey reports a subject key that cannot identify a
// conversation partner.
var ErrInvalidSubjectKey = errors.New("invalid subject key")

var (
	// phonePattern matches E.164-style numbers as sent by messaging
	// webhooks.
	phonePattern = regexp.MustCompile(`^\+?[0-9]{6,15}$`)
	// handlePattern matches platform usernames and web visitor ids.
	handlePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.:-]{2,127}$`)
)

// NormalizeSubjectKey canonicalizes a raw subject key: phone numbers keep
// their leading plus and digits only, handles are trimmed and lowercased.
// Returns ErrInvalidSubjectKey when the result matches neither form.
func NormalizeSubjectKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", ErrInvalidSubjectKey
	}

	if digits := stripPhoneFormatting(key); phonePattern.MatchString(digits) {
		if !strings.HasPrefix(digits, "+") {
			digits = "+" + digits
		}
		return digits, nil
	}

	key = strings.ToLower(strings.TrimPrefix(key, "@"))
	if !handlePattern.MatchString(key) {
		return "", ErrInvalidSubjectKey
	}
	return key, nil
}

// stripPhoneFormatting removes the separators humans and gateways insert
// into phone numbers. Non-phone input is returned in a form the phone
// pattern will reject.
func stripPhoneFormatting(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
			// separator, dropped
		default:
			return s
		}
	}
	return b.String()
}
