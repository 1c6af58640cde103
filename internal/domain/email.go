package domain

import (
	"fmt"
	"strings"
)

// NormalizeEmail lower-cases and trims an email address. Every email that is
// hashed, persisted, signed into a claim, or compared goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the minimal shape this service requires of an address.
// Full RFC 5322 validation is deliberately out of scope; delivery is the
// real validator.
func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email exceeds 254 characters")
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("email must contain a local part and a domain")
	}
	if strings.IndexByte(email[at+1:], '@') != -1 {
		return fmt.Errorf("email must contain exactly one @")
	}
	return nil
}
