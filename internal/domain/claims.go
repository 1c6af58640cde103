package domain

// ClaimVersion is the only claim shape this service issues or accepts
const ClaimVersion = 1

// Purpose tags a token kind. Identity tokens prove control of an email
// address; entitlement tokens additionally assert subscription eligibility.
type Purpose string

const (
	PurposeIdentity    Purpose = "identity"
	PurposeEntitlement Purpose = "entitlement"
)

// Valid reports whether p is a known purpose tag
func (p Purpose) Valid() bool {
	return p == PurposeIdentity || p == PurposeEntitlement
}
