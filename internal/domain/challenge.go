package domain

import "time"

// Challenge is the persisted record of one outstanding magic code. The raw
// code is never stored; only the keyed hash of (code, email, pepper).
// At most one live challenge exists per normalized email.
type Challenge struct {
	Email       string    `json:"email"`
	CodeHash    string    `json:"code_hash"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	RequesterIP string    `json:"requester_ip"`
}

// Expired reports whether the challenge is past its expiry at the given time
func (c *Challenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
