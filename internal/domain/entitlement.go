package domain

import "time"

// Subscription statuses that confer entitlement eligibility
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
)

// EntitlementRecord is a point-in-time snapshot of a subscription, read from
// the billing-owned store per entitlement-token request. This service never
// caches or mutates it.
type EntitlementRecord struct {
	Email            string
	Status           string
	Plan             string
	CurrentPeriodEnd *time.Time
}

// EligibleStatus reports whether the subscription status alone confers
// eligibility; plan allow-listing is applied separately by the minting policy.
func (r *EntitlementRecord) EligibleStatus() bool {
	return r.Status == StatusActive || r.Status == StatusTrialing
}
