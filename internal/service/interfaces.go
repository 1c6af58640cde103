package service

import (
	"context"
	"time"
)

// IdentityService runs the challenge flow and mints identity tokens
type IdentityService interface {
	// RequestChallenge issues a one-time code for an email and dispatches
	// out-of-band delivery. A nil error never confirms that the address
	// exists or that delivery succeeded.
	RequestChallenge(ctx context.Context, email, requesterIP string) error
	// VerifyChallenge consumes a matching code and returns a signed
	// identity token.
	VerifyChallenge(ctx context.Context, email, code, requesterIP string) (string, time.Time, error)
}

// EntitlementService mints entitlement tokens from billing snapshots
type EntitlementService interface {
	// IssueToken looks up the subject's subscription snapshot and returns a
	// signed entitlement token plus the computed eligibility.
	IssueToken(ctx context.Context, subject string) (string, time.Time, bool, error)
}

// Services holds all service instances
type Services struct {
	Identity    IdentityService
	Entitlement EntitlementService
}
