package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entauth/internal/challenge"
	"entauth/internal/config"
	"entauth/internal/domain"
	"entauth/internal/ratelimit"
	"entauth/internal/token"
	apperrors "entauth/pkg/errors"
	"entauth/pkg/logger"
	"entauth/pkg/mailer"
)

// Rate-limit scope names; each abusable operation is limited per source IP
// and per target email independently
const (
	scopeChallengeEmail = "challenge:email"
	scopeChallengeIP    = "challenge:ip"
	scopeVerifyEmail    = "verify:email"
	scopeVerifyIP       = "verify:ip"
)

const genericCodeRejection = "Invalid or expired code"

// identityService implements IdentityService
type identityService struct {
	challenges *challenge.Store
	limiter    *ratelimit.Limiter
	minter     *token.Minter
	mail       mailer.Mailer
	cfg        *config.Config
	log        *logger.Logger
	now        func() time.Time
}

// NewIdentityService creates the identity service
func NewIdentityService(
	challenges *challenge.Store,
	limiter *ratelimit.Limiter,
	minter *token.Minter,
	mail mailer.Mailer,
	cfg *config.Config,
	log *logger.Logger,
) IdentityService {
	return &identityService{
		challenges: challenges,
		limiter:    limiter,
		minter:     minter,
		mail:       mail,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// RequestChallenge issues and dispatches a one-time code. The response is
// identical whether or not the address is registered and whether or not
// delivery succeeds; only rate-limit and validation failures are surfaced.
func (s *identityService) RequestChallenge(ctx context.Context, email, requesterIP string) error {
	if err := domain.ValidateEmail(email); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	email = domain.NormalizeEmail(email)

	if err := s.admitBoth(ctx,
		scopeChallengeIP, requesterIP, s.cfg.ChallengePerIP,
		scopeChallengeEmail, email, s.cfg.ChallengePerEmail,
	); err != nil {
		return err
	}

	code, err := s.challenges.Issue(ctx, email, requesterIP)
	if err != nil {
		// Indistinguishable from success to the caller; a store outage must
		// not reveal anything about the address
		s.log.WithError(err).Error("Challenge issuance failed")
		return nil
	}

	s.deliverCode(email, code)
	return nil
}

// VerifyChallenge consumes a matching code and mints an identity token
func (s *identityService) VerifyChallenge(ctx context.Context, email, code, requesterIP string) (string, time.Time, error) {
	if err := domain.ValidateEmail(email); err != nil {
		return "", time.Time{}, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := s.validateCodeShape(code); err != nil {
		return "", time.Time{}, apperrors.NewValidationError(err.Error(), nil)
	}
	email = domain.NormalizeEmail(email)

	if err := s.admitBoth(ctx,
		scopeVerifyIP, requesterIP, s.cfg.VerifyPerIP,
		scopeVerifyEmail, email, s.cfg.VerifyPerEmail,
	); err != nil {
		return "", time.Time{}, err
	}

	if err := s.challenges.Verify(ctx, email, code); err != nil {
		if !errors.Is(err, challenge.ErrInvalidOrExpired) {
			s.log.WithError(err).Error("Challenge verification failed")
		}
		return "", time.Time{}, apperrors.NewAuthenticationError(genericCodeRejection)
	}

	signed, expiresAt, err := s.minter.MintIdentity(email)
	if err != nil {
		s.log.WithError(err).Error("Failed to mint identity token")
		return "", time.Time{}, apperrors.NewInternalError("Failed to issue token", err)
	}

	s.log.Info("Identity token issued")
	return signed, expiresAt, nil
}

// admitBoth requires both the IP bucket and the email bucket to admit
func (s *identityService) admitBoth(
	ctx context.Context,
	ipScope, ip string, ipLimit config.RateLimit,
	emailScope, email string, emailLimit config.RateLimit,
) error {
	for _, check := range []struct {
		scope   string
		subject string
		limit   config.RateLimit
	}{
		{ipScope, ip, ipLimit},
		{emailScope, email, emailLimit},
	} {
		result := s.limiter.Admit(ctx, check.scope, check.subject, check.limit.Limit, check.limit.Window)
		if !result.Allowed {
			s.log.WithFields(map[string]interface{}{
				"scope": check.scope,
				"count": result.Count,
			}).Warn("Rate limit exceeded")
			retryAfter := int64(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			return apperrors.NewRateLimitError(retryAfter)
		}
	}
	return nil
}

// deliverCode sends the code out-of-band without blocking or failing the
// request; delivery problems are logged and swallowed
func (s *identityService) deliverCode(email, code string) {
	minutes := int(s.cfg.ChallengeTTL.Minutes())
	subject := "Your sign-in code"
	body := fmt.Sprintf("Your one-time sign-in code is %s. It expires in %d minutes.\r\n\r\nIf you did not request this code, you can ignore this message.", code, minutes)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mail.Send(ctx, email, subject, body); err != nil {
			s.log.WithError(err).Error("Challenge delivery failed")
		}
	}()
}

func (s *identityService) validateCodeShape(code string) error {
	if len(code) != s.cfg.ChallengeCodeLen {
		return fmt.Errorf("code must be %d digits", s.cfg.ChallengeCodeLen)
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return fmt.Errorf("code must be numeric")
		}
	}
	return nil
}
