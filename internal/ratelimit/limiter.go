package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"entauth/pkg/logger"
	"entauth/pkg/redis"
)

// KV is the counter-store contract the limiter needs: one read and one write
// per admission, no transactions. Concurrent admissions for the same bucket
// can race; the accepted worst case is an undercount, never a false lockout
// carried across windows.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// KeyFunc builds the storage key for a (scope, subject) bucket
type KeyFunc func(scope, subject string) string

// Result reports one admission decision. ResetAt is only meaningful on
// rejection and feeds the caller's retry-after hint.
type Result struct {
	Allowed bool
	Count   int
	ResetAt time.Time
}

// Limiter is a fixed-window counter over the KV store. Fixed windows accept
// a boundary burst of up to twice the limit in exchange for a single cheap
// read-modify-write per admission.
type Limiter struct {
	kv     KV
	keyFor KeyFunc
	log    *logger.Logger
	now    func() time.Time
}

// New creates a fixed-window limiter
func New(kv KV, keyFor KeyFunc, log *logger.Logger) *Limiter {
	return &Limiter{kv: kv, keyFor: keyFor, log: log, now: time.Now}
}

// Admit counts one request against the (scope, subject) bucket. A bucket
// whose reset time has passed starts over at one rather than incrementing
// stale state. Counter-store failures admit the request; imprecise counting
// is the accepted cost, and every security-relevant check lives elsewhere.
func (l *Limiter) Admit(ctx context.Context, scope, subject string, limit int, window time.Duration) Result {
	key := l.keyFor(scope, subject)
	now := l.now()

	count, resetAt := 0, now.Add(window)
	raw, err := l.kv.Get(ctx, key)
	switch {
	case err == nil:
		if c, r, ok := parseBucket(raw); ok && r.After(now) {
			count, resetAt = c, r
		}
	case errors.Is(err, redis.Nil):
		// first request in a fresh window
	default:
		l.log.WithError(err).WithField("scope", scope).Error("Rate limit counter read failed, admitting")
		return Result{Allowed: true, ResetAt: resetAt}
	}

	count++

	ttl := resetAt.Sub(now)
	if err := l.kv.Set(ctx, key, formatBucket(count, resetAt), ttl); err != nil {
		l.log.WithError(err).WithField("scope", scope).Error("Rate limit counter write failed, admitting")
		return Result{Allowed: true, Count: count, ResetAt: resetAt}
	}

	if count > limit {
		return Result{Allowed: false, Count: count, ResetAt: resetAt}
	}
	return Result{Allowed: true, Count: count, ResetAt: resetAt}
}

// Bucket values are stored as "<count>:<resetUnix>"

func formatBucket(count int, resetAt time.Time) string {
	return fmt.Sprintf("%d:%d", count, resetAt.Unix())
}

func parseBucket(raw string) (count int, resetAt time.Time, ok bool) {
	sep := strings.IndexByte(raw, ':')
	if sep < 0 {
		return 0, time.Time{}, false
	}
	count, err := strconv.Atoi(raw[:sep])
	if err != nil {
		return 0, time.Time{}, false
	}
	resetUnix, err := strconv.ParseInt(raw[sep+1:], 10, 64)
	if err != nil {
		return 0, time.Time{}, false
	}
	return count, time.Unix(resetUnix, 0), true
}
