package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"entauth/pkg/logger"
	"entauth/pkg/redis"
)

func testKeyFunc(scope, subject string) string {
	return fmt.Sprintf("test:ratelimit:%s:%s", scope, subject)
}

func setupLimiter(t *testing.T) (*miniredis.Miniredis, *Limiter) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	log, err := logger.New("error")
	require.NoError(t, err)

	return mr, New(client, testKeyFunc, log)
}

func TestAdmit_FixedWindow(t *testing.T) {
	_, limiter := setupLimiter(t)
	ctx := context.Background()

	base := time.Unix(1756500000, 0)
	limiter.now = func() time.Time { return base }

	const limit = 3
	window := 900 * time.Second

	// First three calls in the window are admitted
	var firstReset time.Time
	for i := 1; i <= limit; i++ {
		result := limiter.Admit(ctx, "verify:email", "user@example.com", limit, window)
		assert.True(t, result.Allowed, "call %d", i)
		assert.Equal(t, i, result.Count)
		if i == 1 {
			firstReset = result.ResetAt
		}
	}

	// The fourth is rejected and reports the original window's reset time
	result := limiter.Admit(ctx, "verify:email", "user@example.com", limit, window)
	assert.False(t, result.Allowed)
	assert.Equal(t, firstReset.Unix(), result.ResetAt.Unix())

	// After the reset time has passed, a fresh window starts at count one
	limiter.now = func() time.Time { return firstReset.Add(time.Second) }
	result = limiter.Admit(ctx, "verify:email", "user@example.com", limit, window)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, firstReset.Add(time.Second).Add(window).Unix(), result.ResetAt.Unix())
}

func TestAdmit_IndependentBuckets(t *testing.T) {
	_, limiter := setupLimiter(t)
	ctx := context.Background()

	// Exhaust one subject's bucket
	for i := 0; i < 2; i++ {
		limiter.Admit(ctx, "challenge:email", "a@example.com", 1, time.Minute)
	}
	blocked := limiter.Admit(ctx, "challenge:email", "a@example.com", 1, time.Minute)
	assert.False(t, blocked.Allowed)

	// Other subjects and other scopes are unaffected
	assert.True(t, limiter.Admit(ctx, "challenge:email", "b@example.com", 1, time.Minute).Allowed)
	assert.True(t, limiter.Admit(ctx, "challenge:ip", "a@example.com", 1, time.Minute).Allowed)
}

func TestAdmit_CounterHasTTL(t *testing.T) {
	mr, limiter := setupLimiter(t)
	ctx := context.Background()

	limiter.Admit(ctx, "verify:ip", "203.0.113.7", 5, 900*time.Second)

	key := testKeyFunc("verify:ip", "203.0.113.7")
	require.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.Greater(t, ttl, 890*time.Second)
	assert.LessOrEqual(t, ttl, 900*time.Second)
}

func TestAdmit_CorruptBucketStartsFresh(t *testing.T) {
	mr, limiter := setupLimiter(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(testKeyFunc("verify:ip", "203.0.113.7"), "not-a-bucket"))

	result := limiter.Admit(ctx, "verify:ip", "203.0.113.7", 5, time.Minute)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Count)
}

// failingKV errors on every operation
type failingKV struct{}

func (failingKV) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("store unavailable")
}

func (failingKV) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("store unavailable")
}

func TestAdmit_StoreFailureAdmits(t *testing.T) {
	log, err := logger.New("error")
	require.NoError(t, err)
	limiter := New(failingKV{}, testKeyFunc, log)

	// An imprecise counter must not take the whole flow down
	result := limiter.Admit(context.Background(), "verify:ip", "203.0.113.7", 1, time.Minute)
	assert.True(t, result.Allowed)
}

func TestBucketCodec(t *testing.T) {
	resetAt := time.Unix(1756500900, 0)

	raw := formatBucket(7, resetAt)
	assert.Equal(t, "7:1756500900", raw)

	count, parsed, ok := parseBucket(raw)
	require.True(t, ok)
	assert.Equal(t, 7, count)
	assert.Equal(t, resetAt.Unix(), parsed.Unix())

	for _, bad := range []string{"", "7", ":", "a:1", "1:b", "1:2:3"} {
		_, _, ok := parseBucket(bad)
		assert.False(t, ok, "input %q", bad)
	}
}
