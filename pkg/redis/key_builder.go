package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyRateLimit builds the bucket key for a fixed-window counter.
// subject is a normalized email or a client IP.
func (kb *KeyBuilder) KeyRateLimit(scope, subject string) string {
	return kb.BuildKey(fmt.Sprintf("ratelimit:%s:%s", scope, subject))
}
