package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_RateLimitKeys(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		scope    string
		subject  string
		expected string
	}{
		{
			name:     "Challenge per email",
			scope:    "challenge:email",
			subject:  "user@example.com",
			expected: "prod:ratelimit:challenge:email:user@example.com",
		},
		{
			name:     "Challenge per IP",
			scope:    "challenge:ip",
			subject:  "203.0.113.9",
			expected: "prod:ratelimit:challenge:ip:203.0.113.9",
		},
		{
			name:     "Verify per email",
			scope:    "verify:email",
			subject:  "user@example.com",
			expected: "prod:ratelimit:verify:email:user@example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := kb.KeyRateLimit(tt.scope, tt.subject)
			if result != tt.expected {
				t.Errorf("KeyRateLimit(%s, %s) = %s, want %s",
					tt.scope, tt.subject, result, tt.expected)
			}
		})
	}
}

func TestKeyBuilder_EnvironmentSeparation(t *testing.T) {
	prodKB := NewKeyBuilder("production")
	stagingKB := NewKeyBuilder("development")

	prodKey := prodKB.KeyRateLimit("challenge:email", "user@example.com")
	stagingKey := stagingKB.KeyRateLimit("challenge:email", "user@example.com")

	if prodKey == stagingKey {
		t.Errorf("Production and staging keys should be different. Got: prod=%s, staging=%s",
			prodKey, stagingKey)
	}
}
