package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string
	DatabaseURL    string
	RedisURL       string

	// Token issuance
	TokenAudience          string
	IdentityPrivateKey     string // PEM, Ed25519
	IdentityPublicKey      string
	EntitlementPrivateKey  string
	EntitlementPublicKey   string
	IdentityTokenTTL       time.Duration
	EntitlementMaxTTL      time.Duration
	EntitlementFloor       time.Duration
	EntitlementInactiveTTL time.Duration
	AllowedPlans           []string

	// Challenge flow
	ChallengePepper  string
	ChallengeTTL     time.Duration
	ChallengeCodeLen int

	// Rate limits
	ChallengePerEmail RateLimit
	ChallengePerIP    RateLimit
	VerifyPerEmail    RateLimit
	VerifyPerIP       RateLimit

	// Outbound mail
	SMTPHost string
	SMTPPort string
	SMTPFrom string
}

// RateLimit is a fixed-window limit definition for one scope
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "production"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),

		TokenAudience:          getEnv("TOKEN_AUDIENCE", "entauth"),
		IdentityPrivateKey:     getEnvOrFile("IDENTITY_PRIVATE_KEY"),
		IdentityPublicKey:      getEnvOrFile("IDENTITY_PUBLIC_KEY"),
		EntitlementPrivateKey:  getEnvOrFile("ENTITLEMENT_PRIVATE_KEY"),
		EntitlementPublicKey:   getEnvOrFile("ENTITLEMENT_PUBLIC_KEY"),
		IdentityTokenTTL:       168 * time.Hour, // fixed by product requirement, not configurable
		EntitlementMaxTTL:      getDurationEnv("ENTITLEMENT_MAX_TTL", 720*time.Hour),
		EntitlementFloor:       getDurationEnv("ENTITLEMENT_FLOOR", 10*time.Minute),
		EntitlementInactiveTTL: getDurationEnv("ENTITLEMENT_INACTIVE_TTL", 5*time.Minute),
		AllowedPlans:           parseList(getEnv("ALLOWED_PLANS", "")),

		ChallengePepper:  getEnv("CHALLENGE_PEPPER", ""),
		ChallengeTTL:     getDurationEnv("CHALLENGE_TTL", 10*time.Minute),
		ChallengeCodeLen: getIntEnv("CHALLENGE_CODE_LENGTH", 6),

		ChallengePerEmail: RateLimit{
			Limit:  getIntEnv("RATE_CHALLENGE_EMAIL_LIMIT", 3),
			Window: getDurationEnv("RATE_CHALLENGE_EMAIL_WINDOW", 15*time.Minute),
		},
		ChallengePerIP: RateLimit{
			Limit:  getIntEnv("RATE_CHALLENGE_IP_LIMIT", 10),
			Window: getDurationEnv("RATE_CHALLENGE_IP_WINDOW", 15*time.Minute),
		},
		VerifyPerEmail: RateLimit{
			Limit:  getIntEnv("RATE_VERIFY_EMAIL_LIMIT", 5),
			Window: getDurationEnv("RATE_VERIFY_EMAIL_WINDOW", 15*time.Minute),
		},
		VerifyPerIP: RateLimit{
			Limit:  getIntEnv("RATE_VERIFY_IP_LIMIT", 20),
			Window: getDurationEnv("RATE_VERIFY_IP_WINDOW", 15*time.Minute),
		},

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnv("SMTP_PORT", "587"),
		SMTPFrom: getEnv("SMTP_FROM", "no-reply@localhost"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.IdentityPrivateKey == "" || c.IdentityPublicKey == "" {
		return fmt.Errorf("identity key pair is required (IDENTITY_PRIVATE_KEY / IDENTITY_PUBLIC_KEY)")
	}
	if c.EntitlementPrivateKey == "" || c.EntitlementPublicKey == "" {
		return fmt.Errorf("entitlement key pair is required (ENTITLEMENT_PRIVATE_KEY / ENTITLEMENT_PUBLIC_KEY)")
	}
	if c.ChallengeCodeLen < 4 || c.ChallengeCodeLen > 10 {
		return fmt.Errorf("CHALLENGE_CODE_LENGTH must be between 4 and 10, got %d", c.ChallengeCodeLen)
	}
	if c.EntitlementFloor > c.EntitlementMaxTTL {
		return fmt.Errorf("ENTITLEMENT_FLOOR must not exceed ENTITLEMENT_MAX_TTL")
	}
	return nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvOrFile reads KEY, falling back to the contents of the file named by
// KEY_FILE. Key material is commonly mounted as a file rather than inlined
// in the environment.
func getEnvOrFile(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if path := os.Getenv(key + "_FILE"); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			return string(data)
		}
	}
	return ""
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseList parses comma-separated values into a slice
func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
