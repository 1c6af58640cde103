package container

import (
	"context"
	"fmt"

	"entauth/internal/challenge"
	"entauth/internal/config"
	"entauth/internal/ratelimit"
	"entauth/internal/repository"
	"entauth/internal/service"
	"entauth/internal/token"
	"entauth/pkg/database"
	"entauth/pkg/logger"
	"entauth/pkg/mailer"
	"entauth/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB
	Keys        *token.KeySet
	Minter      *token.Minter
	Verifier    *token.Verifier
	Mailer      mailer.Mailer
	Services    *service.Services
}

// New creates a new dependency injection container. Key import happens here,
// exactly once per process; the imported set is immutable and shared.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	keys, err := token.LoadKeySet(
		cfg.IdentityPrivateKey, cfg.IdentityPublicKey,
		cfg.EntitlementPrivateKey, cfg.EntitlementPublicKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to import signing keys: %w", err)
	}

	minter := token.NewMinter(token.MinterConfig{
		Audience:     cfg.TokenAudience,
		IdentityTTL:  cfg.IdentityTokenTTL,
		MaxTTL:       cfg.EntitlementMaxTTL,
		Floor:        cfg.EntitlementFloor,
		InactiveTTL:  cfg.EntitlementInactiveTTL,
		AllowedPlans: cfg.AllowedPlans,
	}, keys)
	verifier := token.NewVerifier(cfg.TokenAudience, keys)

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log.Logger)
	} else {
		log.Info("SMTP not configured, logging outbound mail instead")
		mail = mailer.NewLog(log.Logger, cfg.Environment == "development")
	}

	challengeRepo := repository.NewChallengeRepository(db)
	entitlementRepo := repository.NewEntitlementRepository(db)

	challenges := challenge.NewStore(challengeRepo, cfg.ChallengePepper, cfg.ChallengeTTL, cfg.ChallengeCodeLen, log)
	limiter := ratelimit.New(redisClient, redisClient.KeyBuilder.KeyRateLimit, log)

	services := &service.Services{
		Identity:    service.NewIdentityService(challenges, limiter, minter, mail, cfg, log),
		Entitlement: service.NewEntitlementService(entitlementRepo, minter, log),
	}

	return &Container{
		Config:      cfg,
		Logger:      log,
		RedisClient: redisClient,
		DB:          db,
		Keys:        keys,
		Minter:      minter,
		Verifier:    verifier,
		Mailer:      mail,
		Services:    services,
	}, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetIdentityService returns the identity service
func (c *Container) GetIdentityService() service.IdentityService {
	return c.Services.Identity
}

// GetEntitlementService returns the entitlement service
func (c *Container) GetEntitlementService() service.EntitlementService {
	return c.Services.Entitlement
}
