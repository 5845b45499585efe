package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/safetyauth/domain"
	"github.com/you/safetyauth/internal/config"
	"github.com/you/safetyauth/internal/infrastructure/auth"
	"github.com/you/safetyauth/internal/infrastructure/database"
	"github.com/you/safetyauth/internal/infrastructure/logging"
	"github.com/you/safetyauth/internal/infrastructure/notifications"
	"github.com/you/safetyauth/internal/infrastructure/repositories"
	"github.com/you/safetyauth/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService
	Dispatcher  *notifications.Dispatcher

	// Repositories
	PrincipalRepo domain.PrincipalRepository
	TokenRepo     domain.TokenRepository
	ChallengeRepo domain.ChallengeRepository
	SettingRepo   domain.TenantSettingReader
	OwnershipRepo domain.OwnershipResolver
	CooldownStore domain.CooldownStore

	// Services
	PasswordSvc  domain.PasswordService
	PolicySvc    *services.PolicyServiceImpl
	TokenSvc     *services.TokenServiceImpl
	TwoFactorSvc *services.TwoFactorServiceImpl
	AuthSvc      *services.AuthServiceImpl
	Validator    *services.AccessValidatorImpl
	Binder       *services.IdentityBinderImpl
	Sweeper      *services.Sweeper
}

// NewContainer creates and initializes all dependencies
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.L()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initDatabase(); err != nil {
		return nil, err
	}
	if err := c.initRedis(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	c.initRepositories()
	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) initDatabase() error {
	db, err := database.Open(c.Config.DSN)
	if err != nil {
		return err
	}
	c.DB = db
	return database.AutoMigrate(db)
}

func (c *Container) initRedis(ctx context.Context) error {
	client, err := database.NewRedis(ctx, c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	if err != nil {
		return err
	}
	if client == nil {
		c.Logger.Warn("redis not configured; two-factor cooldown is per instance")
	}
	c.RedisClient = client
	return nil
}

func (c *Container) initRepositories() {
	c.PrincipalRepo = repositories.NewPrincipalRepository(c.DB)
	c.TokenRepo = repositories.NewTokenRepository(c.DB)
	c.ChallengeRepo = repositories.NewChallengeRepository(c.DB)
	c.SettingRepo = repositories.NewTenantSettingRepository(c.DB)
	c.OwnershipRepo = repositories.NewOwnershipRepository(c.DB)
	if c.RedisClient != nil {
		c.CooldownStore = repositories.NewCooldownRepository(c.RedisClient)
	}
}

func (c *Container) initServices() error {
	cfg := c.Config

	cas, err := auth.NewCasbinService(c.DB, cfg.CasbinModelPath)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}
	c.Casbin = cas
	c.PolicySvc = services.NewPolicyService(cas.E)
	if err := c.PolicySvc.SeedDefaults(); err != nil {
		return err
	}

	signer, err := auth.NewJWTSigner(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL)
	if err != nil {
		return err
	}

	c.PasswordSvc = auth.NewPasswordService()
	var mailer *notifications.SendGridMailer
	if cfg.SendGridAPIKey != "" {
		mailer = notifications.NewSendGridMailer(cfg.SendGridAPIKey, cfg.SendGridHost, cfg.EmailFrom, cfg.EmailFromName)
	} else {
		c.Logger.Warn("SendGrid not configured, EMAIL tenants will not receive codes")
	}
	c.Dispatcher = notifications.NewDispatcher(
		notifications.NewTwilioService(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom, mailer, c.Logger),
		c.Logger,
	)
	audit := logging.NewAuditLogger(c.Logger)

	c.TokenSvc = services.NewTokenService(signer, c.TokenRepo, c.PrincipalRepo, c.PolicySvc, cfg.RefreshTTL)
	c.TwoFactorSvc = services.NewTwoFactorService(
		c.ChallengeRepo,
		c.SettingRepo,
		c.Dispatcher,
		c.CooldownStore,
		services.TwoFactorConfig{
			CodeLength:   cfg.TwoFactorCodeLength,
			TTL:          cfg.TwoFactorTTL,
			ResendWindow: cfg.TwoFactorResendWindow,
			MaxAttempts:  cfg.TwoFactorMaxAttempts,
		},
		c.Logger,
	)
	c.AuthSvc = services.NewAuthService(
		c.PrincipalRepo,
		c.SettingRepo,
		c.PasswordSvc,
		c.TokenSvc,
		c.TwoFactorSvc,
		c.Dispatcher,
		audit,
		services.AccountConfig{
			TempPasswordLength: cfg.TempPasswordLength,
			MinPasswordLength:  cfg.MinPasswordLength,
		},
		c.Logger,
	)
	c.Validator = services.NewAccessValidator(c.OwnershipRepo, audit)
	c.Binder = services.NewIdentityBinder(c.TokenSvc)
	c.Sweeper = services.NewSweeper(c.TokenRepo, c.ChallengeRepo, services.SweeperConfig{
		Interval:           cfg.SweepInterval,
		BlacklistRetention: cfg.BlacklistRetention,
		ChallengeRetention: cfg.ChallengeRetention,
	}, c.Logger)
	return nil
}

// Close waits for pending notifications and closes all connections
func (c *Container) Close() error {
	if c.Dispatcher != nil {
		c.Dispatcher.Wait()
	}

	var errs []error
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
