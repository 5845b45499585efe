package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
)

// TwoFactorConfig holds challenge settings
type TwoFactorConfig struct {
	CodeLength   int
	TTL          time.Duration
	ResendWindow time.Duration
	MaxAttempts  int
}

// TwoFactorServiceImpl implements domain.TwoFactorService. Challenges live in
// the database; the optional cooldown store shares the resend window between
// instances.
type TwoFactorServiceImpl struct {
	challenges domain.ChallengeRepository
	settings   domain.TenantSettingReader
	notifier   domain.Notifier
	cooldown   domain.CooldownStore
	config     TwoFactorConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewTwoFactorService creates a new two-factor service. cooldown may be nil.
func NewTwoFactorService(
	challenges domain.ChallengeRepository,
	settings domain.TenantSettingReader,
	notifier domain.Notifier,
	cooldown domain.CooldownStore,
	config TwoFactorConfig,
	logger *zap.Logger,
) *TwoFactorServiceImpl {
	if logger == nil {
		logger = zap.L()
	}
	return &TwoFactorServiceImpl{
		challenges: challenges,
		settings:   settings,
		notifier:   notifier,
		cooldown:   cooldown,
		config:     config,
		logger:     logger.Named("twofactor"),
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *TwoFactorServiceImpl) WithClock(now func() time.Time) *TwoFactorServiceImpl {
	s.now = now
	return s
}

// RequestChallenge implements domain.TwoFactorService
func (s *TwoFactorServiceImpl) RequestChallenge(ctx context.Context, principal *domain.Principal) error {
	now := s.now()

	latest, err := s.challenges.Latest(ctx, principal.ID)
	switch {
	case err == nil:
		if elapsed := now.Sub(latest.CreatedAt); elapsed < s.config.ResendWindow {
			return &domain.RateLimitedError{RetryAfter: s.config.ResendWindow - elapsed}
		}
	case !errors.Is(err, domain.ErrChallengeNotFound):
		return fmt.Errorf("failed to load latest challenge: %w", err)
	}

	key := fmt.Sprintf("2fa:%d", principal.ID)
	if s.cooldown != nil {
		ok, left, err := s.cooldown.Acquire(ctx, key, s.config.ResendWindow)
		switch {
		case err != nil:
			// the database check above still holds for this instance
			s.logger.Warn("cooldown store unavailable", zap.Uint("principal_id", principal.ID), zap.Error(err))
		case !ok:
			if left <= 0 {
				left = time.Second
			}
			return &domain.RateLimitedError{RetryAfter: left}
		}
	}

	code, err := randomDigits(s.config.CodeLength)
	if err != nil {
		s.release(ctx, key)
		return err
	}
	challenge := &domain.TwoFactorChallenge{
		PrincipalID: principal.ID,
		Code:        code,
		CreatedAt:   now,
	}
	if err := s.challenges.Create(ctx, challenge); err != nil {
		s.release(ctx, key)
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	method := domain.TwoFactorSMS
	setting, err := s.settings.FindByCompanyID(ctx, principal.CompanyID)
	if err != nil {
		s.logger.Warn("tenant setting lookup failed, using SMS", zap.Uint("company_id", principal.CompanyID), zap.Error(err))
	} else if setting.TwoFactorMethod != "" {
		method = setting.TwoFactorMethod
	}

	s.notifier.Deliver(ctx, domain.Notification{
		Method:  method,
		Phone:   principal.Phone,
		Email:   principal.Email,
		Subject: "Verification code",
		Body:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(s.config.TTL.Minutes())),
	})
	return nil
}

// Verify implements domain.TwoFactorService. A wrong code counts against the
// challenge and leaves it unconsumed.
func (s *TwoFactorServiceImpl) Verify(ctx context.Context, principal *domain.Principal, code string) error {
	challenge, err := s.challenges.Current(ctx, principal.ID)
	if err != nil {
		return err
	}
	if s.config.MaxAttempts > 0 && challenge.FailedAttempts >= s.config.MaxAttempts {
		return domain.ErrChallengeExhausted
	}
	if s.now().Sub(challenge.CreatedAt) >= s.config.TTL {
		return domain.ErrChallengeExpired
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(challenge.Code)) != 1 {
		if err := s.challenges.IncrementFailedAttempts(ctx, challenge.ID); err != nil {
			return fmt.Errorf("failed to record challenge failure: %w", err)
		}
		return domain.ErrChallengeMismatch
	}
	return s.challenges.MarkVerified(ctx, challenge.ID)
}

func (s *TwoFactorServiceImpl) release(ctx context.Context, key string) {
	if s.cooldown == nil {
		return
	}
	if err := s.cooldown.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release cooldown", zap.String("key", key), zap.Error(err))
	}
}

var _ domain.TwoFactorService = (*TwoFactorServiceImpl)(nil)
