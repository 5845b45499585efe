package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
)

// SweeperConfig holds retention settings for the cleanup job
type SweeperConfig struct {
	Interval           time.Duration
	BlacklistRetention time.Duration
	ChallengeRetention time.Duration
}

// SweepResult counts rows removed by one pass
type SweepResult struct {
	Blacklisted   int64
	Challenges    int64
	RefreshTokens int64
}

// Sweeper purges old blacklist entries, challenges and expired refresh
// tokens. Skipping a run never affects correctness.
type Sweeper struct {
	tokens     domain.TokenRepository
	challenges domain.ChallengeRepository
	config     SweeperConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewSweeper creates a new sweeper
func NewSweeper(tokens domain.TokenRepository, challenges domain.ChallengeRepository, config SweeperConfig, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.L()
	}
	return &Sweeper{
		tokens:     tokens,
		challenges: challenges,
		config:     config,
		logger:     logger.Named("sweeper"),
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run sweeps once immediately and then on every interval until ctx is done
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce runs a single pass. Failures are logged and the pass continues.
func (s *Sweeper) SweepOnce(ctx context.Context) SweepResult {
	now := s.now()
	var res SweepResult
	var err error

	if res.Blacklisted, err = s.tokens.DeleteBlacklistedBefore(ctx, now.Add(-s.config.BlacklistRetention)); err != nil {
		s.logger.Error("blacklist sweep failed", zap.Error(err))
	}
	if res.Challenges, err = s.challenges.DeleteCreatedBefore(ctx, now.Add(-s.config.ChallengeRetention)); err != nil {
		s.logger.Error("challenge sweep failed", zap.Error(err))
	}
	if res.RefreshTokens, err = s.tokens.DeleteExpiredRefreshTokens(ctx, now); err != nil {
		s.logger.Error("refresh token sweep failed", zap.Error(err))
	}

	s.logger.Info("sweep finished",
		zap.Int64("blacklisted", res.Blacklisted),
		zap.Int64("challenges", res.Challenges),
		zap.Int64("refresh_tokens", res.RefreshTokens),
	)
	return res
}
