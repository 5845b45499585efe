package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/safetyauth/domain"
)

// TokenRepositoryImpl implements domain.TokenRepository using GORM
type TokenRepositoryImpl struct {
	db *gorm.DB
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db *gorm.DB) domain.TokenRepository {
	return &TokenRepositoryImpl{db: db}
}

// CreateRefreshToken implements domain.TokenRepository
func (r *TokenRepositoryImpl) CreateRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	row := &DBRefreshToken{
		TokenHash:   token.TokenHash,
		PrincipalID: token.PrincipalID,
		ExpiresAt:   token.ExpiresAt,
		CreatedAt:   token.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	token.CreatedAt = row.CreatedAt
	return nil
}

// FindRefreshToken implements domain.TokenRepository
func (r *TokenRepositoryImpl) FindRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var row DBRefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefreshTokenInvalid
		}
		return nil, err
	}
	return &domain.RefreshToken{
		TokenHash:   row.TokenHash,
		PrincipalID: row.PrincipalID,
		ExpiresAt:   row.ExpiresAt,
		CreatedAt:   row.CreatedAt,
	}, nil
}

// IsBlacklisted implements domain.TokenRepository
func (r *TokenRepositoryImpl) IsBlacklisted(ctx context.Context, tokenHash string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&DBBlacklistedToken{}).Where("token_hash = ?", tokenHash).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RevokeSession implements domain.TokenRepository
func (r *TokenRepositoryImpl) RevokeSession(ctx context.Context, tokenHash string, principalID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&DBBlacklistedToken{TokenHash: tokenHash}).Error
		if err != nil {
			return fmt.Errorf("failed to blacklist token: %w", err)
		}
		if err := tx.Where("principal_id = ?", principalID).Delete(&DBRefreshToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		return nil
	})
}

// DeleteBlacklistedBefore implements domain.TokenRepository
func (r *TokenRepositoryImpl) DeleteBlacklistedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&DBBlacklistedToken{})
	return res.RowsAffected, res.Error
}

// DeleteExpiredRefreshTokens implements domain.TokenRepository
func (r *TokenRepositoryImpl) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&DBRefreshToken{})
	return res.RowsAffected, res.Error
}
