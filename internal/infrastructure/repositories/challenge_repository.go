package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/you/safetyauth/domain"
)

// ChallengeRepositoryImpl implements domain.ChallengeRepository using GORM
type ChallengeRepositoryImpl struct {
	db *gorm.DB
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *gorm.DB) domain.ChallengeRepository {
	return &ChallengeRepositoryImpl{db: db}
}

// Create implements domain.ChallengeRepository
func (r *ChallengeRepositoryImpl) Create(ctx context.Context, challenge *domain.TwoFactorChallenge) error {
	row := &DBTwoFactorChallenge{
		PrincipalID:    challenge.PrincipalID,
		Code:           challenge.Code,
		CreatedAt:      challenge.CreatedAt,
		Verified:       challenge.Verified,
		FailedAttempts: challenge.FailedAttempts,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	challenge.ID = row.ID
	challenge.CreatedAt = row.CreatedAt
	return nil
}

// Latest implements domain.ChallengeRepository
func (r *ChallengeRepositoryImpl) Latest(ctx context.Context, principalID uint) (*domain.TwoFactorChallenge, error) {
	return r.newest(r.db.WithContext(ctx).Where("principal_id = ?", principalID))
}

// Current implements domain.ChallengeRepository
func (r *ChallengeRepositoryImpl) Current(ctx context.Context, principalID uint) (*domain.TwoFactorChallenge, error) {
	return r.newest(r.db.WithContext(ctx).Where("principal_id = ? AND verified = ?", principalID, false))
}

// MarkVerified implements domain.ChallengeRepository
func (r *ChallengeRepositoryImpl) MarkVerified(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&DBTwoFactorChallenge{}).
		Where("id = ? AND verified = ?", id, false).
		Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	// a concurrent login already consumed the code
	if res.RowsAffected == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

// IncrementFailedAttempts implements domain.ChallengeRepository
func (r *ChallengeRepositoryImpl) IncrementFailedAttempts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&DBTwoFactorChallenge{}).
		Where("id = ?", id).
		UpdateColumn("failed_attempts", gorm.Expr("failed_attempts + ?", 1)).Error
}

// DeleteCreatedBefore implements domain.ChallengeRepository
func (r *ChallengeRepositoryImpl) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&DBTwoFactorChallenge{})
	return res.RowsAffected, res.Error
}

func (r *ChallengeRepositoryImpl) newest(q *gorm.DB) (*domain.TwoFactorChallenge, error) {
	var row DBTwoFactorChallenge
	err := q.Order("created_at DESC").Order("id DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, err
	}
	return &domain.TwoFactorChallenge{
		ID:             row.ID,
		PrincipalID:    row.PrincipalID,
		Code:           row.Code,
		CreatedAt:      row.CreatedAt,
		Verified:       row.Verified,
		FailedAttempts: row.FailedAttempts,
	}, nil
}
