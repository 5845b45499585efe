package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/you/safetyauth/domain"
)

// TenantSettingRepositoryImpl implements domain.TenantSettingReader using GORM
type TenantSettingRepositoryImpl struct {
	db *gorm.DB
}

// NewTenantSettingRepository creates a new tenant setting reader
func NewTenantSettingRepository(db *gorm.DB) domain.TenantSettingReader {
	return &TenantSettingRepositoryImpl{db: db}
}

// FindByCompanyID implements domain.TenantSettingReader. A company without a
// settings row has two-factor disabled.
func (r *TenantSettingRepositoryImpl) FindByCompanyID(ctx context.Context, companyID uint) (*domain.TenantSetting, error) {
	var row DBTenantSetting
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.TenantSetting{CompanyID: companyID}, nil
		}
		return nil, err
	}

	method := domain.TwoFactorMethod(row.TwoFactorMethod)
	if method == "" {
		method = domain.TwoFactorSMS
	}
	return &domain.TenantSetting{
		ID:               row.ID,
		CompanyID:        row.CompanyID,
		TwoFactorEnabled: row.TwoFactorEnabled,
		TwoFactorMethod:  method,
	}, nil
}
