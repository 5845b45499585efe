package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/you/safetyauth/domain"
)

// PrincipalRepositoryImpl implements domain.PrincipalRepository using GORM
type PrincipalRepositoryImpl struct {
	db *gorm.DB
}

// NewPrincipalRepository creates a new principal repository
func NewPrincipalRepository(db *gorm.DB) domain.PrincipalRepository {
	return &PrincipalRepositoryImpl{db: db}
}

// FindByIdentity implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByIdentity(ctx context.Context, identity string) (*domain.Principal, error) {
	return r.first(ctx, "identity = ?", identity)
}

// FindByID implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByID(ctx context.Context, id uint) (*domain.Principal, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByTenantRole implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) FindByTenantRole(ctx context.Context, companyID uint, role domain.Role) ([]*domain.Principal, error) {
	var rows []DBPrincipal
	err := r.db.WithContext(ctx).
		Where("role = ?", string(role)).
		Where("factory_id IN (?)", r.db.Model(&DBFactory{}).Select("id").Where("company_id = ?", companyID)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Principal, 0, len(rows))
	for i := range rows {
		p := r.dbToDomain(&rows[i])
		p.CompanyID = companyID
		out = append(out, p)
	}
	return out, nil
}

// UpdateAccountState implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) UpdateAccountState(ctx context.Context, id uint, state domain.AccountState) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":                string(state.Status),
		"failed_login_attempts": state.FailedLoginAttempts,
	})
}

// ApplyAccountEvent implements domain.PrincipalRepository. The row is locked
// for the read so concurrent failures are counted one after another.
func (r *PrincipalRepositoryImpl) ApplyAccountEvent(ctx context.Context, id uint, ev domain.AccountEvent) (domain.Transition, error) {
	var tr domain.Transition
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row DBPrincipal
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status", "failed_login_attempts").
			Where("id = ?", id).
			First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrPrincipalNotFound
			}
			return err
		}

		cur := domain.AccountState{
			Status:              domain.AccountStatus(row.Status),
			FailedLoginAttempts: row.FailedLoginAttempts,
		}
		tr = domain.NextState(cur, ev)
		if !tr.Changed(cur) {
			return nil
		}
		return tx.Model(&DBPrincipal{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":                string(tr.State.Status),
			"failed_login_attempts": tr.State.FailedLoginAttempts,
		}).Error
	})
	if err != nil {
		return domain.Transition{}, err
	}
	return tr, nil
}

// UpdateCredential implements domain.PrincipalRepository
func (r *PrincipalRepositoryImpl) UpdateCredential(ctx context.Context, id uint, passwordHash string, state domain.AccountState) error {
	return r.update(ctx, id, map[string]interface{}{
		"password":              passwordHash,
		"status":                string(state.Status),
		"failed_login_attempts": state.FailedLoginAttempts,
	})
}

func (r *PrincipalRepositoryImpl) update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&DBPrincipal{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrPrincipalNotFound
	}
	return nil
}

func (r *PrincipalRepositoryImpl) first(ctx context.Context, query string, arg interface{}) (*domain.Principal, error) {
	var row DBPrincipal
	err := r.db.WithContext(ctx).Where(query, arg).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, err
	}

	p := r.dbToDomain(&row)
	var factory DBFactory
	err = r.db.WithContext(ctx).Select("id", "company_id").Where("id = ?", row.FactoryID).First(&factory).Error
	switch {
	case err == nil:
		p.CompanyID = factory.CompanyID
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return p, nil
}

// dbToDomain converts a database row to a domain principal. CompanyID is
// filled in by the caller from the factory.
func (r *PrincipalRepositoryImpl) dbToDomain(row *DBPrincipal) *domain.Principal {
	return &domain.Principal{
		ID:                  row.ID,
		Identity:            row.Identity,
		Name:                row.Name,
		Phone:               row.Phone,
		Email:               row.Email,
		FactoryID:           row.FactoryID,
		Role:                domain.Role(row.Role),
		Status:              domain.AccountStatus(row.Status),
		FailedLoginAttempts: row.FailedLoginAttempts,
		PasswordHash:        row.PasswordHash,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}
