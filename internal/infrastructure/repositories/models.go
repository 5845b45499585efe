package repositories

import (
	"time"
)

// DBCompany is the read model of a tenant company
type DBCompany struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:255"`
}

func (DBCompany) TableName() string { return "companies" }

// DBFactory belongs to exactly one company
type DBFactory struct {
	ID        uint   `gorm:"primaryKey"`
	CompanyID uint   `gorm:"index;not null"`
	Name      string `gorm:"size:255"`
}

func (DBFactory) TableName() string { return "factories" }

// DBArea belongs to exactly one factory
type DBArea struct {
	ID        uint   `gorm:"primaryKey"`
	FactoryID uint   `gorm:"index;not null"`
	Name      string `gorm:"size:255"`
}

func (DBArea) TableName() string { return "areas" }

// DBPrincipal is an employee row with its credential and account state
type DBPrincipal struct {
	ID                  uint   `gorm:"primaryKey"`
	Identity            string `gorm:"uniqueIndex;size:128;not null"`
	Name                string `gorm:"size:255"`
	Phone               string `gorm:"size:32"`
	Email               string `gorm:"size:255"`
	FactoryID           uint   `gorm:"index;not null"`
	Role                string `gorm:"index;size:16;not null"`
	Status              string `gorm:"index;size:32;not null;default:ACTIVE"`
	FailedLoginAttempts int    `gorm:"not null;default:0"`
	PasswordHash        string `gorm:"column:password"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (DBPrincipal) TableName() string { return "employees" }

// DBWork is a work record attached to an area, an employee or both
type DBWork struct {
	ID         uint  `gorm:"primaryKey"`
	AreaID     *uint `gorm:"index"`
	EmployeeID *uint `gorm:"index"`
	CreatedAt  time.Time
}

func (DBWork) TableName() string { return "works" }

// DBEvent is a safety event attached to an area, an employee or both
type DBEvent struct {
	ID         uint  `gorm:"primaryKey"`
	AreaID     *uint `gorm:"index"`
	EmployeeID *uint `gorm:"index"`
	CreatedAt  time.Time
}

func (DBEvent) TableName() string { return "events" }

// DBAlarm is raised for one event
type DBAlarm struct {
	ID        uint `gorm:"primaryKey"`
	EventID   uint `gorm:"index;not null"`
	CreatedAt time.Time
}

func (DBAlarm) TableName() string { return "alarms" }

// DBTenantSetting holds the authentication settings of a company
type DBTenantSetting struct {
	ID               uint   `gorm:"primaryKey"`
	CompanyID        uint   `gorm:"uniqueIndex;not null"`
	TwoFactorEnabled bool   `gorm:"not null;default:false"`
	TwoFactorMethod  string `gorm:"size:16"`
}

func (DBTenantSetting) TableName() string { return "tenant_settings" }

// DBRefreshToken stores the SHA-256 hash of an opaque refresh token
type DBRefreshToken struct {
	TokenHash   string    `gorm:"primaryKey;size:64"`
	PrincipalID uint      `gorm:"index;not null"`
	ExpiresAt   time.Time `gorm:"index;not null"`
	CreatedAt   time.Time
}

func (DBRefreshToken) TableName() string { return "refresh_tokens" }

// DBBlacklistedToken stores the SHA-256 hash of a revoked access token
type DBBlacklistedToken struct {
	TokenHash string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"index"`
}

func (DBBlacklistedToken) TableName() string { return "token_blacklist" }

// DBTwoFactorChallenge is a single two-factor code
type DBTwoFactorChallenge struct {
	ID             uint      `gorm:"primaryKey"`
	PrincipalID    uint      `gorm:"index;not null"`
	Code           string    `gorm:"size:16;not null"`
	CreatedAt      time.Time `gorm:"index"`
	Verified       bool      `gorm:"not null;default:false"`
	FailedAttempts int       `gorm:"not null;default:0"`
}

func (DBTwoFactorChallenge) TableName() string { return "two_factor_challenges" }

// Models lists every table owned or read by the repositories, in
// migration order.
func Models() []interface{} {
	return []interface{}{
		&DBCompany{},
		&DBFactory{},
		&DBArea{},
		&DBPrincipal{},
		&DBWork{},
		&DBEvent{},
		&DBAlarm{},
		&DBTenantSetting{},
		&DBRefreshToken{},
		&DBBlacklistedToken{},
		&DBTwoFactorChallenge{},
	}
}
