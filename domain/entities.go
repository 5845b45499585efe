package domain

import (
	"strings"
	"time"
)

// Role is the authorization role of a principal
type Role string

const (
	RoleWorker  Role = "WORKER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// AccountStatus is the authentication status of a principal
type AccountStatus string

const (
	StatusActive        AccountStatus = "ACTIVE"
	StatusLocked        AccountStatus = "LOCKED"
	StatusPasswordReset AccountStatus = "PASSWORD_RESET"
	StatusInactive      AccountStatus = "INACTIVE"
	StatusSuspended     AccountStatus = "SUSPENDED"
	StatusWithdrawn     AccountStatus = "WITHDRAWN"
	StatusDeleted       AccountStatus = "DELETED"
)

// Administrative reports whether the status can only be left through an
// administrator action.
func (s AccountStatus) Administrative() bool {
	switch s {
	case StatusInactive, StatusSuspended, StatusWithdrawn, StatusDeleted:
		return true
	}
	return false
}

// Principal represents an employee that can authenticate
type Principal struct {
	ID                  uint
	Identity            string
	Name                string
	Phone               string
	Email               string
	FactoryID           uint
	CompanyID           uint
	Role                Role
	Status              AccountStatus
	FailedLoginAttempts int
	PasswordHash        string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// RefreshToken is a persisted, opaque refresh credential. Only the hash of
// the raw value is stored.
type RefreshToken struct {
	TokenHash   string
	PrincipalID uint
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Expired reports whether the token has expired at now
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// BlacklistedToken marks a token revoked before its natural expiry
type BlacklistedToken struct {
	TokenHash string
	CreatedAt time.Time
}

// TwoFactorChallenge is a single-use second factor code
type TwoFactorChallenge struct {
	ID             uint
	PrincipalID    uint
	Code           string
	CreatedAt      time.Time
	Verified       bool
	FailedAttempts int
}

// TwoFactorMethod is the delivery channel for challenge codes
type TwoFactorMethod string

const (
	TwoFactorSMS   TwoFactorMethod = "SMS"
	TwoFactorEmail TwoFactorMethod = "EMAIL"
)

// TenantSetting holds per-company authentication settings
type TenantSetting struct {
	ID               uint
	CompanyID        uint
	TwoFactorEnabled bool
	TwoFactorMethod  TwoFactorMethod
}

// IdentitySnapshot is the live view of a principal that access tokens carry
type IdentitySnapshot struct {
	PrincipalID uint
	Identity    string
	Name        string
	Role        Role
	CompanyID   uint
	FactoryID   uint
	MenuIDs     []uint
	Status      AccountStatus
}

// CallerIdentity is the authenticated caller of a request
type CallerIdentity struct {
	PrincipalID uint
	Identity    string
	Role        Role
	CompanyID   uint
	FactoryID   uint
	MenuIDs     []uint
}

// IsAdmin reports whether the caller bypasses tenant scoping
func (c CallerIdentity) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// SessionTokens is the outcome of a successful login
type SessionTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
	Principal    *Principal
}

// EntityKind names a resource type subject to tenant isolation
type EntityKind string

const (
	EntityCompany  EntityKind = "COMPANY"
	EntityFactory  EntityKind = "FACTORY"
	EntityArea     EntityKind = "AREA"
	EntityEmployee EntityKind = "EMPLOYEE"
	EntityWork     EntityKind = "WORK"
	EntityEvent    EntityKind = "EVENT"
	EntityAlarm    EntityKind = "ALARM"
	EntitySetting  EntityKind = "SETTING"
)

// EntityKinds lists every kind the access validator understands
var EntityKinds = []EntityKind{
	EntityCompany, EntityFactory, EntityArea, EntityEmployee,
	EntityWork, EntityEvent, EntityAlarm, EntitySetting,
}

// ParseEntityKind accepts the kind name in any case
func ParseEntityKind(s string) (EntityKind, bool) {
	k := EntityKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range EntityKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// CompanyScoped reports whether the kind is checked against the caller's
// company instead of the caller's factory.
func (k EntityKind) CompanyScoped() bool {
	return k == EntityCompany || k == EntitySetting
}

// Ownership is the resolved tenant chain of a single entity. Resolved is
// false when the chain is broken (for example an event with neither an
// employee nor an area).
type Ownership struct {
	FactoryID uint
	CompanyID uint
	Resolved  bool
}
