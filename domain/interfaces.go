package domain

import (
	"context"
	"time"
)

// PrincipalRepository is the principal store consumed by the core
type PrincipalRepository interface {
	FindByIdentity(ctx context.Context, identity string) (*Principal, error)
	FindByID(ctx context.Context, id uint) (*Principal, error)
	FindByTenantRole(ctx context.Context, companyID uint, role Role) ([]*Principal, error)
	UpdateAccountState(ctx context.Context, id uint, state AccountState) error
	// ApplyAccountEvent runs NextState against the stored state and persists
	// the result atomically.
	ApplyAccountEvent(ctx context.Context, id uint, ev AccountEvent) (Transition, error)
	UpdateCredential(ctx context.Context, id uint, passwordHash string, state AccountState) error
}

// TokenRepository persists refresh tokens and the blacklist
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	IsBlacklisted(ctx context.Context, tokenHash string) (bool, error)
	// RevokeSession blacklists tokenHash (when not already present) and
	// deletes every refresh token of the principal in one transaction.
	RevokeSession(ctx context.Context, tokenHash string, principalID uint) error
	DeleteBlacklistedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

// ChallengeRepository persists two-factor challenges
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *TwoFactorChallenge) error
	// Latest returns the most recently created challenge of the principal,
	// verified or not.
	Latest(ctx context.Context, principalID uint) (*TwoFactorChallenge, error)
	// Current returns the most recently created unverified challenge.
	Current(ctx context.Context, principalID uint) (*TwoFactorChallenge, error)
	MarkVerified(ctx context.Context, id uint) error
	IncrementFailedAttempts(ctx context.Context, id uint) error
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CooldownStore is a shared atomic window used to rate limit challenge
// requests across instances.
type CooldownStore interface {
	// Acquire takes the window for key. When the window is already held it
	// returns false and the time left.
	Acquire(ctx context.Context, key string, window time.Duration) (bool, time.Duration, error)
	Release(ctx context.Context, key string) error
}

// TenantSettingReader reads per-company authentication settings
type TenantSettingReader interface {
	FindByCompanyID(ctx context.Context, companyID uint) (*TenantSetting, error)
}

// OwnershipResolver resolves the tenant chain of entities. Ids that do not
// exist are absent from the returned map.
type OwnershipResolver interface {
	Resolve(ctx context.Context, kind EntityKind, ids []uint) (map[uint]Ownership, error)
}

// MenuProjector lists the menu ids a role may access
type MenuProjector interface {
	AccessibleMenuIDs(ctx context.Context, role Role) ([]uint, error)
}

// PasswordService defines password operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// NotificationService defines notification operations
type NotificationService interface {
	SendSMS(to, message string) error
	SendEmail(to, subject, body string) error
}

// Notifier delivers messages out-of-band. Deliver never blocks the
// authentication flow on the outcome of the delivery.
type Notifier interface {
	Deliver(ctx context.Context, msg Notification)
}

// Notification is a message for a single principal
type Notification struct {
	Method  TwoFactorMethod
	Phone   string
	Email   string
	Subject string
	Body    string
}

// TokenService issues, validates and revokes tokens
type TokenService interface {
	IssueAccessToken(snapshot IdentitySnapshot) (string, error)
	IssueRefreshToken(ctx context.Context, principal *Principal) (string, error)
	IssueSession(ctx context.Context, principal *Principal) (*SessionTokens, error)
	Validate(ctx context.Context, token string) (*AccessClaims, error)
	ExtractClaims(token string) (*AccessClaims, error)
	Revoke(ctx context.Context, token string) error
	Renew(ctx context.Context, refreshToken string) (string, error)
}

// TwoFactorService manages two-factor challenges
type TwoFactorService interface {
	RequestChallenge(ctx context.Context, principal *Principal) error
	Verify(ctx context.Context, principal *Principal, code string) error
}

// AuthService defines the credential and session operations
type AuthService interface {
	Login(ctx context.Context, identity, password, code string) (*SessionTokens, error)
	Renew(ctx context.Context, refreshToken string) (string, error)
	RevokeSession(ctx context.Context, token string) error
	RequestTwoFactorCode(ctx context.Context, identity string) error
	ResetPassword(ctx context.Context, identity string) error
	UpdatePassword(ctx context.Context, identity, oldPassword, newPassword string) error
}

// AccessValidator restricts entity ids to the caller's tenant
type AccessValidator interface {
	Authorize(ctx context.Context, caller CallerIdentity, kind EntityKind, ids []uint) ([]uint, error)
}

// IdentityBinder turns a presented token into the caller identity
type IdentityBinder interface {
	CurrentCaller(ctx context.Context, token string) (CallerIdentity, error)
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	GetFilteredPolicy(fieldIndex int, fieldValues ...string) ([][]string, error)
	SavePolicy() error
}

// PolicyService manages role to menu grants
type PolicyService interface {
	MenuProjector
	GrantMenu(role Role, menuID uint) error
	RevokeMenu(role Role, menuID uint) error
	CheckPermission(role Role, resource, action string) (bool, error)
	GetPolicies() [][]string
}
