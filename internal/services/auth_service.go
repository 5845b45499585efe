package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
)

// AccountConfig holds credential policy settings
type AccountConfig struct {
	TempPasswordLength int
	MinPasswordLength  int
}

// AuthServiceImpl implements domain.AuthService. Account status changes go
// through domain.NextState; this type only performs the effects.
type AuthServiceImpl struct {
	principals  domain.PrincipalRepository
	settings    domain.TenantSettingReader
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	twoFactor   domain.TwoFactorService
	notifier    domain.Notifier
	audit       domain.AuditLogger
	config      AccountConfig
	logger      *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new auth service
func NewAuthService(
	principals domain.PrincipalRepository,
	settings domain.TenantSettingReader,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	twoFactor domain.TwoFactorService,
	notifier domain.Notifier,
	audit domain.AuditLogger,
	config AccountConfig,
	logger *zap.Logger,
) *AuthServiceImpl {
	if logger == nil {
		logger = zap.L()
	}
	return &AuthServiceImpl{
		principals:  principals,
		settings:    settings,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		twoFactor:   twoFactor,
		notifier:    notifier,
		audit:       audit,
		config:      config,
		logger:      logger.Named("auth"),
	}
}

// Login implements domain.AuthService
func (s *AuthServiceImpl) Login(ctx context.Context, identity, password, code string) (*domain.SessionTokens, error) {
	principal, err := s.principals.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			// keep the response time of unknown identities in line with real ones
			s.passwordSvc.Verify(s.unknownIdentityHash(), password)
			s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.LoginFailureEvent, 0).
				WithIdentity(identity).
				WithError(domain.ErrBadCredentials))
			return nil, domain.ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to find principal: %w", err)
	}

	if err := domain.LoginGate(principal.Status); err != nil {
		s.auditPrincipal(ctx, domain.LoginFailureEvent, principal, err)
		return nil, err
	}

	if !s.passwordSvc.Verify(principal.PasswordHash, password) {
		return nil, s.recordMismatch(ctx, principal)
	}

	setting, err := s.settings.FindByCompanyID(ctx, principal.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant setting: %w", err)
	}
	if setting.TwoFactorEnabled {
		if code == "" {
			return nil, domain.ErrTwoFactorRequired
		}
		if err := s.twoFactor.Verify(ctx, principal, code); err != nil {
			if isChallengeFailure(err) {
				s.auditPrincipal(ctx, domain.TwoFactorFailureEvent, principal, err)
				return nil, domain.ErrBadCredentials
			}
			return nil, fmt.Errorf("failed to verify two-factor code: %w", err)
		}
	}

	tr, err := s.principals.ApplyAccountEvent(ctx, principal.ID, domain.EventLoginSucceeded)
	if err != nil {
		return nil, fmt.Errorf("failed to reset login attempts: %w", err)
	}
	if tr.Err != nil {
		s.auditPrincipal(ctx, domain.LoginFailureEvent, principal, tr.Err)
		return nil, tr.Err
	}
	principal.Status = tr.State.Status
	principal.FailedLoginAttempts = tr.State.FailedLoginAttempts

	session, err := s.tokenSvc.IssueSession(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}
	s.auditPrincipal(ctx, domain.LoginEvent, principal, nil)
	return session, nil
}

// recordMismatch applies a failed password check and returns the error
// reported to the caller. The counter is advanced from the stored state, not
// from the copy loaded for this request.
func (s *AuthServiceImpl) recordMismatch(ctx context.Context, principal *domain.Principal) error {
	tr, err := s.principals.ApplyAccountEvent(ctx, principal.ID, domain.EventPasswordMismatch)
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	s.auditPrincipal(ctx, domain.LoginFailureEvent, principal, tr.Err)

	if tr.Has(domain.EffectAccountLocked) {
		s.auditPrincipal(ctx, domain.AccountLockedEvent, principal, nil)
		s.notifyLocked(ctx, principal)
	}
	return tr.Err
}

// notifyLocked tells the tenant's managers and admins about a locked account
func (s *AuthServiceImpl) notifyLocked(ctx context.Context, locked *domain.Principal) {
	for _, role := range []domain.Role{domain.RoleManager, domain.RoleAdmin} {
		recipients, err := s.principals.FindByTenantRole(ctx, locked.CompanyID, role)
		if err != nil {
			s.logger.Warn("failed to list lock notification recipients",
				zap.Uint("company_id", locked.CompanyID),
				zap.String("role", string(role)),
				zap.Error(err),
			)
			continue
		}
		for _, r := range recipients {
			if r.ID == locked.ID {
				continue
			}
			s.notifier.Deliver(ctx, domain.Notification{
				Method:  domain.TwoFactorSMS,
				Phone:   r.Phone,
				Email:   r.Email,
				Subject: "Account locked",
				Body:    fmt.Sprintf("Account %s was locked after %d failed login attempts.", locked.Identity, domain.MaxFailedLoginAttempts),
			})
		}
	}
}

// Renew implements domain.AuthService
func (s *AuthServiceImpl) Renew(ctx context.Context, refreshToken string) (string, error) {
	token, err := s.tokenSvc.Renew(ctx, refreshToken)
	if err != nil {
		return "", err
	}
	if claims, err := s.tokenSvc.ExtractClaims(token); err == nil {
		s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.TokenRenewedEvent, claims.PrincipalID).WithCaller(claims.Caller()))
	}
	return token, nil
}

// RevokeSession implements domain.AuthService
func (s *AuthServiceImpl) RevokeSession(ctx context.Context, token string) error {
	claims, err := s.tokenSvc.ExtractClaims(token)
	if err != nil {
		return err
	}
	if err := s.tokenSvc.Revoke(ctx, token); err != nil {
		return err
	}
	s.audit.LogEvent(ctx, domain.NewAuditEvent(domain.SessionRevokedEvent, claims.PrincipalID).WithCaller(claims.Caller()))
	return nil
}

// RequestTwoFactorCode implements domain.AuthService. Unknown identities,
// principals that may not log in and tenants without two-factor all get the
// same silent success.
func (s *AuthServiceImpl) RequestTwoFactorCode(ctx context.Context, identity string) error {
	principal, err := s.principals.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find principal: %w", err)
	}
	if err := domain.StatusError(principal.Status); err != nil {
		s.auditPrincipal(ctx, domain.TwoFactorRequestEvent, principal, err)
		return nil
	}

	setting, err := s.settings.FindByCompanyID(ctx, principal.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to load tenant setting: %w", err)
	}
	if !setting.TwoFactorEnabled {
		return nil
	}

	if err := s.twoFactor.RequestChallenge(ctx, principal); err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			s.auditPrincipal(ctx, domain.TwoFactorRequestEvent, principal, err)
		}
		return err
	}
	s.auditPrincipal(ctx, domain.TwoFactorRequestEvent, principal, nil)
	return nil
}

// ResetPassword implements domain.AuthService
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, identity string) error {
	principal, err := s.principals.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find principal: %w", err)
	}

	state := principalState(principal)
	tr := domain.NextState(state, domain.EventPasswordReset)
	if tr.Err != nil {
		s.auditPrincipal(ctx, domain.PasswordResetEvent, principal, tr.Err)
		return tr.Err
	}

	temporary, err := randomDigits(s.config.TempPasswordLength)
	if err != nil {
		return err
	}
	hash, err := s.passwordSvc.Hash(temporary)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.principals.UpdateCredential(ctx, principal.ID, hash, tr.State); err != nil {
		return fmt.Errorf("failed to store temporary password: %w", err)
	}

	if tr.Has(domain.EffectDeliverTemporaryCredential) {
		s.notifier.Deliver(ctx, domain.Notification{
			Method:  s.deliveryMethod(ctx, principal),
			Phone:   principal.Phone,
			Email:   principal.Email,
			Subject: "Temporary password",
			Body:    fmt.Sprintf("Your temporary password is %s. Change it after signing in.", temporary),
		})
	}
	s.auditPrincipal(ctx, domain.PasswordResetEvent, principal, nil)
	return nil
}

// UpdatePassword implements domain.AuthService
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, identity, oldPassword, newPassword string) error {
	if len(newPassword) < s.config.MinPasswordLength || newPassword == oldPassword {
		return domain.ErrWeakPassword
	}

	principal, err := s.principals.FindByIdentity(ctx, identity)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return domain.ErrBadCredentials
		}
		return fmt.Errorf("failed to find principal: %w", err)
	}

	state := principalState(principal)
	tr := domain.NextState(state, domain.EventPasswordUpdated)
	if tr.Err != nil {
		return tr.Err
	}
	if !s.passwordSvc.Verify(principal.PasswordHash, oldPassword) {
		s.auditPrincipal(ctx, domain.PasswordUpdatedEvent, principal, domain.ErrBadCredentials)
		return domain.ErrBadCredentials
	}

	hash, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.principals.UpdateCredential(ctx, principal.ID, hash, tr.State); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.auditPrincipal(ctx, domain.PasswordUpdatedEvent, principal, nil)
	return nil
}

func (s *AuthServiceImpl) deliveryMethod(ctx context.Context, principal *domain.Principal) domain.TwoFactorMethod {
	setting, err := s.settings.FindByCompanyID(ctx, principal.CompanyID)
	if err != nil || setting.TwoFactorMethod == "" {
		return domain.TwoFactorSMS
	}
	return setting.TwoFactorMethod
}

func (s *AuthServiceImpl) unknownIdentityHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.passwordSvc.Hash("unknown-identity-placeholder")
		if err != nil {
			s.logger.Warn("failed to prepare placeholder hash", zap.Error(err))
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthServiceImpl) auditPrincipal(ctx context.Context, eventType domain.AuditEventType, p *domain.Principal, err error) {
	event := domain.NewAuditEvent(eventType, p.ID).WithIdentity(p.Identity)
	event.CompanyID = p.CompanyID
	event.FactoryID = p.FactoryID
	if err != nil {
		event.WithError(err)
	}
	s.audit.LogEvent(ctx, event)
}

func principalState(p *domain.Principal) domain.AccountState {
	return domain.AccountState{Status: p.Status, FailedLoginAttempts: p.FailedLoginAttempts}
}

func isChallengeFailure(err error) bool {
	return errors.Is(err, domain.ErrChallengeNotFound) ||
		errors.Is(err, domain.ErrChallengeExpired) ||
		errors.Is(err, domain.ErrChallengeExhausted) ||
		errors.Is(err, domain.ErrChallengeMismatch)
}

var _ domain.AuthService = (*AuthServiceImpl)(nil)
