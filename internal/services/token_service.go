package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/you/safetyauth/domain"
	"github.com/you/safetyauth/internal/infrastructure/auth"
)

// AccessTokenSigner signs and parses access tokens
type AccessTokenSigner interface {
	Sign(snapshot domain.IdentitySnapshot) (string, error)
	Parse(token string) (*domain.AccessClaims, error)
	ParseIgnoringExpiry(token string) (*domain.AccessClaims, error)
	AccessTTL() time.Duration
}

// TokenServiceImpl implements domain.TokenService
type TokenServiceImpl struct {
	signer     AccessTokenSigner
	tokens     domain.TokenRepository
	principals domain.PrincipalRepository
	menus      domain.MenuProjector
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a new token service
func NewTokenService(
	signer AccessTokenSigner,
	tokens domain.TokenRepository,
	principals domain.PrincipalRepository,
	menus domain.MenuProjector,
	refreshTTL time.Duration,
) *TokenServiceImpl {
	return &TokenServiceImpl{
		signer:     signer,
		tokens:     tokens,
		principals: principals,
		menus:      menus,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *TokenServiceImpl) WithClock(now func() time.Time) *TokenServiceImpl {
	s.now = now
	return s
}

// IssueAccessToken implements domain.TokenService
func (s *TokenServiceImpl) IssueAccessToken(snapshot domain.IdentitySnapshot) (string, error) {
	token, err := s.signer.Sign(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken implements domain.TokenService
func (s *TokenServiceImpl) IssueRefreshToken(ctx context.Context, principal *domain.Principal) (string, error) {
	raw, hash, err := auth.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	err = s.tokens.CreateRefreshToken(ctx, &domain.RefreshToken{
		TokenHash:   hash,
		PrincipalID: principal.ID,
		ExpiresAt:   now.Add(s.refreshTTL),
		CreatedAt:   now,
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

// IssueSession implements domain.TokenService. The access token is signed
// before the refresh token is persisted.
func (s *TokenServiceImpl) IssueSession(ctx context.Context, principal *domain.Principal) (*domain.SessionTokens, error) {
	snapshot, err := s.Snapshot(ctx, principal)
	if err != nil {
		return nil, err
	}
	access, err := s.IssueAccessToken(snapshot)
	if err != nil {
		return nil, err
	}
	refresh, err := s.IssueRefreshToken(ctx, principal)
	if err != nil {
		return nil, err
	}
	return &domain.SessionTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.signer.AccessTTL().Seconds()),
		Principal:    principal,
	}, nil
}

// Snapshot builds the live identity snapshot of a principal
func (s *TokenServiceImpl) Snapshot(ctx context.Context, principal *domain.Principal) (domain.IdentitySnapshot, error) {
	menus, err := s.menus.AccessibleMenuIDs(ctx, principal.Role)
	if err != nil {
		return domain.IdentitySnapshot{}, fmt.Errorf("failed to project menus: %w", err)
	}
	return domain.IdentitySnapshot{
		PrincipalID: principal.ID,
		Identity:    principal.Identity,
		Name:        principal.Name,
		Role:        principal.Role,
		CompanyID:   principal.CompanyID,
		FactoryID:   principal.FactoryID,
		MenuIDs:     menus,
		Status:      principal.Status,
	}, nil
}

// Validate implements domain.TokenService. A blacklisted token is rejected
// even when its signature and expiry are fine.
func (s *TokenServiceImpl) Validate(ctx context.Context, token string) (*domain.AccessClaims, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}
	revoked, err := s.tokens.IsBlacklisted(ctx, auth.HashToken(token))
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}
	return s.signer.Parse(token)
}

// ExtractClaims implements domain.TokenService. Expired tokens are accepted.
func (s *TokenServiceImpl) ExtractClaims(token string) (*domain.AccessClaims, error) {
	return s.signer.ParseIgnoringExpiry(token)
}

// Revoke implements domain.TokenService. Every refresh token of the
// principal is deleted along with blacklisting the presented token.
func (s *TokenServiceImpl) Revoke(ctx context.Context, token string) error {
	claims, err := s.signer.ParseIgnoringExpiry(token)
	if err != nil {
		return err
	}
	if err := s.tokens.RevokeSession(ctx, auth.HashToken(token), claims.PrincipalID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Renew implements domain.TokenService
func (s *TokenServiceImpl) Renew(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", domain.ErrRefreshTokenInvalid
	}
	stored, err := s.tokens.FindRefreshToken(ctx, auth.HashToken(refreshToken))
	if err != nil {
		return "", err
	}
	if stored.Expired(s.now()) {
		return "", domain.ErrRefreshTokenInvalid
	}

	principal, err := s.principals.FindByID(ctx, stored.PrincipalID)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return "", domain.ErrRefreshTokenInvalid
		}
		return "", fmt.Errorf("failed to load principal: %w", err)
	}
	if err := domain.StatusError(principal.Status); err != nil {
		return "", err
	}

	snapshot, err := s.Snapshot(ctx, principal)
	if err != nil {
		return "", err
	}
	return s.IssueAccessToken(snapshot)
}

var _ domain.TokenService = (*TokenServiceImpl)(nil)
