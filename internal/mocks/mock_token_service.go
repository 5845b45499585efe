package mocks

import (
	"context"

	"github.com/you/safetyauth/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueAccessTokenFunc  func(snapshot domain.IdentitySnapshot) (string, error)
	IssueRefreshTokenFunc func(ctx context.Context, principal *domain.Principal) (string, error)
	IssueSessionFunc      func(ctx context.Context, principal *domain.Principal) (*domain.SessionTokens, error)
	ValidateFunc          func(ctx context.Context, token string) (*domain.AccessClaims, error)
	ExtractClaimsFunc     func(token string) (*domain.AccessClaims, error)
	RevokeFunc            func(ctx context.Context, token string) error
	RenewFunc             func(ctx context.Context, refreshToken string) (string, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// IssueAccessToken signs an access token
func (m *MockTokenService) IssueAccessToken(snapshot domain.IdentitySnapshot) (string, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(snapshot)
	}
	return "access_token_" + snapshot.Identity, nil
}

// IssueRefreshToken persists a refresh token
func (m *MockTokenService) IssueRefreshToken(ctx context.Context, principal *domain.Principal) (string, error) {
	if m.IssueRefreshTokenFunc != nil {
		return m.IssueRefreshTokenFunc(ctx, principal)
	}
	return "refresh_token_" + principal.Identity, nil
}

// IssueSession issues both tokens
func (m *MockTokenService) IssueSession(ctx context.Context, principal *domain.Principal) (*domain.SessionTokens, error) {
	if m.IssueSessionFunc != nil {
		return m.IssueSessionFunc(ctx, principal)
	}
	return &domain.SessionTokens{
		AccessToken:  "access_token_" + principal.Identity,
		RefreshToken: "refresh_token_" + principal.Identity,
		ExpiresIn:    900,
		Principal:    principal,
	}, nil
}

// Validate validates an access token
func (m *MockTokenService) Validate(ctx context.Context, token string) (*domain.AccessClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token)
	}
	return nil, domain.ErrTokenInvalid
}

// ExtractClaims decodes a token without checking expiry
func (m *MockTokenService) ExtractClaims(token string) (*domain.AccessClaims, error) {
	if m.ExtractClaimsFunc != nil {
		return m.ExtractClaimsFunc(token)
	}
	return nil, domain.ErrTokenInvalid
}

// Revoke revokes the session of a token
func (m *MockTokenService) Revoke(ctx context.Context, token string) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, token)
	}
	return nil
}

// Renew issues an access token from a refresh token
func (m *MockTokenService) Renew(ctx context.Context, refreshToken string) (string, error) {
	if m.RenewFunc != nil {
		return m.RenewFunc(ctx, refreshToken)
	}
	return "", domain.ErrRefreshTokenInvalid
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
