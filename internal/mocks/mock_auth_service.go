package mocks

import (
	"context"

	"github.com/you/safetyauth/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	LoginFunc                func(ctx context.Context, identity, password, code string) (*domain.SessionTokens, error)
	RenewFunc                func(ctx context.Context, refreshToken string) (string, error)
	RevokeSessionFunc        func(ctx context.Context, token string) error
	RequestTwoFactorCodeFunc func(ctx context.Context, identity string) error
	ResetPasswordFunc        func(ctx context.Context, identity string) error
	UpdatePasswordFunc       func(ctx context.Context, identity, oldPassword, newPassword string) error
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

// Login authenticates a principal
func (m *MockAuthService) Login(ctx context.Context, identity, password, code string) (*domain.SessionTokens, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, identity, password, code)
	}
	return nil, domain.ErrBadCredentials
}

// Renew issues a fresh access token
func (m *MockAuthService) Renew(ctx context.Context, refreshToken string) (string, error) {
	if m.RenewFunc != nil {
		return m.RenewFunc(ctx, refreshToken)
	}
	return "", domain.ErrRefreshTokenInvalid
}

// RevokeSession ends every session of the token's principal
func (m *MockAuthService) RevokeSession(ctx context.Context, token string) error {
	if m.RevokeSessionFunc != nil {
		return m.RevokeSessionFunc(ctx, token)
	}
	return nil
}

// RequestTwoFactorCode sends a two-factor code
func (m *MockAuthService) RequestTwoFactorCode(ctx context.Context, identity string) error {
	if m.RequestTwoFactorCodeFunc != nil {
		return m.RequestTwoFactorCodeFunc(ctx, identity)
	}
	return nil
}

// ResetPassword issues a temporary password
func (m *MockAuthService) ResetPassword(ctx context.Context, identity string) error {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, identity)
	}
	return nil
}

// UpdatePassword replaces a password
func (m *MockAuthService) UpdatePassword(ctx context.Context, identity, oldPassword, newPassword string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, identity, oldPassword, newPassword)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
