package mocks

import (
	"context"

	"github.com/you/safetyauth/domain"
)

// MockTwoFactorService implements domain.TwoFactorService interface for testing
type MockTwoFactorService struct {
	RequestChallengeFunc func(ctx context.Context, principal *domain.Principal) error
	VerifyFunc           func(ctx context.Context, principal *domain.Principal, code string) error
	RequestCalls         int
	VerifyCalls          int
}

// NewMockTwoFactorService creates a new MockTwoFactorService with default behaviors
func NewMockTwoFactorService() *MockTwoFactorService {
	return &MockTwoFactorService{}
}

// RequestChallenge creates and delivers a challenge
func (m *MockTwoFactorService) RequestChallenge(ctx context.Context, principal *domain.Principal) error {
	m.RequestCalls++
	if m.RequestChallengeFunc != nil {
		return m.RequestChallengeFunc(ctx, principal)
	}
	return nil
}

// Verify checks a code against the current challenge
func (m *MockTwoFactorService) Verify(ctx context.Context, principal *domain.Principal, code string) error {
	m.VerifyCalls++
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, principal, code)
	}
	return domain.ErrChallengeMismatch
}

// Compile-time interface compliance verification
var _ domain.TwoFactorService = (*MockTwoFactorService)(nil)
