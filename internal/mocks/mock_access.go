package mocks

import (
	"context"

	"github.com/you/safetyauth/domain"
)

// MockAccessValidator implements domain.AccessValidator interface for testing.
// The default allows every requested id.
type MockAccessValidator struct {
	AuthorizeFunc func(ctx context.Context, caller domain.CallerIdentity, kind domain.EntityKind, ids []uint) ([]uint, error)
}

// NewMockAccessValidator creates a new MockAccessValidator
func NewMockAccessValidator() *MockAccessValidator {
	return &MockAccessValidator{}
}

// Authorize restricts ids to the caller's tenant
func (m *MockAccessValidator) Authorize(ctx context.Context, caller domain.CallerIdentity, kind domain.EntityKind, ids []uint) ([]uint, error) {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, caller, kind, ids)
	}
	return ids, nil
}

// MockIdentityBinder implements domain.IdentityBinder from a token table
type MockIdentityBinder struct {
	CurrentCallerFunc func(ctx context.Context, token string) (domain.CallerIdentity, error)
	Callers           map[string]domain.CallerIdentity
}

// NewMockIdentityBinder creates a new MockIdentityBinder
func NewMockIdentityBinder() *MockIdentityBinder {
	return &MockIdentityBinder{Callers: make(map[string]domain.CallerIdentity)}
}

// CurrentCaller returns the caller registered for token
func (m *MockIdentityBinder) CurrentCaller(ctx context.Context, token string) (domain.CallerIdentity, error) {
	if m.CurrentCallerFunc != nil {
		return m.CurrentCallerFunc(ctx, token)
	}
	if c, ok := m.Callers[token]; ok {
		return c, nil
	}
	return domain.CallerIdentity{}, domain.ErrTokenInvalid
}

// Compile-time interface compliance verification
var (
	_ domain.AccessValidator = (*MockAccessValidator)(nil)
	_ domain.IdentityBinder  = (*MockIdentityBinder)(nil)
)
