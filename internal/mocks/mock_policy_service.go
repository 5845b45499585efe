package mocks

import (
	"context"

	"github.com/you/safetyauth/domain"
)

// MockPolicyService implements domain.PolicyService interface for testing
type MockPolicyService struct {
	AccessibleMenuIDsFunc func(ctx context.Context, role domain.Role) ([]uint, error)
	GrantMenuFunc         func(role domain.Role, menuID uint) error
	RevokeMenuFunc        func(role domain.Role, menuID uint) error
	CheckPermissionFunc   func(role domain.Role, resource, action string) (bool, error)
	GetPoliciesFunc       func() [][]string
}

// NewMockPolicyService creates a new MockPolicyService with default behaviors
func NewMockPolicyService() *MockPolicyService {
	return &MockPolicyService{}
}

// AccessibleMenuIDs lists the menus of a role
func (m *MockPolicyService) AccessibleMenuIDs(ctx context.Context, role domain.Role) ([]uint, error) {
	if m.AccessibleMenuIDsFunc != nil {
		return m.AccessibleMenuIDsFunc(ctx, role)
	}
	return []uint{}, nil
}

// GrantMenu grants a menu to a role
func (m *MockPolicyService) GrantMenu(role domain.Role, menuID uint) error {
	if m.GrantMenuFunc != nil {
		return m.GrantMenuFunc(role, menuID)
	}
	return nil
}

// RevokeMenu revokes a menu from a role
func (m *MockPolicyService) RevokeMenu(role domain.Role, menuID uint) error {
	if m.RevokeMenuFunc != nil {
		return m.RevokeMenuFunc(role, menuID)
	}
	return nil
}

// CheckPermission checks a route permission
func (m *MockPolicyService) CheckPermission(role domain.Role, resource, action string) (bool, error) {
	if m.CheckPermissionFunc != nil {
		return m.CheckPermissionFunc(role, resource, action)
	}
	return role == domain.RoleAdmin, nil
}

// GetPolicies returns all policies
func (m *MockPolicyService) GetPolicies() [][]string {
	if m.GetPoliciesFunc != nil {
		return m.GetPoliciesFunc()
	}
	return [][]string{}
}

// Compile-time interface compliance verification
var _ domain.PolicyService = (*MockPolicyService)(nil)
